// Package filestore persists records as YAML asset documents on a
// filesystem provider, one file per record location.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/internal/logging"
	"github.com/vvka-141/csvasset/internal/store"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// IndexFile is written at the provider root by RefreshIndex.
const IndexFile = "asset-index.yaml"

// Document is the on-disk form of a record.
type Document struct {
	Type   csvasset.TypeID `yaml:"type"`
	Fields map[string]any  `yaml:"fields"`
}

// IndexEntry is one line of the asset index.
type IndexEntry struct {
	Location string          `yaml:"location"`
	Type     csvasset.TypeID `yaml:"type"`
}

// Index lists every asset under the root.
type Index struct {
	Assets []IndexEntry `yaml:"assets"`
}

// Store is a csvasset.Store backed by a FileSystemProvider.
type Store struct {
	fs     filesystem.FileSystemProvider
	batch  *store.Batch
	logger csvasset.Logger
}

// New creates a file store. A nil logger discards output.
func New(provider filesystem.FileSystemProvider, logger csvasset.Logger) *Store {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Store{
		fs:     provider,
		batch:  store.NewBatch(),
		logger: logger,
	}
}

var (
	_ csvasset.Store   = (*Store)(nil)
	_ csvasset.Counter = (*Store)(nil)
)

func (s *Store) EnsureFolder(_ context.Context, folder string) error {
	if filesystem.Exists(s.fs, folder) {
		return nil
	}
	s.logger.Verbose("Creating folder %s", folder)
	if err := s.fs.MkdirAll(folder); err != nil {
		return fmt.Errorf("create folder %s: %w", folder, err)
	}
	return nil
}

func (s *Store) LoadIfExists(_ context.Context, location string) (*csvasset.Record, error) {
	if rec, ok := s.batch.Get(location); ok {
		return rec, nil
	}

	data, err := s.fs.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", location, err)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}

	rec := csvasset.NewRecord(doc.Type)
	rec.Location = location
	for k, v := range doc.Fields {
		rec.Set(k, v)
	}
	s.batch.Track(rec)
	return rec, nil
}

func (s *Store) CreateBlank(typeID csvasset.TypeID) *csvasset.Record {
	return csvasset.NewRecord(typeID)
}

func (s *Store) RegisterNew(_ context.Context, rec *csvasset.Record, location string) error {
	return s.batch.Add(rec, location)
}

func (s *Store) MarkDirty(rec *csvasset.Record) {
	s.batch.MarkDirty(rec)
}

// CommitBatch writes every pending record. Files written before a failure
// stay on disk.
func (s *Store) CommitBatch(_ context.Context) error {
	pending := s.batch.Pending()
	for _, p := range pending {
		rec := p.Record
		data, err := yaml.Marshal(Document{Type: rec.Type, Fields: rec.Fields})
		if err != nil {
			return fmt.Errorf("encode %s: %w", rec.Location, err)
		}
		if dir := path.Dir(rec.Location); dir != "." {
			if err := s.fs.MkdirAll(dir); err != nil {
				return fmt.Errorf("create folder %s: %w", dir, err)
			}
		}
		if err := s.fs.WriteFile(rec.Location, data); err != nil {
			return fmt.Errorf("write %s: %w", rec.Location, err)
		}
		s.batch.Committed(rec)
	}
	s.logger.Verbose("Wrote %d asset file(s)", len(pending))
	return nil
}

// RefreshIndex rewrites the asset index from the files currently on disk.
func (s *Store) RefreshIndex(_ context.Context) error {
	dir, err := s.fs.Open(".")
	if err != nil {
		return fmt.Errorf("open root: %w", err)
	}

	var index Index
	err = dir.Walk(func(f filesystem.File, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if f.Info().IsDir() || !strings.HasSuffix(f.RelativePath(), csvasset.RecordExtension) {
			return nil
		}
		data, err := f.ReadContent()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.RelativePath(), err)
		}
		doc, err := decode(data)
		if err != nil {
			s.logger.Warn("Skipping unreadable asset %s: %v", f.RelativePath(), err)
			return nil
		}
		index.Assets = append(index.Assets, IndexEntry{Location: f.RelativePath(), Type: doc.Type})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan assets: %w", err)
	}

	sort.Slice(index.Assets, func(i, j int) bool {
		return index.Assets[i].Location < index.Assets[j].Location
	})

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := s.fs.WriteFile(IndexFile, data); err != nil {
		return fmt.Errorf("write %s: %w", IndexFile, err)
	}
	s.logger.Verbose("Indexed %d asset(s)", len(index.Assets))
	return nil
}

func (s *Store) Close() error { return nil }

// ReadIndex loads the index written by RefreshIndex.
func ReadIndex(provider filesystem.FileSystemProvider) (*Index, error) {
	data, err := provider.ReadFile(IndexFile)
	if err != nil {
		return nil, err
	}
	var index Index
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse %s: %w", IndexFile, err)
	}
	return &index, nil
}

func decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Type == "" {
		return nil, errors.New("missing type")
	}
	return &doc, nil
}

// Count reads the asset index and returns the number of assets of typeID,
// or of all types when typeID is empty. An absent index counts as empty.
func (s *Store) Count(_ context.Context, typeID csvasset.TypeID) (int, error) {
	index, err := ReadIndex(s.fs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("count: %w", err)
	}
	n := 0
	for _, a := range index.Assets {
		if typeID == "" || a.Type == typeID {
			n++
		}
	}
	return n, nil
}
