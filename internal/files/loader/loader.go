package loader

import (
	"errors"
	"strings"

	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Row is an ordered sequence of cells, position-correlated with the header.
type Row []string

// Header maps column index to field name.
type Header []string

// Index returns the first column whose text equals name, or -1.
func (h Header) Index(name string) int {
	for i, cell := range h {
		if cell == name {
			return i
		}
	}
	return -1
}

// Load reads path from provider and returns its non-blank lines split into cells.
func Load(provider filesystem.FileSystemProvider, path string) ([]Row, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &csvasset.LoadError{Err: errors.New("file path is empty")}
	}

	content, err := provider.ReadFile(path)
	if err != nil {
		return nil, &csvasset.LoadError{Path: path, Err: err}
	}

	return Parse(string(content)), nil
}

// byteOrderMark is written by spreadsheet exports at the start of UTF-8 files.
const byteOrderMark = "\ufeff"

// Parse splits content into rows. CRLF line endings and a leading UTF-8
// byte order mark are accepted.
func Parse(content string) []Row {
	content = strings.TrimPrefix(content, byteOrderMark)
	var rows []Row
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, csvasset.Delimiter))
	}
	return rows
}

// SplitHeader separates the first row from the data rows.
func SplitHeader(rows []Row) (Header, []Row, error) {
	if len(rows) == 0 {
		return nil, nil, &csvasset.LoadError{Err: errors.New("no header row")}
	}
	return Header(rows[0]), rows[1:], nil
}

// LoadTable loads path and splits off its header row. A file without any
// non-blank line is a LoadError carrying path.
func LoadTable(provider filesystem.FileSystemProvider, path string) (Header, []Row, error) {
	rows, err := Load(provider, path)
	if err != nil {
		return nil, nil, err
	}

	header, data, err := SplitHeader(rows)
	if err != nil {
		var loadErr *csvasset.LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, nil, err
	}
	return header, data, nil
}
