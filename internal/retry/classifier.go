package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Classifier decides whether an error is worth retrying.
type Classifier interface {
	IsTransient(err error) bool
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) bool

func (f ClassifierFunc) IsTransient(err error) bool { return f(err) }

// NetworkClassifier treats refused, reset and timed out connections as
// transient. It serves any backend that talks over TCP.
type NetworkClassifier struct{}

func NewNetworkClassifier() NetworkClassifier { return NetworkClassifier{} }

func (NetworkClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if isNetworkError(err) {
		return true
	}
	return hasTransientMessage(err)
}

// PostgresClassifier extends NetworkClassifier with PostgreSQL SQLSTATE codes.
type PostgresClassifier struct {
	NetworkClassifier
}

func NewPostgresClassifier() PostgresClassifier { return PostgresClassifier{} }

// Retryable SQLSTATE classes: connection exception, insufficient resources,
// operator intervention.
var transientClasses = []string{"08", "53", "57"}

var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

func (c PostgresClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if transientCodes[pgErr.Code] {
			return true
		}
		for _, class := range transientClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}
	return c.NetworkClassifier.IsTransient(err)
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{
			syscall.ECONNREFUSED,
			syscall.ECONNRESET,
			syscall.ENETUNREACH,
			syscall.EHOSTUNREACH,
		} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}
	return false
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"server selection error",
	"unexpected eof",
}

func hasTransientMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
