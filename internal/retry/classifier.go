package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes and codes worth retrying.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
var (
	transientClasses = []string{
		"08", // connection exception
		"53", // insufficient resources
		"57", // operator intervention
	}
	transientCodes = map[string]struct{}{
		"40001": {}, // serialization_failure
		"40P01": {}, // deadlock_detected
		"55P03": {}, // lock_not_available
	}
	transientMessages = []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"server closed the connection",
		"unexpected eof",
		"too many connections",
	}
)

// Classifier recognises transient PostgreSQL and network failures. Anything
// else, integrity and syntax errors included, is treated as fatal.
type Classifier struct{}

var _ mosaic.ErrorClassifier = Classifier{}

func NewClassifier() Classifier {
	return Classifier{}
}

func (Classifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLState(pgErr.Code)
	}

	if pgconn.SafeToRetry(err) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
		if errors.Is(err, errno) {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func transientSQLState(code string) bool {
	if _, ok := transientCodes[code]; ok {
		return true
	}
	for _, class := range transientClasses {
		if strings.HasPrefix(code, class) {
			return true
		}
	}
	return false
}

// InsertClassifier decides whether a failed INSERT may be sent again. Only
// errors proving the statement never took effect qualify: the request never
// reached the server, or the server rolled it back. A dropped connection
// after the request was sent may hide a committed row.
type InsertClassifier struct{}

var _ mosaic.ErrorClassifier = InsertClassifier{}

func NewInsertClassifier() InsertClassifier {
	return InsertClassifier{}
}

func (InsertClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return rolledBackSQLState(pgErr.Code)
	}
	return pgconn.SafeToRetry(err)
}

func rolledBackSQLState(code string) bool {
	if _, ok := transientCodes[code]; ok {
		return true
	}
	return strings.HasPrefix(code, "53")
}
