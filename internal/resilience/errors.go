package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/sells-group/lead-enrich/internal/apperr"
)

// TransientError marks an error as safe to retry (429, 5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// transienter is implemented by provider errors that know whether their
// HTTP status is retryable.
type transienter interface {
	Transient() bool
}

var transientPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"transport connection broken",
}

// IsTransient reports whether err is worth retrying. Errors carrying a
// permanent apperr kind (validation, unavailable, parse) never are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindUnavailable, apperr.KindParse, apperr.KindExhausted:
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var tr transienter
	if errors.As(err, &tr) {
		return tr.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether an HTTP status code is retryable.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Classify returns "transient" or "permanent" for logging.
func Classify(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
