package ttl

import (
	"errors"
	"math"
	"time"
)

// MaxTTL is the largest TTL, in seconds, that still fits a time.Duration.
const MaxTTL = math.MaxInt64 / int64(time.Second)

// ErrInvalidTTL matches every TTL validation failure via errors.Is.
var ErrInvalidTTL = errors.New("invalid ttl")

var (
	ErrTTLNotInteger  error = &validationError{"ttl must be an integer"}
	ErrTTLNotPositive error = &validationError{"ttl must be greater than 0"}
	ErrTTLOutOfRange  error = &validationError{"ttl is too large"}
)

// errNoMetadata marks an item without ttlData. It never leaves the package.
var errNoMetadata = errors.New("ttl: no metadata")

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrInvalidTTL }

// ValidationErrorFor maps a validation message back to its sentinel, so
// errors that crossed a process boundary still match with errors.Is.
func ValidationErrorFor(msg string) (error, bool) {
	for _, err := range []error{ErrTTLNotInteger, ErrTTLNotPositive, ErrTTLOutOfRange} {
		if err.Error() == msg {
			return err, true
		}
	}
	return nil, false
}

// AsValidationError returns the validation sentinel err wraps, if any.
func AsValidationError(err error) (error, bool) {
	var v *validationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
