package records

import (
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrConnectivity means the backing store could not be reached. It is
	// fatal to the current operation and never retried here.
	ErrConnectivity = errors.New("record store unreachable")
	// ErrMalformed is returned by strict decoding when a stored record does
	// not fit its stream schema.
	ErrMalformed = errors.New("malformed record")
	// ErrValidation marks rejected user input; see ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrDenied is returned when the network policy refuses a request.
	ErrDenied = errors.New("access denied")
)

// ValidationError describes which input field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid is shorthand for building a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func connectivity(op, stream string, err error) error {
	return fmt.Errorf("%s %s: %w: %v", op, stream, ErrConnectivity, err)
}

// isReply reports whether err is an error reply from a reachable server,
// such as WRONGTYPE, rather than a dial, timeout or closed-client failure.
func isReply(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr)
}

func isWrongType(err error) bool {
	return isReply(err) && strings.HasPrefix(err.Error(), "WRONGTYPE")
}
