package roads

import (
	"errors"

	"github.com/rotisserie/eris"
)

var (
	// ErrNoRoad means the map service answered but no road lies within the
	// search radius.
	ErrNoRoad = eris.New("roads: no road within search radius")

	// ErrServiceUnavailable matches every UnavailableError.
	ErrServiceUnavailable = eris.New("roads: map service unavailable")
)

// UnavailableError reports a failed map service call. It matches
// ErrServiceUnavailable with errors.Is and unwraps to the transport error.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return "roads: map service unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrServiceUnavailable) true.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// IsUnavailable reports whether err is a map service failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
