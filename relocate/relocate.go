// Package relocate moves audio files between a protected location and a
// scratch directory.
//
// Every operation reports a Status string. A status beginning with "ERROR"
// is a failure; anything else is the (possibly empty) output of the
// operation.
package relocate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrRelocation is returned by Status.Err for failed operations.
var ErrRelocation = errors.New("relocation failed")

const failurePrefix = "ERROR"

// Status is the textual outcome of a relocation.
type Status string

// Failed reports whether s describes a failure.
func (s Status) Failed() bool {
	return strings.HasPrefix(string(s), failurePrefix)
}

// Err converts a failed status into an error wrapping ErrRelocation.
func (s Status) Err() error {
	if !s.Failed() {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrRelocation, strings.TrimSpace(string(s)))
}

// Failure formats a failed status.
func Failure(format string, args ...any) Status {
	return Status(failurePrefix + ": " + fmt.Sprintf(format, args...))
}

// Relocator copies a protected file into scratch space and moves a
// processed file back over it. Both leave dst world read/writable.
type Relocator interface {
	CopyIn(ctx context.Context, src, dst string) Status
	MoveOut(ctx context.Context, src, dst string) Status
}
