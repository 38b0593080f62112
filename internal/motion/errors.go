package motion

import (
	"errors"
	"fmt"
)

// SideError reports a side name that matches no anchor or closest mode.
type SideError struct {
	Name string
}

func (e *SideError) Error() string {
	return fmt.Sprintf("invalid side %q: options are %s", e.Name, SideOptions)
}

// IsSideError reports whether err (or anything it wraps) is a SideError.
func IsSideError(err error) bool {
	var se *SideError
	return errors.As(err, &se)
}
