package utils

import (
	"errors"
	"fmt"
)

// XError carries a human reason plus whatever produced it.
// When Meta is an error it is exposed through Unwrap.
type XError struct {
	Reason string
	Meta   any
}

func (xe XError) Error() string {
	if xe.Meta == nil {
		return fmt.Sprintf("xerror: %v", xe.Reason)
	}
	return fmt.Sprintf("xerror: %v; meta: %v", xe.Reason, xe.Meta)
}

func (xe XError) Unwrap() error {
	if err, ok := xe.Meta.(error); ok {
		return err
	}
	return nil
}

func (xe XError) ToError() error {
	return xe
}

// IsXError reports whether err or anything it wraps is an XError.
func IsXError(err error) bool {
	var xe XError
	return errors.As(err, &xe)
}
