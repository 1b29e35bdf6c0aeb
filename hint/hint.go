// Package hint attaches human-readable hints to errors so they can be
// rendered once at the outermost boundary of the program.
package hint

import "errors"

// Error wraps an error with an ordered list of hints for the user.
type Error struct {
	Err   error
	Hints []string
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches h to err. If err already carries hints the new one is
// appended after them. A nil err stays nil.
func Wrap(err error, h string) error {
	if err == nil {
		return nil
	}
	var he *Error
	if errors.As(err, &he) {
		he.Hints = append(he.Hints, h)
		return err
	}
	return &Error{Err: err, Hints: []string{h}}
}

// List returns every hint found on the error chain, outermost first.
func List(err error) []string {
	var hints []string
	for err != nil {
		if he, ok := err.(*Error); ok {
			hints = append(hints, he.Hints...)
		}
		err = errors.Unwrap(err)
	}
	return hints
}
