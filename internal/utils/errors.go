package utils

import (
	"fmt"
	"path"
	"runtime"
)

// RaisedErr is the error type this module's packages use for the errors
// they raise themselves. Each package may define a private flag error type and a set of
// constant errors having such type; those flags can be assigned to a
// returned RaisedErr to simplify error checking using errors.Is.
type RaisedErr struct {
	// Flag allows grouping related errors.
	Flag error

	// Cause is the error that caused the RaisedErr.
	Cause error

	// Msg describes what happened.
	Msg string

	// Filename is the source file that contains the code that emitted the error.
	Filename string

	// Line is the location in Filename of the code that emitted the error.
	Line int
}

// Error implements the error interface.
func (self RaisedErr) Error() string {
	if nil == self.Cause {
		return fmt.Sprintf("%s: %s\n  file: %s line: %d", path.Dir(self.Filename), self.Msg, self.Filename, self.Line)
	}
	return fmt.Sprintf("%s: %s\n  file: %s line: %d\n%v", path.Dir(self.Filename), self.Msg, self.Filename, self.Line, self.Cause)
}

// Unwrap returns the errors that caused the RaisedErr.
func (self RaisedErr) Unwrap() []error {
	rv := make([]error, 0, 2)
	if nil != self.Flag {
		rv = append(rv, self.Flag)
	}
	if nil != self.Cause {
		rv = append(rv, self.Cause)
	}
	return rv
}

// NewError returns a RaisedErr that records the file & line of its caller.
//
// skip allows controlling Caller frame resolution: pass 0 when calling
// NewError directly, pass 1 when calling it from an intermediary newError
// function.
func NewError(skip int, flag error, msg string, args ...any) error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	err := RaisedErr{Flag: flag, Msg: msg}
	addCallerFileLine(skip, &err)
	return err
}

// WrapError returns a RaisedErr that records the file & line of its caller.
// It returns nil if cause is nil.
func WrapError(cause error, skip int, flag error, msg string, args ...any) error {
	if nil == cause {
		return nil
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	err := RaisedErr{Flag: flag, Cause: cause, Msg: msg}
	addCallerFileLine(skip, &err)
	return err
}

func addCallerFileLine(skip int, err *RaisedErr) {
	_, filename, line, ok := runtime.Caller(2 + skip)
	dirname, filename := path.Split(filename)
	if ok {
		err.Filename = path.Join(path.Base(dirname), filename)
		err.Line = line
	}
}
