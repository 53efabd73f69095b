package interp

import (
	"errors"
	"fmt"
)

// Sentinel errors for compile and execution.
var (
	// ErrCompile is returned when a tree contains a node the runtime cannot execute.
	ErrCompile = errors.New("cannot compile node")
	// ErrUnknownHook is returned when a hook id cannot be resolved at run time.
	ErrUnknownHook = errors.New("unknown hook")
)

// RuntimeError is a fault raised by the executing program.
type RuntimeError struct {
	Class string
	Msg   string
	File  string
	Line  uint

	// Suggestion is a known name close to the one that was not found.
	Suggestion string
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s:%d: %s (%s)", e.File, e.Line, e.Msg, e.Class)
	if e.Suggestion != "" {
		msg += "\nDid you mean?  " + e.Suggestion
	}

	return msg
}

// Control flow signals. They travel through the error channel and are
// consumed by the construct they target.
type breakSignal struct{ value Value }

func (breakSignal) Error() string { return "break outside of loop or block" }

type nextSignal struct{ value Value }

func (nextSignal) Error() string { return "next outside of loop or block" }

type returnSignal struct{ value Value }

func (returnSignal) Error() string { return "return" }
