// Package coverage instruments Ruby syntax trees with branch hooks, runs the
// instrumented program and reports the branch outcomes that were never taken.
package coverage

import "errors"

var (
	// ErrNotImplemented is returned by a hook that has no kind.
	ErrNotImplemented = errors.New("hook kind not implemented")
	// ErrNoActiveSession is returned when a hook is registered or a session is
	// popped with no session on the stack.
	ErrNoActiveSession = errors.New("no active coverage session")
	// ErrUnsupportedCase is returned for a case statement without an operand.
	ErrUnsupportedCase = errors.New("case statement without operand")
	// ErrRender is returned when an instrumented tree cannot be compiled.
	ErrRender = errors.New("instrumented tree cannot be rendered")
	// ErrExecution wraps faults raised while running instrumented code.
	ErrExecution = errors.New("execution failed")
)
