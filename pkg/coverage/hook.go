package coverage

import (
	"fmt"

	"github.com/Sumatoshi-tech/foliage/pkg/interp"
	"github.com/Sumatoshi-tech/foliage/pkg/node"
	"github.com/Sumatoshi-tech/foliage/pkg/render"
)

// Kind is the branch kind a hook tracks.
type Kind int

// Hook kinds.
const (
	KindUnknown Kind = iota
	KindCondition
	KindCase
	KindCaseElse
)

func (k Kind) String() string {
	switch k {
	case KindCondition:
		return "condition"
	case KindCase:
		return "case"
	case KindCaseElse:
		return "case-else"
	default:
		return "unknown"
	}
}

type outcome uint8

const (
	seenTrue outcome = 1 << iota
	seenFalse
)

// Hook tracks the outcomes of one branch point.
//
// For a condition both truth values must be seen. A case hook must see its
// test match once. A case-else hook must be reached once.
type Hook struct {
	ID   int
	Kind Kind

	ref      *node.Node
	seen     outcome
	expr     string
	rendered bool
}

// NewConditionHook creates a hook over the condition snapshot ref.
func NewConditionHook(ref *node.Node) *Hook {
	return &Hook{Kind: KindCondition, ref: ref}
}

// NewCaseHook creates a hook over a when candidate snapshot.
func NewCaseHook(ref *node.Node) *Hook {
	return &Hook{Kind: KindCase, ref: ref}
}

// NewCaseElseHook creates a hook over the no-match branch of a case.
func NewCaseElseHook(ref *node.Node) *Hook {
	return &Hook{Kind: KindCaseElse, ref: ref}
}

// Hook records value and returns it unchanged.
func (h *Hook) Hook(value interp.Value) (interp.Value, error) {
	switch h.Kind {
	case KindCondition:
		if value.Truthy() {
			h.seen |= seenTrue
		} else {
			h.seen |= seenFalse
		}
	case KindCase:
		if value.Truthy() {
			h.seen |= seenTrue
		}
	case KindCaseElse:
		h.seen |= seenTrue
	default:
		return value, fmt.Errorf("%w: hook %d", ErrNotImplemented, h.ID)
	}

	return value, nil
}

// Expr returns the Ruby source of the branch point as it was before
// instrumentation.
func (h *Hook) Expr() string {
	if !h.rendered {
		h.expr = render.Source(h.ref)
		h.rendered = true
	}

	return h.expr
}

// Position returns the file tag and line of the branch point.
func (h *Hook) Position() (string, uint) {
	return h.ref.File(), h.ref.Line()
}

// Ref returns the snapshot of the branch point.
func (h *Hook) Ref() *node.Node {
	return h.ref
}

// Outcomes returns how many of the tracked outcomes were observed and how
// many there are.
func (h *Hook) Outcomes() (int, int) {
	switch h.Kind {
	case KindCondition:
		seen := 0
		if h.seen&seenTrue != 0 {
			seen++
		}

		if h.seen&seenFalse != 0 {
			seen++
		}

		return seen, 2
	case KindCase, KindCaseElse:
		if h.seen&seenTrue != 0 {
			return 1, 1
		}

		return 0, 1
	default:
		return 0, 0
	}
}

// Covered reports whether every outcome of the branch point was observed.
func (h *Hook) Covered() bool {
	seen, total := h.Outcomes()

	return seen == total
}

// Diagnostics returns one entry per outcome that was never observed.
func (h *Hook) Diagnostics() []Diagnostic {
	file, line := h.Position()

	diag := func(missing, message string) Diagnostic {
		return Diagnostic{
			File:    file,
			Line:    line,
			Kind:    h.Kind.String(),
			Expr:    h.Expr(),
			Missing: missing,
			Message: fmt.Sprintf("%s:%d: %s", file, line, message),
		}
	}

	var out []Diagnostic

	switch h.Kind {
	case KindCondition:
		if h.seen&seenTrue == 0 {
			out = append(out, diag("true", fmt.Sprintf("Branch condition %s was never true.", h.Expr())))
		}

		if h.seen&seenFalse == 0 {
			out = append(out, diag("false", fmt.Sprintf("Branch condition %s was never false.", h.Expr())))
		}
	case KindCase:
		if h.seen&seenTrue == 0 {
			out = append(out, diag("match", fmt.Sprintf("case operand never matched %s.", h.Expr())))
		}
	case KindCaseElse:
		if h.seen&seenTrue == 0 {
			out = append(out, diag("no match", "case operand never matched nothing."))
		}
	}

	return out
}

// Report returns the diagnostic strings of the hook. An empty result means
// the branch point is fully covered.
func (h *Hook) Report() []string {
	diags := h.Diagnostics()
	lines := make([]string, 0, len(diags))

	for _, d := range diags {
		lines = append(lines, d.Message)
	}

	return lines
}
