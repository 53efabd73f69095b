package coverage

import (
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/foliage/pkg/interp"
)

// Registry owns the stack of active coverage sessions. Each session is a list
// of hooks; new hooks go to the session on top of the stack. Hooks are also
// kept in an arena indexed by id so instrumented code can reach the exact
// instance that was registered.
//
// Sessions on one registry are sequential or nested. The mutex keeps the
// stack and arena consistent but does not make interleaved sessions useful.
type Registry struct {
	mu     sync.Mutex
	stack  [][]*Hook
	arena  map[int]*Hook
	nextID int
	temps  int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{arena: make(map[int]*Hook)}
}

// Push starts a new session.
func (reg *Registry) Push() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.stack = append(reg.stack, nil)
}

// Pop ends the innermost session and returns its hooks in registration
// order. The hooks are released from the arena.
func (reg *Registry) Pop() ([]*Hook, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if len(reg.stack) == 0 {
		return nil, ErrNoActiveSession
	}

	top := reg.stack[len(reg.stack)-1]
	reg.stack = reg.stack[:len(reg.stack)-1]

	for _, h := range top {
		delete(reg.arena, h.ID)
	}

	return top, nil
}

// Depth returns the number of active sessions.
func (reg *Registry) Depth() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.stack)
}

// Register assigns h an id and adds it to the innermost session.
func (reg *Registry) Register(h *Hook) (int, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if len(reg.stack) == 0 {
		return 0, fmt.Errorf("register %s hook: %w", h.Kind, ErrNoActiveSession)
	}

	reg.nextID++
	h.ID = reg.nextID
	reg.arena[h.ID] = h

	top := len(reg.stack) - 1
	reg.stack[top] = append(reg.stack[top], h)

	return h.ID, nil
}

// Resolve returns the Hook method of the live hook registered under id.
func (reg *Registry) Resolve(id int) (interp.HookFunc, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	h, ok := reg.arena[id]
	if !ok {
		return nil, false
	}

	return h.Hook, true
}

// tempName returns a fresh local variable name for a case operand.
func (reg *Registry) tempName() string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.temps++

	return fmt.Sprintf("%s%d", interp.TempPrefix, reg.temps)
}
