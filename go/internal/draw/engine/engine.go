// Package engine holds the lucky draw state machine. Every transition takes a
// state by value and returns a new one; the input's slices are never written.
package engine

import (
	"github.com/mcdev12/luckydraw/go/internal/models"
)

// Engine applies draw events. The only state it carries is its random source.
type Engine struct {
	picker Picker
}

// Option configures an Engine.
type Option func(*Engine)

// WithPicker replaces the random source, e.g. with a deterministic one in tests.
func WithPicker(p Picker) Option {
	return func(e *Engine) {
		e.picker = p
	}
}

// New creates an Engine backed by RandomPicker unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{picker: RandomPicker{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one applied event.
type Result struct {
	State models.DrawState
	// Selected is the name drawn by a reveal; nil when the pool was empty or
	// the action was not a reveal.
	Selected *string
	// Changed reports whether the action did anything. A reveal always counts.
	Changed bool
}

// Apply dispatches ev to its transition. Unknown actions leave the state as is.
func (e *Engine) Apply(state models.DrawState, ev models.DrawEvent) Result {
	var next models.DrawState
	var selected *string

	switch ev.Action {
	case models.ActionAdd:
		next = Add(state, ev.InputText)
	case models.ActionReset:
		next = Reset(state)
	case models.ActionSpin:
		next = Spin(state)
	case models.ActionReveal:
		next, selected = e.Reveal(state)
		return Result{State: next, Selected: selected, Changed: true}
	case models.ActionRemove:
		next = Remove(state)
	default:
		next = state.Clone()
	}

	return Result{State: next, Changed: !next.Equal(state)}
}

// Add merges the names found in input into the pool. Existing entries keep
// their place and new ones follow in input order. Duplicates are dropped, as
// are names that already won, so the pool and the winners stay disjoint.
func Add(state models.DrawState, input string) models.DrawState {
	next := state.Clone()

	seen := make(map[string]struct{}, len(next.Names)+len(next.Winners))
	for _, n := range next.Names {
		seen[n] = struct{}{}
	}
	for _, w := range next.Winners {
		seen[w] = struct{}{}
	}
	for _, name := range SplitNames(input) {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		next.Names = append(next.Names, name)
	}
	return next
}

// Reset returns a fresh state: empty pool, no winners, not spinning and no
// staged winner.
func Reset(models.DrawState) models.DrawState {
	return models.DrawState{
		Names:   []string{},
		Winners: []string{},
	}
}

// Spin marks the current round as spinning. No selection happens here.
func Spin(state models.DrawState) models.DrawState {
	next := state.Clone()
	next.Spinning = true
	return next
}

// Reveal draws one name uniformly from the pool and stages it as the current
// winner. The pool itself is left untouched. An empty pool yields nil.
func (e *Engine) Reveal(state models.DrawState) (models.DrawState, *string) {
	next := state.Clone()
	next.CurrentWinner = nil

	if len(next.Names) == 0 {
		return next, nil
	}

	idx := e.picker.IntN(len(next.Names))
	if idx < 0 || idx >= len(next.Names) {
		idx = 0
	}
	winner := next.Names[idx]
	next.CurrentWinner = &winner

	selected := winner
	return next, &selected
}

// Remove moves the staged winner from the pool to the end of the winners
// list. It is a no-op without a staged winner, or when the staged winner has
// already left the pool. The staged winner stays set afterwards.
func Remove(state models.DrawState) models.DrawState {
	next := state.Clone()
	if next.CurrentWinner == nil {
		return next
	}

	winner := *next.CurrentWinner
	if !next.HasName(winner) {
		return next
	}

	remaining := next.Names[:0]
	for _, n := range next.Names {
		if n != winner {
			remaining = append(remaining, n)
		}
	}
	next.Names = remaining
	next.Winners = append(next.Winners, winner)
	return next
}
