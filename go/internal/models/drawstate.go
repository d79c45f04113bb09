package models

import (
	"encoding/json"
	"slices"
)

// Action identifies a transition requested by the caller.
type Action string

const (
	ActionAdd    Action = "add"
	ActionReset  Action = "reset"
	ActionSpin   Action = "spin"
	ActionReveal Action = "reveal"
	ActionRemove Action = "remove"
	ActionHome   Action = "home"
)

// DrawEvent is one incoming action plus its optional free-text input.
type DrawEvent struct {
	Action    Action `json:"action"`
	InputText string `json:"inputText,omitempty"`
}

// DrawState is the whole state of a lucky draw.
type DrawState struct {
	Names         []string `json:"names"`
	Winners       []string `json:"winners"`
	Spinning      bool     `json:"spinning"`
	CurrentWinner *string  `json:"currentWinner,omitempty"`
}

// Clone returns a deep copy so callers never share backing arrays.
func (s DrawState) Clone() DrawState {
	out := DrawState{
		Names:    make([]string, len(s.Names)),
		Winners:  make([]string, len(s.Winners)),
		Spinning: s.Spinning,
	}
	copy(out.Names, s.Names)
	copy(out.Winners, s.Winners)
	if s.CurrentWinner != nil {
		w := *s.CurrentWinner
		out.CurrentWinner = &w
	}
	return out
}

// Equal reports whether two states hold the same values.
func (s DrawState) Equal(o DrawState) bool {
	if s.Spinning != o.Spinning {
		return false
	}
	if (s.CurrentWinner == nil) != (o.CurrentWinner == nil) {
		return false
	}
	if s.CurrentWinner != nil && *s.CurrentWinner != *o.CurrentWinner {
		return false
	}
	return slices.Equal(s.Names, o.Names) && slices.Equal(s.Winners, o.Winners)
}

// HasName reports whether name is currently in the pool.
func (s DrawState) HasName(name string) bool {
	return slices.Contains(s.Names, name)
}

// UnmarshalJSON decodes a state, treating null lists as empty.
func (s *DrawState) UnmarshalJSON(data []byte) error {
	type plain DrawState
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Names == nil {
		p.Names = []string{}
	}
	if p.Winners == nil {
		p.Winners = []string{}
	}
	*s = DrawState(p)
	return nil
}

// MarshalJSON always emits lists, never null.
func (s DrawState) MarshalJSON() ([]byte, error) {
	type plain DrawState
	p := plain(s)
	if p.Names == nil {
		p.Names = []string{}
	}
	if p.Winners == nil {
		p.Winners = []string{}
	}
	return json.Marshal(p)
}
