package engine

import "math/rand/v2"

// Picker draws an index in [0, n). n is always positive.
type Picker interface {
	IntN(n int) int
}

// RandomPicker uses the runtime's ChaCha8 source. Every call is a fresh draw.
type RandomPicker struct{}

// IntN implements Picker
func (RandomPicker) IntN(n int) int {
	return rand.IntN(n)
}

// PickerFunc adapts a function to a Picker.
type PickerFunc func(n int) int

// IntN implements Picker
func (f PickerFunc) IntN(n int) int {
	return f(n)
}
