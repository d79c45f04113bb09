package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/models"
)

// loadState reads a draw state from path. A missing file is a fresh draw.
func loadState(path string) (models.DrawState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.DrawState{Names: []string{}, Winners: []string{}}, nil
	}
	if err != nil {
		return models.DrawState{}, fmt.Errorf("read state: %w", err)
	}

	var state models.DrawState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.DrawState{}, fmt.Errorf("%w: %s: %v", models.ErrInvalidState, path, err)
	}
	if err := engine.ValidateState(state); err != nil {
		return models.DrawState{}, fmt.Errorf("%s: %w", path, err)
	}
	return state, nil
}

// saveState replaces path with state. The write goes to a temp file in the
// same directory first so a crash never leaves a half-written state.
func saveState(path string, state models.DrawState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".drawctl-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
