package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/draw/repository"
	"github.com/mcdev12/luckydraw/go/internal/draw/session"
	"github.com/mcdev12/luckydraw/go/internal/models"
)

func run(t *testing.T, statePath string, picker engine.Picker, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out, picker)
	root.SetArgs(append([]string{"--state", statePath}, args...))
	err := root.Execute()
	return out.String(), err
}

func readState(t *testing.T, path string) models.DrawState {
	t.Helper()
	state, err := loadState(path)
	if err != nil {
		t.Fatalf("loadState: %v", err)
	}
	return state
}

func TestFullRound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draw.json")
	last := engine.PickerFunc(func(n int) int { return n - 1 })

	out, err := run(t, path, nil, "add", "Alice, Bob", "Carol\n  Dave ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Players: 4") {
		t.Errorf("add output = %q", out)
	}

	if out, err = run(t, path, nil, "spin"); err != nil || !strings.Contains(out, "Spinning the wheel") {
		t.Fatalf("spin: %v %q", err, out)
	}

	out, err = run(t, path, last, "reveal")
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if !strings.Contains(out, "Dave") {
		t.Errorf("reveal output = %q, want Dave", out)
	}

	out, err = run(t, path, nil, "remove")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(out, "Remaining: 3") {
		t.Errorf("remove output = %q", out)
	}

	state := readState(t, path)
	if len(state.Names) != 3 || len(state.Winners) != 1 || state.Winners[0] != "Dave" {
		t.Errorf("state = %+v", state)
	}

	out, err = run(t, path, nil, "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Pool: Alice, Bob, Carol") || !strings.Contains(out, "Winners: Dave") {
		t.Errorf("show output = %q", out)
	}

	if _, err := run(t, path, nil, "reset"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	state = readState(t, path)
	if len(state.Names) != 0 || len(state.Winners) != 0 {
		t.Errorf("state after reset = %+v", state)
	}
}

func TestRevealOnEmptyPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draw.json")

	out, err := run(t, path, nil, "reveal")
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if !strings.Contains(out, "No one") {
		t.Errorf("output = %q, want No one", out)
	}
}

func TestRejectsInvalidStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draw.json")
	data, _ := json.Marshal(map[string]any{"names": []string{"Alice", "Alice"}})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := run(t, path, nil, "spin")
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(after, data) {
		t.Error("invalid state file was rewritten")
	}
}

func TestAddRequiresNames(t *testing.T) {
	if _, err := run(t, filepath.Join(t.TempDir(), "draw.json"), nil, "add"); err == nil {
		t.Fatal("add without names succeeded")
	}
}

func TestRemoteRequiresSession(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd(&out, nil)
	root.SetArgs([]string{"--server", "http://127.0.0.1:1", "spin"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "--session") {
		t.Fatalf("err = %v, want --session required", err)
	}
}

func TestRemoteSessionRound(t *testing.T) {
	app := session.NewApp(repository.NewMemoryRepository(), engine.New(), session.Config{})
	mux := http.NewServeMux()
	mux.Handle(session.NewService(app).Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	remote := func(args ...string) (string, error) {
		var out bytes.Buffer
		root := newRootCmd(&out, nil)
		root.SetArgs(append([]string{"--server", srv.URL}, args...))
		err := root.Execute()
		return out.String(), err
	}

	out, err := remote("new", "--title", "Raffle", "Alice, Bob")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !strings.Contains(out, "Players: 2") {
		t.Errorf("new output = %q", out)
	}
	line := strings.SplitN(out, "\n", 2)[0]
	id := strings.TrimPrefix(line, "Session: ")
	if id == line {
		t.Fatalf("no session id in %q", out)
	}

	out, err = remote("sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "Raffle") || !strings.Contains(out, "players=2") {
		t.Errorf("sessions output = %q", out)
	}

	if out, err = remote("--session", id, "add", "Carol"); err != nil || !strings.Contains(out, "Players: 3") {
		t.Fatalf("add: %v %q", err, out)
	}
}

func TestNewRequiresServer(t *testing.T) {
	if _, err := run(t, filepath.Join(t.TempDir(), "draw.json"), nil, "new"); err == nil || !strings.Contains(err.Error(), "--server") {
		t.Fatalf("err = %v, want --server required", err)
	}
}
