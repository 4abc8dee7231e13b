package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// History is the on-disk list of commands sent during play, used by the
// replay command to run the same moves against a fresh player.
type History struct {
	path string
}

func DefaultHistory() (*History, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".tyc")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &History{path: filepath.Join(dir, "history.json")}, nil
}

func NewHistory(path string) *History {
	return &History{path: path}
}

func (h *History) Path() string { return h.path }

func (h *History) Load() ([]Command, error) {
	raw, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *History) Save(commands []Command) error {
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.path, raw, 0o600)
}

func (h *History) Push(cmd Command) error {
	commands, err := h.Load()
	if err != nil {
		return err
	}
	commands = append(commands, cmd)
	return h.Save(commands)
}

func (h *History) Clear() error {
	if _, err := os.Stat(h.path); err != nil {
		return nil
	}
	return os.Remove(h.path)
}
