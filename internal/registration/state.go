package registration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const stateFile = "registration.json"

// State is the persisted record of an active registration, kept in the
// data dir so unregister works across restarts.
type State struct {
	WebhookID    string    `json:"webhook_id"`
	WebhookURL   string    `json:"webhook_url"`
	Events       []string  `json:"events"`
	RegisteredAt time.Time `json:"registered_at"`
}

func StatePath(dataDir string) string {
	return filepath.Join(dataDir, stateFile)
}

// LoadState reads the saved registration. ok is false when none exists.
func LoadState(dataDir string) (State, bool) {
	b, err := os.ReadFile(StatePath(dataDir))
	if err != nil {
		return State{}, false
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil || st.WebhookID == "" {
		return State{}, false
	}
	return st, true
}

func SaveState(dataDir string, st State) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	path := StatePath(dataDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ClearState(dataDir string) error {
	err := os.Remove(StatePath(dataDir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
