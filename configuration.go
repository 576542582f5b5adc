package secboard

import (
	"os"
	"path"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL points at a local development backend.
const DefaultBaseURL = "http://localhost:8000/api"

// Settings configures the client. Values resolve in order: flag/file
// value, environment, default.
type Settings struct {
	// Backend base URL, including the /api prefix
	BaseURL string `yaml:"base_url"`
	// Where the snapshot database lives
	// Default: "$XDG_STATE_HOME/secboard" or "$HOME/.local/state/secboard" if unset
	StateDir string `yaml:"state_dir"`
	// Disable the snapshot store entirely
	NoStore bool `yaml:"no_store"`
}

func (s *Settings) SnapshotDB() string {
	return path.Join(s.StateDir, "snapshots.db")
}

func (s *Settings) init() error {
	if s.NoStore {
		return nil
	}
	if err := os.MkdirAll(s.StateDir, 0700); err != nil {
		return errors.Wrapf(err, "failed to create state dir: %s", s.StateDir)
	}
	return nil
}

func bind(val, env, def string) string {
	if val != "" {
		return val
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// LoadSettings resolves the configuration from an optional YAML file,
// the environment and built-in defaults, then prepares the state dir.
func LoadSettings(fpath string, s *Settings) error {
	if fpath != "" {
		b, err := os.ReadFile(fpath)
		if err != nil {
			return errors.Wrap(err, "failed to read configuration")
		}
		if err := yaml.Unmarshal(b, s); err != nil {
			return errors.Wrap(err, "failed to parse configuration")
		}
	}

	s.BaseURL = bind(s.BaseURL, "SECBOARD_API_URL", DefaultBaseURL)

	stateHome := bind("", "XDG_STATE_HOME", path.Join(os.Getenv("HOME"), ".local", "state"))
	s.StateDir = bind(s.StateDir, "SECBOARD_STATE_DIR", path.Join(stateHome, "secboard"))

	return s.init()
}

// Dial builds the full stack described by the settings: transport,
// client, and a hub warmed from the snapshot store.
func Dial(s *Settings) (*Hub, error) {
	client := NewClient(NewTransport(s.BaseURL))

	var opts []HubOption
	if !s.NoStore {
		store, err := OpenSnapshotStore(s.SnapshotDB())
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSnapshotStore(store))
	}

	hub := NewHub(client, opts...)
	hub.Warm()
	return hub, nil
}
