package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tunables are operator-maintained settings that change more often than the
// deployment config: the managed alliance list and optional overrides for
// the power bracket boundaries. They live in a standalone YAML file so
// operators can edit them without touching env config.
type Tunables struct {
	ManagedAlliances []string `yaml:"managed_alliances"`
	Brackets         []int64  `yaml:"brackets,omitempty"`
}

// LoadTunables reads the tunables file. A missing path or missing file is
// not an error; it returns empty tunables.
func LoadTunables(path string) (*Tunables, error) {
	if path == "" {
		return &Tunables{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Tunables{}, nil
		}
		return nil, eris.Wrapf(err, "config: read tunables %s", path)
	}

	var t Tunables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrapf(err, "config: parse tunables %s", path)
	}

	return &t, nil
}

// IsManaged reports whether tag is one of the managed alliances.
func (t *Tunables) IsManaged(tag string) bool {
	for _, a := range t.ManagedAlliances {
		if a == tag {
			return true
		}
	}
	return false
}
