package manifest

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// GameTable maps Wabbajack game names to Nexus Mods numeric game ids.
type GameTable map[string]int64

// Lookup returns the id of the named game.
func (t GameTable) Lookup(name string) (int64, bool) {
	id, ok := t[name]
	return id, ok
}

// LoadGameTable reads a game id table from a JSON or YAML document.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadGameTable(fs afero.Fs, path string) (GameTable, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrGameTable, "%s: %v", path, err)
	}
	return ParseGameTable(data, isYAML(path))
}

// ParseGameTable decodes a game id table.
func ParseGameTable(data []byte, asYAML bool) (GameTable, error) {
	table := GameTable{}
	var err error
	if asYAML {
		err = yaml.Unmarshal(data, &table)
	} else {
		err = json.Unmarshal(data, &table)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrGameTable, "decode: %v", err)
	}
	return table, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
