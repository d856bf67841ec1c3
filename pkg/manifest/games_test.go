package manifest

import (
	"testing"

	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGameTable(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    GameTable
		wantErr bool
	}{
		{
			name:    "json",
			path:    "/cfg/game_ids.json",
			content: `{"SkyrimSpecialEdition": 1704, "Fallout4": 1151}`,
			want:    GameTable{"SkyrimSpecialEdition": 1704, "Fallout4": 1151},
		},
		{
			name:    "yaml",
			path:    "/cfg/game_ids.yaml",
			content: "SkyrimSpecialEdition: 1704\nFallout4: 1151\n",
			want:    GameTable{"SkyrimSpecialEdition": 1704, "Fallout4": 1151},
		},
		{
			name:    "yml extension",
			path:    "/cfg/games.YML",
			content: "Oblivion: 101\n",
			want:    GameTable{"Oblivion": 101},
		},
		{
			name:    "malformed json",
			path:    "/cfg/game_ids.json",
			content: `{"SkyrimSpecialEdition": "x"}`,
			wantErr: true,
		},
		{
			name:    "missing file",
			path:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			path := tt.path
			if path == "" {
				path = "/cfg/missing.json"
			} else {
				require.NoError(t, afero.WriteFile(fs, path, []byte(tt.content), 0o644))
			}

			table, err := LoadGameTable(fs, path)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrGameTable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, table)

			id, ok := table.Lookup("Morrowind")
			assert.False(t, ok)
			assert.Zero(t, id)
		})
	}
}
