// Package manifest decodes Wabbajack modlist containers into the list of
// Nexus hosted archives that have to be downloaded.
package manifest

const (
	// ModlistEntryName is the name of the JSON document inside the container.
	ModlistEntryName = "modlist"

	// NexusDownloaderType is the state discriminator of archives hosted on Nexus Mods.
	NexusDownloaderType = "NexusDownloader, Wabbajack.Lib"
)

// Entry is one file to retrieve. Entries are plain values: the reader hands
// out copies and nothing mutates them afterwards.
type Entry struct {
	FileName string `json:"file_name" yaml:"file_name"`
	Size     int64  `json:"size" yaml:"size"`
	Digest   string `json:"digest" yaml:"digest"`
	GameID   int64  `json:"game_id" yaml:"game_id"`
	FileID   int64  `json:"file_id" yaml:"file_id"`

	// Informational fields, not used for identity.
	GameName string `json:"game_name,omitempty" yaml:"game_name,omitempty"`
	ModID    int64  `json:"mod_id,omitempty" yaml:"mod_id,omitempty"`
	ModName  string `json:"mod_name,omitempty" yaml:"mod_name,omitempty"`
}

// Info is the descriptive header of a modlist.
type Info struct {
	Name             string `json:"name" yaml:"name"`
	Author           string `json:"author,omitempty" yaml:"author,omitempty"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	Version          string `json:"version,omitempty" yaml:"version,omitempty"`
	WabbajackVersion string `json:"wabbajack_version,omitempty" yaml:"wabbajack_version,omitempty"`
	GameType         string `json:"game_type,omitempty" yaml:"game_type,omitempty"`
}

// Manifest is a decoded modlist restricted to Nexus hosted archives.
type Manifest struct {
	Info    Info    `json:"info" yaml:"info"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// TotalSize returns the sum of all entry sizes.
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, e := range m.Entries {
		total += e.Size
	}
	return total
}

// modlistDocument is the subset of the modlist JSON document we read.
type modlistDocument struct {
	Name             string          `json:"Name"`
	Author           string          `json:"Author"`
	Description      string          `json:"Description"`
	Version          string          `json:"Version"`
	WabbajackVersion string          `json:"WabbajackVersion"`
	GameType         string          `json:"GameType"`
	Archives         []archiveRecord `json:"Archives"`
}

type archiveRecord struct {
	Name  string      `json:"Name"`
	Size  int64       `json:"Size"`
	Hash  string      `json:"Hash"`
	State recordState `json:"State"`
}

type recordState struct {
	Type     string `json:"$type"`
	GameName string `json:"GameName"`
	FileID   int64  `json:"FileID"`
	ModID    int64  `json:"ModID"`
	Name     string `json:"Name"`
}
