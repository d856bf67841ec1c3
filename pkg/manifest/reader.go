package manifest

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/mholt/archives"
	"github.com/spf13/afero"
)

// Reader decodes manifest containers.
type Reader struct {
	FS    afero.Fs
	Games GameTable
}

// NewReader creates a Reader resolving game names through games.
func NewReader(fsys afero.Fs, games GameTable) *Reader {
	return &Reader{FS: fsys, Games: games}
}

// ReadEntries returns the Nexus hosted entries of the manifest at path in container order.
func (r *Reader) ReadEntries(ctx context.Context, path string) ([]Entry, error) {
	m, err := r.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return m.Entries, nil
}

// Read decodes the manifest at path.
// Records of any other downloader kind are dropped. A Nexus record whose game
// is missing from the game table aborts the whole read with an UnknownGameError.
func (r *Reader) Read(ctx context.Context, path string) (*Manifest, error) {
	data, err := r.readModlist(ctx, path)
	if err != nil {
		return nil, err
	}

	var doc modlistDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewManifestFormatError(path, "decoding "+ModlistEntryName, err)
	}

	entries, err := r.project(doc.Archives)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Info: Info{
			Name:             doc.Name,
			Author:           doc.Author,
			Description:      doc.Description,
			Version:          doc.Version,
			WabbajackVersion: doc.WabbajackVersion,
			GameType:         doc.GameType,
		},
		Entries: entries,
	}, nil
}

func (r *Reader) project(records []archiveRecord) ([]Entry, error) {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		if rec.State.Type != NexusDownloaderType {
			continue
		}

		gameID, ok := r.Games.Lookup(rec.State.GameName)
		if !ok {
			return nil, errors.NewUnknownGameError(rec.State.GameName)
		}

		entries = append(entries, Entry{
			FileName: rec.Name,
			Size:     rec.Size,
			Digest:   rec.Hash,
			GameID:   gameID,
			FileID:   rec.State.FileID,
			GameName: rec.State.GameName,
			ModID:    rec.State.ModID,
			ModName:  rec.State.Name,
		})
	}
	return entries, nil
}

// readModlist returns the raw modlist document from the container at p.
func (r *Reader) readModlist(ctx context.Context, p string) ([]byte, error) {
	f, err := r.FS.Open(p)
	if err != nil {
		return nil, errors.NewManifestFormatError(p, "opening container", err)
	}
	defer func() { _ = f.Close() }()

	format, _, err := archives.Identify(ctx, p, f)
	if err != nil {
		return nil, errors.NewManifestFormatError(p, "identifying container format", err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, errors.NewManifestFormatError(p, "container format cannot be extracted", nil)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewManifestFormatError(p, "rewinding container", err)
	}

	var data []byte
	found := false
	err = extractor.Extract(ctx, f, func(_ context.Context, info archives.FileInfo) error {
		if info.IsDir() || !isModlistEntry(info.NameInArchive) {
			return nil
		}
		rc, err := info.Open()
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()

		data, err = io.ReadAll(rc)
		if err != nil {
			return err
		}
		found = true
		return fs.SkipAll
	})
	if err != nil {
		return nil, errors.NewManifestFormatError(p, "reading container", err)
	}
	if !found {
		return nil, errors.NewManifestFormatError(p, "missing "+ModlistEntryName+" entry", nil)
	}
	return data, nil
}

func isModlistEntry(name string) bool {
	return path.Clean(strings.TrimPrefix(name, "/")) == ModlistEntryName
}
