// Package testutil provides a fake Nexus Mods backend and modlist fixtures
// for command level tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/glorpus-work/wabbaget/pkg/digest"
	"github.com/glorpus-work/wabbaget/pkg/manifest"
	"gopkg.in/yaml.v3"
)

// Archive is one Nexus hosted file served by the backend and listed in a modlist.
type Archive struct {
	Name     string
	GameName string
	FileID   int64
	Content  []byte
}

// Digest returns the modlist encoding of the archive's xxHash64.
func (a Archive) Digest() string {
	return digest.Encode(xxhash.Sum64(a.Content))
}

// NexusServer fakes the download link generator and the CDN it points at.
type NexusServer struct {
	API *httptest.Server
	CDN *httptest.Server

	mu       sync.Mutex
	files    map[int64]Archive
	corrupt  map[int64]int
	resolves atomic.Int32
}

// NewNexusServer starts both servers; they are closed when the test ends.
func NewNexusServer(t *testing.T, archives ...Archive) *NexusServer {
	t.Helper()
	ns := &NexusServer{
		files:   make(map[int64]Archive, len(archives)),
		corrupt: make(map[int64]int),
	}
	for _, a := range archives {
		ns.files[a.FileID] = a
	}

	ns.CDN = httptest.NewServer(http.HandlerFunc(ns.serveFile))
	t.Cleanup(ns.CDN.Close)
	ns.API = httptest.NewServer(http.HandlerFunc(ns.generateURL))
	t.Cleanup(ns.API.Close)

	return ns
}

// Endpoint is the URL to configure as resolver_endpoint.
func (ns *NexusServer) Endpoint() string {
	return ns.API.URL + "/Core/Libs/Common/Managers/Downloads?GenerateDownloadUrl"
}

// Resolves reports how many download links were generated.
func (ns *NexusServer) Resolves() int {
	return int(ns.resolves.Load())
}

// CorruptNext makes the next n downloads of fileID return garbage of the right length.
func (ns *NexusServer) CorruptNext(fileID int64, n int) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.corrupt[fileID] = n
}

func (ns *NexusServer) generateURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	fid, err := strconv.ParseInt(r.PostForm.Get("fid"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, ok := ns.lookup(fid); !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	ns.resolves.Add(1)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"url": ns.CDN.URL + "/files/" + strconv.FormatInt(fid, 10),
	})
}

func (ns *NexusServer) serveFile(w http.ResponseWriter, r *http.Request) {
	fid, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/files/"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	a, ok := ns.lookup(fid)
	if !ok {
		http.NotFound(w, r)
		return
	}

	content := a.Content
	ns.mu.Lock()
	if ns.corrupt[fid] > 0 {
		ns.corrupt[fid]--
		content = bytes.Repeat([]byte{0xff}, len(a.Content))
	}
	ns.mu.Unlock()

	http.ServeContent(w, r, a.Name, time.Time{}, bytes.NewReader(content))
}

func (ns *NexusServer) lookup(fid int64) (Archive, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	a, ok := ns.files[fid]
	return a, ok
}

// WriteModlist writes a .wabbajack container listing archives plus one
// archive from a non Nexus source.
func WriteModlist(t *testing.T, path, name string, archives ...Archive) {
	t.Helper()

	records := make([]map[string]any, 0, len(archives)+1)
	for _, a := range archives {
		records = append(records, map[string]any{
			"Name": a.Name,
			"Size": len(a.Content),
			"Hash": a.Digest(),
			"State": map[string]any{
				"$type":    manifest.NexusDownloaderType,
				"GameName": a.GameName,
				"FileID":   a.FileID,
			},
		})
	}
	records = append(records, map[string]any{
		"Name":  "external.zip",
		"Size":  10,
		"Hash":  "AAAAAAAAAAA=",
		"State": map[string]any{"$type": "HttpDownloader, Wabbajack.Lib", "Url": "https://example.com/external.zip"},
	})

	data, err := json.Marshal(map[string]any{
		"Name":             name,
		"Author":           "tester",
		"Version":          "1.0.0",
		"WabbajackVersion": "3.5.0.1",
		"Archives":         records,
	})
	if err != nil {
		t.Fatalf("encoding modlist: %v", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(manifest.ModlistEntryName)
	if err != nil {
		t.Fatalf("creating modlist entry: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("writing modlist entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing container: %v", err)
	}
	writeFile(t, path, buf.Bytes())
}

// WriteGameIDs writes a game id table.
func WriteGameIDs(t *testing.T, path string, games map[string]int64) {
	t.Helper()
	data, err := json.Marshal(games)
	if err != nil {
		t.Fatalf("encoding game ids: %v", err)
	}
	writeFile(t, path, data)
}

// SetupTestConfig writes a config file with the given settings into a
// temporary directory and returns its path.
func SetupTestConfig(t *testing.T, settings map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(map[string]any{"settings": settings})
	if err != nil {
		t.Fatalf("encoding config: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, data)
	return configPath
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
