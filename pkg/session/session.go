// Package session persists the Nexus Mods login session used to resolve
// download locations. The location is always passed in explicitly.
package session

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/glorpus-work/wabbaget/pkg/fsutil"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the name of the session file inside the session directory.
	FileName = "session.yaml"

	// CookieName is the Nexus Mods authentication cookie.
	CookieName = "nexusmods_session"

	// SiteURL is the site the session cookies belong to.
	SiteURL = "https://www.nexusmods.com/"
)

// Cookie is one persisted cookie.
type Cookie struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
	Domain string `yaml:"domain,omitempty"`
}

// Session is an authenticated Nexus Mods session.
type Session struct {
	Cookies []Cookie  `yaml:"cookies"`
	SavedAt time.Time `yaml:"saved_at"`
}

// New creates a session from the value of the nexusmods_session cookie.
func New(sessionCookie string) *Session {
	return &Session{
		Cookies: []Cookie{{Name: CookieName, Value: strings.TrimSpace(sessionCookie), Domain: ".nexusmods.com"}},
		SavedAt: time.Now().UTC(),
	}
}

// Valid reports whether the session carries a non-empty authentication cookie.
func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	for _, c := range s.Cookies {
		if c.Name == CookieName && c.Value != "" {
			return true
		}
	}
	return false
}

// Jar returns a cookie jar preloaded with the session cookies for the Nexus Mods site.
func (s *Session) Jar() (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}
	site, err := url.Parse(SiteURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse site url")
	}
	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: "/"})
	}
	jar.SetCookies(site, cookies)
	return jar, nil
}

// Store reads and writes a session inside a directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Exists reports whether a usable session has been saved.
func (s *Store) Exists() bool {
	sess, err := s.Load()
	return err == nil && sess.Valid()
}

// Load reads the saved session. A missing or empty session yields ErrSessionExpired.
func (s *Store) Load() (*Session, error) {
	data, err := afero.ReadFile(s.fs, s.Path())
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSessionExpired, "no session at %s", s.Path())
	}
	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigParse, "session file %s: %v", s.Path(), err)
	}
	if !sess.Valid() {
		return nil, errors.Wrapf(errors.ErrSessionExpired, "session at %s has no %s cookie", s.Path(), CookieName)
	}
	return &sess, nil
}

// Save writes the session with private permissions, replacing any previous one.
func (s *Store) Save(sess *Session) error {
	if !sess.Valid() {
		return errors.Wrapf(errors.ErrSessionExpired, "refusing to save a session without a %s cookie", CookieName)
	}
	if err := s.fs.MkdirAll(s.dir, fsutil.DirModePrivate); err != nil {
		return errors.Wrap(err, "could not create session directory")
	}
	data, err := yaml.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "could not encode session")
	}
	tmp := s.Path() + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, fsutil.FileModePrivate); err != nil {
		return errors.Wrap(err, "could not write session")
	}
	if err := s.fs.Rename(tmp, s.Path()); err != nil {
		return errors.Wrap(err, "could not replace session")
	}
	return nil
}

// Clear deletes the saved session.
func (s *Store) Clear() error {
	return fsutil.RemoveIfExists(s.fs, s.Path())
}

// Prompt asks the user for the nexusmods_session cookie of a logged in browser.
func Prompt(in io.Reader, out io.Writer) (*Session, error) {
	_, _ = fmt.Fprintf(out, "Log in to %s in your browser, then copy the value of the %q cookie.\n", SiteURL, CookieName)
	_, _ = fmt.Fprint(out, "Cookie value: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return nil, errors.Wrap(err, "could not read cookie value")
	}
	sess := New(line)
	if !sess.Valid() {
		return nil, errors.Wrap(errors.ErrSessionExpired, "empty cookie value")
	}
	return sess, nil
}
