// Package state persists build information and player settings to a YAML
// file on a billy filesystem.
package state

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path"
	"time"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/goccy/go-yaml"
)

// DefaultPath is the state file location relative to the project directory.
const DefaultPath = ".buildversions/state.yml"

// ErrMissingState is returned by Load when no state file exists yet.
var ErrMissingState = errors.New("no build state found")

// Store reads and writes State at a fixed path.
type Store struct {
	fs   billy.Filesystem
	path string
}

// NewStore returns a store for the file at p on fs.
func NewStore(fs billy.Filesystem, p string) *Store {
	if p == "" {
		p = DefaultPath
	}
	return &Store{fs: fs, path: path.Clean(p)}
}

// OpenDir returns a store rooted at the project directory dir.
func OpenDir(dir, p string) *Store {
	return NewStore(osfs.New(dir), p)
}

// Path returns the state file path relative to the store root.
func (s *Store) Path() string { return s.path }

// Exists reports whether the state file is present.
func (s *Store) Exists() (bool, error) {
	_, err := s.fs.Stat(s.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, apperr.Wrap("state.Store.Exists", apperr.Internal, err, "stat %s", s.path)
	}
}

// Load reads the state file. A missing file yields an error wrapping
// ErrMissingState with kind NotFound.
func (s *Store) Load() (State, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, apperr.Wrap("state.Store.Load", apperr.NotFound, ErrMissingState, "no build state at %s; run `buildversions init`", s.path)
		}
		return State{}, apperr.Wrap("state.Store.Load", apperr.Internal, err, "open %s", s.path)
	}
	defer func() { _ = f.Close() }()

	b, err := io.ReadAll(f)
	if err != nil {
		return State{}, apperr.Wrap("state.Store.Load", apperr.Internal, err, "read %s", s.path)
	}
	var st State
	if err := yaml.Unmarshal(b, &st); err != nil {
		return State{}, apperr.New("state.Store.Load", apperr.InvalidInput, "parse %s: %s", s.path, yaml.FormatError(err, false, true))
	}
	if st.Settings.Versions == nil {
		st.Settings.Versions = New(time.Time{}).Settings.Versions
	}
	return st, nil
}

// LoadOrInit loads the state, creating and saving a fresh one dated now when
// the file does not exist. The boolean reports whether it was created.
func (s *Store) LoadOrInit(now time.Time) (State, bool, error) {
	st, err := s.Load()
	if err == nil {
		return st, false, nil
	}
	if !errors.Is(err, ErrMissingState) {
		return State{}, false, err
	}
	st = New(now)
	if err := s.Save(st); err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

// Save writes st to a temporary file next to the target and renames it into
// place.
func (s *Store) Save(st State) error {
	b, err := yaml.Marshal(st)
	if err != nil {
		return apperr.Wrap("state.Store.Save", apperr.Internal, err, "encode state")
	}
	dir := path.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return apperr.Wrap("state.Store.Save", apperr.Internal, err, "mkdir %s", dir)
	}
	tmp, err := s.fs.TempFile(dir, ".state-")
	if err != nil {
		return apperr.Wrap("state.Store.Save", apperr.Internal, err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, bytes.NewReader(b)); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return apperr.Wrap("state.Store.Save", apperr.Internal, err, "write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return apperr.Wrap("state.Store.Save", apperr.Internal, err, "close %s", tmpName)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return apperr.Wrap("state.Store.Save", apperr.Internal, err, "rename into %s", s.path)
	}
	return nil
}
