package syncer

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/logger"
)

// FileTarget rewrites the "version" capture group of Pattern in every file
// under Root matching Glob.
type FileTarget struct {
	Root    string
	Glob    string
	Pattern *regexp.Regexp
}

// NewFileTarget compiles pattern, which must contain a (?P<version>...) group.
func NewFileTarget(root, glob, pattern string) (*FileTarget, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, apperr.Wrap("syncer.NewFileTarget", apperr.InvalidInput, err, "compile pattern")
	}
	if re.SubexpIndex("version") < 0 {
		return nil, apperr.New("syncer.NewFileTarget", apperr.InvalidInput, "pattern %q has no version group", pattern)
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, apperr.New("syncer.NewFileTarget", apperr.InvalidInput, "invalid glob %q", glob)
	}
	return &FileTarget{Root: root, Glob: glob, Pattern: re}, nil
}

func (f *FileTarget) Name() string { return "file:" + f.Glob }

func (f *FileTarget) Sync(ctx context.Context, v string) (bool, error) {
	log := logger.FromContext(ctx)
	matches, err := doublestar.Glob(os.DirFS(f.Root), f.Glob, doublestar.WithFilesOnly())
	if err != nil {
		return false, apperr.Wrap("syncer.FileTarget", apperr.InvalidInput, err, "glob %s", f.Glob)
	}
	if len(matches) == 0 {
		return false, apperr.New("syncer.FileTarget", apperr.NotFound, "no files match %s under %s", f.Glob, f.Root)
	}
	idx := f.Pattern.SubexpIndex("version")
	matched, changed := 0, false
	for _, rel := range matches {
		p := filepath.Join(f.Root, filepath.FromSlash(rel))
		info, err := os.Stat(p)
		if err != nil {
			return changed, apperr.Wrap("syncer.FileTarget", apperr.Internal, err, "stat %s", rel)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return changed, apperr.Wrap("syncer.FileTarget", apperr.Internal, err, "read %s", rel)
		}
		out, n := replaceGroup(b, f.Pattern, idx, v)
		if n == 0 {
			log.Warn("sync_file_no_match", "file", rel, "pattern", f.Pattern.String())
			continue
		}
		matched++
		if string(out) == string(b) {
			continue
		}
		if err := os.WriteFile(p, out, info.Mode().Perm()); err != nil {
			return changed, apperr.Wrap("syncer.FileTarget", apperr.Internal, err, "write %s", rel)
		}
		changed = true
	}
	if matched == 0 {
		return false, apperr.New("syncer.FileTarget", apperr.NotFound, "pattern %q matched no file for %s", f.Pattern.String(), f.Glob)
	}
	return changed, nil
}

// replaceGroup substitutes group idx of every match of re with v.
func replaceGroup(in []byte, re *regexp.Regexp, idx int, v string) ([]byte, int) {
	locs := re.FindAllSubmatchIndex(in, -1)
	if len(locs) == 0 {
		return in, 0
	}
	out := make([]byte, 0, len(in))
	last, n := 0, 0
	for _, loc := range locs {
		start, end := loc[2*idx], loc[2*idx+1]
		if start < 0 {
			continue
		}
		out = append(out, in[last:start]...)
		out = append(out, v...)
		last = end
		n++
	}
	out = append(out, in[last:]...)
	return out, n
}
