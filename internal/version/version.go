// Package version parses and mutates three-component "major.minor.patch"
// version strings.
package version

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidFormat is returned for strings that are not exactly three
// dot-separated non-negative integers.
var ErrInvalidFormat = errors.New("version must use a major.minor.patch (x.y.z) format")

// Component selects which part of a version is bumped.
type Component int

const (
	Major Component = iota
	Minor
	Patch
)

func (c Component) String() string {
	switch c {
	case Major:
		return "major"
	case Minor:
		return "minor"
	case Patch:
		return "patch"
	default:
		return fmt.Sprintf("component(%d)", int(c))
	}
}

// ParseComponent accepts "major", "minor", "patch" (any case) or their
// indices "0", "1", "2".
func ParseComponent(s string) (Component, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major", "0":
		return Major, nil
	case "minor", "1":
		return Minor, nil
	case "patch", "2":
		return Patch, nil
	}
	return 0, fmt.Errorf("unknown version component %q: want major, minor or patch", s)
}

// Semantic is a parsed version triple.
type Semantic struct {
	Major uint64
	Minor uint64
	Patch uint64
}

func (v Semantic) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Format renders v in its canonical textual form.
func Format(v Semantic) string { return v.String() }

// Parse splits s on "." and requires exactly three integer segments.
func Parse(s string) (Semantic, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Semantic{}, fmt.Errorf("%w: %q has %d segments", ErrInvalidFormat, s, len(parts))
	}
	var nums [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Semantic{}, fmt.Errorf("%w: segment %q of %q is not a number", ErrInvalidFormat, p, s)
		}
		nums[i] = n
	}
	return Semantic{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// IsValid reports whether Parse would succeed.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Bump returns v with component c incremented and every component to its
// right reset to zero. A component already at its maximum cannot be
// incremented and yields ErrInvalidFormat with v unchanged.
func (v Semantic) Bump(c Component) (Semantic, error) {
	if v.component(c) == math.MaxUint64 {
		return v, fmt.Errorf("%w: %s component of %s cannot be incremented", ErrInvalidFormat, c, v)
	}
	sv := v.semver()
	var next semver.Version
	switch c {
	case Major:
		next = sv.IncMajor()
	case Minor:
		next = sv.IncMinor()
	default:
		next = sv.IncPatch()
	}
	return Semantic{Major: next.Major(), Minor: next.Minor(), Patch: next.Patch()}, nil
}

func (v Semantic) component(c Component) uint64 {
	switch c {
	case Major:
		return v.Major
	case Minor:
		return v.Minor
	default:
		return v.Patch
	}
}

// Bump parses s, bumps component c and formats the result. When s is not a
// valid version, or the component cannot be incremented, the input is
// returned unchanged along with ErrInvalidFormat.
func Bump(s string, c Component) (string, error) {
	v, err := Parse(s)
	if err != nil {
		return s, err
	}
	next, err := v.Bump(c)
	if err != nil {
		return s, err
	}
	return next.String(), nil
}

// Compare returns -1, 0 or 1 when a is lower than, equal to or greater than b.
func Compare(a, b Semantic) int {
	return a.semver().Compare(b.semver())
}

func (v Semantic) semver() *semver.Version {
	return semver.New(v.Major, v.Minor, v.Patch, "", "")
}
