// Package platform maps build target platforms to the player settings fields
// that hold their version strings.
package platform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnrecognizedPlatform is returned for platform ids without a mapping.
var ErrUnrecognizedPlatform = errors.New("platform not recognised")

// ID names a build target platform.
type ID string

const (
	Android   ID = "android"
	IOS       ID = "ios"
	TvOS      ID = "tvos"
	OSX       ID = "osx"
	Windows   ID = "windows"
	Windows64 ID = "windows64"
	Linux64   ID = "linux64"
	WebGL     ID = "webgl"
	WSA       ID = "wsa"
	PS4       ID = "ps4"
	XboxOne   ID = "xboxone"
	Switch    ID = "switch"
	Lumin     ID = "lumin"
	None      ID = "none"
)

// Field names a version slot in the player settings.
type Field string

const (
	BundleVersion        Field = "bundle_version"
	MacOSBuildNumber     Field = "macos_build_number"
	IOSBuildNumber       Field = "ios_build_number"
	TvOSBuildNumber      Field = "tvos_build_number"
	WSAPackageVersion    Field = "wsa_package_version"
	PS4AppVersion        Field = "ps4_app_version"
	XboxOneVersion       Field = "xboxone_version"
	SwitchReleaseVersion Field = "switch_release_version"
	SwitchDisplayVersion Field = "switch_display_version"
	LuminVersionName     Field = "lumin_version_name"
)

var fields = map[ID][]Field{
	Android:   {BundleVersion},
	IOS:       {IOSBuildNumber},
	TvOS:      {TvOSBuildNumber},
	OSX:       {MacOSBuildNumber},
	Windows:   {BundleVersion},
	Windows64: {BundleVersion},
	Linux64:   {BundleVersion},
	WebGL:     {BundleVersion},
	WSA:       {WSAPackageVersion},
	PS4:       {PS4AppVersion},
	XboxOne:   {XboxOneVersion},
	Switch:    {SwitchReleaseVersion, SwitchDisplayVersion},
	Lumin:     {LuminVersionName},
	None:      {BundleVersion},
}

// Parse normalizes s and checks it against the known platforms.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := fields[id]; !ok {
		return "", fmt.Errorf("%w: %q (known: %s)", ErrUnrecognizedPlatform, s, strings.Join(knownStrings(), ", "))
	}
	return id, nil
}

// Fields returns the settings fields updated for id. The first field is the
// one read when displaying the platform's version.
func Fields(id ID) ([]Field, error) {
	f, ok := fields[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedPlatform, string(id))
	}
	out := make([]Field, len(f))
	copy(out, f)
	return out, nil
}

// Known returns every platform id in sorted order.
func Known() []ID {
	ids := make([]ID, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AllFields returns every distinct settings field in sorted order.
func AllFields() []Field {
	seen := map[Field]struct{}{}
	var out []Field
	for _, fs := range fields {
		for _, f := range fs {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func knownStrings() []string {
	ids := Known()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
