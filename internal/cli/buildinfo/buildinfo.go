package buildinfo

import "runtime/debug"

// Build-time variables injected via -ldflags; defaults are used for dev builds.
var (
	version   = "0.1.0-dev"
	commit    = ""
	date      = ""
	builtBy   = ""
	goVersion = ""
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Version returns the semantic version string. Without -ldflags the module
// version recorded by `go install` is used when there is one.
func Version() string {
	if version != "0.1.0-dev" {
		return version
	}
	if bi, ok := readBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// VersionSimple returns version number with short commit hash for --version flag.
func VersionSimple() string {
	v := Version()
	if c := Commit(); c != "" {
		if len(c) >= 7 {
			v += " (" + c[:7] + ")"
		} else {
			v += " (" + c + ")"
		}
	}
	return v
}

// VersionDetailed returns version info with build metadata if available.
func VersionDetailed() string {
	v := Version()
	if c := Commit(); c != "" {
		v += " (" + c
		if d := BuildDate(); d != "" {
			v += ", " + d
		}
		if builtBy != "" {
			v += ", " + builtBy
		}
		v += ")"
	}
	return v
}

// GoVersion returns the build-time Go version if provided.
func GoVersion() string {
	if goVersion != "" {
		return goVersion
	}
	if bi, ok := readBuildInfo(); ok {
		return bi.GoVersion
	}
	return ""
}

// Commit returns the full commit hash from -ldflags or the VCS stamp.
func Commit() string {
	if commit != "" {
		return commit
	}
	return setting("vcs.revision")
}

// BuildDate returns the build date from -ldflags or the VCS commit time.
func BuildDate() string {
	if date != "" {
		return date
	}
	return setting("vcs.time")
}

// BuiltBy returns the builder identifier if provided via -ldflags.
func BuiltBy() string { return builtBy }

func setting(key string) string {
	bi, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}
