package config

import (
	"github.com/gcstr/buildversions/internal/state"
	"github.com/gcstr/buildversions/internal/version"
)

// UsagePolicy gates a feature: never, always, or after a confirmation prompt.
type UsagePolicy string

const (
	Disabled   UsagePolicy = "disabled"
	Enabled    UsagePolicy = "enabled"
	PromptUser UsagePolicy = "prompt"
)

// ApplyTiming decides when queued updates are committed.
type ApplyTiming string

const (
	// EveryBuild applies updates as soon as the build starts.
	EveryBuild ApplyTiming = "every_build"
	// SuccessfulBuilds waits for the build-finished hook to report success.
	SuccessfulBuilds ApplyTiming = "successful_builds"
)

// DefaultVersionPattern matches the bundle version line of a Unity
// ProjectSettings.asset file.
const DefaultVersionPattern = `bundleVersion: (?P<version>\S+)`

// Config is the root options structure parsed from YAML.
type Config struct {
	AssetStatus       UsagePolicy `yaml:"asset_status" validate:"omitempty,oneof=disabled enabled prompt"`
	BuildUpdateTime   ApplyTiming `yaml:"build_update_time" validate:"omitempty,oneof=every_build successful_builds"`
	SemanticUpdate    UsagePolicy `yaml:"semantic_update" validate:"omitempty,oneof=disabled enabled prompt"`
	SemanticComponent string      `yaml:"semantic_component" validate:"omitempty,oneof=major minor patch"`
	AndroidBundleCode UsagePolicy `yaml:"android_bundle_code" validate:"omitempty,oneof=disabled enabled prompt"`
	RunInDevBuilds    bool        `yaml:"run_in_dev_builds"`
	ShowLogs          bool        `yaml:"show_logs"`
	PromptDefault     bool        `yaml:"prompt_default"`
	StateFile         string      `yaml:"state_file"`
	Sops              *SopsConfig `yaml:"sops,omitempty"`
	Secrets           *Secrets    `yaml:"secrets,omitempty"`
	Sync              SyncConfig  `yaml:"sync"`

	// BaseDir is the directory holding the config file; relative paths
	// resolve against it.
	BaseDir string `yaml:"-"`
	// Path is the config file that was loaded, empty when defaults are used.
	Path string `yaml:"-"`
}

// SopsConfig configures SOPS decryption.
type SopsConfig struct {
	Age *SopsAgeConfig `yaml:"age"`
}

type SopsAgeConfig struct {
	KeyFile string `yaml:"key_file"`
}

// Secrets lists SOPS-encrypted dotenv files whose variables feed ${VAR}
// interpolation.
type Secrets struct {
	Sops []string `yaml:"sops"`
}

// SyncConfig lists the places the semantic version is copied to.
type SyncConfig struct {
	OnBuild bool       `yaml:"on_build"`
	Files   []FileSync `yaml:"files" validate:"dive"`
	Git     *GitSync   `yaml:"git,omitempty"`
}

// FileSync rewrites the version inside files matching Glob.
type FileSync struct {
	Glob    string `yaml:"glob" validate:"required"`
	Pattern string `yaml:"pattern"`
}

// GitSync tags a git repository with the version.
type GitSync struct {
	Enabled   bool   `yaml:"enabled"`
	Repo      string `yaml:"repo"`
	Prefix    string `yaml:"prefix"`
	Annotated bool   `yaml:"annotated"`
	Message   string `yaml:"message"`
	Push      bool   `yaml:"push"`
	Remote    string `yaml:"remote"`
	Username  string `yaml:"username"`
	Token     string `yaml:"token"`
}

// Defaults mirrors the options a fresh project starts with.
func Defaults() Config {
	return Config{
		AssetStatus:       Enabled,
		BuildUpdateTime:   SuccessfulBuilds,
		SemanticUpdate:    PromptUser,
		SemanticComponent: "patch",
		AndroidBundleCode: Disabled,
		RunInDevBuilds:    true,
		StateFile:         state.DefaultPath,
	}
}

// Component returns the version component bumped at build time.
func (c Config) Component() version.Component {
	comp, err := version.ParseComponent(c.SemanticComponent)
	if err != nil {
		return version.Patch
	}
	return comp
}
