package state

import (
	"sort"
	"time"

	"github.com/gcstr/buildversions/internal/platform"
	"github.com/gcstr/buildversions/internal/record"
)

// DefaultVersion seeds every settings field of a freshly initialised state.
const DefaultVersion = "0.1.0"

// State is everything persisted between invocations.
type State struct {
	Information         record.BuildRecord `yaml:"build_information" json:"build_information"`
	Settings            PlayerSettings     `yaml:"player_settings" json:"player_settings"`
	LastSemanticVersion string             `yaml:"last_semantic_version,omitempty" json:"last_semantic_version,omitempty"`
	Pending             *PendingCycle      `yaml:"pending,omitempty" json:"pending,omitempty"`
}

// PlayerSettings holds the host-side version slots per settings field plus
// the Android bundle code.
type PlayerSettings struct {
	Versions          map[platform.Field]string `yaml:"versions" json:"versions"`
	AndroidBundleCode int                       `yaml:"android_bundle_code" json:"android_bundle_code"`
}

// PendingCycle carries the decisions of a build whose updates wait for the
// build-finished hook.
type PendingCycle struct {
	ID          string          `yaml:"id" json:"id"`
	Platform    string          `yaml:"platform" json:"platform"`
	Development bool            `yaml:"development,omitempty" json:"development,omitempty"`
	StartedAt   time.Time       `yaml:"started_at" json:"started_at"`
	Decisions   map[string]bool `yaml:"decisions" json:"decisions"`
}

// New returns the state written on first run.
func New(now time.Time) State {
	s := State{
		Information: record.New(now),
		Settings: PlayerSettings{
			Versions:          map[platform.Field]string{},
			AndroidBundleCode: 1,
		},
	}
	for _, f := range platform.AllFields() {
		s.Settings.Versions[f] = DefaultVersion
	}
	return s
}

// Version returns the version string shown for id, which is the value of the
// platform's first settings field.
func (p PlayerSettings) Version(id platform.ID) (string, error) {
	fields, err := platform.Fields(id)
	if err != nil {
		return "", err
	}
	return p.Versions[fields[0]], nil
}

// SetVersion writes v into every settings field of id.
func (p *PlayerSettings) SetVersion(id platform.ID, v string) error {
	fields, err := platform.Fields(id)
	if err != nil {
		return err
	}
	if p.Versions == nil {
		p.Versions = map[platform.Field]string{}
	}
	for _, f := range fields {
		p.Versions[f] = v
	}
	return nil
}

// SortedFields lists the populated settings fields in a stable order.
func (p PlayerSettings) SortedFields() []platform.Field {
	out := make([]platform.Field, 0, len(p.Versions))
	for f := range p.Versions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CurrentVersion is the version used for display and sync: the last version
// written by a semantic update, else the generic bundle version.
func (s State) CurrentVersion() string {
	if s.LastSemanticVersion != "" {
		return s.LastSemanticVersion
	}
	return s.Settings.Versions[platform.BundleVersion]
}
