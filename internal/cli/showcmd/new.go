package showcmd

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/display"
	"github.com/gcstr/buildversions/internal/platform"
	"github.com/gcstr/buildversions/internal/state"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/spf13/cobra"
)

// Fields lists the keys accepted by --field.
var Fields = []string{
	"build_type", "build_number", "build_date", "semantic_version",
	"version", "android_bundle_code",
}

type view struct {
	BuildType         string              `json:"build_type"`
	BuildNumber       int                 `json:"build_number"`
	BuildDate         string              `json:"build_date"`
	SemanticVersion   string              `json:"semantic_version"`
	Platform          string              `json:"platform,omitempty"`
	Version           string              `json:"version,omitempty"`
	AndroidBundleCode int                 `json:"android_bundle_code"`
	Versions          map[string]string   `json:"versions"`
	Pending           *state.PendingCycle `json:"pending,omitempty"`
}

// New creates the `show` command.
func New() *cobra.Command {
	var (
		format string
		field  string
		output string
		plat   string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored build information",
		Long: `Print the stored build information.

--format renders a template such as "v{bv_semantic} (#{bv_number})". Supported
placeholders: {bv_type} {bv_number} {bv_date} {bv_day} {bv_month} {bv_year}
{bv_semantic} {bv_semantic_major} {bv_semantic_minor} {bv_semantic_patch}
{newline}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return apperr.New("cli.show", apperr.InvalidInput, "invalid --output %q: want text or json", output)
			}
			if format != "" && field != "" {
				return apperr.New("cli.show", apperr.InvalidInput, "--format and --field are mutually exclusive")
			}
			c, err := common.SetupReadOnly(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			v, err := buildView(c.State, plat)
			if err != nil {
				return err
			}

			switch {
			case output == "json":
				b, err := json.MarshalIndent(v, "", "  ")
				if err != nil {
					return apperr.Wrap("cli.show", apperr.Internal, err, "encode json")
				}
				c.Printer.Plain("%s", b)
			case field != "":
				val, err := fieldValue(v, field)
				if err != nil {
					return err
				}
				c.Printer.Plain("%s", val)
			case format != "":
				semantic := v.SemanticVersion
				if v.Version != "" {
					semantic = v.Version
				}
				c.Printer.Plain("%s", display.Render(format, display.Info{Record: c.State.Information, Semantic: semantic}))
			default:
				c.Printer.Plain("%s", renderText(v))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Render a display template")
	cmd.Flags().StringVar(&field, "field", "", "Print a single value; one of build_type, build_number, build_date, semantic_version, version, android_bundle_code")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&plat, "platform", "p", "", "Show the version stored for this platform")
	return cmd
}

func buildView(st state.State, plat string) (view, error) {
	v := view{
		BuildType:         st.Information.BuildType,
		BuildNumber:       st.Information.BuildNumber.Value(),
		BuildDate:         st.Information.BuildDate.String(),
		SemanticVersion:   st.CurrentVersion(),
		AndroidBundleCode: st.Settings.AndroidBundleCode,
		Versions:          map[string]string{},
		Pending:           st.Pending,
	}
	for _, f := range st.Settings.SortedFields() {
		v.Versions[string(f)] = st.Settings.Versions[f]
	}
	if plat != "" {
		id, err := platform.Parse(plat)
		if err != nil {
			return view{}, apperr.Wrap("cli.show", apperr.InvalidInput, err, "unknown platform %q", plat)
		}
		ver, err := st.Settings.Version(id)
		if err != nil {
			return view{}, apperr.Wrap("cli.show", apperr.InvalidInput, err, "unknown platform %q", plat)
		}
		v.Platform, v.Version = string(id), ver
	}
	return v, nil
}

func fieldValue(v view, field string) (string, error) {
	switch field {
	case "build_type":
		return v.BuildType, nil
	case "build_number":
		return strconv.Itoa(v.BuildNumber), nil
	case "build_date":
		return v.BuildDate, nil
	case "semantic_version":
		return v.SemanticVersion, nil
	case "version":
		if v.Version == "" {
			return v.Versions[string(platform.BundleVersion)], nil
		}
		return v.Version, nil
	case "android_bundle_code":
		return strconv.Itoa(v.AndroidBundleCode), nil
	}
	return "", apperr.New("cli.show", apperr.InvalidInput, "unknown field %q", field)
}

func renderText(v view) string {
	info := []ui.KV{
		{Key: "build type", Value: v.BuildType},
		{Key: "build number", Value: strconv.Itoa(v.BuildNumber)},
		{Key: "build date", Value: v.BuildDate},
		{Key: "semantic version", Value: v.SemanticVersion},
		{Key: "android bundle code", Value: strconv.Itoa(v.AndroidBundleCode)},
	}
	if v.Platform != "" {
		info = append(info, ui.KV{Key: v.Platform + " version", Value: v.Version})
	}
	keys := make([]string, 0, len(v.Versions))
	for k := range v.Versions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	versions := make([]ui.KV, 0, len(keys))
	for _, k := range keys {
		versions = append(versions, ui.KV{Key: k, Value: v.Versions[k]})
	}
	out := ui.RenderTable("Build information", info) + "\n" + ui.RenderTable("Player settings", versions)
	if v.Pending != nil {
		out += "\n" + ui.RenderTable("Pending build", []ui.KV{
			{Key: "cycle", Value: v.Pending.ID},
			{Key: "platform", Value: v.Pending.Platform},
			{Key: "started", Value: v.Pending.StartedAt.Format("2006-01-02 15:04:05")},
		})
	}
	return out
}
