package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/secrets"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// FileNames are looked up, in order, when no explicit config file is given.
var FileNames = []string{"buildversions.yml", "buildversions.yaml"}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	// envVarPattern matches ${VARNAME} placeholders for interpolation.
	envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// Load reads and validates configuration from path, which may be a file or a
// directory. When path is empty the working directory is searched. Values
// not present in the file keep their Defaults. The returned slice names
// ${VAR} placeholders that had no value.
func Load(ctx context.Context, path string) (Config, []string, error) {
	guessed, err := resolveConfigPath(path)
	if err != nil {
		return Config{}, nil, err
	}
	abs, err := filepath.Abs(guessed)
	if err != nil {
		return Config{}, nil, apperr.Wrap("config.Load", apperr.InvalidInput, err, "abs path")
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil, apperr.Wrap("config.Load", apperr.NotFound, err, "read config %s", guessed)
		}
		return Config{}, nil, apperr.Wrap("config.Load", apperr.Internal, err, "read config %s", guessed)
	}
	baseDir := filepath.Dir(abs)

	vars, err := loadSecretVars(ctx, b, baseDir)
	if err != nil {
		return Config{}, nil, err
	}
	interpolated, missing := interpolate(string(b), vars)

	cfg := Defaults()
	dec := yaml.NewDecoder(strings.NewReader(interpolated), yaml.Validator(validate), yaml.Strict())
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, missing, apperr.New("config.Load", apperr.InvalidInput, "parse yaml: %s", yaml.FormatError(err, false, true))
	}
	cfg.BaseDir = baseDir
	cfg.Path = abs
	if err := cfg.normalizeAndValidate(); err != nil {
		return Config{}, missing, err
	}
	return cfg, missing, nil
}

// DefaultsFor returns Defaults anchored at dir, used when no config file
// exists.
func DefaultsFor(dir string) (Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Config{}, apperr.Wrap("config.DefaultsFor", apperr.InvalidInput, err, "abs path")
	}
	cfg := Defaults()
	cfg.BaseDir = abs
	if err := cfg.normalizeAndValidate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode renders cfg as YAML for `init`.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# buildversions options\n")
	b, err := yaml.MarshalWithOptions(cfg, yaml.Indent(2))
	if err != nil {
		return nil, apperr.Wrap("config.Encode", apperr.Internal, err, "encode config")
	}
	buf.Write(b)
	return buf.Bytes(), nil
}

func (c *Config) normalizeAndValidate() error {
	def := Defaults()
	if c.AssetStatus == "" {
		c.AssetStatus = def.AssetStatus
	}
	if c.BuildUpdateTime == "" {
		c.BuildUpdateTime = def.BuildUpdateTime
	}
	if c.SemanticUpdate == "" {
		c.SemanticUpdate = def.SemanticUpdate
	}
	if c.SemanticComponent == "" {
		c.SemanticComponent = def.SemanticComponent
	}
	if c.AndroidBundleCode == "" {
		c.AndroidBundleCode = def.AndroidBundleCode
	}
	if strings.TrimSpace(c.StateFile) == "" {
		c.StateFile = def.StateFile
	}
	if filepath.IsAbs(c.StateFile) {
		return apperr.New("config.Validate", apperr.InvalidInput, "state_file: must be relative to the config directory, got %s", c.StateFile)
	}
	c.StateFile = filepath.ToSlash(filepath.Clean(c.StateFile))
	if strings.HasPrefix(c.StateFile, "../") || c.StateFile == ".." {
		return apperr.New("config.Validate", apperr.InvalidInput, "state_file: must stay inside the config directory, got %s", c.StateFile)
	}

	for i := range c.Sync.Files {
		f := &c.Sync.Files[i]
		if f.Pattern == "" {
			f.Pattern = DefaultVersionPattern
		}
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return apperr.Wrap("config.Validate", apperr.InvalidInput, err, "sync.files[%d].pattern: invalid regular expression", i)
		}
		if re.SubexpIndex("version") < 0 {
			return apperr.New("config.Validate", apperr.InvalidInput, "sync.files[%d].pattern: must contain a (?P<version>...) group", i)
		}
	}

	if g := c.Sync.Git; g != nil {
		if g.Repo == "" {
			g.Repo = "."
		}
		if !filepath.IsAbs(g.Repo) {
			g.Repo = filepath.Clean(filepath.Join(c.BaseDir, g.Repo))
		}
		if g.Prefix == "" {
			g.Prefix = "v"
		}
		if g.Remote == "" {
			g.Remote = "origin"
		}
		if g.Message == "" {
			g.Message = "Release {version}"
		}
		if g.Push && g.Token == "" && g.Username != "" {
			return apperr.New("config.Validate", apperr.InvalidInput, "sync.git.token: required when sync.git.username is set")
		}
	}
	return nil
}

// loadSecretVars decrypts the SOPS dotenv files listed in the raw config and
// returns their variables. Only the sops/secrets sections are read here, so
// placeholders elsewhere do not need to resolve yet.
func loadSecretVars(ctx context.Context, raw []byte, baseDir string) (map[string]string, error) {
	var header struct {
		Sops    *SopsConfig `yaml:"sops"`
		Secrets *Secrets    `yaml:"secrets"`
	}
	if err := yaml.Unmarshal(raw, &header); err != nil {
		return nil, apperr.New("config.Load", apperr.InvalidInput, "parse yaml: %s", yaml.FormatError(err, false, true))
	}
	if header.Secrets == nil || len(header.Secrets.Sops) == 0 {
		return nil, nil
	}
	keyFile := ""
	if header.Sops != nil && header.Sops.Age != nil {
		keyFile = header.Sops.Age.KeyFile
	}
	vars := map[string]string{}
	for _, p := range header.Secrets.Sops {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		pairs, err := secrets.DecryptAndParse(ctx, p, "dotenv", keyFile)
		if err != nil {
			return nil, apperr.Wrap("config.Load", apperr.External, err, "decrypt secrets %s", p)
		}
		for _, kv := range pairs {
			k, v, _ := strings.Cut(kv, "=")
			vars[k] = v
		}
	}
	return vars, nil
}

// interpolate replaces ${VAR} with the environment value, falling back to
// decrypted secrets. Unresolved names are returned sorted.
func interpolate(in string, secretVars map[string]string) (string, []string) {
	missingSet := map[string]struct{}{}
	out := envVarPattern.ReplaceAllStringFunc(in, func(m string) string {
		name := envVarPattern.FindStringSubmatch(m)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		if val, ok := secretVars[name]; ok {
			return val
		}
		missingSet[name] = struct{}{}
		return ""
	})
	if len(missingSet) == 0 {
		return out, nil
	}
	miss := make([]string, 0, len(missingSet))
	for n := range missingSet {
		miss = append(miss, n)
	}
	sort.Strings(miss)
	return out, miss
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			// Treat it as a file path and let the read fail later.
			return path, nil
		}
		if !info.IsDir() {
			return path, nil
		}
		if found, err := findConfigIn(path); err != nil || found != "" {
			return found, err
		}
		return "", apperr.New("config.resolveConfigPath", apperr.NotFound, "no config file found in %s (looked for %s)", path, strings.Join(FileNames, ", "))
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", apperr.Wrap("config.resolveConfigPath", apperr.Internal, err, "getwd")
	}
	found, err := findConfigIn(cwd)
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", apperr.New("config.resolveConfigPath", apperr.NotFound, "no config file found (looked for %s)", strings.Join(FileNames, ", "))
	}
	return found, nil
}

func findConfigIn(dir string) (string, error) {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", apperr.Wrap("config.resolveConfigPath", apperr.Internal, err, "stat %s", candidate)
		}
	}
	return "", nil
}

// String renders a one-line summary used by `validate`.
// Redacted returns a copy of c with credentials masked, for printing.
func (c Config) Redacted() Config {
	if c.Sync.Git != nil && c.Sync.Git.Token != "" {
		g := *c.Sync.Git
		g.Token = "[REDACTED]"
		c.Sync.Git = &g
	}
	return c
}

func (c Config) String() string {
	return fmt.Sprintf("asset_status=%s build_update_time=%s semantic_update=%s android_bundle_code=%s",
		c.AssetStatus, c.BuildUpdateTime, c.SemanticUpdate, c.AndroidBundleCode)
}
