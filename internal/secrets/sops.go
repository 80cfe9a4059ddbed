// Package secrets reads and writes SOPS-encrypted dotenv files whose
// variables feed ${VAR} interpolation in the options file.
package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gcstr/buildversions/internal/apperr"
	decrypt "github.com/getsops/sops/v3/decrypt"
)

// DecryptAndParse returns key=value pairs from a SOPS-encrypted file.
// format: only "dotenv" is supported. Defaults to "dotenv" if empty.
func DecryptAndParse(ctx context.Context, path string, format string, ageKeyFile string) ([]string, error) {
	if format == "" {
		format = "dotenv"
	}
	if strings.ToLower(format) != "dotenv" {
		return nil, apperr.New("secrets.DecryptAndParse", apperr.InvalidInput, "unsupported secrets format %q: only \"dotenv\" is supported", format)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ageKeyFile != "" {
		restore := setKeyFileEnv(expandHome(ageKeyFile))
		defer restore()
	}

	// The decrypt package reads its keys from the environment.
	b, err := decrypt.File(path, format)
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, apperr.Wrap("secrets.DecryptAndParse", apperr.NotFound, statErr, "read %s", path)
		}
		return nil, apperr.Wrap("secrets.DecryptAndParse", apperr.External, err, "sops decrypt %s", path)
	}
	return parseDotenv(string(b)), nil
}

func setKeyFileEnv(key string) func() {
	prev, had := os.LookupEnv("SOPS_AGE_KEY_FILE")
	_ = os.Setenv("SOPS_AGE_KEY_FILE", key)
	return func() {
		if had {
			_ = os.Setenv("SOPS_AGE_KEY_FILE", prev)
			return
		}
		_ = os.Unsetenv("SOPS_AGE_KEY_FILE")
	}
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

func parseDotenv(s string) []string {
	var pairs []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		val = strings.Trim(val, `"`)
		val = strings.Trim(val, `'`)
		if key == "" {
			continue
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, val))
	}
	return pairs
}
