package secretcmd

import (
	"os"
	"path/filepath"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/secrets"
	"github.com/spf13/cobra"
)

// New creates the `secret` command group.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage SOPS secrets referenced by secrets.sops",
		RunE:  func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newEncryptCmd())
	return cmd
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <path>",
		Short: "Create a new SOPS-encrypted dotenv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := common.SetupConfig(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			rk, err := resolveRecipientsAndKey(c.Config)
			if err != nil {
				return err
			}

			target := absPath(args[0])
			if _, err := os.Stat(target); err == nil {
				return apperr.New("cli.secret.create", apperr.Conflict, "file already exists: %s", target)
			}

			// Write plaintext template
			const template = "GIT_TOKEN=secret\n"
			if err := os.WriteFile(target, []byte(template), 0o600); err != nil {
				return apperr.Wrap("cli.secret.create", apperr.Internal, err, "write template")
			}
			if err := secrets.EncryptDotenvFileWithSops(c.Ctx, target, rk.recipients, rk.keyFile); err != nil {
				_ = os.Remove(target)
				return err
			}
			c.Printer.Info("created encrypted secret: %s", target)
			return nil
		},
	}
}

func newEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <path>",
		Short: "Encrypt an existing plaintext dotenv file in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := common.SetupConfig(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			rk, err := resolveRecipientsAndKey(c.Config)
			if err != nil {
				return err
			}

			target := absPath(args[0])
			if _, err := os.Stat(target); err != nil {
				return apperr.Wrap("cli.secret.encrypt", apperr.NotFound, err, "secret file %s", target)
			}
			if err := secrets.EncryptDotenvFileWithSops(c.Ctx, target, rk.recipients, rk.keyFile); err != nil {
				return err
			}
			c.Printer.Info("encrypted %s", target)
			return nil
		},
	}
}

type recipientsAndKey struct {
	keyFile    string
	recipients []string
}

func resolveRecipientsAndKey(cfg config.Config) (recipientsAndKey, error) {
	if cfg.Sops == nil || cfg.Sops.Age == nil || cfg.Sops.Age.KeyFile == "" {
		return recipientsAndKey{}, apperr.New("cli.secret", apperr.InvalidInput, "sops.age.key_file is not configured")
	}
	keyFile := cfg.Sops.Age.KeyFile
	recipients, err := secrets.AgeRecipientsFromKeyFile(keyFile)
	if err != nil {
		return recipientsAndKey{}, err
	}
	if len(recipients) == 0 {
		return recipientsAndKey{}, apperr.New("cli.secret", apperr.InvalidInput, "no age recipients found in key file %s", keyFile)
	}
	return recipientsAndKey{keyFile: keyFile, recipients: recipients}, nil
}

func absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	cwd, _ := os.Getwd()
	return filepath.Clean(filepath.Join(cwd, p))
}
