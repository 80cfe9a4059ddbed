package secrets

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	age "filippo.io/age"
	"github.com/gcstr/buildversions/internal/apperr"
	sopsv3 "github.com/getsops/sops/v3"
	"github.com/getsops/sops/v3/aes"
	sopsv3age "github.com/getsops/sops/v3/age"
	sopsconfig "github.com/getsops/sops/v3/config"
	"github.com/getsops/sops/v3/keys"
	"github.com/getsops/sops/v3/stores/dotenv"
	"github.com/getsops/sops/v3/version"
)

// AgeRecipientsFromKeyFile returns the public recipients of the identities
// in an age key file. A leading ~/ is expanded.
func AgeRecipientsFromKeyFile(ageKeyFile string) ([]string, error) {
	if ageKeyFile == "" {
		return nil, apperr.New("secrets.AgeRecipientsFromKeyFile", apperr.InvalidInput, "age key file path is empty")
	}
	f, err := os.Open(expandHome(ageKeyFile))
	if err != nil {
		return nil, apperr.Wrap("secrets.AgeRecipientsFromKeyFile", apperr.NotFound, err, "open age key file")
	}
	defer f.Close()
	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, apperr.Wrap("secrets.AgeRecipientsFromKeyFile", apperr.InvalidInput, err, "parse age identities")
	}
	recips := make([]string, 0, len(identities))
	for _, id := range identities {
		if r, ok := id.(interface{ Recipient() (age.Recipient, error) }); ok {
			rr, err := r.Recipient()
			if err != nil {
				return nil, apperr.Wrap("secrets.AgeRecipientsFromKeyFile", apperr.InvalidInput, err, "derive recipient")
			}
			recips = append(recips, fmt.Sprint(rr))
		}
	}
	if len(recips) == 0 {
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			b, _ := io.ReadAll(f)
			for _, ln := range strings.Split(string(b), "\n") {
				ln = strings.TrimSpace(ln)
				if strings.HasPrefix(ln, "# public key:") {
					pk := strings.TrimSpace(strings.TrimPrefix(ln, "# public key:"))
					if pk != "" {
						recips = append(recips, pk)
					}
				}
			}
		}
	}
	return recips, nil
}

// EncryptDotenvFileWithSops encrypts a plaintext dotenv file in place for the
// given age recipients, producing a file DecryptAndParse can read.
func EncryptDotenvFileWithSops(ctx context.Context, path string, recipients []string, ageKeyFile string) error {
	if len(recipients) == 0 {
		return apperr.New("secrets.EncryptDotenvFileWithSops", apperr.InvalidInput, "no recipients provided")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if ageKeyFile != "" {
		restore := setKeyFileEnv(expandHome(ageKeyFile))
		defer restore()
	}

	store := dotenv.NewStore(&sopsconfig.DotenvStoreConfig{})
	b, rerr := os.ReadFile(path)
	if rerr != nil {
		return apperr.Wrap("secrets.EncryptDotenvFileWithSops", apperr.NotFound, rerr, "read plaintext")
	}
	branches, err := store.LoadPlainFile(b)
	if err != nil {
		return apperr.Wrap("secrets.EncryptDotenvFileWithSops", apperr.InvalidInput, err, "load dotenv")
	}
	inputTree := sopsv3.Tree{Branches: branches}

	// One key group holding every age recipient.
	var ageKeys []keys.MasterKey
	for _, r := range recipients {
		k, err := sopsv3age.MasterKeyFromRecipient(r)
		if err != nil {
			return apperr.Wrap("secrets.EncryptDotenvFileWithSops", apperr.InvalidInput, err, "age recipient")
		}
		ageKeys = append(ageKeys, k)
	}
	metadata := sopsv3.Metadata{KeyGroups: []sopsv3.KeyGroup{ageKeys}}
	metadata.Version = version.Version
	metadata.LastModified = time.Now()

	inputTree.Metadata = metadata
	dataKey := make([]byte, 32)
	if _, err := rand.Read(dataKey); err != nil {
		return apperr.Wrap("secrets.EncryptDotenvFileWithSops", apperr.Internal, err, "generate data key")
	}
	if errs := inputTree.Metadata.UpdateMasterKeys(dataKey); len(errs) > 0 {
		return apperr.New("secrets.EncryptDotenvFileWithSops", apperr.External, "update master keys: %v", errs)
	}
	mac, err := inputTree.Encrypt(dataKey, aes.NewCipher())
	if err != nil {
		return apperr.Wrap("secrets.EncryptDotenvFileWithSops", apperr.External, err, "encrypt tree")
	}
	inputTree.Metadata.LastModified = time.Now().UTC()
	inputTree.Metadata.Version = version.Version
	encMac, err := aes.NewCipher().Encrypt(mac, dataKey, inputTree.Metadata.LastModified.Format(time.RFC3339))
	if err != nil {
		return apperr.Wrap("secrets.EncryptDotenvFileWithSops", apperr.External, err, "encrypt mac")
	}
	inputTree.Metadata.MessageAuthenticationCode = encMac
	out, err := store.EmitEncryptedFile(inputTree)
	if err != nil {
		return apperr.Wrap("secrets.EncryptDotenvFileWithSops", apperr.External, err, "emit encrypted dotenv")
	}
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return apperr.Wrap("secrets.EncryptDotenvFileWithSops", apperr.Internal, err, "write encrypted")
	}
	return nil
}
