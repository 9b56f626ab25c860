// Package gpg provides detached-signature verification for downloaded
// toolchain archives using ProtonMail's go-crypto, the maintained fork of
// golang.org/x/crypto/openpgp.
package gpg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const armoredSigPrefix = "-----BEGIN PGP SIGNATURE---"

// Verifier verifies detached signatures against an imported keyring
type Verifier struct {
	keyring    openpgp.EntityList
	httpClient *http.Client
}

// NewVerifier creates a new signature verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ImportKeyFromFile imports an armored (or binary) public key from a file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath comes from the toolchain manifest
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	keys, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		// Try reading as binary
		if _, seekErr := f.Seek(0, 0); seekErr != nil {
			return fmt.Errorf("failed to reset key file: %w", seekErr)
		}
		keys, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(keys) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.keyring = append(v.keyring, keys...)
	return nil
}

// ImportKeysFromURL imports all armored public keys published at a URL,
// the KEYS-file convention used by upstream toolchain projects.
func (v *Verifier) ImportKeysFromURL(ctx context.Context, keysURL string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", keysURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download keys: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("keys download failed with status %d", resp.StatusCode)
	}

	// Limit keyring size to 10MB
	keys, err := openpgp.ReadArmoredKeyRing(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("failed to parse keys: %w", err)
	}

	if len(keys) == 0 {
		return fmt.Errorf("no keys found at %s", keysURL)
	}

	v.keyring = append(v.keyring, keys...)
	return nil
}

// VerifyDetached downloads a detached signature and verifies the file
// against it using the imported keyring.
func (v *Verifier) VerifyDetached(ctx context.Context, filePath, sigURL string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no keys imported, import keys before verifying")
	}

	sigData, err := v.downloadSignature(ctx, sigURL)
	if err != nil {
		return err
	}

	//nolint:gosec // G304: filePath is the archive this run just downloaded
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return v.checkSignature(f, sigData)
}

// VerifyDetachedFromFile verifies a file against a local detached signature
func (v *Verifier) VerifyDetachedFromFile(filePath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no keys imported, import keys before verifying")
	}

	//nolint:gosec // G304: sigPath comes from the toolchain manifest
	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to read signature file: %w", err)
	}

	//nolint:gosec // G304: filePath is the archive this run just downloaded
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return v.checkSignature(f, sigData)
}

func (v *Verifier) downloadSignature(ctx context.Context, sigURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", sigURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download signature: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signature download failed with status %d", resp.StatusCode)
	}

	// Detached signatures are small; 10KB is generous
	sigData, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read signature: %w", err)
	}

	if len(sigData) < 10 {
		return nil, fmt.Errorf("signature file too small to be valid")
	}

	return sigData, nil
}

func (v *Verifier) checkSignature(signed io.Reader, sigData []byte) error {
	sig := bytes.NewReader(sigData)

	var err error
	if bytes.HasPrefix(sigData, []byte(armoredSigPrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, signed, sig, nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, signed, sig, nil)
	}

	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
