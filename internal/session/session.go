// Package session obtains API credentials and builds the reusable
// authorization token attached to every backend request.
//
// Credentials live in the OS keychain between runs. A 401 from the backend
// clears them; re-entry happens on the next launch, never mid-session.
package session

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"regatta/internal/log"
)

const (
	// keychainService is the service name used in the OS keychain.
	keychainService = "regatta"
	// keychainAccount stores the "key:secret" credential pair.
	keychainAccount = "api-credentials"
)

// Credentials is the opaque identifier + secret pair for the backend.
type Credentials struct {
	Key    string
	Secret string
}

// Token builds the reusable authorization header value. Empty credentials
// produce a token the backend will reject with 401 - degraded, not fatal.
func (c Credentials) Token() string {
	raw := c.Key + ":" + c.Secret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// Load retrieves persisted credentials from the OS keychain.
// Returns false when none are stored or the keychain is unavailable.
func Load() (Credentials, bool) {
	stored, err := keyring.Get(keychainService, keychainAccount)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			log.Warn(log.CatAuth, "Keychain unavailable", "error", err)
		}
		return Credentials{}, false
	}
	key, secret, ok := strings.Cut(stored, ":")
	if !ok {
		log.Warn(log.CatAuth, "Malformed keychain entry, discarding")
		_ = keyring.Delete(keychainService, keychainAccount)
		return Credentials{}, false
	}
	return Credentials{Key: key, Secret: secret}, true
}

// Save persists credentials to the OS keychain for reuse on the next run.
func Save(creds Credentials) error {
	if err := keyring.Set(keychainService, keychainAccount, creds.Key+":"+creds.Secret); err != nil {
		return fmt.Errorf("storing credentials in keychain: %w", err)
	}
	return nil
}

// Clear removes persisted credentials. Called on authentication rejection.
func Clear() {
	if err := keyring.Delete(keychainService, keychainAccount); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.Warn(log.CatAuth, "Failed to clear keychain entry", "error", err)
	}
	log.Info(log.CatAuth, "Stored credentials cleared")
}

// Prompt interactively reads an API key and secret from the terminal. The
// secret is read without echo. An empty key is accepted and simply yields a
// token the backend will reject.
func Prompt(in io.Reader, out io.Writer) (Credentials, error) {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "API key: ")
	key, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Credentials{}, fmt.Errorf("reading API key: %w", err)
	}
	key = strings.TrimSpace(key)

	fmt.Fprint(out, "API secret: ")
	var secret string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return Credentials{}, fmt.Errorf("reading API secret: %w", err)
		}
		secret = string(raw)
	} else {
		// Non-terminal stdin (tests, pipes): read a plain line.
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Credentials{}, fmt.Errorf("reading API secret: %w", err)
		}
		secret = strings.TrimSpace(line)
	}

	return Credentials{Key: key, Secret: secret}, nil
}

// Obtain loads persisted credentials, prompting and persisting when none are
// stored. This runs before the TUI starts so the prompt owns the terminal.
func Obtain(in io.Reader, out io.Writer) (Credentials, error) {
	if creds, ok := Load(); ok {
		log.Debug(log.CatAuth, "Using stored credentials")
		return creds, nil
	}

	creds, err := Prompt(in, out)
	if err != nil {
		return Credentials{}, err
	}
	if creds.Key != "" {
		if err := Save(creds); err != nil {
			// Persisting is best-effort; the session still works.
			log.Warn(log.CatAuth, "Could not persist credentials", "error", err)
		}
	}
	return creds, nil
}
