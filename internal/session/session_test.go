package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestToken_EncodesBasicAuth(t *testing.T) {
	creds := Credentials{Key: "user", Secret: "pass"}
	// base64("user:pass")
	require.Equal(t, "Basic dXNlcjpwYXNz", creds.Token())
}

func TestToken_EmptyCredentialsStillProduceToken(t *testing.T) {
	// base64(":") - a well-formed header the backend rejects with 401.
	require.Equal(t, "Basic Og==", Credentials{}.Token())
}

func TestSaveLoadClear_RoundTrip(t *testing.T) {
	keyring.MockInit()

	_, ok := Load()
	require.False(t, ok)

	require.NoError(t, Save(Credentials{Key: "user", Secret: "s3cret"}))

	creds, ok := Load()
	require.True(t, ok)
	require.Equal(t, "user", creds.Key)
	require.Equal(t, "s3cret", creds.Secret)

	Clear()
	_, ok = Load()
	require.False(t, ok)
}

func TestLoad_SecretMayContainColons(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, Save(Credentials{Key: "user", Secret: "a:b:c"}))

	creds, ok := Load()
	require.True(t, ok)
	require.Equal(t, "user", creds.Key)
	require.Equal(t, "a:b:c", creds.Secret)
}

func TestLoad_MalformedEntryDiscarded(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set("regatta", "api-credentials", "no-separator"))

	_, ok := Load()
	require.False(t, ok)

	// The bad entry was deleted, not left to fail every launch.
	_, err := keyring.Get("regatta", "api-credentials")
	require.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestClear_NoStoredEntryIsFine(t *testing.T) {
	keyring.MockInit()
	Clear()
}

func TestPrompt_ReadsKeyAndSecret(t *testing.T) {
	in := strings.NewReader("my-key\nmy-secret\n")
	var out strings.Builder

	creds, err := Prompt(in, &out)
	require.NoError(t, err)
	require.Equal(t, "my-key", creds.Key)
	require.Equal(t, "my-secret", creds.Secret)
	require.Contains(t, out.String(), "API key:")
	require.Contains(t, out.String(), "API secret:")
}

func TestPrompt_TrimsWhitespace(t *testing.T) {
	in := strings.NewReader("  my-key  \n  my-secret  \n")
	var out strings.Builder

	creds, err := Prompt(in, &out)
	require.NoError(t, err)
	require.Equal(t, "my-key", creds.Key)
	require.Equal(t, "my-secret", creds.Secret)
}

func TestPrompt_EOFYieldsEmptyCredentials(t *testing.T) {
	in := strings.NewReader("")
	var out strings.Builder

	creds, err := Prompt(in, &out)
	require.NoError(t, err)
	require.Empty(t, creds.Key)
	require.Empty(t, creds.Secret)
}

func TestObtain_PrefersStoredCredentials(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, Save(Credentials{Key: "stored", Secret: "s"}))

	// Reader would supply different credentials; it must not be consumed.
	in := strings.NewReader("typed\ntyped-secret\n")
	var out strings.Builder

	creds, err := Obtain(in, &out)
	require.NoError(t, err)
	require.Equal(t, "stored", creds.Key)
	require.Empty(t, out.String())
}

func TestObtain_PromptsAndPersists(t *testing.T) {
	keyring.MockInit()
	in := strings.NewReader("typed\ntyped-secret\n")
	var out strings.Builder

	creds, err := Obtain(in, &out)
	require.NoError(t, err)
	require.Equal(t, "typed", creds.Key)

	stored, ok := Load()
	require.True(t, ok)
	require.Equal(t, creds, stored)
}

func TestObtain_EmptyKeyNotPersisted(t *testing.T) {
	keyring.MockInit()
	in := strings.NewReader("\n\n")
	var out strings.Builder

	creds, err := Obtain(in, &out)
	require.NoError(t, err)
	require.Empty(t, creds.Key)

	_, ok := Load()
	require.False(t, ok)
}
