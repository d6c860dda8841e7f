package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(`
WEBHOOK_PASSWORD=hunter2
PAYOUT_RATE=0.02
TRUSTED_CIDRS=192.30.252.0/22, 10.0.0.0/8
CACHE_REFRESH_INTERVAL=30s
REPOSITORIES=[{"url":"https://github.com/acme/widget"}]
`), 0o600))

	for _, key := range []string{"WEBHOOK_PASSWORD", "PAYOUT_RATE", "TRUSTED_CIDRS", "CACHE_REFRESH_INTERVAL", "REPOSITORIES"} {
		t.Setenv(key, "")
	}
	t.Setenv("GITHUB_TOKEN", "token")
	t.Setenv("COINBASE_API_KEY", "key")
	t.Setenv("COINBASE_API_SECRET", "secret")

	Init(dir, "1.2.3")

	assert.Equal(t, "1.2.3", VERSION)
	assert.Equal(t, "hunter2", WEBHOOK_PASSWORD)
	assert.Equal(t, "bithub", WEBHOOK_USERNAME)
	assert.Equal(t, "0.02", PAYOUT_RATE)
	assert.Equal(t, []string{"192.30.252.0/22", "10.0.0.0/8"}, TRUSTED_CIDRS)
	assert.Equal(t, 30*time.Second, CACHE_REFRESH_INTERVAL)
	assert.Equal(t, "refs/heads/master", DEFAULT_REF)
	require.NoError(t, Validate())
}

func TestInitWithoutEnvFile(t *testing.T) {
	t.Setenv("PAYOUT_RATE", "")
	t.Setenv("WEBHOOK_PASSWORD", "")
	t.Setenv("WEBHOOK_PASSWORD_HASH", "")
	t.Setenv("CACHE_REFRESH_INTERVAL", "soon")

	Init(t.TempDir(), "")

	assert.Equal(t, time.Minute, CACHE_REFRESH_INTERVAL)
	assert.NotEmpty(t, VERSION)

	err := Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYOUT_RATE")
	assert.Contains(t, err.Error(), "WEBHOOK_PASSWORD")
}
