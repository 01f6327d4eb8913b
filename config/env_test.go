package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFilesMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	yamlPath := filepath.Join(dir, "app.yaml")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"api_url":"http://json/api","pool_size":3}`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("api_url: http://yaml/api\nrequest_timeout: 5s\n"), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("API_URL=\"http://env/api\"\n# comment\nSTATE_DRIVER=memory\n"), 0o644))

	require.NoError(t, loadFromFiles(jsonPath, yamlPath, envPath))

	assert.Equal(t, "http://env/api", get("API_URL", ""))
	assert.Equal(t, "3", get("POOL_SIZE", ""))
	assert.Equal(t, "5s", get("REQUEST_TIMEOUT", ""))
	assert.Equal(t, "memory", get("STATE_DRIVER", ""))
}

func TestLoadFromFilesMissingFilesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, loadFromFiles(
		filepath.Join(dir, "nope.json"),
		filepath.Join(dir, "nope.yaml"),
		filepath.Join(dir, "nope.env"),
	))
	assert.Equal(t, defaultAPIURL, get("API_URL", ""))
}

func TestTypedAccessors(t *testing.T) {
	_ = Load()
	Set("API_URL", "http://example.test/api")
	Set("REQUEST_TIMEOUT", "garbage")
	Set("HTTP_RETRIES", "-4")
	Set("STATE_DRIVER", "floppy")

	assert.Equal(t, "http://example.test/api/", APIURL())
	assert.Equal(t, 30*time.Second, RequestTimeout())
	assert.Equal(t, 1, HTTPRetries())
	assert.Equal(t, "disk", StateDriver())

	Set("FEED_ORIGINS", " http://shop.test, ,http://admin.test")
	assert.Equal(t, []string{"http://shop.test", "http://admin.test"}, FeedOrigins())
	Set("FEED_ORIGINS", "")
	assert.Empty(t, FeedOrigins())
}
