package testutil

import (
	"net/url"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// YDBURLEnv is the environment variable with YDB URI used by integration tests.
const YDBURLEnv = "YDB_URL"

// directoryNameCharacters are characters replaced in test directory names.
var directoryNameCharacters = regexp.MustCompile(`[^a-z0-9_]`)

// TestYDBURI returns YDB URI for integration tests.
// The test is skipped in -short mode or when the URI is not set.
func TestYDBURI(tb testing.TB) string {
	tb.Helper()

	if testing.Short() {
		tb.Skip("skipping in -short mode")
	}

	uri := os.Getenv(YDBURLEnv)
	if uri == "" {
		tb.Skipf("%s is not set", YDBURLEnv)
	}

	u, err := url.Parse(uri)
	require.NoError(tb, err)
	require.NotEmpty(tb, u.Host)

	return uri
}

// DirectoryName returns a stable YDB directory name for the given test.
func DirectoryName(tb testing.TB) string {
	tb.Helper()

	name := strings.ToLower(tb.Name())
	name = directoryNameCharacters.ReplaceAllString(name, "_")

	return "test_" + name
}
