package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeenLedgerPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "seen_urls.txt")

	ledger, err := OpenSeenLedger(path, 10)
	require.NoError(t, err)
	assert.False(t, ledger.Seen("https://a.example/1"))

	require.NoError(t, ledger.Mark("https://a.example/1"))
	require.NoError(t, ledger.Mark("https://a.example/1"))
	assert.True(t, ledger.Seen("https://a.example/1"))
	assert.Equal(t, 1, ledger.Len())

	reopened, err := OpenSeenLedger(path, 10)
	require.NoError(t, err)
	assert.True(t, reopened.Seen(" https://a.example/1 "))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Fields(string(raw))
	require.Len(t, lines, 1)
	assert.Len(t, lines[0], 8)
}

func TestSeenLedgerCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_urls.txt")

	ledger, err := OpenSeenLedger(path, 3)
	require.NoError(t, err)
	for _, u := range []string{"https://a/1", "https://a/2", "https://a/3", "https://a/4"} {
		require.NoError(t, ledger.Mark(u))
	}

	assert.Equal(t, 3, ledger.Len())
	assert.False(t, ledger.Seen("https://a/1"))
	assert.True(t, ledger.Seen("https://a/4"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(string(raw)), 3)
}

func TestURLHashMatchesLegacyFormat(t *testing.T) {
	// md5("http://example.com/1") and md5("http://example.com/1/")
	assert.Equal(t, "9be0f2d9", urlHash("http://example.com/1"))
	assert.Equal(t, "0636d7be", urlHash("http://example.com/1/"))
}

func TestSeenLedgerKeepsTrailingSlashDistinct(t *testing.T) {
	ledger, err := OpenSeenLedger(filepath.Join(t.TempDir(), "seen_urls.txt"), 10)
	require.NoError(t, err)

	require.NoError(t, ledger.Mark("http://example.com/1/"))
	assert.True(t, ledger.Seen("http://example.com/1/"))
	assert.False(t, ledger.Seen("http://example.com/1"))
}
