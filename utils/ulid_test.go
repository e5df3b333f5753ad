package utils

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULIDStringUnique(t *testing.T) {
	const n = 200

	var mu sync.Mutex
	seen := make(map[string]bool, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := NewULIDString()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n, "concurrent ULID generation produced a duplicate")
}

func TestTempFilePath(t *testing.T) {
	p := TempFilePath("/tmp", "lakeshare-ingest", ".parquet")
	assert.Equal(t, "/tmp", filepath.Dir(p))
	base := filepath.Base(p)
	assert.True(t, strings.HasPrefix(base, "lakeshare-ingest-"))
	assert.True(t, strings.HasSuffix(base, ".parquet"))

	id := strings.TrimSuffix(strings.TrimPrefix(base, "lakeshare-ingest-"), ".parquet")
	_, err := ParseULID(id)
	require.NoError(t, err)

	assert.NotEqual(t, p, TempFilePath("/tmp", "lakeshare-ingest", ".parquet"))
}
