package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := NewCodec()

	for _, offset := range []int64{0, 1, 99, 100, 1000, 1 << 40} {
		token := codec.Encode(offset)
		decoded, ok := codec.Decode(token)
		require.True(t, ok, "offset %d", offset)
		assert.Equal(t, offset, decoded)
	}
}

func TestDecodeFailsSoft(t *testing.T) {
	codec := NewCodec()

	bad := []string{
		"",
		"not-base64!!!",
		base64.URLEncoding.EncodeToString([]byte("not json")),
		base64.URLEncoding.EncodeToString([]byte(`{"offset":"ten","timestamp":1}`)),
		base64.URLEncoding.EncodeToString([]byte(`{"offset":-5,"timestamp":1700000000000}`)),
		base64.URLEncoding.EncodeToString([]byte(`{"offset":5}`)),
		base64.URLEncoding.EncodeToString([]byte(`{}`)),
	}
	for _, token := range bad {
		offset, ok := codec.Decode(token)
		assert.False(t, ok, "token %q", token)
		assert.Equal(t, int64(0), offset)
	}
}

func TestDecodeExpiredToken(t *testing.T) {
	clock := time.Now()
	codec := NewCodecWithClock(func() time.Time { return clock })

	token := codec.Encode(50)

	// Just inside the TTL.
	clock = clock.Add(TokenTTL - time.Second)
	offset, ok := codec.Decode(token)
	require.True(t, ok)
	assert.Equal(t, int64(50), offset)

	// Just past it.
	clock = clock.Add(2 * time.Second)
	_, ok = codec.Decode(token)
	assert.False(t, ok)
}

func TestDecodeRequiresURLSafeEncoding(t *testing.T) {
	clock := time.UnixMilli(1700000000000)
	codec := NewCodecWithClock(func() time.Time { return clock })

	// The wire format is one encoding. The same payload in the standard
	// alphabet ('+'/'/' instead of '-'/'_') fails soft.
	raw := []byte(`{"offset":7,"timestamp":1700000000000,"note":"???>"}`)

	offset, ok := codec.Decode(base64.URLEncoding.EncodeToString(raw))
	require.True(t, ok)
	assert.Equal(t, int64(7), offset)

	stdToken := base64.StdEncoding.EncodeToString(raw)
	require.NotEqual(t, base64.URLEncoding.EncodeToString(raw), stdToken)
	_, ok = codec.Decode(stdToken)
	assert.False(t, ok)
}

func TestPaginateWindowing(t *testing.T) {
	codec := NewCodec()

	page := codec.Paginate(10, 4, "")
	assert.Equal(t, int64(0), page.Start)
	assert.Equal(t, int64(4), page.End)
	assert.NotEmpty(t, page.NextToken)

	page = codec.Paginate(10, 4, page.NextToken)
	assert.Equal(t, int64(4), page.Start)
	assert.Equal(t, int64(8), page.End)
	assert.NotEmpty(t, page.NextToken)

	page = codec.Paginate(10, 4, page.NextToken)
	assert.Equal(t, int64(8), page.Start)
	assert.Equal(t, int64(10), page.End)
	assert.Empty(t, page.NextToken, "no nextToken on the final page")
}

func TestPaginateCompleteness(t *testing.T) {
	codec := NewCodec()
	const total = 37

	seen := make(map[int64]int)
	token := ""
	pages := 0
	for {
		page := codec.Paginate(total, 5, token)
		for i := page.Start; i < page.End; i++ {
			seen[i]++
		}
		pages++
		require.Less(t, pages, 100, "pagination did not terminate")
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	require.Len(t, seen, total)
	for i, count := range seen {
		assert.Equal(t, 1, count, "item %d enumerated %d times", i, count)
	}
}

func TestPaginateInvalidTokenRestarts(t *testing.T) {
	codec := NewCodec()

	page := codec.Paginate(10, 3, "garbage-token")
	assert.Equal(t, int64(0), page.Start)
	assert.Equal(t, int64(3), page.End)
}

func TestPaginateOffsetBeyondTotal(t *testing.T) {
	codec := NewCodec()
	token := codec.Encode(500)

	page := codec.Paginate(10, 3, token)
	assert.Equal(t, int64(10), page.Start)
	assert.Equal(t, int64(10), page.End)
	assert.Empty(t, page.NextToken)
}

func TestPaginateEmptyListing(t *testing.T) {
	codec := NewCodec()
	page := codec.Paginate(0, 100, "")
	assert.Equal(t, int64(0), page.Start)
	assert.Equal(t, int64(0), page.End)
	assert.Empty(t, page.NextToken)
}

func TestResolveMaxResults(t *testing.T) {
	cases := map[string]int{
		"":     DefaultMaxResults,
		"-10":  DefaultMaxResults,
		"0":    DefaultMaxResults,
		"abc":  DefaultMaxResults,
		"5000": MaxResultsCeiling,
		"50":   50,
		"1000": 1000,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ResolveMaxResults(raw), "maxResults=%q", raw)
	}
}
