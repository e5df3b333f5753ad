// Package pagination implements the stateless cursor tokens used to resume
// listings across requests. Tokens are deliberately unsigned: they only
// position the caller's own enumeration and never feed authorization, so
// tampering moves nobody's data but the tamperer's cursor.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"
)

const (
	// DefaultMaxResults applies when the client sends nothing usable
	DefaultMaxResults = 100

	// MaxResultsCeiling is the hard server-side page size limit
	MaxResultsCeiling = 1000

	// TokenTTL is how long a cursor stays resumable
	TokenTTL = time.Hour
)

// tokenPayload is the wire shape: base64 of {"offset":n,"timestamp":ms}
type tokenPayload struct {
	Offset    int64 `json:"offset"`
	Timestamp int64 `json:"timestamp"`
}

// Codec encodes and decodes page tokens. The zero value is not usable;
// construct with NewCodec. now is injectable for TTL tests.
type Codec struct {
	now func() time.Time
}

// NewCodec returns a codec using wall-clock time
func NewCodec() *Codec {
	return &Codec{now: time.Now}
}

// NewCodecWithClock returns a codec with an injected clock
func NewCodecWithClock(now func() time.Time) *Codec {
	return &Codec{now: now}
}

// Encode serializes an offset into an opaque URL-safe token
func (c *Codec) Encode(offset int64) string {
	payload := tokenPayload{
		Offset:    offset,
		Timestamp: c.now().UnixMilli(),
	}
	// Marshal of a flat struct cannot fail.
	raw, _ := json.Marshal(payload)
	return base64.URLEncoding.EncodeToString(raw)
}

// Decode recovers the offset from a token. It fails soft: any malformed,
// wrong-typed, negative or expired token yields (0, false), and callers
// must treat that as "restart from offset 0", never as a request error.
func (c *Codec) Decode(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, false
	}

	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, false
	}
	if payload.Offset < 0 || payload.Timestamp <= 0 {
		return 0, false
	}

	issuedAt := time.UnixMilli(payload.Timestamp)
	if c.now().Sub(issuedAt) > TokenTTL {
		return 0, false
	}

	return payload.Offset, true
}

// Page is one slice of a listing plus the cursor to resume after it
type Page struct {
	Start     int64
	End       int64
	NextToken string
}

// Paginate resolves the window [offset, offset+maxResults) over a listing
// of total items. The starting offset comes from the token (0 when absent
// or invalid); NextToken is set iff the window end is still within bounds.
func (c *Codec) Paginate(total int64, maxResults int, token string) Page {
	offset, ok := c.Decode(token)
	if !ok {
		offset = 0
	}
	if offset > total {
		offset = total
	}

	limit := int64(ClampMaxResults(maxResults))
	end := offset + limit
	if end > total {
		end = total
	}

	page := Page{Start: offset, End: end}
	if end < total {
		page.NextToken = c.Encode(end)
	}
	return page
}

// ClampMaxResults applies the default and the hard ceiling
func ClampMaxResults(maxResults int) int {
	if maxResults <= 0 {
		return DefaultMaxResults
	}
	if maxResults > MaxResultsCeiling {
		return MaxResultsCeiling
	}
	return maxResults
}

// ResolveMaxResults parses the maxResults query parameter. Non-numeric or
// non-positive input falls back to the default; the ceiling always applies.
func ResolveMaxResults(raw string) int {
	if raw == "" {
		return DefaultMaxResults
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultMaxResults
	}
	return ClampMaxResults(n)
}
