// Package pagination implements opaque time-ordered cursors for list endpoints.
//
// Feeds in this API (articles, action history) are ordered newest first,
// so a cursor marks the position of the last item a client has seen and
// the next page is everything published strictly before it.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCursor is returned when a cursor token cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is a decoded position in a feed.
type Cursor struct {
	Before time.Time
	ID     string
}

// Encode returns an opaque token for the item at (ts, id).
func Encode(ts time.Time, id string) string {
	raw := strconv.FormatInt(ts.UnixNano(), 10) + ":" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a cursor token. An empty token decodes to nil, meaning
// "start from the newest item".
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	tsPart, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{Before: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// Page trims a slice fetched with limit+1 items down to limit and reports
// whether more items remain, along with the token for the next page.
// keyFn extracts the (timestamp, id) ordering key from an item.
func Page[T any](items []T, limit int, keyFn func(T) (time.Time, string)) ([]T, string, bool) {
	if len(items) <= limit {
		return items, "", false
	}
	items = items[:limit]
	ts, id := keyFn(items[len(items)-1])
	return items, Encode(ts, id), true
}
