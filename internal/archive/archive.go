// Package archive persists raw provider payloads so a bad mapping or an
// upstream schema drift can be replayed and diagnosed after the fact.
// Archiving is best-effort: the sync pipeline never fails because an archive
// write did.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

// Archive stores one raw upstream response body and returns a URI for it.
type Archive interface {
	PutPayload(ctx context.Context, provider string, sport scoreboard.Sport, date string, body []byte) (string, error)
}

// ObjectPath builds the storage key for one payload. Fetch time is part of
// the key so successive polls of the same date never overwrite each other.
func ObjectPath(provider string, sport scoreboard.Sport, date string, fetchedAt time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s.json", provider, sport, date, fetchedAt.UTC().Format("20060102T150405.000Z"))
}

// Nop discards payloads.
type Nop struct{}

// PutPayload implements Archive and does nothing.
func (Nop) PutPayload(context.Context, string, scoreboard.Sport, string, []byte) (string, error) {
	return "", nil
}
