// Package memory provides an in-memory payload archive for development and
// testing.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scoreline/scoreline/internal/archive"
	"github.com/scoreline/scoreline/internal/scoreboard"
)

// Archive keeps payloads in a map keyed by object path.
type Archive struct {
	mu      sync.RWMutex
	objects map[string][]byte
	now     func() time.Time
}

// New constructs an Archive.
func New() *Archive {
	return &Archive{
		objects: make(map[string][]byte),
		now:     time.Now,
	}
}

// PutPayload stores a copy of the body and returns a mem:// URI.
func (a *Archive) PutPayload(_ context.Context, provider string, sport scoreboard.Sport, date string, body []byte) (string, error) {
	path := archive.ObjectPath(provider, sport, date, a.now())
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[path] = append([]byte(nil), body...)
	return fmt.Sprintf("mem://%s", path), nil
}

// Get returns a stored payload by path.
func (a *Archive) Get(path string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	body, ok := a.objects[path]
	return body, ok
}

// Len reports the number of stored payloads.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.objects)
}
