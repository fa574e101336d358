// Package blob abstracts binary asset storage behind upload/delete by
// opaque handle.
package blob

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store uploads and deletes binary content by opaque handle.
type Store interface {
	// Upload stores data under the given folder and returns a handle
	// (usually a URL) that can later be passed to Delete.
	Upload(ctx context.Context, folder string, data []byte, ext string) (string, error)
	Delete(ctx context.Context, handle string) error
}

// DecodeDataURI parses a base64 data URI (data:image/png;base64,...)
// into raw bytes and a file extension. ok is false for anything that
// is not a data URI, such as an already-uploaded handle.
func DecodeDataURI(s string) (data []byte, ext string, ok bool) {
	if !strings.HasPrefix(s, "data:") {
		return nil, "", false
	}
	meta, payload, found := strings.Cut(s, ",")
	if !found {
		return nil, "", false
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}

	mime := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	ext = "bin"
	if _, sub, found := strings.Cut(mime, "/"); found && sub != "" {
		ext = sub
	}
	return data, ext, true
}

// Memory is an in-process blob store for tests and local runs.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemory constructs an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Upload(_ context.Context, folder string, data []byte, ext string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handle := fmt.Sprintf("mem://%s/%s.%s", folder, uuid.New().String(), ext)
	m.objects[handle] = data
	return handle, nil
}

func (m *Memory) Delete(_ context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, handle)
	return nil
}

// Len reports the number of stored objects. Test helper.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
