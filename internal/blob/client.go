package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"systemqa/internal/services"
)

// Client reads and writes objects by key.
type Client interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

// Object is a stored blob with its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryClient is an in-memory Client.
type MemoryClient struct {
	mu      sync.Mutex
	objects map[string]Object
	// FailPut, when set, is consulted before every Put and its error returned.
	FailPut func(key string) error
}

// NewMemoryClient returns an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{objects: make(map[string]Object)}
}

// Get returns the object stored at key.
func (m *MemoryClient) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "blob", "get", fmt.Sprintf("no object at %q", key), nil)
	}
	return io.NopCloser(bytes.NewReader(obj.Data)), nil
}

// Put stores body at key.
func (m *MemoryClient) Put(_ context.Context, key string, body io.Reader, contentType string) error {
	if m.FailPut != nil {
		if err := m.FailPut(key); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: data, ContentType: contentType}
	return nil
}

// Object returns the object stored at key.
func (m *MemoryClient) Object(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Keys lists stored keys in sorted order.
func (m *MemoryClient) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
