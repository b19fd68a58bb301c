package objstore

import (
	"context"
	"fmt"
	"sync"

	"campaignspace/internal/common"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// Memory is an in-memory Client used by tests and local development.
// Error fields allow fault injection per operation.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]map[string]memoryObject

	// BaseURL is the endpoint used by ResolveURL (e.g. "http://store.local").
	BaseURL string

	// PutErr / GetErr, when set, are returned by the corresponding call.
	PutErr error
	GetErr error
}

var _ Client = (*Memory)(nil)

// NewMemory returns an empty in-memory store resolving URLs under baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		buckets: make(map[string]map[string]memoryObject),
		BaseURL: baseURL,
	}
}

func (m *Memory) Put(ctx context.Context, bucket, key string, data []byte, contentType string, allowOverwrite bool) error {
	if m.PutErr != nil {
		return m.PutErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string]memoryObject)
		m.buckets[bucket] = b
	}
	if _, exists := b[key]; exists && !allowOverwrite {
		return fmt.Errorf("put %s/%s: %w", bucket, key, common.ErrorConflict)
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	b[key] = memoryObject{data: stored, contentType: contentType}
	return nil
}

func (m *Memory) GetBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, common.ErrorNotFound)
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, nil
}

func (m *Memory) ResolveURL(bucket, key string) (string, error) {
	return resolvePublicURL(m.BaseURL, bucket, key)
}

// ContentType reports the stored content type for a key, for tests.
func (m *Memory) ContentType(bucket, key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buckets[bucket][key].contentType
}

// Exists reports whether a key is present.
func (m *Memory) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if m.GetErr != nil {
		return false, m.GetErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.buckets[bucket][key]
	return ok, nil
}
