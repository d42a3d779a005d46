package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// ObjectStore keeps objects in a map; useful for tests and demos.
type ObjectStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]storedObject
	puts    int
}

type storedObject struct {
	data        []byte
	contentType string
}

func NewObjectStore(baseURL string) *ObjectStore {
	return &ObjectStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]storedObject),
	}
}

func (s *ObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0)
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *ObjectStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{data: buf, contentType: contentType}
	s.puts++
	return nil
}

func (s *ObjectStore) PublicURL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// Get returns a stored object.
func (s *ObjectStore) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}

// Puts counts successful uploads.
func (s *ObjectStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
