package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/MimeLyc/dualsub-engine/internal/subtitle"
)

// Key identifies one aligned translation. The model component means the
// same content and language pair translated by two different models coexist
// as independent entries.
type Key struct {
	ContentID  string
	SourceLang string
	TargetLang string
	Model      string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.ContentID, k.SourceLang, k.TargetLang, k.Model)
}

func (k Key) Validate() error {
	if k.ContentID == "" {
		return fmt.Errorf("cache key needs a content id")
	}
	if k.SourceLang == "" || k.TargetLang == "" {
		return fmt.Errorf("cache key needs both languages")
	}
	return nil
}

// Store is the persistent backing for cached translations.
type Store interface {
	GetSubtitles(ctx context.Context, key string) ([]subtitle.Line, bool, error)
	PutSubtitles(ctx context.Context, key string, contentID string, lines []subtitle.Line) error
	ClearContent(ctx context.Context, contentID string) error
}

// Cache maps (content, language pair, model) to a fully aligned subtitle
// sequence. Entries are only ever replaced wholesale and persist until an
// explicit clear.
type Cache struct {
	store Store
}

func New(store Store) *Cache {
	return &Cache{store: store}
}

// Get returns the stored sequence for the key, or ok=false.
func (c *Cache) Get(ctx context.Context, key Key) ([]subtitle.Line, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	return c.store.GetSubtitles(ctx, key.String())
}

// Put replaces any prior entry for the key.
func (c *Cache) Put(ctx context.Context, key Key, lines []subtitle.Line) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return c.store.PutSubtitles(ctx, key.String(), key.ContentID, lines)
}

// Clear removes every entry for the content id, regardless of language
// pair or model.
func (c *Cache) Clear(ctx context.Context, contentID string) error {
	if contentID == "" {
		return fmt.Errorf("content id is required")
	}
	return c.store.ClearContent(ctx, contentID)
}

// MemoryStore is an in-memory Store, used in tests and as a fallback when
// no database path is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	contentID string
	lines     []subtitle.Line
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) GetSubtitles(_ context.Context, key string) ([]subtitle.Line, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]subtitle.Line, len(entry.lines))
	copy(out, entry.lines)
	return out, true, nil
}

func (s *MemoryStore) PutSubtitles(_ context.Context, key string, contentID string, lines []subtitle.Line) error {
	stored := make([]subtitle.Line, len(lines))
	copy(stored, lines)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{contentID: contentID, lines: stored}
	return nil
}

func (s *MemoryStore) ClearContent(_ context.Context, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.contentID == contentID {
			delete(s.entries, key)
		}
	}
	return nil
}
