// Package kvcache reads and writes the local key-value cache that held
// rankings before they were stored remotely, and imports it into the store.
package kvcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Keys used by the cache. Every value is a JSON-encoded array.
const (
	KeyRankingItems = "@ranking_items"
	KeyMovieLists   = "@movie_lists"
	listItemsPrefix = "@ranking_items_"
)

// ListItemsKey returns the key holding the items of one list.
func ListItemsKey(listID string) string {
	return listItemsPrefix + listID
}

// Cache is a single JSON file mapping string keys to JSON-encoded values.
// Every Set and Delete rewrites the file.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

// Open loads the cache at path. A missing file is an empty cache.
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, entries: map[string]string{}}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(b) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(b, &c.entries); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return c, nil
}

// Get decodes the value at key into v. It reports false for a missing key.
func (c *Cache) Get(key string, v any) (bool, error) {
	c.mu.Lock()
	raw, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set encodes v and stores it at key.
func (c *Cache) Set(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = string(b)
	return c.save()
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return nil
	}
	delete(c.entries, key)
	return c.save()
}

// Keys returns every key in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (c *Cache) save() error {
	b, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	// Write then rename so a crash never leaves a truncated cache.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
