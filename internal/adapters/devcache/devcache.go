// Package devcache persists resolved BLE device identities so later jobs
// can skip the discovery probe. One JSON file maps configured device names
// to the address and write characteristic that worked last time.
package devcache

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const cacheFileName = "devices.json"

// Entry records how a BLE printer was reached.
type Entry struct {
	Address        string `json:"address"`
	Characteristic string `json:"characteristic"`
}

// Cache is a file-backed name-to-Entry map. Not safe for concurrent use;
// callers serialize access the same way they serialize printer jobs.
type Cache struct {
	dir     string
	entries map[string]Entry
}

// Open loads the cache from dir, starting empty when no file exists yet.
func Open(dir string) (*Cache, error) {
	c := &Cache{dir: dir, entries: make(map[string]Entry)}

	data, err := os.ReadFile(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		// A corrupt cache is only an optimization loss; start over.
		c.entries = make(map[string]Entry)
	}
	return c, nil
}

// Lookup returns the cached entry for a device name.
func (c *Cache) Lookup(name string) (Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Store records the entry for a device name and persists the cache
// atomically (write to temp file, then rename).
func (c *Cache) Store(name string, e Entry) error {
	c.entries[name] = e

	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := c.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path())
}

// Forget drops the entry for a device name, persisting the removal.
// Used after a cached identity fails to connect.
func (c *Cache) Forget(name string) error {
	if _, ok := c.entries[name]; !ok {
		return nil
	}
	delete(c.entries, name)

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path())
}

func (c *Cache) path() string {
	return filepath.Join(c.dir, cacheFileName)
}
