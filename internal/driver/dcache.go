package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"tmplc/internal/diag"
	"tmplc/internal/project"
)

// Current schema version - increment when Payload format changes
const cacheSchemaVersion uint16 = 1

// Payload is what a build remembers about one compiled unit.
type Payload struct {
	Schema uint16

	Path        string
	ContentHash project.Digest
	Key         project.Digest

	Code        string
	Broken      bool
	Diagnostics []diag.Diagnostic
}

// Cache stores payloads by unit key. Implementations are safe for
// concurrent use.
type Cache interface {
	Get(key project.Digest) (*Payload, bool, error)
	Put(key project.Digest, p *Payload) error
}

// DiskCache хранит сгенерированные модули на диске, по файлу на ключ.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DefaultCacheDir is $XDG_CACHE_HOME/app, falling back to ~/.cache/app.
func DefaultCacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenDiskCache creates dir if needed and returns a cache rooted there.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := key.String()
	// двухсимвольный префикс, чтобы каталог не разрастался
	return filepath.Join(c.dir, "units", hexKey[:2], hexKey+".mp")
}

// Put serializes p and atomically replaces the entry for key.
func (c *DiskCache) Put(key project.Digest, p *Payload) (err error) {
	if c == nil || p == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	p.Schema = cacheSchemaVersion
	p.Key = key
	if err = msgpack.NewEncoder(f).Encode(p); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}

// Get reads the entry for key. Entries written by another schema version
// count as misses.
func (c *DiskCache) Get(key project.Digest) (*Payload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var p Payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return nil, false, err
	}
	if p.Schema != cacheSchemaVersion || p.Key != key {
		return nil, false, nil
	}
	return &p, true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
