package passwords

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"magicwords/logger"

	"github.com/fsnotify/fsnotify"
)

//go:embed common-passwords.txt
var builtin embed.FS

// Denylist is the set of passwords rejected as too common. It is the
// built-in list plus an optional operator file that can be reloaded while
// the process runs.
type Denylist struct {
	base map[string]struct{}

	mu    sync.RWMutex
	extra map[string]struct{}
	path  string
}

// NewDenylist returns a Denylist holding only the built-in entries.
func NewDenylist() *Denylist {
	f, err := builtin.Open("common-passwords.txt")
	if err != nil {
		panic(fmt.Sprintf("passwords: embedded list missing: %v", err))
	}
	defer f.Close()
	base, err := readList(f)
	if err != nil {
		panic(fmt.Sprintf("passwords: embedded list unreadable: %v", err))
	}
	return &Denylist{base: base, extra: map[string]struct{}{}}
}

// LoadDenylist returns the built-in list extended with the entries in path.
// An empty path is the same as NewDenylist.
func LoadDenylist(path string) (*Denylist, error) {
	d := NewDenylist()
	if path == "" {
		return d, nil
	}
	d.path = path
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Denylist) Contains(password string) bool {
	if _, ok := d.base[password]; ok {
		return true
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.extra[password]
	return ok
}

// Len counts built-in and file entries; overlaps are counted twice.
func (d *Denylist) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.base) + len(d.extra)
}

// Reload re-reads the operator file. On error the previous entries stay.
func (d *Denylist) Reload() error {
	if d.path == "" {
		return nil
	}
	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("open denylist %s: %w", d.path, err)
	}
	defer f.Close()
	extra, err := readList(f)
	if err != nil {
		return fmt.Errorf("read denylist %s: %w", d.path, err)
	}

	d.mu.Lock()
	d.extra = extra
	d.mu.Unlock()
	logger.Info("Password denylist loaded",
		logger.String("path", d.path),
		logger.Int("entries", len(extra)))
	return nil
}

// Watch reloads the operator file whenever it changes, until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (d *Denylist) Watch(ctx context.Context) error {
	if d.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create denylist watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(d.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch denylist dir: %w", err)
	}

	target := filepath.Clean(d.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := d.Reload(); err != nil {
						logger.Warn("Password denylist reload failed", logger.ErrorField(err))
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Password denylist watcher error", logger.ErrorField(err))
			}
		}
	}()
	return nil
}

// readList parses one password per line, lower-cased; blank lines and
// lines starting with '#' are skipped.
func readList(r io.Reader) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}
	return set, sc.Err()
}
