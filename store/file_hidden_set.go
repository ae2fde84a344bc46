// store/file_hidden_set.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v3"

	"hide-seek-bot/utils"
)

type hiddenSnapshot struct {
	Items []string `yaml:"items"`
}

// FileHiddenSet keeps single-claim items in a YAML snapshot.
// Every change re-reads the file while holding an OS lock on path+".lock", then writes it back
// with an atomic rename, so bot processes sharing one snapshot never both remove the same id.
type FileHiddenSet struct {
	path string
	lock *flock.Flock

	mu  sync.Mutex
	ids map[string]struct{}
}

// OpenFileHiddenSet loads the snapshot at path, starting empty if it does not exist yet.
func OpenFileHiddenSet(path string) (*FileHiddenSet, error) {
	if err := utils.EnsureDir(path); err != nil {
		return nil, err
	}
	s := &FileHiddenSet{
		path: path,
		lock: flock.New(path + ".lock"),
		ids:  make(map[string]struct{}),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileHiddenSet) RemoveIfPresent(ctx context.Context, itemID string) (bool, error) {
	var removed bool
	err := s.update(ctx, func() bool {
		if _, ok := s.ids[itemID]; !ok {
			return false
		}
		delete(s.ids, itemID)
		removed = true
		return true
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *FileHiddenSet) Add(ctx context.Context, itemID string) error {
	return s.update(ctx, func() bool {
		if _, ok := s.ids[itemID]; ok {
			return false
		}
		s.ids[itemID] = struct{}{}
		return true
	})
}

// update runs change against the on-disk snapshot while holding both locks.
// The snapshot is written back only when change reports a modification.
func (s *FileHiddenSet) update(ctx context.Context, change func() bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", s.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to lock %s", s.path)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			log.Printf("⚠️ [HIDDEN_SET] Unlock of %s failed: %v", s.path, err)
		}
	}()

	if err := s.readLocked(); err != nil {
		return err
	}
	if !change() {
		return nil
	}
	if err := s.persistLocked(); err != nil {
		// the file is still the source of truth; drop the unsaved change
		if rerr := s.readLocked(); rerr != nil {
			log.Printf("❌ [HIDDEN_SET] Reload after failed write: %v", rerr)
		}
		return err
	}
	return nil
}

func (s *FileHiddenSet) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readLocked(); err != nil {
		return nil, err
	}
	return s.sortedLocked(), nil
}

// Watch reloads the snapshot whenever the file is replaced or edited outside the bot.
// It blocks until ctx is done.
func (s *FileHiddenSet) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory: atomic renames replace the inode a file watch would follow
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := s.reload(); err != nil {
				log.Printf("❌ [HIDDEN_SET] Reload of %s failed: %v", s.path, err)
				continue
			}
			log.Printf("🔁 [HIDDEN_SET] Reloaded %s", s.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("⚠️ [HIDDEN_SET] Watcher error: %v", err)
		}
	}
}

// reload reads the file under the mutex so a concurrent removal can't be undone by a stale read.
func (s *FileHiddenSet) reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *FileHiddenSet) readLocked() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.ids = make(map[string]struct{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var snap hiddenSnapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	ids := make(map[string]struct{}, len(snap.Items))
	for _, id := range snap.Items {
		ids[id] = struct{}{}
	}
	s.ids = ids
	return nil
}

func (s *FileHiddenSet) persistLocked() error {
	raw, err := yaml.Marshal(hiddenSnapshot{Items: s.sortedLocked()})
	if err != nil {
		return fmt.Errorf("failed to encode hidden set: %w", err)
	}
	return utils.WriteFileAtomic(s.path, raw, 0o600)
}

func (s *FileHiddenSet) sortedLocked() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
