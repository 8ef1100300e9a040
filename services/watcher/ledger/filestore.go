package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lockRetryInterval = 50 * time.Millisecond
	lockStaleAfter    = 30 * time.Second
)

// FileStore keeps a ledger in a single JSON file. Every update reads the
// whole file, applies the mutation, and atomically replaces the contents
// via a temp file and rename. A sibling .lock file serializes writers
// across processes so overlapping cron invocations cannot interleave
// their read-modify-write cycles.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	contents, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contents, nil
}

func (s *FileStore) lockPath() string {
	return s.Path + ".lock"
}

func (s *FileStore) acquireLock(ctx context.Context) (release func(), err error) {
	for {
		f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d", os.Getpid())
			f.Close()
			return func() { os.Remove(s.lockPath()) }, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}

		// a crashed run can leave the lock behind, steal it once
		// it is clearly abandoned
		info, statErr := os.Stat(s.lockPath())
		if statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			os.Remove(s.lockPath())
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func (s *FileStore) Update(ctx context.Context, mutate func(old []byte) ([]byte, error)) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}
	release, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer release()

	old, err := s.Load(ctx)
	if err != nil {
		return err
	}
	next, err := mutate(old)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(next); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
