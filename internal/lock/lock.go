// Package lock keeps a single growl daemon per user session.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// owner is the lock file body.
type owner struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`
}

// Lock is a pid file created exclusively in a runtime directory.
type Lock struct {
	path string
	name string
}

func fileName(name string) string {
	return "growl-" + name + ".lock"
}

// New returns the lock for name in dir. Nothing touches the disk until Acquire.
func New(dir, name string) *Lock {
	return &Lock{path: filepath.Join(dir, fileName(name)), name: name}
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Acquire creates the lock file, failing when a live process holds it. A lock
// left by a dead process is removed and creation is retried once.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err := l.create()
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("creating lock: %w", err)
		}
		if attempt > 0 {
			return fmt.Errorf("lock %s is held by another process: %w", l.path, err)
		}

		held, err := readOwner(l.path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Released between our create and read.
			continue
		case err != nil:
			// Possibly another process between its create and write.
			return fmt.Errorf("lock %s is unreadable, remove it if no daemon is running: %w", l.path, err)
		case processAlive(held.PID):
			return fmt.Errorf("%s is already running (PID %d)", held.Name, held.PID)
		}

		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale lock: %w", err)
		}
	}
}

func (l *Lock) create() error {
	data, err := json.Marshal(owner{PID: os.Getpid(), Name: l.name})
	if err != nil {
		return fmt.Errorf("encoding lock: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(l.path)
		return fmt.Errorf("writing lock: %w", err)
	}
	return f.Close()
}

// Release removes the lock file. Releasing an absent lock is not an error.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

func readOwner(path string) (owner, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path built from the runtime dir
	if err != nil {
		return owner{}, err
	}
	var o owner
	if err := json.Unmarshal(data, &o); err != nil {
		return owner{}, err
	}
	return o, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
