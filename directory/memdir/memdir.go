// Package memdir is an in-memory [directory.Directory] for tests, local
// development and the load generator.
package memdir

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/credflow/directory"
)

// Directory keeps users in maps guarded by a mutex.
type Directory struct {
	mu         sync.RWMutex
	byID       map[string]directory.User
	byEmail    map[string]string
	byUsername map[string]string
	now        func() time.Time
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{
		byID:       make(map[string]directory.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		now:        time.Now,
	}
}

func (d *Directory) FindByEmail(_ context.Context, email string) (directory.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[email]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	return d.byID[id], nil
}

func (d *Directory) FindByID(_ context.Context, id string) (directory.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byID[id]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	return u, nil
}

func (d *Directory) ExistsByEmail(_ context.Context, email string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byEmail[email]
	return ok, nil
}

func (d *Directory) ExistsByUsername(_ context.Context, username string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byUsername[username]
	return ok, nil
}

func (d *Directory) Save(_ context.Context, u directory.User) (directory.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u.ID == "" {
		if _, taken := d.byEmail[u.Email]; taken {
			return directory.User{}, directory.ErrConflict
		}
		if _, taken := d.byUsername[u.Username]; taken {
			return directory.User{}, directory.ErrConflict
		}
		now := d.now()
		u.ID = directory.NewID(now)
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now.UTC()
		}
	} else {
		prev, ok := d.byID[u.ID]
		if !ok {
			return directory.User{}, directory.ErrNotFound
		}
		if owner, taken := d.byEmail[u.Email]; taken && owner != u.ID {
			return directory.User{}, directory.ErrConflict
		}
		if owner, taken := d.byUsername[u.Username]; taken && owner != u.ID {
			return directory.User{}, directory.ErrConflict
		}
		delete(d.byEmail, prev.Email)
		delete(d.byUsername, prev.Username)
	}

	d.byID[u.ID] = u
	d.byEmail[u.Email] = u.ID
	d.byUsername[u.Username] = u.ID
	return u, nil
}

func (d *Directory) MarkVerified(_ context.Context, id string) (directory.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byID[id]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	u.EmailVerified = true
	d.byID[id] = u
	return u, nil
}

func (d *Directory) SetPasswordHash(_ context.Context, id, expected, hash string) (directory.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byID[id]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	if expected != "" && u.PasswordHash != expected {
		return directory.User{}, directory.ErrStale
	}
	u.PasswordHash = hash
	d.byID[id] = u
	return u, nil
}

// Len returns the number of stored users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

var _ directory.Directory = (*Directory)(nil)
