// Package dbmemory is an in-process record store used by tests and STORE_DRIVER=memory.
package dbmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"userdirectory/internal/common"
	"userdirectory/internal/user"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[int64]*user.User
}

var (
	_ user.UserRepository     = (*UserStore)(nil)
	_ user.SequentialInserter = (*UserStore)(nil)
)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]*user.User)}
}

func (s *UserStore) FindAll(ctx context.Context) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.snapshot(func(*user.User) bool { return true })
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (s *UserStore) FindPage(ctx context.Context, page, limit int) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.snapshot(func(*user.User) bool { return true })
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].UserID > all[j].UserID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := (page - 1) * limit
	if start >= len(all) {
		return []*user.User{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *UserStore) FindByID(ctx context.Context, userID int64) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("find user %d: %w", userID, common.ErrRecordNotFound)
	}
	return clone(u), nil
}

func (s *UserStore) Search(ctx context.Context, query string) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.snapshot(func(u *user.User) bool { return u.Matches(query) })
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (s *UserStore) MaxID(ctx context.Context) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var maxID int64
	for id := range s.users {
		if id > maxID {
			maxID = id
		}
	}
	return maxID, len(s.users) > 0, nil
}

func (s *UserStore) Insert(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(u)
}

// InsertNext assigns max+1 and inserts while holding the write lock.
func (s *UserStore) InsertNext(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	for id := range s.users {
		if id > maxID {
			maxID = id
		}
	}
	u.UserID = user.NextID(maxID, len(s.users) > 0)
	return s.insertLocked(u)
}

func (s *UserStore) insertLocked(u *user.User) error {
	if _, exists := s.users[u.UserID]; exists {
		return fmt.Errorf("insert user %d: %w", u.UserID, common.ErrIDConflict)
	}
	if s.conflicts(u.UserID, u.Email, u.Mobile) {
		return fmt.Errorf("insert user %d: %w", u.UserID, common.ErrUniquenessViolation)
	}
	s.users[u.UserID] = clone(u)
	return nil
}

func (s *UserStore) UpdateByID(ctx context.Context, userID int64, changes user.UserChanges) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("update user %d: %w", userID, common.ErrRecordNotFound)
	}

	updated := clone(existing)
	changes.Apply(updated)
	if s.conflicts(userID, updated.Email, updated.Mobile) {
		return nil, fmt.Errorf("update user %d: %w", userID, common.ErrUniquenessViolation)
	}
	s.users[userID] = updated
	return clone(updated), nil
}

func (s *UserStore) DeleteByID(ctx context.Context, userID int64) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("delete user %d: %w", userID, common.ErrRecordNotFound)
	}
	delete(s.users, userID)
	return u, nil
}

func (s *UserStore) Ping(ctx context.Context) error {
	return nil
}

// conflicts reports whether another record already uses email or mobile.
func (s *UserStore) conflicts(userID int64, email, mobile string) bool {
	for id, other := range s.users {
		if id == userID {
			continue
		}
		if other.Email == email || other.Mobile == mobile {
			return true
		}
	}
	return false
}

func (s *UserStore) snapshot(keep func(*user.User) bool) []*user.User {
	result := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		if keep(u) {
			result = append(result, clone(u))
		}
	}
	return result
}

func clone(u *user.User) *user.User {
	c := *u
	if u.ProfilePhotoPath != nil {
		p := *u.ProfilePhotoPath
		c.ProfilePhotoPath = &p
	}
	if u.Location != nil {
		l := *u.Location
		c.Location = &l
	}
	return &c
}
