package user

import (
	"context"
	"io"
)

//go:generate mockgen -source=user_repository.go -destination=mock_repository.go -package=user

// UserRepository is the record store. Implementations live in dbmemory, dbmongo and dbsql.
type UserRepository interface {
	// FindAll returns every record ordered by userId ascending.
	FindAll(ctx context.Context) ([]*User, error)
	// FindPage returns one page ordered by createdAt descending.
	FindPage(ctx context.Context, page, limit int) ([]*User, error)
	FindByID(ctx context.Context, userID int64) (*User, error)
	// Search matches query case-insensitively against firstName, lastName, email and mobile.
	Search(ctx context.Context, query string) ([]*User, error)
	// MaxID returns the highest userId; found is false for an empty store.
	MaxID(ctx context.Context) (maxID int64, found bool, err error)
	// Insert fails with common.ErrUniquenessViolation on email/mobile and
	// common.ErrIDConflict on userId collisions.
	Insert(ctx context.Context, user *User) error
	UpdateByID(ctx context.Context, userID int64, changes UserChanges) (*User, error)
	DeleteByID(ctx context.Context, userID int64) (*User, error)
	Ping(ctx context.Context) error
}

// SequentialInserter is implemented by stores that can allocate the next
// userId and insert under one lock. The service prefers it over MaxID+Insert.
type SequentialInserter interface {
	InsertNext(ctx context.Context, user *User) error
}

// PhotoStorage keeps profile photo bytes. Save returns the path recorded on the user.
type PhotoStorage interface {
	Save(ctx context.Context, filename, contentType string, content io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}
