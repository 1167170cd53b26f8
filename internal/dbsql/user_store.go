package dbsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"userdirectory/internal/common"
	"userdirectory/internal/user"
)

type UserStore struct {
	db *gorm.DB
}

var _ user.UserRepository = (*UserStore)(nil)

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindAll(ctx context.Context) ([]*user.User, error) {
	users := []*user.User{}
	if err := s.db.WithContext(ctx).Order("user_id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return users, nil
}

func (s *UserStore) FindPage(ctx context.Context, page, limit int) ([]*user.User, error) {
	users := []*user.User{}
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("user_id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("query users page %d: %w", page, err)
	}
	return users, nil
}

func (s *UserStore) FindByID(ctx context.Context, userID int64) (*user.User, error) {
	return findByID(s.db.WithContext(ctx), userID)
}

func findByID(db *gorm.DB, userID int64) (*user.User, error) {
	var u user.User
	if err := db.Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find user %d: %w", userID, common.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	return &u, nil
}

// Search does a literal, case-insensitive substring match; LIKE wildcards in
// the query are escaped.
func (s *UserStore) Search(ctx context.Context, query string) ([]*user.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	users := []*user.User{}
	err := s.db.WithContext(ctx).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(mobile) LIKE ?",
			pattern, pattern, pattern, pattern).
		Order("user_id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

func (s *UserStore) MaxID(ctx context.Context) (int64, bool, error) {
	var maxID sql.NullInt64
	row := s.db.WithContext(ctx).Model(&user.User{}).Select("MAX(user_id)").Row()
	if err := row.Scan(&maxID); err != nil {
		return 0, false, fmt.Errorf("read max user id: %w", err)
	}
	return maxID.Int64, maxID.Valid, nil
}

func (s *UserStore) Insert(ctx context.Context, u *user.User) error {
	db := s.db.WithContext(ctx)
	err := db.Create(u).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("insert user %d: %w", u.UserID, err)
	}

	// the driver does not say which index was hit
	taken, cerr := contactTaken(db, u.UserID, u.Email, u.Mobile)
	if cerr != nil {
		return fmt.Errorf("insert user %d: %w", u.UserID, cerr)
	}
	if taken {
		return fmt.Errorf("insert user %d: %w", u.UserID, common.ErrUniquenessViolation)
	}
	return fmt.Errorf("insert user %d: %w", u.UserID, common.ErrIDConflict)
}

func (s *UserStore) UpdateByID(ctx context.Context, userID int64, changes user.UserChanges) (*user.User, error) {
	var updated *user.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByID(tx, userID)
		if err != nil {
			return err
		}

		values := updateColumns(changes)
		if len(values) > 0 {
			if err := tx.Model(&user.User{}).Where("user_id = ?", userID).Updates(values).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("update user %d: %w", userID, common.ErrUniquenessViolation)
				}
				return fmt.Errorf("update user %d: %w", userID, err)
			}
		}

		changes.Apply(existing)
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserStore) DeleteByID(ctx context.Context, userID int64) (*user.User, error) {
	var deleted *user.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByID(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&user.User{}).Error; err != nil {
			return fmt.Errorf("delete user %d: %w", userID, err)
		}
		deleted = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *UserStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func contactTaken(db *gorm.DB, userID int64, email, mobile string) (bool, error) {
	var count int64
	err := db.Model(&user.User{}).
		Where("(email = ? OR mobile = ?) AND user_id <> ?", email, mobile, userID).
		Count(&count).Error
	return count > 0, err
}

func updateColumns(c user.UserChanges) map[string]interface{} {
	values := map[string]interface{}{}
	if c.FirstName != nil {
		values["first_name"] = *c.FirstName
	}
	if c.LastName != nil {
		values["last_name"] = *c.LastName
	}
	if c.Email != nil {
		values["email"] = *c.Email
	}
	if c.Mobile != nil {
		values["mobile"] = *c.Mobile
	}
	if c.Gender != nil {
		values["gender"] = string(*c.Gender)
	}
	if c.Status != nil {
		values["status"] = string(*c.Status)
	}
	if c.Location != nil {
		values["location"] = *c.Location
	}
	if c.ProfilePhotoPath != nil {
		values["profile_photo_path"] = *c.ProfilePhotoPath
	}
	if !c.UpdatedAt.IsZero() {
		values["updated_at"] = c.UpdatedAt
	}
	return values
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
