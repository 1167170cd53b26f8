package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"userdirectory/internal/common"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

//go:generate mockgen -source=user_service.go -destination=mock_service.go -package=user

// UserService is the record lifecycle manager: it sequences id allocation,
// persistence and profile photo storage.
type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput, photo *Photo) (*User, error)
	EditUser(ctx context.Context, userID int64, in UpdateUserInput, photo *Photo) (*User, error)
	DeleteUser(ctx context.Context, userID int64) error
	GetUser(ctx context.Context, userID int64) (*User, error)
	ListUsers(ctx context.Context, page, limit int) ([]*User, error)
	SearchUsers(ctx context.Context, query string) ([]*User, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type Options struct {
	// DeletePhotoOnDelete removes the stored photo together with the record.
	// Off by default: deleted users keep their photo file.
	DeletePhotoOnDelete bool
}

type userService struct {
	repo   UserRepository
	photos PhotoStorage
	logger *slog.Logger
	opts   Options
	now    func() time.Time
}

func NewUserService(repo UserRepository, photos PhotoStorage, logger *slog.Logger, opts Options) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{
		repo:   repo,
		photos: photos,
		logger: logger,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput, photo *Photo) (*User, error) {
	user, err := newUserFromInput(in)
	if err != nil {
		return nil, err
	}
	if photo == nil || photo.Content == nil {
		return nil, common.ErrMissingAttachment
	}
	contentType, err := validatePhoto(photo)
	if err != nil {
		return nil, err
	}

	path, err := s.photos.Save(ctx, photo.Filename, contentType, photo.Content)
	if err != nil {
		return nil, fmt.Errorf("store profile photo: %w", err)
	}
	user.ProfilePhotoPath = &path

	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.allocateAndInsert(ctx, user); err != nil {
		s.removePhoto(ctx, path, "create failed")
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.UserID, "request_id", common.RequestIDFromContext(ctx))
	return user, nil
}

// allocateAndInsert assigns max+1 and inserts. The store rejects a duplicate
// userId with ErrIDConflict, in which case the maximum is re-read.
func (s *userService) allocateAndInsert(ctx context.Context, user *User) error {
	if seq, ok := s.repo.(SequentialInserter); ok {
		return seq.InsertNext(ctx, user)
	}
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		maxID, found, err := s.repo.MaxID(ctx)
		if err != nil {
			return fmt.Errorf("allocate user id: %w", err)
		}
		user.UserID = NextID(maxID, found)

		err = s.repo.Insert(ctx, user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrIDConflict) {
			return err
		}
		s.logger.WarnContext(ctx, "user id taken by concurrent insert, retrying",
			"user_id", user.UserID, "attempt", attempt)
	}
	return fmt.Errorf("allocate user id after %d attempts: %w", maxAllocationAttempts, common.ErrIDConflict)
}

func (s *userService) EditUser(ctx context.Context, userID int64, in UpdateUserInput, photo *Photo) (*User, error) {
	changes, err := changesFromInput(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var newPath string
	if photo != nil && photo.Content != nil {
		contentType, err := validatePhoto(photo)
		if err != nil {
			return nil, err
		}
		newPath, err = s.photos.Save(ctx, photo.Filename, contentType, photo.Content)
		if err != nil {
			return nil, fmt.Errorf("store profile photo: %w", err)
		}
		changes.ProfilePhotoPath = &newPath
	}
	changes.UpdatedAt = s.now()

	updated, err := s.repo.UpdateByID(ctx, userID, changes)
	if err != nil {
		if newPath != "" {
			s.removePhoto(ctx, newPath, "edit failed")
		}
		return nil, err
	}

	if newPath != "" && existing.ProfilePhotoPath != nil {
		if old := *existing.ProfilePhotoPath; old != "" && old != newPath {
			s.removePhoto(ctx, old, "replaced")
		}
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", userID, "photo_replaced", newPath != "")
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID int64) error {
	deleted, err := s.repo.DeleteByID(ctx, userID)
	if err != nil {
		return err
	}

	if s.opts.DeletePhotoOnDelete && deleted.ProfilePhotoPath != nil && *deleted.ProfilePhotoPath != "" {
		s.removePhoto(ctx, *deleted.ProfilePhotoPath, "user deleted")
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}

func (s *userService) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

// ListUsers returns everything when page and limit are both zero, otherwise one page.
func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]*User, error) {
	if page == 0 && limit == 0 {
		return s.repo.FindAll(ctx)
	}

	verr := common.NewValidationError()
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if page < 1 {
		verr.Add("page", "must be at least 1")
	}
	if limit < 1 || limit > maxPageSize {
		verr.Add("limit", fmt.Sprintf("must be between 1 and %d", maxPageSize))
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}
	return s.repo.FindPage(ctx, page, limit)
}

func (s *userService) SearchUsers(ctx context.Context, query string) ([]*User, error) {
	users, err := s.repo.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*User{}
	}
	return users, nil
}

func (s *userService) ExportCSV(ctx context.Context, w io.Writer) error {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}
	return WriteCSV(w, users)
}

// removePhoto never fails the calling operation; errors are logged.
func (s *userService) removePhoto(ctx context.Context, path, reason string) {
	if err := s.photos.Remove(ctx, path); err != nil {
		s.logger.WarnContext(ctx, "could not remove profile photo",
			"path", path, "reason", reason, "error", err)
	}
}

func newUserFromInput(in CreateUserInput) (*User, error) {
	verr := common.NewValidationError()

	if err := common.ValidateName(in.FirstName); err != nil {
		verr.Add("firstName", err.Error())
	}
	if err := common.ValidateName(in.LastName); err != nil {
		verr.Add("lastName", err.Error())
	}
	if err := common.ValidateEmail(in.Email); err != nil {
		verr.Add("email", err.Error())
	}
	if err := common.ValidateMobile(in.Mobile); err != nil {
		verr.Add("mobile", err.Error())
	}
	gender, ok := ParseGender(in.Gender)
	if !ok {
		verr.Add("gender", "must be Male or Female")
	}
	status := StatusActive
	if strings.TrimSpace(in.Status) != "" {
		if status, ok = ParseStatus(in.Status); !ok {
			verr.Add("status", "must be active or inactive")
		}
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	user := &User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     common.NormalizeEmail(in.Email),
		Mobile:    strings.TrimSpace(in.Mobile),
		Gender:    gender,
		Status:    status,
	}
	if loc := strings.TrimSpace(in.Location); loc != "" {
		user.Location = &loc
	}
	return user, nil
}

func changesFromInput(in UpdateUserInput) (UserChanges, error) {
	verr := common.NewValidationError()
	var c UserChanges

	if in.FirstName != nil {
		if err := common.ValidateName(*in.FirstName); err != nil {
			verr.Add("firstName", err.Error())
		}
		c.FirstName = trimmed(*in.FirstName)
	}
	if in.LastName != nil {
		if err := common.ValidateName(*in.LastName); err != nil {
			verr.Add("lastName", err.Error())
		}
		c.LastName = trimmed(*in.LastName)
	}
	if in.Email != nil {
		if err := common.ValidateEmail(*in.Email); err != nil {
			verr.Add("email", err.Error())
		}
		email := common.NormalizeEmail(*in.Email)
		c.Email = &email
	}
	if in.Mobile != nil {
		if err := common.ValidateMobile(*in.Mobile); err != nil {
			verr.Add("mobile", err.Error())
		}
		c.Mobile = trimmed(*in.Mobile)
	}
	if in.Gender != nil {
		gender, ok := ParseGender(*in.Gender)
		if !ok {
			verr.Add("gender", "must be Male or Female")
		}
		c.Gender = &gender
	}
	if in.Status != nil {
		status, ok := ParseStatus(*in.Status)
		if !ok {
			verr.Add("status", "must be active or inactive")
		}
		c.Status = &status
	}
	if in.Location != nil {
		c.Location = trimmed(*in.Location)
	}

	return c, verr.ErrOrNil()
}

func validatePhoto(photo *Photo) (string, error) {
	ct := common.ParsePhotoContentType(photo.ContentType)
	if ct == "" {
		ct = common.ParsePhotoContentType(common.ContentTypeForFilename(photo.Filename))
	}
	if !ct.IsValid() {
		verr := common.NewValidationError()
		verr.Add("profilePhoto", "Incorrect file. Please use .jpeg, .png or .gif files.")
		return "", verr
	}
	return ct.String(), nil
}

func trimmed(s string) *string {
	t := strings.TrimSpace(s)
	return &t
}
