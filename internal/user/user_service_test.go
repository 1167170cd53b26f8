package user

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userdirectory/internal/common"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts Options) (*userService, *MockUserRepository, *MockPhotoStorage) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := NewMockUserRepository(ctrl)
	photos := NewMockPhotoStorage(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewUserService(repo, photos, logger, opts).(*userService)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, photos
}

func validCreateInput() CreateUserInput {
	return CreateUserInput{
		FirstName: " John ",
		LastName:  "Doe",
		Email:     "John.Doe@Example.COM",
		Mobile:    "+1 555 000 1111",
		Gender:    "Male",
		Location:  "Berlin",
	}
}

func pngPhoto() *Photo {
	return &Photo{Filename: "me.png", ContentType: "image/png", Size: 3, Content: strings.NewReader("png")}
}

func strPtr(s string) *string { return &s }

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success normalizes and allocates next id", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{})

		gomock.InOrder(
			photos.EXPECT().Save(ctx, "me.png", "image/png", gomock.Any()).Return("uploads/1-me.png", nil),
			repo.EXPECT().MaxID(ctx).Return(int64(4), true, nil),
			repo.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *User) error {
				assert.Equal(t, int64(5), u.UserID)
				return nil
			}),
		)

		u, err := svc.CreateUser(ctx, validCreateInput(), pngPhoto())
		require.NoError(t, err)
		assert.Equal(t, int64(5), u.UserID)
		assert.Equal(t, "John", u.FirstName)
		assert.Equal(t, "john.doe@example.com", u.Email)
		assert.Equal(t, GenderMale, u.Gender)
		assert.Equal(t, StatusActive, u.Status)
		assert.Equal(t, "uploads/1-me.png", *u.ProfilePhotoPath)
		assert.Equal(t, "Berlin", *u.Location)
		assert.Equal(t, fixedNow, u.CreatedAt)
		assert.Equal(t, fixedNow, u.UpdatedAt)
	})

	t.Run("first user gets id 1", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{})
		photos.EXPECT().Save(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("uploads/x.png", nil)
		repo.EXPECT().MaxID(ctx).Return(int64(0), false, nil)
		repo.EXPECT().Insert(ctx, gomock.Any()).Return(nil)

		u, err := svc.CreateUser(ctx, validCreateInput(), pngPhoto())
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.UserID)
	})

	t.Run("missing photo", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{})

		_, err := svc.CreateUser(ctx, validCreateInput(), nil)
		assert.ErrorIs(t, err, common.ErrMissingAttachment)
	})

	t.Run("validation errors are reported before the photo check", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{})

		in := validCreateInput()
		in.Email = "not-an-email"
		in.Gender = "other"
		in.FirstName = "   "
		_, err := svc.CreateUser(ctx, in, nil)

		var verr *common.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "gender")
		assert.Contains(t, verr.Fields, "firstName")
	})

	t.Run("unsupported photo type", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{})

		photo := &Photo{Filename: "doc.pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF")}
		_, err := svc.CreateUser(ctx, validCreateInput(), photo)

		var verr *common.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "profilePhoto")
	})

	t.Run("content type falls back to the file extension", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{})
		photos.EXPECT().Save(ctx, "me.JPG", "image/jpeg", gomock.Any()).Return("uploads/me.jpg", nil)
		repo.EXPECT().MaxID(ctx).Return(int64(0), false, nil)
		repo.EXPECT().Insert(ctx, gomock.Any()).Return(nil)

		photo := &Photo{Filename: "me.JPG", Content: strings.NewReader("jpg")}
		_, err := svc.CreateUser(ctx, validCreateInput(), photo)
		assert.NoError(t, err)
	})

	t.Run("id conflict is retried with a fresh max", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{})

		photos.EXPECT().Save(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("uploads/x.png", nil)
		gomock.InOrder(
			repo.EXPECT().MaxID(ctx).Return(int64(2), true, nil),
			repo.EXPECT().Insert(ctx, gomock.Any()).Return(fmt.Errorf("insert: %w", common.ErrIDConflict)),
			repo.EXPECT().MaxID(ctx).Return(int64(3), true, nil),
			repo.EXPECT().Insert(ctx, gomock.Any()).Return(nil),
		)

		u, err := svc.CreateUser(ctx, validCreateInput(), pngPhoto())
		require.NoError(t, err)
		assert.Equal(t, int64(4), u.UserID)
	})

	t.Run("gives up after repeated id conflicts and removes the photo", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{})

		photos.EXPECT().Save(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("uploads/x.png", nil)
		repo.EXPECT().MaxID(ctx).Return(int64(1), true, nil).Times(maxAllocationAttempts)
		repo.EXPECT().Insert(ctx, gomock.Any()).Return(common.ErrIDConflict).Times(maxAllocationAttempts)
		photos.EXPECT().Remove(ctx, "uploads/x.png").Return(nil)

		_, err := svc.CreateUser(ctx, validCreateInput(), pngPhoto())
		assert.ErrorIs(t, err, common.ErrIDConflict)
		assert.Equal(t, 500, common.HTTPStatus(err))
	})

	t.Run("uniqueness violation removes the stored photo", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{})

		photos.EXPECT().Save(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("uploads/x.png", nil)
		repo.EXPECT().MaxID(ctx).Return(int64(1), true, nil)
		repo.EXPECT().Insert(ctx, gomock.Any()).Return(common.ErrUniquenessViolation)
		photos.EXPECT().Remove(ctx, "uploads/x.png").Return(errors.New("gone already"))

		_, err := svc.CreateUser(ctx, validCreateInput(), pngPhoto())
		assert.ErrorIs(t, err, common.ErrUniquenessViolation)
	})

	t.Run("photo storage failure", func(t *testing.T) {
		svc, _, photos := newTestService(t, Options{})
		photos.EXPECT().Save(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("disk full"))

		_, err := svc.CreateUser(ctx, validCreateInput(), pngPhoto())
		assert.ErrorContains(t, err, "disk full")
	})
}

func existingUser() *User {
	return &User{
		UserID:           3,
		FirstName:        "John",
		LastName:         "Doe",
		Email:            "john@example.com",
		Mobile:           "5550001",
		Gender:           GenderMale,
		Status:           StatusActive,
		ProfilePhotoPath: strPtr("uploads/old.png"),
	}
}

func TestUserService_EditUser(t *testing.T) {
	ctx := context.Background()

	t.Run("field change keeps the photo", func(t *testing.T) {
		svc, repo, _ := newTestService(t, Options{})

		repo.EXPECT().FindByID(ctx, int64(3)).Return(existingUser(), nil)
		repo.EXPECT().UpdateByID(ctx, int64(3), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ int64, c UserChanges) (*User, error) {
				assert.Nil(t, c.ProfilePhotoPath)
				assert.Equal(t, "Johnny", *c.FirstName)
				assert.Equal(t, "new@example.com", *c.Email)
				assert.Equal(t, fixedNow, c.UpdatedAt)
				u := existingUser()
				c.Apply(u)
				return u, nil
			})

		u, err := svc.EditUser(ctx, 3, UpdateUserInput{FirstName: strPtr(" Johnny "), Email: strPtr("NEW@example.com")}, nil)
		require.NoError(t, err)
		assert.Equal(t, "uploads/old.png", *u.ProfilePhotoPath)
	})

	t.Run("new photo replaces and removes the old one", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{})

		gomock.InOrder(
			repo.EXPECT().FindByID(ctx, int64(3)).Return(existingUser(), nil),
			photos.EXPECT().Save(ctx, "me.png", "image/png", gomock.Any()).Return("uploads/new.png", nil),
			repo.EXPECT().UpdateByID(ctx, int64(3), gomock.Any()).DoAndReturn(
				func(_ context.Context, _ int64, c UserChanges) (*User, error) {
					assert.Equal(t, "uploads/new.png", *c.ProfilePhotoPath)
					u := existingUser()
					c.Apply(u)
					return u, nil
				}),
			photos.EXPECT().Remove(ctx, "uploads/old.png").Return(nil),
		)

		u, err := svc.EditUser(ctx, 3, UpdateUserInput{}, pngPhoto())
		require.NoError(t, err)
		assert.Equal(t, "uploads/new.png", *u.ProfilePhotoPath)
	})

	t.Run("old photo removal failure does not fail the edit", func(t *testing.T) {
		var logs bytes.Buffer
		svc, repo, photos := newTestService(t, Options{})
		svc.logger = slog.New(slog.NewTextHandler(&logs, nil))

		repo.EXPECT().FindByID(ctx, int64(3)).Return(existingUser(), nil)
		photos.EXPECT().Save(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("uploads/new.png", nil)
		repo.EXPECT().UpdateByID(ctx, int64(3), gomock.Any()).Return(&User{UserID: 3, ProfilePhotoPath: strPtr("uploads/new.png")}, nil)
		photos.EXPECT().Remove(ctx, "uploads/old.png").Return(errors.New("permission denied"))

		_, err := svc.EditUser(ctx, 3, UpdateUserInput{}, pngPhoto())
		assert.NoError(t, err)
		assert.Contains(t, logs.String(), "could not remove profile photo")
		assert.Contains(t, logs.String(), "level=WARN")
	})

	t.Run("user without a previous photo", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{})
		u := existingUser()
		u.ProfilePhotoPath = nil

		repo.EXPECT().FindByID(ctx, int64(3)).Return(u, nil)
		photos.EXPECT().Save(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("uploads/new.png", nil)
		repo.EXPECT().UpdateByID(ctx, int64(3), gomock.Any()).Return(&User{UserID: 3}, nil)

		_, err := svc.EditUser(ctx, 3, UpdateUserInput{}, pngPhoto())
		assert.NoError(t, err)
	})

	t.Run("update failure removes the new photo and keeps the old", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{})

		repo.EXPECT().FindByID(ctx, int64(3)).Return(existingUser(), nil)
		photos.EXPECT().Save(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("uploads/new.png", nil)
		repo.EXPECT().UpdateByID(ctx, int64(3), gomock.Any()).Return(nil, common.ErrUniquenessViolation)
		photos.EXPECT().Remove(ctx, "uploads/new.png").Return(nil)

		_, err := svc.EditUser(ctx, 3, UpdateUserInput{Mobile: strPtr("5550002")}, pngPhoto())
		assert.ErrorIs(t, err, common.ErrUniquenessViolation)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, repo, _ := newTestService(t, Options{})
		repo.EXPECT().FindByID(ctx, int64(999)).Return(nil, common.ErrRecordNotFound)

		_, err := svc.EditUser(ctx, 999, UpdateUserInput{FirstName: strPtr("X")}, pngPhoto())
		assert.ErrorIs(t, err, common.ErrRecordNotFound)
	})

	t.Run("invalid fields are rejected before any lookup", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{})

		_, err := svc.EditUser(ctx, 3, UpdateUserInput{
			Email:  strPtr("bad"),
			Gender: strPtr("x"),
			Status: strPtr("deleted"),
		}, nil)

		var verr *common.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Fields, 3)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the photo by default", func(t *testing.T) {
		svc, repo, _ := newTestService(t, Options{})
		repo.EXPECT().DeleteByID(ctx, int64(3)).Return(existingUser(), nil)

		assert.NoError(t, svc.DeleteUser(ctx, 3))
	})

	t.Run("removes the photo when configured", func(t *testing.T) {
		svc, repo, photos := newTestService(t, Options{DeletePhotoOnDelete: true})
		repo.EXPECT().DeleteByID(ctx, int64(3)).Return(existingUser(), nil)
		photos.EXPECT().Remove(ctx, "uploads/old.png").Return(errors.New("ignored"))

		assert.NoError(t, svc.DeleteUser(ctx, 3))
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, repo, _ := newTestService(t, Options{})
		repo.EXPECT().DeleteByID(ctx, int64(999)).Return(nil, fmt.Errorf("delete: %w", common.ErrRecordNotFound))

		assert.ErrorIs(t, svc.DeleteUser(ctx, 999), common.ErrRecordNotFound)
	})
}

func TestUserService_ListUsers(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		page      int
		limit     int
		setup     func(repo *MockUserRepository)
		wantField string
	}{
		{
			name:  "no pagination returns all",
			setup: func(repo *MockUserRepository) { repo.EXPECT().FindAll(ctx).Return([]*User{}, nil) },
		},
		{
			name:  "page only uses default limit",
			page:  2,
			setup: func(repo *MockUserRepository) { repo.EXPECT().FindPage(ctx, 2, defaultPageSize).Return(nil, nil) },
		},
		{
			name:  "limit only starts at page one",
			limit: 5,
			setup: func(repo *MockUserRepository) { repo.EXPECT().FindPage(ctx, 1, 5).Return(nil, nil) },
		},
		{name: "negative page", page: -1, limit: 5, setup: func(*MockUserRepository) {}, wantField: "page"},
		{name: "limit too large", page: 1, limit: 101, setup: func(*MockUserRepository) {}, wantField: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t, Options{})
			tt.setup(repo)

			_, err := svc.ListUsers(ctx, tt.page, tt.limit)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *common.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
		})
	}
}

func TestUserService_SearchUsers(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t, Options{})

	repo.EXPECT().Search(ctx, "john").Return(nil, nil)

	users, err := svc.SearchUsers(ctx, "  john ")
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserService_GetUser(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t, Options{})

	repo.EXPECT().FindByID(ctx, int64(3)).Return(existingUser(), nil)
	repo.EXPECT().FindByID(ctx, int64(4)).Return(nil, common.ErrRecordNotFound)

	u, err := svc.GetUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "John", u.FirstName)

	_, err = svc.GetUser(ctx, 4)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestUserService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t, Options{})

	repo.EXPECT().FindAll(ctx).Return([]*User{existingUser()}, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "3,John,Doe,john@example.com,5550001,M,active,uploads/old.png,", lines[1])
}

type sequentialRepo struct {
	*MockUserRepository
	*MockSequentialInserter
}

func TestUserService_CreateUser_PrefersSequentialInsert(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := NewMockUserRepository(ctrl)
	seq := NewMockSequentialInserter(ctrl)
	photos := NewMockPhotoStorage(ctrl)
	svc := NewUserService(sequentialRepo{repo, seq}, photos, nil, Options{})

	photos.EXPECT().Save(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return("uploads/x.png", nil)
	seq.EXPECT().InsertNext(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *User) error {
		u.UserID = 9
		return nil
	})

	u, err := svc.CreateUser(ctx, validCreateInput(), pngPhoto())
	require.NoError(t, err)
	assert.Equal(t, int64(9), u.UserID)
}
