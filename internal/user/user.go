package user

import (
	"io"
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// ParseGender accepts Male/Female/M/F in any case and returns the persisted form.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return GenderMale, true
	case "f", "female":
		return GenderFemale, true
	}
	return "", false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, true
	case StatusInactive:
		return StatusInactive, true
	}
	return "", false
}

// User is the directory record. The same struct is persisted by every store.
type User struct {
	UserID           int64     `bson:"userId" gorm:"column:user_id;primaryKey;autoIncrement:false" json:"userId"`
	FirstName        string    `bson:"firstName" gorm:"column:first_name;size:100;not null" json:"firstName"`
	LastName         string    `bson:"lastName" gorm:"column:last_name;size:100;not null" json:"lastName"`
	Email            string    `bson:"email" gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	Mobile           string    `bson:"mobile" gorm:"column:mobile;size:32;uniqueIndex;not null" json:"mobile"`
	Gender           Gender    `bson:"gender" gorm:"column:gender;size:1;not null" json:"gender"`
	Status           Status    `bson:"status" gorm:"column:status;size:16;default:active" json:"status"`
	ProfilePhotoPath *string   `bson:"profilePhotoPath" gorm:"column:profile_photo_path;size:512" json:"profilePhotoPath"`
	Location         *string   `bson:"location,omitempty" gorm:"column:location;size:255" json:"location,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" gorm:"column:created_at" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Matches reports whether query is a case-insensitive substring of
// firstName, lastName, email or mobile.
func (u *User) Matches(query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{u.FirstName, u.LastName, u.Email, u.Mobile} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// CreateUserInput is the raw create request after transport decoding.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Mobile    string
	Gender    string
	Status    string
	Location  string
}

// UpdateUserInput holds the fields supplied on edit; nil means "leave unchanged".
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Mobile    *string
	Gender    *string
	Status    *string
	Location  *string
}

// UserChanges is a validated, normalized partial update passed to the store.
type UserChanges struct {
	FirstName        *string
	LastName         *string
	Email            *string
	Mobile           *string
	Gender           *Gender
	Status           *Status
	Location         *string
	ProfilePhotoPath *string
	UpdatedAt        time.Time
}

// Apply copies the non-nil changes onto u.
func (c UserChanges) Apply(u *User) {
	if c.FirstName != nil {
		u.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		u.LastName = *c.LastName
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.Mobile != nil {
		u.Mobile = *c.Mobile
	}
	if c.Gender != nil {
		u.Gender = *c.Gender
	}
	if c.Status != nil {
		u.Status = *c.Status
	}
	if c.Location != nil {
		loc := *c.Location
		u.Location = &loc
	}
	if c.ProfilePhotoPath != nil {
		p := *c.ProfilePhotoPath
		u.ProfilePhotoPath = &p
	}
	if !c.UpdatedAt.IsZero() {
		u.UpdatedAt = c.UpdatedAt
	}
}

// Photo is an uploaded profile photo that has not been stored yet.
type Photo struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}
