package user

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVHeader is the export column order.
var CSVHeader = []string{
	"userId",
	"firstName",
	"lastName",
	"email",
	"mobile",
	"gender",
	"status",
	"profilePhotoPath",
	"location",
}

func csvRow(u *User) []string {
	return []string{
		strconv.FormatInt(u.UserID, 10),
		u.FirstName,
		u.LastName,
		u.Email,
		u.Mobile,
		string(u.Gender),
		string(u.Status),
		deref(u.ProfilePhotoPath),
		deref(u.Location),
	}
}

// WriteCSV writes the header row and one row per user.
func WriteCSV(w io.Writer, users []*User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, u := range users {
		if err := cw.Write(csvRow(u)); err != nil {
			return fmt.Errorf("write csv row for user %d: %w", u.UserID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
