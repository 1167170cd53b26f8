package common

import (
	"path/filepath"
	"strings"
)

// PhotoContentType is one of the accepted profile photo formats.
type PhotoContentType string

const (
	PhotoContentTypeJPEG PhotoContentType = "image/jpeg"
	PhotoContentTypePNG  PhotoContentType = "image/png"
	PhotoContentTypeGIF  PhotoContentType = "image/gif"
)

// String returns the string representation
func (pct PhotoContentType) String() string {
	return string(pct)
}

// IsValid reports whether the type is an accepted photo format.
func (pct PhotoContentType) IsValid() bool {
	switch pct {
	case PhotoContentTypeJPEG, PhotoContentTypePNG, PhotoContentTypeGIF:
		return true
	}
	return false
}

// ParsePhotoContentType normalizes a MIME header value (drops parameters, lowercases,
// folds image/jpg into image/jpeg).
func ParsePhotoContentType(mimeType string) PhotoContentType {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" || mt == "image/pjpeg" {
		mt = string(PhotoContentTypeJPEG)
	}
	return PhotoContentType(mt)
}

// ContentTypeForFilename guesses the content type from a file extension.
func ContentTypeForFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return PhotoContentTypeJPEG.String()
	case ".png":
		return PhotoContentTypePNG.String()
	case ".gif":
		return PhotoContentTypeGIF.String()
	default:
		return "application/octet-stream"
	}
}
