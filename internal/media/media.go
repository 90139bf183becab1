// Package media stores uploaded images and hands back a resolvable address.
package media

import (
	"context"
	"io"
	"net/http"
)

// Upload is one image handed to a store. Size may be -1 when unknown.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// Asset is a stored object.
type Asset struct {
	URL      string
	PublicID string
}

// Store is implemented by every backend.
type Store interface {
	Upload(ctx context.Context, u Upload) (*Asset, error)
}

// Image content types accepted for upload.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// SniffImage reports the content type of head when it is a jpeg or png.
// Only the first 512 bytes are considered.
func SniffImage(head []byte) (string, bool) {
	switch ct := http.DetectContentType(head); ct {
	case ContentTypeJPEG, ContentTypePNG:
		return ct, true
	default:
		return ct, false
	}
}

func extension(contentType string) string {
	switch contentType {
	case ContentTypePNG:
		return ".png"
	case ContentTypeJPEG:
		return ".jpg"
	default:
		return ""
	}
}
