package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// DefaultFolder is where uploads land unless configured otherwise.
const DefaultFolder = "custom-pokemon"

// Cloudinary uploads images to a Cloudinary folder restricted to jpg and png.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// CloudinaryConfig selects credentials either as a single cloudinary:// URL
// or as the three separate parts.
type CloudinaryConfig struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether any credentials were supplied.
func (c CloudinaryConfig) Configured() bool {
	return c.URL != "" || c.CloudName != ""
}

func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case cfg.URL != "":
		cld, err = cloudinary.NewFromURL(cfg.URL)
	case cfg.CloudName != "" && cfg.APIKey != "" && cfg.APISecret != "":
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	default:
		return nil, errors.New("cloudinary credentials are incomplete")
	}
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}
	folder := cfg.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, u Upload) (*Asset, error) {
	res, err := c.cld.Upload.Upload(ctx, u.Body, uploader.UploadParams{
		Folder:         c.folder,
		AllowedFormats: api.CldAPIArray{"jpg", "png"},
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return nil, errors.New("cloudinary upload: response carried no url")
	}
	return &Asset{URL: res.SecureURL, PublicID: res.PublicID}, nil
}
