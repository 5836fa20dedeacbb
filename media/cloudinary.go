package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"buzznest/model"
)

// Cloudinary uploads files to a Cloudinary folder and returns their secure URL.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, filename string, kind models.MediaKind) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       c.folder,
		ResourceType: resourceType(kind),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("failed to upload %s: %w", filename, errors.New(resp.Error.Message))
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("failed to upload %s: empty url", filename)
	}

	return resp.SecureURL, nil
}

func resourceType(kind models.MediaKind) string {
	if kind == models.MediaVideo {
		return "video"
	}
	return "auto"
}
