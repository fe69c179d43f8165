package storage

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore implements Uploader on top of Cloudinary
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinary creates a Cloudinary-backed uploader from credentials
func NewCloudinary(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are required")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}

	return &CloudinaryStore{cld: cld}, nil
}

// Upload pushes a local file to Cloudinary and returns its secure URL
func (s *CloudinaryStore) Upload(ctx context.Context, localPath, folder string) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		Folder: folder,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to cloudinary: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary returned no URL: %s", result.Error.Message)
	}

	return result.SecureURL, nil
}
