package account

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"magicwords/core/apperr"
	"magicwords/logger"
	"magicwords/model"
	"magicwords/storage"

	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

var imageExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"webp": ".webp",
	"bmp":  ".bmp",
}

// ProfileImage is an uploaded profile picture. Email selects the target
// account; empty means the caller.
type ProfileImage struct {
	Email string
	Data  []byte
}

// UpdateProfileImage stores the upload and points the target account at it.
// Only superusers may change another account's image.
func (s *Service) UpdateProfileImage(ctx context.Context, p *model.Principal, in ProfileImage) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}
	ext, contentType, verr := s.checkImage(in.Data)
	if verr != nil {
		return "", verr
	}

	target, err := s.imageTarget(ctx, p, normalizeEmail(in.Email))
	if err != nil {
		return "", err
	}

	key := storage.NewImageKey(ext)
	if err := s.images.Put(ctx, key, contentType, bytes.NewReader(in.Data), int64(len(in.Data))); err != nil {
		return "", err
	}

	previous := target.Image
	target.Image = &key
	if err := s.accounts.Update(ctx, target); err != nil {
		s.removeImage(ctx, &key)
		return "", err
	}
	s.removeImage(ctx, previous)

	logger.Info("[ProfileImage] image updated",
		logger.Int64("account_id", target.ID),
		logger.String("key", key),
		logger.String("size", humanize.Bytes(uint64(len(in.Data)))))
	return *s.urls.URL(&key), nil
}

// imageTarget matches email against the stored account; the token's copy is
// stale after an email change.
func (s *Service) imageTarget(ctx context.Context, p *model.Principal, email string) (*model.Account, error) {
	caller, err := s.accounts.GetByID(ctx, p.AccountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: caller no longer exists", apperr.ErrUnauthorized)
		}
		return nil, err
	}
	if email == "" || email == caller.Email {
		return caller, nil
	}
	if err := s.requireSuperuser(ctx, p); err != nil {
		return nil, err
	}
	return s.accounts.GetByEmail(ctx, email)
}

// checkImage returns the stored extension and content type of data.
func (s *Service) checkImage(data []byte) (string, string, *apperr.ValidationError) {
	if len(data) == 0 {
		return "", "", apperr.FieldError("image", "No file was submitted.")
	}
	if int64(len(data)) > s.maxUpload {
		return "", "", apperr.FieldError("image",
			fmt.Sprintf("The submitted file is too large. Maximum size is %s.", humanize.Bytes(uint64(s.maxUpload))))
	}
	// the header bounds the decode allocation, so check it first
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", "", apperr.FieldError("image", msgInvalidImage)
	}
	ext, ok := imageExtensions[format]
	if !ok || cfg.Width <= 0 || cfg.Height <= 0 {
		return "", "", apperr.FieldError("image", msgInvalidImage)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > s.maxPixels {
		return "", "", apperr.FieldError("image",
			fmt.Sprintf("Image size (%d pixels) exceeds limit of %d pixels.", pixels, s.maxPixels))
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", "", apperr.FieldError("image", msgInvalidImage)
	}
	return ext, "image/" + format, nil
}

// removeImage deletes a stored image, logging rather than failing.
func (s *Service) removeImage(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := s.images.Delete(ctx, *key); err != nil {
		logger.Warn("[ProfileImage] failed to remove image", logger.String("key", *key), logger.ErrorField(err))
	}
}
