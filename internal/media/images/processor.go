package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Upload limits.
const (
	MaxUploadSize = 5 << 20 // 5 MiB
	MaxDimension  = 8000    // pixels per side, checked before decoding
	AvatarSize    = 256     // stored avatars are AvatarSize x AvatarSize
	jpegQuality   = 85
)

// Errors returned for unusable uploads.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidImage      = errors.New("image could not be read")
	ErrTooLarge          = errors.New("image is too large")
)

var supportedFormats = map[string]bool{"jpeg": true, "png": true, "gif": true, "webp": true}

// Processed is a normalized avatar ready for storage.
type Processed struct {
	JPEG     []byte
	BlurHash string
}

// Process validates an uploaded image, crops it to a centered square,
// scales it to AvatarSize and re-encodes it as JPEG. Re-encoding also
// strips any metadata the upload carried.
func Process(data []byte) (*Processed, error) {
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if !supportedFormats[format] {
		return nil, ErrUnsupportedFormat
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrInvalidImage
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	avatar := squareThumbnail(src, AvatarSize)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, avatar, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}

	hash, err := ComputeBlurHash(avatar)
	if err != nil {
		return nil, err
	}

	return &Processed{JPEG: out.Bytes(), BlurHash: hash}, nil
}

// squareThumbnail crops the largest centered square from src and scales it
// to size x size.
func squareThumbnail(src image.Image, size int) image.Image {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

// Avatars processes uploads and keeps one avatar per user.
type Avatars struct {
	storage *Storage
	logger  *slog.Logger
}

// NewAvatars creates an avatar store backed by storage.
func NewAvatars(storage *Storage, logger *slog.Logger) *Avatars {
	if logger == nil {
		logger = slog.Default()
	}
	return &Avatars{storage: storage, logger: logger}
}

// Save processes data and stores it as userID's avatar.
// Returns the BlurHash placeholder of the stored image.
func (a *Avatars) Save(userID string, data []byte) (string, error) {
	processed, err := Process(data)
	if err != nil {
		return "", err
	}

	if err := a.storage.Save(userID, processed.JPEG); err != nil {
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}

	a.logger.Debug("saved avatar",
		"user_id", userID,
		"upload_size", len(data),
		"stored_size", len(processed.JPEG),
	)

	return processed.BlurHash, nil
}

// Get returns userID's stored avatar JPEG.
func (a *Avatars) Get(userID string) ([]byte, error) {
	return a.storage.Get(userID)
}

// Delete removes userID's avatar.
func (a *Avatars) Delete(userID string) error {
	return a.storage.Delete(userID)
}

// Shutdown implements do.Shutdownable.
func (a *Avatars) Shutdown() error {
	return a.storage.Close()
}
