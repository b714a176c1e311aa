package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/media/images"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

// MaxAvatarSize is the maximum accepted avatar upload (5 MiB).
const MaxAvatarSize = images.MaxUploadSize

// RecentReviewCount is how many reviews a profile page shows.
const RecentReviewCount = 6

// AvatarStore processes and persists avatar images.
type AvatarStore interface {
	Save(userID string, data []byte) (blurHash string, err error)
	Get(userID string) ([]byte, error)
	Delete(userID string) error
}

// ProfileService manages user profiles.
type ProfileService struct {
	store     store.Store
	avatars   AvatarStore
	settings  *SettingsService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(
	store store.Store,
	avatars AvatarStore,
	settings *SettingsService,
	validator *validation.Validator,
	logger *slog.Logger,
) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		store:     store,
		avatars:   avatars,
		settings:  settings,
		validator: validator,
		logger:    logger,
	}
}

// UpdateProfileRequest contains editable profile fields.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" form:"display_name" validate:"required,maxrunes=80"`
	Handle      string `json:"handle" form:"handle" validate:"omitempty,handle"`
	Bio         string `json:"bio" form:"bio" validate:"maxrunes=200"`
}

// Profile contains everything needed to render a profile page.
type Profile struct {
	User          *domain.User
	RecentReviews []*domain.ReviewWithBook
	ReviewCount   int
	Settings      *domain.UserSettings
}

// GetProfile returns actor's own profile with their latest reviews.
func (s *ProfileService) GetProfile(ctx context.Context, actor *domain.User) (*Profile, error) {
	return s.profile(ctx, actor)
}

// GetPublicProfile returns the profile behind handle. Private profiles are
// reported as not found.
func (s *ProfileService) GetPublicProfile(ctx context.Context, handle string) (*Profile, error) {
	handle = domain.NormalizeHandle(handle)
	if handle == "" {
		return nil, domainerrors.NotFound("profile not found")
	}

	user, err := s.store.GetUserByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("profile not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	profile, err := s.profile(ctx, user)
	if err != nil {
		return nil, err
	}
	if !profile.Settings.PublicProfile {
		return nil, domainerrors.NotFound("profile not found")
	}
	return profile, nil
}

func (s *ProfileService) profile(ctx context.Context, user *domain.User) (*Profile, error) {
	reviews, err := s.store.ListUserReviews(ctx, user.ID, store.NewPage(1, RecentReviewCount))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	settings, err := s.settings.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:          user,
		RecentReviews: reviews.Items,
		ReviewCount:   reviews.Total,
		Settings:      settings,
	}, nil
}

// UpdateProfile changes actor's name, handle and bio. Handles are stored
// with a leading "@" whether or not one was typed.
func (s *ProfileService) UpdateProfile(ctx context.Context, actor *domain.User, req UpdateProfileRequest) (*domain.User, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Handle = domain.NormalizeHandle(req.Handle)
	req.Bio = strings.TrimSpace(req.Bio)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.Handle != "" && req.Handle != actor.Handle {
		taken, err := handleTaken(ctx, s.store, req.Handle, actor.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, handleTakenError()
		}
	}

	updated := *actor
	updated.DisplayName = req.DisplayName
	updated.Handle = req.Handle
	updated.Bio = req.Bio
	updated.Touch()

	if err := s.store.UpdateUser(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, handleTakenError()
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("account not found")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.Info("profile updated", "user_id", actor.ID)
	return &updated, nil
}

// UploadAvatar replaces actor's avatar with the uploaded image.
func (s *ProfileService) UploadAvatar(ctx context.Context, actor *domain.User, data []byte) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, avatarError("choose an image to upload")
	}
	if len(data) > MaxAvatarSize {
		return nil, avatarError(fmt.Sprintf("image too large, max %d MB", MaxAvatarSize>>20))
	}

	blurHash, err := s.avatars.Save(actor.ID, data)
	if err != nil {
		switch {
		case errors.Is(err, images.ErrUnsupportedFormat):
			return nil, avatarError("upload a JPEG, PNG, GIF or WebP image")
		case errors.Is(err, images.ErrInvalidImage), errors.Is(err, images.ErrTooLarge):
			return nil, avatarError(err.Error())
		}
		return nil, fmt.Errorf("save avatar: %w", err)
	}

	updated := *actor
	updated.AvatarPath = "avatars/" + actor.ID + ".jpg"
	updated.AvatarBlurHash = blurHash
	updated.Touch()

	if err := s.store.UpdateUser(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}

	s.logger.Info("avatar uploaded", "user_id", actor.ID)
	return &updated, nil
}

// Avatar returns the stored avatar image of userID.
func (s *ProfileService) Avatar(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("avatar not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.HasAvatar() {
		return nil, domainerrors.NotFound("avatar not found")
	}

	data, err := s.avatars.Get(userID)
	if err != nil {
		return nil, domainerrors.NotFound("avatar not found").WithCause(err)
	}
	return data, nil
}

func avatarError(msg string) error {
	return domainerrors.InvalidFields(domainerrors.FieldError{Field: "avatar", Message: msg})
}
