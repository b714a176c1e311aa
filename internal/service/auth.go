package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/auth"
	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/id"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

// AvatarRemover deletes a user's stored avatar.
type AvatarRemover interface {
	Delete(userID string) error
}

// AuthService handles signup, login and account credentials.
// Session management is delegated to SessionService.
type AuthService struct {
	store          store.Store
	hasher         *auth.PasswordHasher
	sessionService *SessionService
	validator      *validation.Validator
	avatars        AvatarRemover
	logger         *slog.Logger
	now            func() time.Time
}

// NewAuthService creates a new authentication service.
// avatars may be nil.
func NewAuthService(
	store store.Store,
	hasher *auth.PasswordHasher,
	sessionService *SessionService,
	validator *validation.Validator,
	avatars AvatarRemover,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:          store,
		hasher:         hasher,
		sessionService: sessionService,
		validator:      validator,
		avatars:        avatars,
		logger:         logger,
		now:            time.Now,
	}
}

// SignupRequest contains new account data.
type SignupRequest struct {
	Email       string `json:"email" form:"email" validate:"required,email,max=254"`
	Password    string `json:"password" form:"password" validate:"required,password"`
	DisplayName string `json:"display_name" form:"display_name" validate:"maxrunes=80"`
	Handle      string `json:"handle" form:"handle" validate:"omitempty,handle"`
	Bio         string `json:"bio" form:"bio" validate:"maxrunes=200"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// ChangePasswordRequest contains a password change.
type ChangePasswordRequest struct {
	Current string `form:"current_password" validate:"required"`
	New     string `form:"new_password" validate:"required,password"`
	Confirm string `form:"confirm_password" validate:"required,eqfield=New"`
}

// AuthResult is the outcome of a successful signup or login.
type AuthResult struct {
	User    *domain.User
	Session *domain.Session
	Token   string
}

// Signup creates a new account and opens a session for it.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest, client ClientInfo) (*AuthResult, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	req.Handle = domain.NormalizeHandle(req.Handle)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Bio = strings.TrimSpace(req.Bio)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, domainerrors.DuplicateAccount("an account with this email already exists")
	}

	if req.Handle != "" {
		if taken, err := s.handleTaken(ctx, req.Handle, ""); err != nil {
			return nil, err
		} else if taken {
			return nil, handleTakenError()
		}
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = domain.DefaultDisplayName
	}

	user := &domain.User{
		Entity:       domain.Entity{ID: userID},
		Email:        req.Email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Handle:       req.Handle,
		Bio:          req.Bio,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race on one of the unique indexes.
			if other, lookupErr := s.store.GetUserByEmail(ctx, req.Email); lookupErr == nil && other != nil {
				return nil, domainerrors.DuplicateAccount("an account with this email already exists")
			}
			return nil, handleTakenError()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID)

	return s.openSession(ctx, user, client)
}

// Login authenticates a user and opens a session.
// Unknown email, deleted account and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Keep timing close to a real verification.
			s.hasher.VerifyDummy(req.Password)
			return nil, domainerrors.InvalidCredentials()
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		s.logger.Info("login failed", "user_id", user.ID, "ip", client.IPAddress)
		return nil, domainerrors.InvalidCredentials()
	}

	result, err := s.openSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return result, nil
}

// Logout ends the session holding token. Always succeeds for unknown tokens.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessionService.DeleteSession(ctx, token)
}

// ValidateSession resolves a session token to its user.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	return s.sessionService.ValidateSession(ctx, token)
}

// ChangePassword replaces user's password and revokes every other session.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, currentSessionID string, req ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	if !s.hasher.Verify(user.PasswordHash, req.Current) {
		return domainerrors.InvalidFields(domainerrors.FieldError{
			Field:   "current_password",
			Message: "is incorrect",
		})
	}

	passwordHash, err := s.hasher.Hash(req.New)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = passwordHash
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if _, err := s.sessionService.RevokeUserSessions(ctx, user.ID, currentSessionID); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// DeleteAccount soft-deletes user after confirming their password.
// Reviews, favourites, history, settings and sessions go with it.
func (s *AuthService) DeleteAccount(ctx context.Context, user *domain.User, password string) error {
	if !s.hasher.Verify(user.PasswordHash, password) {
		return domainerrors.InvalidFields(domainerrors.FieldError{
			Field:   "password",
			Message: "is incorrect",
		})
	}

	if err := s.store.SoftDeleteUser(ctx, user.ID, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("account not found")
		}
		return fmt.Errorf("delete account: %w", err)
	}

	if s.avatars != nil && user.HasAvatar() {
		if err := s.avatars.Delete(user.ID); err != nil {
			s.logger.Warn("failed to delete avatar", "user_id", user.ID, "error", err)
		}
	}

	s.logger.Info("account deleted", "user_id", user.ID)
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User, client ClientInfo) (*AuthResult, error) {
	result, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &AuthResult{User: user, Session: result.Session, Token: result.Token}, nil
}

// handleTaken reports whether handle belongs to someone other than userID.
func (s *AuthService) handleTaken(ctx context.Context, handle, userID string) (bool, error) {
	return handleTaken(ctx, s.store, handle, userID)
}

func handleTaken(ctx context.Context, st store.Store, handle, userID string) (bool, error) {
	other, err := st.GetUserByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup handle: %w", err)
	}
	return other.ID != userID, nil
}

func handleTakenError() error {
	return domainerrors.InvalidFields(domainerrors.FieldError{
		Field:   "handle",
		Message: "is already taken",
	})
}
