package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookbuddyapp/bookbuddy-server/internal/auth"
	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/id"
	"github.com/bookbuddyapp/bookbuddy-server/internal/mail"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// PasswordResetService issues and redeems single-use password reset links.
type PasswordResetService struct {
	store          store.Store
	hasher         *auth.PasswordHasher
	tokens         *auth.ResetTokens
	sessionService *SessionService
	mailer         Mailer
	validator      *validation.Validator
	ttl            time.Duration
	baseURL        string
	logger         *slog.Logger
	now            func() time.Time
}

// NewPasswordResetService creates a new password reset service.
func NewPasswordResetService(
	store store.Store,
	hasher *auth.PasswordHasher,
	tokens *auth.ResetTokens,
	sessionService *SessionService,
	mailer Mailer,
	validator *validation.Validator,
	ttl time.Duration,
	baseURL string,
	logger *slog.Logger,
) *PasswordResetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetService{
		store:          store,
		hasher:         hasher,
		tokens:         tokens,
		sessionService: sessionService,
		mailer:         mailer,
		validator:      validator,
		ttl:            ttl,
		baseURL:        strings.TrimRight(baseURL, "/"),
		logger:         logger,
		now:            time.Now,
	}
}

// RequestResetRequest asks for a reset link.
type RequestResetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email,max=254"`
}

// ResetPasswordRequest sets a new password with a reset token.
type ResetPasswordRequest struct {
	Password string `form:"password" validate:"required,password"`
	Confirm  string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// RequestPasswordReset emails a reset link when the address belongs to an
// account. The result is the same whether or not it does.
func (s *PasswordResetService) RequestPasswordReset(ctx context.Context, req RequestResetRequest) error {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	now := s.now()
	if err := s.store.InvalidateUserPasswordResets(ctx, user.ID, now); err != nil {
		return fmt.Errorf("invalidate previous resets: %w", err)
	}

	resetID, err := id.Generate(id.PrefixReset)
	if err != nil {
		return fmt.Errorf("generate reset ID: %w", err)
	}

	expiresAt := now.Add(s.ttl)
	token := s.tokens.Issue(auth.ResetClaims{
		ResetID:   resetID,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	})

	reset := &domain.PasswordReset{
		ID:        resetID,
		UserID:    user.ID,
		TokenHash: auth.HashToken(token),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.store.CreatePasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("save password reset: %w", err)
	}

	msg := mail.PasswordResetMessage(user.Email, user.Name(), s.ResetLink(token), s.ttl)
	if err := s.mailer.Send(ctx, msg); err != nil {
		// The page shows the same message either way.
		s.logger.Error("failed to send password reset email", "user_id", user.ID, "error", err)
		return nil
	}

	s.logger.Info("password reset issued", "user_id", user.ID, "reset_id", resetID)
	return nil
}

// ResetLink returns the emailed URL for token.
func (s *PasswordResetService) ResetLink(token string) string {
	return s.baseURL + "/password-reset/" + token
}

// CheckToken reports whether token can still be redeemed.
func (s *PasswordResetService) CheckToken(ctx context.Context, token string) error {
	_, err := s.lookup(ctx, token)
	return err
}

// ResetPassword sets a new password using token and revokes every session of
// the account. Tokens are single use.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) error {
	reset, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.store.GetUser(ctx, reset.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.InvalidToken("this reset link is invalid")
		}
		return fmt.Errorf("get user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.ResetPassword(ctx, reset.ID, user.ID, passwordHash, s.now()); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyUsed):
			return domainerrors.InvalidToken("this reset link has already been used")
		case errors.Is(err, store.ErrNotFound):
			return domainerrors.InvalidToken("this reset link is invalid")
		}
		return fmt.Errorf("reset password: %w", err)
	}

	if _, err := s.sessionService.RevokeUserSessions(ctx, user.ID, ""); err != nil {
		return err
	}

	s.logger.Info("password reset completed", "user_id", user.ID, "reset_id", reset.ID)
	return nil
}

// DeleteExpired removes password resets past their expiry.
func (s *PasswordResetService) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredPasswordResets(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired password resets: %w", err)
	}
	if n > 0 {
		s.logger.Info("deleted expired password resets", "count", n)
	}
	return n, nil
}

// lookup resolves token to an unused, unexpired reset.
func (s *PasswordResetService) lookup(ctx context.Context, token string) (*domain.PasswordReset, error) {
	claims, err := s.tokens.Open(token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, domainerrors.ExpiredToken("this reset link has expired")
	case err != nil:
		return nil, domainerrors.InvalidToken("this reset link is invalid")
	}

	reset, err := s.store.GetPasswordReset(ctx, claims.ResetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidToken("this reset link is invalid")
		}
		return nil, fmt.Errorf("get password reset: %w", err)
	}

	hash := auth.HashToken(token)
	if reset.UserID != claims.UserID || subtle.ConstantTimeCompare([]byte(hash), []byte(reset.TokenHash)) != 1 {
		return nil, domainerrors.InvalidToken("this reset link is invalid")
	}
	if reset.IsUsed() {
		return nil, domainerrors.InvalidToken("this reset link has already been used")
	}
	if reset.IsExpired(s.now()) {
		return nil, domainerrors.ExpiredToken("this reset link has expired")
	}

	return reset, nil
}
