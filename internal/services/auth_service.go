package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	iauth "github.com/olehkozhan/contactbook/internal/auth"
	"github.com/olehkozhan/contactbook/internal/avatar"
	"github.com/olehkozhan/contactbook/internal/models"
	"github.com/olehkozhan/contactbook/internal/tasks"
	"github.com/olehkozhan/contactbook/pkg/crypto"
	apperrors "github.com/olehkozhan/contactbook/pkg/errors"
	"github.com/olehkozhan/contactbook/pkg/logger"
	"github.com/olehkozhan/contactbook/pkg/mail"
	"github.com/olehkozhan/contactbook/pkg/metrics"
)

const verificationTokenBytes = 18

var (
	// ErrUserNotFound indicates the requested account does not exist.
	ErrUserNotFound = apperrors.NewNotFound("User not found")
)

// AuthOption customises the AuthService.
type AuthOption func(*AuthService)

// WithVerificationBaseURL sets the base URL used to build verification links.
func WithVerificationBaseURL(url string) AuthOption {
	return func(s *AuthService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// AuthService orchestrates the account lifecycle: registration, email
// verification, login, session resolution, logout, and avatar mutation. All
// state lives in the database; the service keeps no per-request state.
type AuthService struct {
	db      *gorm.DB
	jwt     *iauth.JWTService
	mailer  mail.Mailer
	avatars *avatar.Store
	runner  *tasks.Runner
	baseURL string
	log     *zap.Logger
}

// NewAuthService constructs an AuthService with the provided collaborators.
// The mailer may be nil, in which case verification emails are skipped.
func NewAuthService(db *gorm.DB, jwt *iauth.JWTService, mailer mail.Mailer, avatars *avatar.Store, runner *tasks.Runner, opts ...AuthOption) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	if runner == nil {
		return nil, errors.New("auth service: task runner is required")
	}

	service := &AuthService{
		db:      db,
		jwt:     jwt,
		mailer:  mailer,
		avatars: avatars,
		runner:  runner,
		log:     logger.WithModule("auth"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// RegisterInput describes the fields accepted at registration.
type RegisterInput struct {
	Email    string
	Password string
}

// Register provisions a new unverified account and dispatches the
// verification email. The email is sent fire-and-forget: delivery failure
// does not fail the registration.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	if err == nil {
		metrics.Registrations.WithLabelValues("conflict").Inc()
		return nil, apperrors.ErrEmailInUse
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("auth service: lookup email: %w", err)
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth service: hash password: %w", err)
	}

	token, err := crypto.GenerateToken(verificationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("auth service: generate verification token: %w", err)
	}

	user := &models.User{
		Email:             email,
		Password:          hashed,
		Subscription:      models.SubscriptionStarter,
		AvatarURL:         avatar.GravatarURL(email),
		VerificationToken: &token,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			metrics.Registrations.WithLabelValues("conflict").Inc()
			return nil, apperrors.ErrEmailInUse
		}
		metrics.Registrations.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("auth service: create user: %w", err)
	}

	s.dispatchVerificationEmail(email, token)

	metrics.Registrations.WithLabelValues("success").Inc()
	return user, nil
}

// VerifyEmail consumes a verification token. The token is single-use: the
// column is cleared on success, so a replay resolves to no account and fails
// with not found.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return ErrUserNotFound
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("verification_token = ?", token).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("auth service: lookup verification token: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&user).
		Updates(map[string]any{
			"verified":           true,
			"verification_token": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("auth service: mark verified: %w", err)
	}

	return nil
}

// ResendVerification re-sends the verification email, reusing the stored
// token. Tokens are not rotated on resend.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("auth service: lookup email: %w", err)
	}

	if user.Verified {
		return apperrors.ErrAlreadyVerified
	}
	if user.VerificationToken == nil || *user.VerificationToken == "" {
		return fmt.Errorf("auth service: unverified account %s has no verification token", user.ID)
	}

	s.dispatchVerificationEmail(user.Email, *user.VerificationToken)
	return nil
}

// Login authenticates the account and issues a fresh session token,
// overwriting any previously stored one (single active session). A wrong
// password and an unknown email produce the same unauthorized error so the
// response does not leak account existence.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("auth service: lookup email: %w", err)
	}

	if !user.Verified {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, "", apperrors.ErrEmailNotVerified
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateSessionToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth service: issue session token: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("token", token).Error; err != nil {
		return nil, "", fmt.Errorf("auth service: store session token: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	user.Token = token
	return &user, token, nil
}

// ResolveSession validates a presented bearer token and resolves it to the
// owning account. Beyond signature and expiry, the token must exactly match
// the account's stored session token: a later login or a logout overwrites
// the stored value and thereby revokes older tokens.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	ctx = ensureContext(ctx)

	claims, err := s.jwt.ValidateSessionToken(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized.WithInternal(err)
	}

	var user models.User
	err = s.db.WithContext(ctx).Take(&user, "id = ?", claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("auth service: load session user: %w", err)
	}

	if user.Token == "" || user.Token != token {
		return nil, apperrors.ErrUnauthorized
	}

	return &user, nil
}

// Logout clears the stored session token. Clearing an already-empty token is
// not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("token", "").Error
	if err != nil {
		return fmt.Errorf("auth service: clear session token: %w", err)
	}
	return nil
}

// UpdateAvatar stores the uploaded image and persists the new avatar
// reference immediately; the resize transform runs in the background.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID, originalName, tempPath string) (string, error) {
	ctx = ensureContext(ctx)

	if s.avatars == nil {
		return "", errors.New("auth service: avatar store is not configured")
	}

	ref, err := s.avatars.Save(userID, originalName, tempPath)
	if err != nil {
		return "", fmt.Errorf("auth service: save avatar: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("avatar_url", ref).Error
	if err != nil {
		return "", fmt.Errorf("auth service: store avatar reference: %w", err)
	}

	return ref, nil
}

// UpdateSubscription changes the account's subscription tier.
func (s *AuthService) UpdateSubscription(ctx context.Context, userID string, tier models.Subscription) (*models.User, error) {
	ctx = ensureContext(ctx)

	if !tier.Valid() {
		return nil, apperrors.NewBadRequest("subscription must be one of starter, pro, business")
	}

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth service: load user: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("subscription", tier).Error; err != nil {
		return nil, fmt.Errorf("auth service: update subscription: %w", err)
	}

	user.Subscription = tier
	return &user, nil
}

// CleanupExpiredSessionTokens clears stored session tokens whose JWT no
// longer validates (typically past the 23h expiry). Returns the number of
// accounts logged out.
func (s *AuthService) CleanupExpiredSessionTokens(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	if err := s.db.WithContext(ctx).
		Select("id", "token").
		Where("token <> ''").
		Find(&users).Error; err != nil {
		return 0, fmt.Errorf("auth service: list active sessions: %w", err)
	}

	var cleared int64
	for _, user := range users {
		if _, err := s.jwt.ValidateSessionToken(user.Token); err == nil {
			continue
		}
		err := s.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ? AND token = ?", user.ID, user.Token).
			Update("token", "").Error
		if err != nil {
			return cleared, fmt.Errorf("auth service: clear expired token: %w", err)
		}
		cleared++
	}

	return cleared, nil
}

func (s *AuthService) dispatchVerificationEmail(email, token string) {
	if s.mailer == nil {
		return
	}

	link := s.verificationLink(token)
	message := mail.Message{
		To:      []string{email},
		Subject: "Verify email",
		Body:    fmt.Sprintf(`<a target="_blank" href="%s">Click verify email</a>`, link),
	}

	s.runner.Go("verification-email", func() error {
		if err := s.mailer.Send(context.Background(), message); err != nil {
			if errors.Is(err, mail.ErrSMTPDisabled) {
				s.log.Debug("verification email skipped, smtp disabled", zap.String("email", email))
				return nil
			}
			metrics.VerificationEmails.WithLabelValues("failed").Inc()
			return fmt.Errorf("send verification email to %s: %w", email, err)
		}
		metrics.VerificationEmails.WithLabelValues("sent").Inc()
		return nil
	})
}

func (s *AuthService) verificationLink(token string) string {
	if s.baseURL == "" {
		return token
	}
	return fmt.Sprintf("%s/api/users/verify/%s", s.baseURL, token)
}
