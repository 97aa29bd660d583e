package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"portal-web/internal/backend"
	"portal-web/internal/shared/auth"
	"portal-web/internal/shared/metrics"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/telemetry"
)

// DefaultTTL bounds a session whose backend token carries no exp claim.
const DefaultTTL = 12 * time.Hour

// Authenticator is the slice of the backend API the session service needs.
type Authenticator interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.AuthResult, error)
	Register(ctx context.Context, reg backend.Registration) (backend.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// LoginInput is the sign-in form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the member sign-up form.
type RegisterInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

// ResetInput completes a password reset.
type ResetInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

// FieldError names one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InputError lists the form fields rejected before any backend call.
type InputError struct {
	Fields []FieldError
}

func (e *InputError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid input: " + strings.Join(names, ", ")
}

var formValidator = validator.New(validator.WithRequiredStructEnabled())

// Service is the application-state container for signed-in users.
type Service struct {
	Repo    Repo
	Backend Authenticator
	TTL     time.Duration
	Now     func() time.Time
	NewID   func() string
}

func NewService(repo Repo, b Authenticator, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		Repo:    repo,
		Backend: b,
		TTL:     ttl,
		Now:     func() time.Time { return time.Now().UTC() },
		NewID:   uuid.NewString,
	}
}

var _ middleware.SessionResolver = (*Service)(nil)

// Login authenticates against the backend and opens a session for the returned token.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateForm(in); err != nil {
		return Session{}, err
	}
	res, err := s.Backend.Login(ctx, backend.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		result := "error"
		if errors.Is(err, backend.ErrUnauthorized) {
			result = "rejected"
		}
		metrics.IncLogin(result)
		telemetry.Warn("session.login_failed", map[string]any{"email": in.Email, "error": err.Error()})
		return Session{}, err
	}
	sess, err := s.open(ctx, res)
	if err != nil {
		metrics.IncLogin("error")
		return Session{}, err
	}
	metrics.IncLogin("ok")
	return sess, nil
}

// Register creates a member account. When the backend signs the new member in directly the
// returned session is non-nil.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateForm(in); err != nil {
		return nil, err
	}
	if in.Password != in.PasswordConfirm {
		return nil, mismatch()
	}
	res, err := s.Backend.Register(ctx, backend.Registration{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Phone:    strings.TrimSpace(in.Phone),
	})
	if err != nil {
		telemetry.Warn("session.register_failed", map[string]any{"email": in.Email, "error": err.Error()})
		return nil, err
	}
	if res.BearerToken() == "" {
		return nil, nil
	}
	sess, err := s.open(ctx, res)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// ForgotPassword asks the backend to mail a reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := formValidator.Var(email, "required,email"); err != nil {
		return &InputError{Fields: []FieldError{{Field: "email", Message: "a valid email is required"}}}
	}
	return s.Backend.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password using a reset token.
func (s *Service) ResetPassword(ctx context.Context, in ResetInput) error {
	if err := validateForm(in); err != nil {
		return err
	}
	if in.Password != in.PasswordConfirm {
		return mismatch()
	}
	return s.Backend.ResetPassword(ctx, in.Token, in.Password)
}

// Hydrate restores a session by id. Expired sessions are removed.
func (s *Service) Hydrate(ctx context.Context, id string) (Session, error) {
	if strings.TrimSpace(id) == "" {
		return Session{}, ErrNotFound
	}
	sess, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Expired(s.Now()) {
		if err := s.Repo.Delete(ctx, id); err != nil {
			telemetry.Warn("session.delete_failed", map[string]any{"session_id": id, "error": err.Error()})
		}
		return Session{}, ErrExpired
	}
	return sess, nil
}

// Resolve implements middleware.SessionResolver.
func (s *Service) Resolve(ctx context.Context, id string) (middleware.Identity, error) {
	sess, err := s.Hydrate(ctx, id)
	if err != nil {
		return middleware.Identity{}, err
	}
	return sess.Identity(), nil
}

// Logout clears the session.
func (s *Service) Logout(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	telemetry.Info("session.logout", map[string]any{"session_id": id})
	return nil
}

// PurgeExpired removes every expired session.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpired(ctx, s.Now())
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				telemetry.Warn("session.purge_failed", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				telemetry.Info("session.purged", map[string]any{"count": n})
			}
		}
	}
}

func (s *Service) open(ctx context.Context, res backend.AuthResult) (Session, error) {
	token := res.BearerToken()
	if token == "" {
		return Session{}, ErrNoToken
	}
	now := s.Now()
	sess := Session{
		ID:        s.NewID(),
		Token:     token,
		User:      res.User,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}

	if claims, err := auth.ParseUnverified(token); err == nil {
		if claims.Expired(now) {
			return Session{}, ErrExpired
		}
		if exp := claims.ExpiresAt(); !exp.IsZero() && exp.Before(sess.ExpiresAt) {
			sess.ExpiresAt = exp
		}
		if sess.User.ID == "" {
			sess.User.ID = backend.ID(claims.Sub)
		}
		if sess.User.Email == "" {
			sess.User.Email = claims.Email
		}
		if sess.User.Name == "" {
			sess.User.Name = claims.Name
		}
		if sess.User.Role == "" {
			sess.User.Role = claims.Role
		}
	}
	if sess.User.ID == "" {
		return Session{}, fmt.Errorf("%w: no user in auth response", ErrNoToken)
	}

	if err := s.Repo.Create(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	telemetry.Info("session.login", map[string]any{
		"session_id": sess.ID,
		"user_id":    sess.User.ID.String(),
		"role":       sess.User.Role,
		"expires_at": sess.ExpiresAt.Format(time.RFC3339),
	})
	return sess, nil
}

func validateForm(v any) error {
	err := formValidator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate form: %w", err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := jsonName(fe.Field())
		fields = append(fields, FieldError{Field: name, Message: describe(name, fe.Tag(), fe.Param())})
	}
	return &InputError{Fields: fields}
}

func mismatch() error {
	return &InputError{Fields: []FieldError{{Field: "passwordConfirm", Message: ErrPasswordMismatch.Error()}}}
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func describe(field, tag, param string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + param + " characters"
	default:
		return field + " is invalid"
	}
}
