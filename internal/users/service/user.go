package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"deskbook/internal/events"
	userserrors "deskbook/internal/users/errors"
	"deskbook/internal/users/repository"
	"deskbook/internal/users/validator"
	"deskbook/pkg/config"
	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/model"
	"deskbook/pkg/sanitizer"
	"deskbook/pkg/telemetry"
	"deskbook/pkg/validation"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const tokenBytes = 32

var tracer = otel.Tracer("deskbook/users")

type UserService interface {
	Register(ctx context.Context, reg *model.Registration) (*model.User, error)
	Login(ctx context.Context, creds *model.Credentials) (*model.Token, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, user *model.User) (*model.User, error)
	List(ctx context.Context, user *model.User) ([]*model.User, error)
	DeleteMe(ctx context.Context, user *model.User) error
	// Resolve implements middleware.IdentityResolver.
	Resolve(ctx context.Context, token string) (*model.User, error)
}

type userService struct {
	repo      repository.Store
	validator *validator.UserValidator
	publisher events.Publisher
	cfg       *config.Config
	cost      int
	now       func() time.Time
	dummyHash []byte
}

func NewUserService(
	repo repository.Store,
	validator *validator.UserValidator,
	publisher events.Publisher,
	cfg *config.Config,
) UserService {
	return newUserService(repo, validator, publisher, cfg, bcrypt.DefaultCost)
}

func newUserService(
	repo repository.Store,
	validator *validator.UserValidator,
	publisher events.Publisher,
	cfg *config.Config,
	cost int,
) *userService {
	// Unknown usernames are checked against this hash so that login takes the
	// same time whether or not the user exists.
	dummy, err := bcrypt.GenerateFromPassword([]byte("deskbook"), cost)
	if err != nil {
		cfg.Log.Error("Failed to prepare dummy password hash", "error", err)
	}
	return &userService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		cost:      cost,
		now:       time.Now,
		dummyHash: dummy,
	}
}

func (s *userService) startSpan(ctx context.Context, op string, user *model.User) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "users."+op)
	if user != nil {
		span.SetAttributes(attribute.String("user.id", user.ID))
	}
	return ctx, span
}

// HashToken is the session id stored for a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *userService) Register(ctx context.Context, reg *model.Registration) (user *model.User, err error) {
	ctx, span := s.startSpan(ctx, "Register", nil)
	defer func() { telemetry.EndSpan(span, err) }()

	reg = sanitizeRegistration(reg)
	if err := s.validator.ValidateRegistration(reg); err != nil {
		return nil, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, apperrors.Internal("Failed to register user", err)
	}

	user = &model.User{
		ID:           uuid.NewString(),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		Squad:        reg.Squad,
		Club:         reg.Club,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, userserrors.ErrUsernameTaken):
			return nil, apperrors.Conflict(userserrors.MsgUsernameTaken)
		case errors.Is(err, userserrors.ErrEmailTaken):
			return nil, apperrors.Conflict(userserrors.MsgEmailTaken)
		}
		s.cfg.Log.Ctx(ctx).Error("Failed to register user", "error", err)
		return nil, apperrors.Internal("Failed to register user", err)
	}

	s.cfg.Log.Ctx(ctx).Info("User registered successfully", "id", user.ID, "username", user.Username)
	return user, nil
}

func (s *userService) Login(ctx context.Context, creds *model.Credentials) (token *model.Token, err error) {
	ctx, span := s.startSpan(ctx, "Login", nil)
	defer func() { telemetry.EndSpan(span, err) }()

	creds = sanitizeCredentials(creds)
	if err := s.validator.ValidateCredentials(creds); err != nil {
		return nil, validationError(err)
	}

	user, err := s.repo.FindByUsername(ctx, creds.Username)
	switch {
	case errors.Is(err, userserrors.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(creds.Password))
		return nil, apperrors.Unauthorized(userserrors.MsgInvalidCredentials)
	case err != nil:
		s.cfg.Log.Ctx(ctx).Error("Failed to look up user", "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		s.cfg.Log.Ctx(ctx).Info("Login rejected", "username", creds.Username)
		return nil, apperrors.Unauthorized(userserrors.MsgInvalidCredentials)
	}

	raw, err := newToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to log in", err)
	}

	session := &model.Session{
		ID:        HashToken(raw),
		UserID:    user.ID,
		ExpiresAt: s.now().UTC().Add(s.cfg.SessionTTL).Truncate(time.Millisecond),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to create session", "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	s.cfg.Log.Ctx(ctx).Info("User logged in", "id", user.ID)
	return &model.Token{Token: raw, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func (s *userService) Logout(ctx context.Context, token string) (err error) {
	ctx, span := s.startSpan(ctx, "Logout", nil)
	defer func() { telemetry.EndSpan(span, err) }()

	if token == "" {
		return apperrors.NotLoggedIn()
	}

	if err := s.repo.DeleteSession(ctx, HashToken(token)); err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to delete session", "error", err)
		return apperrors.Internal("Failed to log out", err)
	}
	return nil
}

func (s *userService) Me(ctx context.Context, user *model.User) (me *model.User, err error) {
	_, span := s.startSpan(ctx, "Me", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, user *model.User) (users []*model.User, err error) {
	ctx, span := s.startSpan(ctx, "List", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}

	users, err = s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to list users", "error", err)
		return nil, apperrors.Internal("Failed to retrieve users", err)
	}
	return users, nil
}

// DeleteMe removes the caller together with their bookings and sessions.
func (s *userService) DeleteMe(ctx context.Context, user *model.User) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteMe", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if user == nil {
		return apperrors.NotLoggedIn()
	}

	var deleted bool
	var cascaded int64
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var txErr error
		deleted, cascaded, txErr = s.repo.Delete(sessCtx, user.ID)
		return txErr
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to delete user", "id", user.ID, "error", err)
		return apperrors.Internal("Failed to delete user", err)
	}

	if !deleted {
		return nil
	}

	s.publisher.Publish(ctx, model.BookingEvent{
		Type:             model.EventUserDeleted,
		UserID:           user.ID,
		CascadedBookings: cascaded,
	})

	s.cfg.Log.Ctx(ctx).Info("User deleted successfully", "id", user.ID, "cascaded_bookings", cascaded)
	return nil
}

// Resolve maps a bearer token to its user. Unknown and expired tokens, and
// sessions whose user is gone, resolve to no identity.
func (s *userService) Resolve(ctx context.Context, token string) (*model.User, error) {
	session, err := s.repo.FindSession(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, userserrors.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func sanitizeRegistration(reg *model.Registration) *model.Registration {
	if reg == nil {
		return &model.Registration{}
	}
	return &model.Registration{
		Username: sanitizer.SanitizeUsername(reg.Username),
		Email:    sanitizer.SanitizeEmail(reg.Email),
		Password: reg.Password,
		Squad:    sanitizer.SanitizeOptional(reg.Squad, sanitizer.SanitizeUsername),
		Club:     sanitizer.SanitizeOptional(reg.Club, sanitizer.SanitizeUsername),
	}
}

func sanitizeCredentials(creds *model.Credentials) *model.Credentials {
	if creds == nil {
		return &model.Credentials{}
	}
	return &model.Credentials{
		Username: sanitizer.SanitizeUsername(creds.Username),
		Password: creds.Password,
	}
}

func validationError(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Invalid user input", verrs.Details())
	}
	return apperrors.Validation("Invalid user input", map[string]any{"error": err.Error()})
}
