package service

import (
	"context"
	"errors"

	"deskbook/internal/events"
	officeserrors "deskbook/internal/offices/errors"
	"deskbook/internal/offices/repository"
	"deskbook/internal/offices/validator"
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
)

var tracer = otel.Tracer("deskbook/offices")

type OfficeService interface {
	List(ctx context.Context, user *model.User) ([]*model.Office, error)
	GetByID(ctx context.Context, user *model.User, id string) (*model.Office, error)
	Create(ctx context.Context, user *model.User, input *model.OfficeInput) (*model.Office, error)
	Upsert(ctx context.Context, user *model.User, input *model.OfficeInput) (*model.Office, error)
	Update(ctx context.Context, user *model.User, id string, input *model.OfficeInput) (*model.Office, error)
	Delete(ctx context.Context, user *model.User, id string) error
}

type officeService struct {
	repo      repository.OfficeRepository
	validator *validator.OfficeValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewOfficeService(
	repo repository.OfficeRepository,
	validator *validator.OfficeValidator,
	publisher events.Publisher,
	cfg *config.Config,
) OfficeService {
	return &officeService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *officeService) authorizeRead(user *model.User) error {
	if user == nil {
		return apperrors.NotLoggedIn()
	}
	return nil
}

// authorizeWrite lets any authenticated user manage offices unless the
// deployment restricts it to administrators.
func (s *officeService) authorizeWrite(user *model.User) error {
	if user == nil {
		return apperrors.NotLoggedIn()
	}
	if s.cfg.OfficeAdminOnly && !user.IsAdmin {
		return apperrors.Forbidden("only administrators can manage offices")
	}
	return nil
}

func (s *officeService) startSpan(ctx context.Context, op string, user *model.User) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "offices."+op)
	if user != nil {
		span.SetAttributes(attribute.String("user.id", user.ID))
	}
	return ctx, span
}

func (s *officeService) List(ctx context.Context, user *model.User) (offices []*model.Office, err error) {
	ctx, span := s.startSpan(ctx, "List", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.authorizeRead(user); err != nil {
		return nil, err
	}

	offices, err = s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to list offices", "error", err)
		return nil, apperrors.Internal("Failed to retrieve offices", err)
	}
	return offices, nil
}

func (s *officeService) GetByID(ctx context.Context, user *model.User, id string) (office *model.Office, err error) {
	ctx, span := s.startSpan(ctx, "GetByID", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.authorizeRead(user); err != nil {
		return nil, err
	}

	id = sanitizer.SanitizeToken(id)
	if err := s.validator.ValidateID(id); err != nil {
		return nil, validationError(err)
	}

	office, err = s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, officeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Office", id)
		}
		return nil, apperrors.Internal("Failed to retrieve office", err)
	}
	return office, nil
}

func (s *officeService) Create(ctx context.Context, user *model.User, input *model.OfficeInput) (office *model.Office, err error) {
	ctx, span := s.startSpan(ctx, "Create", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.authorizeWrite(user); err != nil {
		return nil, err
	}

	input = sanitizeInput(input)
	input.ID = nil
	if err := s.validator.ValidateInput(input); err != nil {
		return nil, validationError(err)
	}

	office = &model.Office{
		ID:   uuid.NewString(),
		Name: input.Name,
	}
	if err := s.repo.Create(ctx, office); err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to create office", "error", err)
		return nil, apperrors.Internal("Failed to create office", err)
	}

	s.cfg.Log.Ctx(ctx).Info("Office created successfully", "id", office.ID, "name", office.Name)
	return office, nil
}

func (s *officeService) Upsert(ctx context.Context, user *model.User, input *model.OfficeInput) (office *model.Office, err error) {
	ctx, span := s.startSpan(ctx, "Upsert", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.authorizeWrite(user); err != nil {
		return nil, err
	}

	input = sanitizeInput(input)
	if err := s.validator.ValidateInput(input); err != nil {
		return nil, validationError(err)
	}

	id := uuid.NewString()
	if input.ID != nil {
		id = *input.ID
	}

	office, err = s.repo.Upsert(ctx, id, input.Name)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to upsert office", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to save office", err)
	}

	s.cfg.Log.Ctx(ctx).Info("Office saved successfully", "id", office.ID, "name", office.Name)
	return office, nil
}

func (s *officeService) Update(ctx context.Context, user *model.User, id string, input *model.OfficeInput) (office *model.Office, err error) {
	ctx, span := s.startSpan(ctx, "Update", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.authorizeWrite(user); err != nil {
		return nil, err
	}

	id = sanitizer.SanitizeToken(id)
	if err := s.validator.ValidateID(id); err != nil {
		return nil, validationError(err)
	}

	input = sanitizeInput(input)
	input.ID = nil
	if err := s.validator.ValidateInput(input); err != nil {
		return nil, validationError(err)
	}

	office, err = s.repo.UpdateName(ctx, id, input.Name)
	if err != nil {
		if errors.Is(err, officeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Office", id)
		}
		s.cfg.Log.Ctx(ctx).Error("Failed to update office", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update office", err)
	}

	s.cfg.Log.Ctx(ctx).Info("Office updated successfully", "id", id)
	return office, nil
}

// Delete removes the office together with every booking on it. Unknown ids
// are ignored.
func (s *officeService) Delete(ctx context.Context, user *model.User, id string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.authorizeWrite(user); err != nil {
		return err
	}

	id = sanitizer.SanitizeToken(id)
	if err := s.validator.ValidateID(id); err != nil {
		return validationError(err)
	}

	var deleted bool
	var cascaded int64
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var txErr error
		deleted, cascaded, txErr = s.repo.Delete(sessCtx, id)
		return txErr
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to delete office", "id", id, "error", err)
		return apperrors.Internal("Failed to delete office", err)
	}

	if !deleted {
		s.cfg.Log.Ctx(ctx).Debug("Office delete matched nothing", "id", id)
		return nil
	}

	s.publisher.Publish(ctx, model.BookingEvent{
		Type:             model.EventOfficeDeleted,
		OfficeID:         id,
		UserID:           user.ID,
		CascadedBookings: cascaded,
	})

	s.cfg.Log.Ctx(ctx).Info("Office deleted successfully", "id", id, "cascaded_bookings", cascaded)
	return nil
}

func sanitizeInput(input *model.OfficeInput) *model.OfficeInput {
	if input == nil {
		return &model.OfficeInput{}
	}
	return &model.OfficeInput{
		ID:   sanitizer.SanitizeOptional(input.ID, sanitizer.SanitizeToken),
		Name: sanitizer.SanitizeOfficeName(input.Name),
	}
}

func validationError(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Invalid office input", verrs.Details())
	}
	return apperrors.Validation("Invalid office input", map[string]any{"error": err.Error()})
}
