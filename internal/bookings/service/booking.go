package service

import (
	"context"
	"errors"

	bookingserrors "deskbook/internal/bookings/errors"
	"deskbook/internal/bookings/repository"
	"deskbook/internal/bookings/validator"
	"deskbook/internal/events"
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

var tracer = otel.Tracer("deskbook/bookings")

type BookingService interface {
	List(ctx context.Context, user *model.User, filter *model.BookingFilter) (*model.BookingPage, error)
	GetByID(ctx context.Context, user *model.User, id string) (*model.Booking, error)
	Create(ctx context.Context, user *model.User, input *model.BookingInput) (*model.Booking, error)
	Upsert(ctx context.Context, user *model.User, input *model.BookingInput) (*model.Booking, error)
	Update(ctx context.Context, user *model.User, id string, update *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, user *model.User, id string) error
}

// SquadDirectory resolves the members of a squad for the squad filter.
type SquadDirectory interface {
	FindIDsBySquad(ctx context.Context, squad string) ([]string, error)
}

// CursorCodec turns page positions into opaque tokens and back.
type CursorCodec interface {
	Seal(v any) (string, error)
	Open(token string, v any) error
}

type bookingService struct {
	repo      repository.BookingRepository
	squads    SquadDirectory
	cursors   CursorCodec
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	squads SquadDirectory,
	cursors CursorCodec,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		squads:    squads,
		cursors:   cursors,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) startSpan(ctx context.Context, op string, user *model.User) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "bookings."+op)
	if user != nil {
		span.SetAttributes(attribute.String("user.id", user.ID))
	}
	return ctx, span
}

func (s *bookingService) List(ctx context.Context, user *model.User, filter *model.BookingFilter) (page *model.BookingPage, err error) {
	ctx, span := s.startSpan(ctx, "List", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}

	filter = sanitizeFilter(filter)
	if err := s.validator.ValidateFilter(filter); err != nil {
		return nil, validationError(err)
	}

	query := repository.BookingQuery{
		Date:     filter.Date,
		OfficeID: filter.OfficeID,
	}

	if filter.Cursor != "" {
		var after model.BookingCursor
		if err := s.cursors.Open(filter.Cursor, &after); err != nil {
			return nil, apperrors.InvalidInput("Invalid cursor")
		}
		query.After = &after
	}

	if filter.Squad != "" {
		query.UserIDs, err = s.squads.FindIDsBySquad(ctx, filter.Squad)
		if err != nil {
			s.cfg.Log.Ctx(ctx).Error("Failed to resolve squad members", "squad", filter.Squad, "error", err)
			return nil, apperrors.Internal("Failed to retrieve bookings", err)
		}
		if query.UserIDs == nil {
			query.UserIDs = []string{}
		}
	}

	if filter.Limit > 0 {
		query.Limit = config.NormalizePaginationLimit(filter.Limit) + 1
	}

	bookings, err := s.repo.Find(ctx, query)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to list bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	page = &model.BookingPage{Bookings: bookings}
	if query.Limit > 0 && len(bookings) == query.Limit {
		page.Bookings = bookings[:query.Limit-1]
		last := page.Bookings[len(page.Bookings)-1]
		page.NextCursor, err = s.cursors.Seal(model.BookingCursor{Date: last.Date, ID: last.ID})
		if err != nil {
			return nil, apperrors.Internal("Failed to retrieve bookings", err)
		}
	}
	return page, nil
}

func (s *bookingService) GetByID(ctx context.Context, user *model.User, id string) (booking *model.Booking, err error) {
	ctx, span := s.startSpan(ctx, "GetByID", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}

	id = sanitizer.SanitizeToken(id)
	if err := s.validator.ValidateID(id); err != nil {
		return nil, validationError(err)
	}

	booking, err = s.repo.FindOwned(ctx, id, user.ID)
	if err != nil {
		return nil, s.translate(ctx, err, "retrieve")
	}
	return booking, nil
}

func (s *bookingService) Create(ctx context.Context, user *model.User, input *model.BookingInput) (booking *model.Booking, err error) {
	ctx, span := s.startSpan(ctx, "Create", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}

	input = sanitizeInput(input)
	input.ID = nil
	if err := s.validator.ValidateInput(input); err != nil {
		return nil, validationError(err)
	}

	booking, err = s.insert(ctx, user, uuid.NewString(), input)
	if err != nil {
		return nil, s.translate(ctx, err, "create")
	}

	s.publish(ctx, model.EventBookingCreated, booking, nil)
	s.cfg.Log.Ctx(ctx).Info("Booking created successfully", "id", booking.ID, "office_id", booking.OfficeID, "date", booking.Date)
	return booking, nil
}

func (s *bookingService) insert(ctx context.Context, user *model.User, id string, input *model.BookingInput) (*model.Booking, error) {
	var booking *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.ClaimOffice(sessCtx, input.OfficeID); err != nil {
			return err
		}
		if err := s.repo.ClaimUser(sessCtx, user.ID); err != nil {
			return err
		}
		booking = &model.Booking{
			ID:       id,
			OfficeID: input.OfficeID,
			UserID:   user.ID,
			Date:     input.Date,
		}
		return s.repo.Insert(sessCtx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Upsert overwrites the caller's booking with the given id, or creates it when
// no booking has that id. Without an id a new booking is always created.
func (s *bookingService) Upsert(ctx context.Context, user *model.User, input *model.BookingInput) (booking *model.Booking, err error) {
	ctx, span := s.startSpan(ctx, "Upsert", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}

	input = sanitizeInput(input)
	if err := s.validator.ValidateInput(input); err != nil {
		return nil, validationError(err)
	}

	if input.ID == nil {
		booking, err = s.insert(ctx, user, uuid.NewString(), input)
		if err != nil {
			return nil, s.translate(ctx, err, "save")
		}
		s.publish(ctx, model.EventBookingCreated, booking, nil)
		s.cfg.Log.Ctx(ctx).Info("Booking created successfully", "id", booking.ID, "office_id", booking.OfficeID, "date", booking.Date)
		return booking, nil
	}

	id := *input.ID
	var previous *model.Booking
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		previous, booking = nil, nil

		existing, err := s.repo.FindByID(sessCtx, id)
		switch {
		case errors.Is(err, bookingserrors.ErrNotFound):
			if err := s.repo.ClaimOffice(sessCtx, input.OfficeID); err != nil {
				return err
			}
			if err := s.repo.ClaimUser(sessCtx, user.ID); err != nil {
				return err
			}
			booking = &model.Booking{
				ID:       id,
				OfficeID: input.OfficeID,
				UserID:   user.ID,
				Date:     input.Date,
			}
			return s.repo.Insert(sessCtx, booking)
		case err != nil:
			return err
		case existing.UserID != user.ID:
			return bookingserrors.ErrNotFound
		}

		if err := s.repo.ClaimOffice(sessCtx, input.OfficeID); err != nil {
			return err
		}
		previous = existing
		booking, err = s.repo.UpdateOwned(sessCtx, id, user.ID, input.OfficeID, input.Date)
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, err, "save")
	}

	if previous == nil {
		s.publish(ctx, model.EventBookingCreated, booking, nil)
		s.cfg.Log.Ctx(ctx).Info("Booking created successfully", "id", booking.ID, "office_id", booking.OfficeID, "date", booking.Date)
	} else {
		s.publish(ctx, model.EventBookingUpdated, booking, previous)
		s.cfg.Log.Ctx(ctx).Info("Booking overwritten successfully", "id", booking.ID, "office_id", booking.OfficeID, "date", booking.Date)
	}
	return booking, nil
}

func (s *bookingService) Update(ctx context.Context, user *model.User, id string, update *model.BookingUpdate) (booking *model.Booking, err error) {
	ctx, span := s.startSpan(ctx, "Update", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}

	id = sanitizer.SanitizeToken(id)
	if err := s.validator.ValidateID(id); err != nil {
		return nil, validationError(err)
	}

	update = sanitizeUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, validationError(err)
	}

	var previous *model.Booking
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindOwned(sessCtx, id, user.ID)
		if err != nil {
			return err
		}
		previous = existing

		if update.IsEmpty() {
			booking = existing
			return nil
		}

		officeID, date := existing.OfficeID, existing.Date
		if update.OfficeID != nil {
			officeID = *update.OfficeID
		}
		if update.Date != nil {
			date = *update.Date
		}

		if officeID != existing.OfficeID {
			if err := s.repo.ClaimOffice(sessCtx, officeID); err != nil {
				return err
			}
		}

		booking, err = s.repo.UpdateOwned(sessCtx, id, user.ID, officeID, date)
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, err, "update")
	}

	if !update.IsEmpty() {
		s.publish(ctx, model.EventBookingUpdated, booking, previous)
	}
	s.cfg.Log.Ctx(ctx).Info("Booking updated successfully", "id", booking.ID, "office_id", booking.OfficeID, "date", booking.Date)
	return booking, nil
}

// Delete removes the caller's booking. Missing and foreign bookings are ignored.
func (s *bookingService) Delete(ctx context.Context, user *model.User, id string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete", user)
	defer func() { telemetry.EndSpan(span, err) }()

	if user == nil {
		return apperrors.NotLoggedIn()
	}

	id = sanitizer.SanitizeToken(id)
	if err := s.validator.ValidateID(id); err != nil {
		return validationError(err)
	}

	booking, err := s.repo.DeleteOwned(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Ctx(ctx).Debug("Booking delete matched nothing", "id", id)
			return nil
		}
		return s.translate(ctx, err, "delete")
	}

	s.publish(ctx, model.EventBookingDeleted, booking, nil)
	s.cfg.Log.Ctx(ctx).Info("Booking deleted successfully", "id", id)
	return nil
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking, previous *model.Booking) {
	event := model.BookingEvent{
		Type:      eventType,
		BookingID: booking.ID,
		OfficeID:  booking.OfficeID,
		UserID:    booking.UserID,
		Date:      booking.Date,
	}
	if previous != nil {
		event.PreviousOfficeID = previous.OfficeID
		event.PreviousDate = previous.Date
	}
	s.publisher.Publish(ctx, event)
}

// translate maps repository failures to the errors callers see. Storage
// failures that are not domain errors stay internal.
func (s *bookingService) translate(ctx context.Context, err error, action string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrDuplicateDate):
		return apperrors.Conflict(bookingserrors.MsgOneOfficeADay)
	case errors.Is(err, bookingserrors.ErrNotFound), errors.Is(err, bookingserrors.ErrDuplicateID):
		return apperrors.NotFoundMessage(bookingserrors.MsgNotFound)
	case errors.Is(err, bookingserrors.ErrOfficeNotFound):
		return apperrors.NotFoundMessage(bookingserrors.MsgOfficeNotFound)
	case errors.Is(err, bookingserrors.ErrUserNotFound):
		return apperrors.NotLoggedIn()
	}

	s.cfg.Log.Ctx(ctx).Error("Failed to "+action+" booking", "error", err)
	return apperrors.Internal("Failed to "+action+" booking", err)
}

func sanitizeInput(input *model.BookingInput) *model.BookingInput {
	if input == nil {
		return &model.BookingInput{}
	}
	return &model.BookingInput{
		ID:       sanitizer.SanitizeOptional(input.ID, sanitizer.SanitizeToken),
		OfficeID: sanitizer.SanitizeToken(input.OfficeID),
		Date:     sanitizer.SanitizeToken(input.Date),
	}
}

func sanitizeUpdate(update *model.BookingUpdate) *model.BookingUpdate {
	if update == nil {
		return &model.BookingUpdate{}
	}
	return &model.BookingUpdate{
		OfficeID: sanitizer.SanitizeOptional(update.OfficeID, sanitizer.SanitizeToken),
		Date:     sanitizer.SanitizeOptional(update.Date, sanitizer.SanitizeToken),
	}
}

func sanitizeFilter(filter *model.BookingFilter) *model.BookingFilter {
	if filter == nil {
		return &model.BookingFilter{}
	}
	return &model.BookingFilter{
		Squad:    sanitizer.SanitizeUsername(filter.Squad),
		Date:     sanitizer.SanitizeToken(filter.Date),
		OfficeID: sanitizer.SanitizeToken(filter.OfficeID),
		Limit:    filter.Limit,
		Cursor:   sanitizer.SanitizeToken(filter.Cursor),
	}
}

func validationError(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Invalid booking input", verrs.Details())
	}
	return apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
}
