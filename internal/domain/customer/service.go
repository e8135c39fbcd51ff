package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/direwolf2494/CMS-Basic/internal/event"
	"github.com/direwolf2494/CMS-Basic/internal/pkg/apperrors"
)

const (
	customerNotFound   = "Customer not found by repository"
	defaultSearchLimit = 100
)

type CustomerService interface {
	// CreateCustomer persists a new customer after verifying that neither
	// the email nor the phone number belongs to another active customer.
	CreateCustomer(ctx context.Context, cust *Customer) (*Customer, error)

	// GetCustomer returns the active customer or (nil, nil) when absent.
	// Translating absence into a failure is the caller's decision.
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)

	// SearchCustomers runs a full-text search when query is non-empty and a
	// plain paginated listing otherwise. Returns the page and total count.
	SearchCustomers(ctx context.Context, query string, offset, limit int) ([]*Customer, int64, error)

	// UpdateCustomer replaces all business fields of an existing customer,
	// re-checking uniqueness against every other active customer.
	UpdateCustomer(ctx context.Context, customerID int64, cust *Customer) (*Customer, error)

	// DeleteCustomer soft-deletes the customer. Deleting an id that does
	// not exist is a successful no-op.
	DeleteCustomer(ctx context.Context, customerID int64) error
}

// searchMode makes the listing-vs-full-text branch explicit.
type searchMode int

const (
	searchModeList searchMode = iota
	searchModeFullText
)

func resolveSearchMode(query string) searchMode {
	if strings.TrimSpace(query) == "" {
		return searchModeList
	}
	return searchModeFullText
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, pub event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if pub == nil {
		pub = event.NewNoopPublisher()
		logger.Warn("Warning: No event publisher provided to NewCustomerService, events will be discarded")
	}

	return &customerService{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func NewCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID:      cust.ID,
		Name:            cust.Name,
		StreetName:      cust.StreetName,
		HouseNumber:     cust.HouseNumber,
		City:            cust.City,
		StateOrProvince: cust.StateOrProvince,
		Email:           cust.Email,
		PhoneNumber:     cust.PhoneNumber,
		CreatedAt:       cust.CreatedAt,
		UpdatedAt:       cust.UpdatedAt,
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, cust *Customer) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	if cust == nil {
		return nil, fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	// Advisory check-then-act; the partial unique indexes remain the source
	// of truth for concurrent creates.
	conflicts, err := s.repo.FindByEmailOrPhone(ctx, cust.Email, cust.PhoneNumber, 0)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to check email/phone uniqueness", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check email/phone uniqueness: %w", err)
	}
	if len(conflicts) > 0 {
		s.logger.WarnContext(ctx, "Email or phone number already in use", slog.Int("conflicts", len(conflicts)))
		return nil, ErrPhoneNumberOrEmailInUse
	}

	cust.ID = 0
	s.logger.InfoContext(ctx, "Uniqueness check passed, calling repository Save")
	if err := s.repo.Save(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "Unique constraint violation on insert, concurrent create won the race")
			return nil, ErrPhoneNumberOrEmailInUse
		}
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully saved new customer, publishing creation event", slog.Int64("customerID", cust.ID))
	createdEvent := event.CustomerCreatedEvent{
		Timestamp: time.Now(),
		Payload:   NewCustomerEventPayload(cust),
	}
	if pubErr := s.pub.PublishCustomerCreated(ctx, createdEvent); pubErr != nil {
		s.logger.ErrorContext(ctx, "Customer created, but FAILED to publish creation event", slog.Any("error", pubErr))
	}

	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to get customer", slog.Int64("customerID", customerID))

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound, slog.Int64("customerID", customerID))
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Repository error getting customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customer", slog.Int64("customerID", customerID))
	return cust, nil
}

func (s *customerService) SearchCustomers(ctx context.Context, query string, offset, limit int) ([]*Customer, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	mode := resolveSearchMode(query)
	s.logger.InfoContext(ctx, "Attempting to search customers",
		slog.Bool("fullText", mode == searchModeFullText),
		slog.Int("offset", offset),
		slog.Int("limit", limit),
	)

	var (
		customers []*Customer
		count     int64
		err       error
	)
	switch mode {
	case searchModeFullText:
		customers, count, err = s.repo.SearchText(ctx, strings.TrimSpace(query), offset, limit)
	default:
		customers, count, err = s.repo.List(ctx, offset, limit)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error searching customers", slog.Any("error", err))
		return nil, 0, fmt.Errorf("failed to search customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully searched customers", slog.Int("returned", len(customers)), slog.Int64("total", count))
	return customers, count, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, cust *Customer) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", customerID))

	if cust == nil {
		return nil, fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	existing, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound, slog.Int64("customerID", customerID))
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error fetching customer for update", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch customer %d for update: %w", customerID, err)
	}

	// Colliding with the customer's own email or phone is allowed.
	conflicts, err := s.repo.FindByEmailOrPhone(ctx, cust.Email, cust.PhoneNumber, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to check email/phone uniqueness", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check email/phone uniqueness: %w", err)
	}
	if len(conflicts) > 0 {
		s.logger.WarnContext(ctx, "Email or phone number already in use by another customer", slog.Int("conflicts", len(conflicts)))
		return nil, ErrPhoneNumberOrEmailInUse
	}

	existing.ApplyUpdate(cust)

	s.logger.InfoContext(ctx, "Uniqueness check passed, calling repository Save")
	if err := s.repo.Save(ctx, existing); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "Unique constraint violation on update, concurrent write won the race")
			return nil, ErrPhoneNumberOrEmailInUse
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer disappeared before update could complete")
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository failed to save updated customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save updated customer %d: %w", customerID, err)
	}

	s.logger.InfoContext(ctx, "Successfully updated customer, publishing update event", slog.Int64("customerID", customerID))
	updatedEvent := event.CustomerUpdatedEvent{
		Timestamp: time.Now(),
		Payload:   NewCustomerEventPayload(existing),
	}
	if pubErr := s.pub.PublishCustomerUpdated(ctx, updatedEvent); pubErr != nil {
		s.logger.ErrorContext(ctx, "Customer updated, but FAILED to publish update event", slog.Any("error", pubErr))
	}

	return existing, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	s.logger.InfoContext(ctx, "Attempting to delete customer", slog.Int64("customerID", customerID))

	err := s.repo.SoftDelete(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Delete is idempotent: a missing customer still reports success.
			s.logger.InfoContext(ctx, "Customer already absent, treating delete as success", slog.Int64("customerID", customerID))
			return nil
		}
		s.logger.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	s.logger.InfoContext(ctx, "Successfully deleted customer, publishing deletion event", slog.Int64("customerID", customerID))
	deletedEvent := event.CustomerDeletedEvent{
		CustomerID: customerID,
		Timestamp:  time.Now(),
	}
	if pubErr := s.pub.PublishCustomerDeleted(ctx, deletedEvent); pubErr != nil {
		s.logger.ErrorContext(ctx, "Customer deleted, but FAILED to publish deletion event", slog.Any("error", pubErr))
	}

	return nil
}
