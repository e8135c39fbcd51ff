package customer

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("no customer has been found with the provided customer id")

	ErrPhoneNumberOrEmailInUse = errors.New("the provided phone number or email address is already associated with a customer")
)

type CustomerRepository interface {
	// Save inserts when ID is zero and updates otherwise.
	Save(ctx context.Context, cust *Customer) error

	// FindByID returns the active customer for the id, or ErrNotFound.
	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// FindByEmailOrPhone returns active customers whose email or phone
	// number matches. A non-zero excludeID leaves that customer out of the
	// result so updates do not collide with themselves.
	FindByEmailOrPhone(ctx context.Context, email, phoneNumber string, excludeID int64) ([]*Customer, error)

	// List returns a page of active customers in stable id order plus the
	// total active count.
	List(ctx context.Context, offset, limit int) ([]*Customer, int64, error)

	// SearchText returns a page of active customers matching the query by
	// full-text relevance or exact house number, plus the total match count.
	SearchText(ctx context.Context, query string, offset, limit int) ([]*Customer, int64, error)

	// SoftDelete marks the customer deleted. Returns ErrNotFound when no
	// active row matched.
	SoftDelete(ctx context.Context, customerID int64) error

	// PurgeDeletedBefore hard-deletes soft-deleted rows whose deletion
	// predates the cutoff and reports how many were removed.
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
