package customer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/direwolf2494/CMS-Basic/internal/domain/customer"
	"github.com/direwolf2494/CMS-Basic/internal/event"
	"github.com/direwolf2494/CMS-Basic/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupTest() (*customer.MockCustomerRepository, customer.CustomerService) {
	mockRepo := new(customer.MockCustomerRepository)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := customer.NewCustomerService(mockRepo, event.NewNoopPublisher(), logger)
	return mockRepo, service
}

func validCustomer() *customer.Customer {
	return &customer.Customer{
		Name:            "Roy Brown",
		StreetName:      "Barrington St",
		HouseNumber:     1505,
		City:            "Halifax",
		StateOrProvince: "NS",
		Email:           "r@x.ca",
		PhoneNumber:     "+19024445555",
	}
}

func TestCustomerService_CreateCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()
		input := validCustomer()
		expectedID := int64(1)

		mockRepo.On("FindByEmailOrPhone", ctx, input.Email, input.PhoneNumber, int64(0)).
			Return([]*customer.Customer{}, nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			match := c.ID == 0 && c.Email == input.Email && c.PhoneNumber == input.PhoneNumber
			if match {
				c.ID = expectedID
				c.CreatedAt = time.Now()
				c.UpdatedAt = c.CreatedAt
			}
			return match
		})).Return(nil).Once()

		created, err := service.CreateCustomer(ctx, input)

		assert.NoError(t, err)
		assert.NotNil(t, created)
		if created != nil {
			assert.Equal(t, expectedID, created.ID)
			assert.Equal(t, "Roy Brown", created.Name)
			assert.False(t, created.CreatedAt.IsZero())
		}
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Email Already In Use", func(t *testing.T) {
		mockRepo, service := setupTest()
		input := validCustomer()
		existing := validCustomer()
		existing.ID = 7
		existing.PhoneNumber = "+19020000000"

		mockRepo.On("FindByEmailOrPhone", ctx, input.Email, input.PhoneNumber, int64(0)).
			Return([]*customer.Customer{existing}, nil).Once()

		created, err := service.CreateCustomer(ctx, input)

		assert.Nil(t, created)
		assert.ErrorIs(t, err, customer.ErrPhoneNumberOrEmailInUse)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("Error - Phone Number Already In Use", func(t *testing.T) {
		mockRepo, service := setupTest()
		input := validCustomer()
		existing := validCustomer()
		existing.ID = 8
		existing.Email = "other@x.ca"

		mockRepo.On("FindByEmailOrPhone", ctx, input.Email, input.PhoneNumber, int64(0)).
			Return([]*customer.Customer{existing}, nil).Once()

		created, err := service.CreateCustomer(ctx, input)

		assert.Nil(t, created)
		assert.ErrorIs(t, err, customer.ErrPhoneNumberOrEmailInUse)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("Error - Constraint Violation On Save Maps To Conflict", func(t *testing.T) {
		mockRepo, service := setupTest()
		input := validCustomer()

		mockRepo.On("FindByEmailOrPhone", ctx, input.Email, input.PhoneNumber, int64(0)).
			Return([]*customer.Customer{}, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*customer.Customer")).
			Return(apperrors.ErrAlreadyExists).Once()

		created, err := service.CreateCustomer(ctx, input)

		assert.Nil(t, created)
		assert.ErrorIs(t, err, customer.ErrPhoneNumberOrEmailInUse)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Repository Save Failure", func(t *testing.T) {
		mockRepo, service := setupTest()
		input := validCustomer()
		dbError := errors.New("database connection failed")

		mockRepo.On("FindByEmailOrPhone", ctx, input.Email, input.PhoneNumber, int64(0)).
			Return([]*customer.Customer{}, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*customer.Customer")).Return(dbError).Once()

		created, err := service.CreateCustomer(ctx, input)

		assert.Nil(t, created)
		assert.ErrorIs(t, err, dbError)
		assert.Contains(t, err.Error(), "failed to save new customer")
		mockRepo.AssertExpectations(t)
	})
}

func TestCustomerService_GetCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()
		existing := validCustomer()
		existing.ID = 42

		mockRepo.On("FindByID", ctx, int64(42)).Return(existing, nil).Once()

		cust, err := service.GetCustomer(ctx, 42)

		assert.NoError(t, err)
		assert.Equal(t, existing, cust)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Absent Customer Is Not An Error", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(99)).Return(nil, customer.ErrNotFound).Once()

		cust, err := service.GetCustomer(ctx, 99)

		assert.NoError(t, err)
		assert.Nil(t, cust)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Repository Failure", func(t *testing.T) {
		mockRepo, service := setupTest()
		dbError := errors.New("database connection failed")

		mockRepo.On("FindByID", ctx, int64(42)).Return(nil, dbError).Once()

		cust, err := service.GetCustomer(ctx, 42)

		assert.Nil(t, cust)
		assert.ErrorIs(t, err, dbError)
		mockRepo.AssertExpectations(t)
	})
}

func TestCustomerService_UpdateCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Full Replacement Preserves ID", func(t *testing.T) {
		mockRepo, service := setupTest()
		existing := validCustomer()
		existing.ID = 5
		existing.CreatedAt = time.Now().Add(-24 * time.Hour)

		input := validCustomer()
		input.Name = "Roy A. Brown"
		input.City = "Dartmouth"

		mockRepo.On("FindByID", ctx, int64(5)).Return(existing, nil).Once()
		mockRepo.On("FindByEmailOrPhone", ctx, input.Email, input.PhoneNumber, int64(5)).
			Return([]*customer.Customer{}, nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.ID == 5 && c.Name == "Roy A. Brown" && c.City == "Dartmouth"
		})).Return(nil).Once()

		updated, err := service.UpdateCustomer(ctx, 5, input)

		assert.NoError(t, err)
		assert.NotNil(t, updated)
		if updated != nil {
			assert.Equal(t, int64(5), updated.ID)
			assert.Equal(t, "Roy A. Brown", updated.Name)
			assert.Equal(t, existing.CreatedAt, updated.CreatedAt)
		}
		mockRepo.AssertExpectations(t)
	})

	t.Run("Success - Self Collision Allowed", func(t *testing.T) {
		mockRepo, service := setupTest()
		existing := validCustomer()
		existing.ID = 5

		input := validCustomer() // same email and phone as the target

		// The uniqueness check excludes the customer being updated, so
		// keeping the same email/phone yields no conflicts.
		mockRepo.On("FindByID", ctx, int64(5)).Return(existing, nil).Once()
		mockRepo.On("FindByEmailOrPhone", ctx, input.Email, input.PhoneNumber, int64(5)).
			Return([]*customer.Customer{}, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*customer.Customer")).Return(nil).Once()

		_, err := service.UpdateCustomer(ctx, 5, input)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Nonexistent Customer", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("FindByID", ctx, int64(99)).Return(nil, customer.ErrNotFound).Once()

		updated, err := service.UpdateCustomer(ctx, 99, validCustomer())

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, customer.ErrNotFound)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("Error - Email Or Phone Taken By Another Customer", func(t *testing.T) {
		mockRepo, service := setupTest()
		existing := validCustomer()
		existing.ID = 5

		other := validCustomer()
		other.ID = 6

		input := validCustomer()

		mockRepo.On("FindByID", ctx, int64(5)).Return(existing, nil).Once()
		mockRepo.On("FindByEmailOrPhone", ctx, input.Email, input.PhoneNumber, int64(5)).
			Return([]*customer.Customer{other}, nil).Once()

		updated, err := service.UpdateCustomer(ctx, 5, input)

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, customer.ErrPhoneNumberOrEmailInUse)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("Error - Constraint Violation On Save Maps To Conflict", func(t *testing.T) {
		mockRepo, service := setupTest()
		existing := validCustomer()
		existing.ID = 5

		mockRepo.On("FindByID", ctx, int64(5)).Return(existing, nil).Once()
		mockRepo.On("FindByEmailOrPhone", ctx, mock.Anything, mock.Anything, int64(5)).
			Return([]*customer.Customer{}, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*customer.Customer")).
			Return(apperrors.ErrAlreadyExists).Once()

		updated, err := service.UpdateCustomer(ctx, 5, validCustomer())

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, customer.ErrPhoneNumberOrEmailInUse)
		mockRepo.AssertExpectations(t)
	})
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("SoftDelete", ctx, int64(5)).Return(nil).Once()

		err := service.DeleteCustomer(ctx, 5)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Nonexistent Customer Is Still A Success", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("SoftDelete", ctx, int64(99)).Return(customer.ErrNotFound).Once()

		err := service.DeleteCustomer(ctx, 99)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Repository Failure", func(t *testing.T) {
		mockRepo, service := setupTest()
		dbError := errors.New("database connection failed")

		mockRepo.On("SoftDelete", ctx, int64(5)).Return(dbError).Once()

		err := service.DeleteCustomer(ctx, 5)

		assert.ErrorIs(t, err, dbError)
		mockRepo.AssertExpectations(t)
	})
}

func TestCustomerService_SearchCustomers(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Query Lists Active Customers", func(t *testing.T) {
		mockRepo, service := setupTest()
		page := []*customer.Customer{validCustomer()}

		mockRepo.On("List", ctx, 0, 100).Return(page, int64(1), nil).Once()

		customers, count, err := service.SearchCustomers(ctx, "", 0, 100)

		assert.NoError(t, err)
		assert.Equal(t, page, customers)
		assert.Equal(t, int64(1), count)
		mockRepo.AssertNotCalled(t, "SearchText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Whitespace Query Lists Active Customers", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("List", ctx, 0, 100).Return([]*customer.Customer{}, int64(0), nil).Once()

		_, _, err := service.SearchCustomers(ctx, "   ", 0, 100)

		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "SearchText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Non-Empty Query Runs Full-Text Search", func(t *testing.T) {
		mockRepo, service := setupTest()
		page := []*customer.Customer{validCustomer()}

		mockRepo.On("SearchText", ctx, "1505", 0, 100).Return(page, int64(1), nil).Once()

		customers, count, err := service.SearchCustomers(ctx, "1505", 0, 100)

		assert.NoError(t, err)
		assert.Equal(t, page, customers)
		assert.Equal(t, int64(1), count)
		mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Negative Offset And Zero Limit Fall Back To Defaults", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("List", ctx, 0, 100).Return([]*customer.Customer{}, int64(0), nil).Once()

		_, _, err := service.SearchCustomers(ctx, "", -5, 0)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Repository Failure", func(t *testing.T) {
		mockRepo, service := setupTest()
		dbError := errors.New("database connection failed")

		mockRepo.On("SearchText", ctx, "halifax", 0, 100).Return(nil, int64(0), dbError).Once()

		customers, count, err := service.SearchCustomers(ctx, "halifax", 0, 100)

		assert.Nil(t, customers)
		assert.Zero(t, count)
		assert.ErrorIs(t, err, dbError)
		mockRepo.AssertExpectations(t)
	})
}
