package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/direwolf2494/CMS-Basic/internal/domain/customer"
	"github.com/direwolf2494/CMS-Basic/internal/infrastructure/monitoring"
	"github.com/direwolf2494/CMS-Basic/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

// searchVector mirrors the expression indexed by idx_customers_search.
const searchVector = `to_tsvector('english', concat_ws(' ', name, street_name, city, state_or_province, email, phone_number))`

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	if cust.ID == 0 {
		return r.createCustomer(ctx, cust)
	}
	return r.updateCustomer(ctx, cust)
}

func (r *CustomerRepository) createCustomer(ctx context.Context, cust *customer.Customer) (err error) {
	start := time.Now()
	defer func() { monitoring.ObserveDBQuery("createCustomer", start, err) }()

	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("email", cust.Email))

	query := `
        INSERT INTO customers (name, street_name, house_number, city, state_or_province, email, phone_number, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		cust.Name,
		cust.StreetName,
		cust.HouseNumber,
		cust.City,
		cust.StateOrProvince,
		cust.Email,
		cust.PhoneNumber,
	).Scan(
		&cust.ID,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation")
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) updateCustomer(ctx context.Context, cust *customer.Customer) (err error) {
	start := time.Now()
	defer func() { monitoring.ObserveDBQuery("updateCustomer", start, err) }()

	r.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", cust.ID))

	query := `
        UPDATE customers
        SET name = $1,
            street_name = $2,
            house_number = $3,
            city = $4,
            state_or_province = $5,
            email = $6,
            phone_number = $7,
            updated_at = NOW()
        WHERE id = $8 AND deleted_at IS NULL`

	cmdTag, err := r.db.Exec(ctx, query,
		cust.Name,
		cust.StreetName,
		cust.HouseNumber,
		cust.City,
		cust.StateOrProvince,
		cust.Email,
		cust.PhoneNumber,
		cust.ID,
	)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to update customer due to unique constraint violation", slog.Any("error", err))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer updated successfully")
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (cust *customer.Customer, err error) {
	start := time.Now()
	defer func() { monitoring.ObserveDBQuery("findByID", start, err) }()

	r.logger.InfoContext(ctx, "Attempting to find customer by ID")

	query := `
        SELECT id, name, street_name, house_number, city, state_or_province, email, phone_number, created_at, updated_at
        FROM customers
        WHERE id = $1 AND deleted_at IS NULL`

	var c customer.Customer
	err = r.db.QueryRow(ctx, query, customerID).Scan(
		&c.ID,
		&c.Name,
		&c.StreetName,
		&c.HouseNumber,
		&c.City,
		&c.StateOrProvince,
		&c.Email,
		&c.PhoneNumber,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found")
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer found successfully")
	return &c, nil
}

func (r *CustomerRepository) FindByEmailOrPhone(ctx context.Context, email, phoneNumber string, excludeID int64) (customers []*customer.Customer, err error) {
	start := time.Now()
	defer func() { monitoring.ObserveDBQuery("findByEmailOrPhone", start, err) }()

	r.logger.InfoContext(ctx, "Attempting to find customers by email or phone number")

	query := `
        SELECT id, name, street_name, house_number, city, state_or_province, email, phone_number, created_at, updated_at
        FROM customers
        WHERE (email = $1 OR phone_number = $2) AND deleted_at IS NULL`
	args := []any{email, phoneNumber}
	if excludeID != 0 {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers by email or phone number", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers by email or phone: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers, err = scanCustomerRows(rows, r.logger)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Finished finding customers by email or phone", slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) List(ctx context.Context, offset, limit int) (customers []*customer.Customer, count int64, err error) {
	start := time.Now()
	defer func() { monitoring.ObserveDBQuery("listCustomers", start, err) }()

	r.logger.InfoContext(ctx, "Attempting to list customers", slog.Int("offset", offset), slog.Int("limit", limit))

	countQuery := `SELECT COUNT(*) FROM customers WHERE deleted_at IS NULL`
	if err = r.db.QueryRow(ctx, countQuery).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count customers", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to count customers: %w", apperrors.ErrDatabase, err)
	}

	query := `
        SELECT id, name, street_name, house_number, city, state_or_province, email, phone_number, created_at, updated_at
        FROM customers
        WHERE deleted_at IS NULL
        ORDER BY id ASC
        OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers, err = scanCustomerRows(rows, r.logger)
	if err != nil {
		return nil, 0, err
	}

	r.logger.InfoContext(ctx, "Finished listing customers", slog.Int("count", len(customers)), slog.Int64("total", count))
	return customers, count, nil
}

func (r *CustomerRepository) SearchText(ctx context.Context, query string, offset, limit int) (customers []*customer.Customer, count int64, err error) {
	start := time.Now()
	defer func() { monitoring.ObserveDBQuery("searchCustomers", start, err) }()

	r.logger.InfoContext(ctx, "Attempting to search customers by text", slog.Int("offset", offset), slog.Int("limit", limit))

	// Natural-language match over the indexed columns, unioned with an
	// exact house number match so a numeric query also hits addresses.
	matchClause := `(` + searchVector + ` @@ plainto_tsquery('english', $1) OR house_number::text = $1)`

	countQuery := `SELECT COUNT(*) FROM customers WHERE deleted_at IS NULL AND ` + matchClause
	if err = r.db.QueryRow(ctx, countQuery, query).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count matching customers", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to count matching customers: %w", apperrors.ErrDatabase, err)
	}

	pageQuery := `
        SELECT id, name, street_name, house_number, city, state_or_province, email, phone_number, created_at, updated_at
        FROM customers
        WHERE deleted_at IS NULL AND ` + matchClause + `
        ORDER BY ts_rank(` + searchVector + `, plainto_tsquery('english', $1)) DESC, id ASC
        OFFSET $2 LIMIT $3`

	rows, err := r.db.Query(ctx, pageQuery, query, offset, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query matching customers", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to query matching customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers, err = scanCustomerRows(rows, r.logger)
	if err != nil {
		return nil, 0, err
	}

	r.logger.InfoContext(ctx, "Finished searching customers", slog.Int("count", len(customers)), slog.Int64("total", count))
	return customers, count, nil
}

func (r *CustomerRepository) SoftDelete(ctx context.Context, customerID int64) (err error) {
	start := time.Now()
	defer func() { monitoring.ObserveDBQuery("softDeleteCustomer", start, err) }()

	r.logger.InfoContext(ctx, "Attempting to soft-delete customer")

	query := `UPDATE customers SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	cmdTag, err := r.db.Exec(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to execute soft-delete customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to soft-delete customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Soft-delete affected zero rows, customer likely not found")
		return customer.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer soft-deleted successfully")
	return nil
}

func (r *CustomerRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (purged int64, err error) {
	start := time.Now()
	defer func() { monitoring.ObserveDBQuery("purgeDeletedCustomers", start, err) }()

	r.logger.InfoContext(ctx, "Attempting to purge soft-deleted customers", slog.Time("cutoff", cutoff))

	query := `DELETE FROM customers WHERE deleted_at IS NOT NULL AND deleted_at < $1`

	cmdTag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to purge soft-deleted customers", slog.Any("error", err))
		return 0, fmt.Errorf("%w: failed to purge soft-deleted customers: %w", apperrors.ErrDatabase, err)
	}

	purged = cmdTag.RowsAffected()
	r.logger.InfoContext(ctx, "Finished purging soft-deleted customers", slog.Int64("purged", purged))
	return purged, nil
}

func scanCustomerRows(rows pgx.Rows, logger *slog.Logger) ([]*customer.Customer, error) {
	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		var c customer.Customer
		err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.StreetName,
			&c.HouseNumber,
			&c.City,
			&c.StateOrProvince,
			&c.Email,
			&c.PhoneNumber,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			logger.Error("Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, &c)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	return customers, nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {

		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
