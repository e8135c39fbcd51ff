package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/direwolf2494/CMS-Basic/internal/domain/customer"
)

// PurgeDeletedCustomersJob hard-deletes soft-deleted customers whose
// deletion predates the retention window. Soft-deleted rows are invisible
// to every read path, so removing them is purely a storage concern.
type PurgeDeletedCustomersJob struct {
	repo          customer.CustomerRepository
	retentionDays int
	logger        *slog.Logger
}

func NewPurgeDeletedCustomersJob(repo customer.CustomerRepository, retentionDays int, logger *slog.Logger) *PurgeDeletedCustomersJob {
	if repo == nil || logger == nil {
		panic("PurgeDeletedCustomersJob dependencies cannot be nil")
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &PurgeDeletedCustomersJob{
		repo:          repo,
		retentionDays: retentionDays,
		logger:        logger.With("job", "PurgeDeletedCustomers"),
	}
}

func (j *PurgeDeletedCustomersJob) Run(ctx context.Context) error {
	startTime := time.Now()
	cutoff := startTime.AddDate(0, 0, -j.retentionDays)

	j.logger.InfoContext(ctx, "Starting purge of expired soft-deleted customers.", slog.Time("cutoff", cutoff))

	purged, err := j.repo.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to purge soft-deleted customers, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to purge soft-deleted customers: %w", err)
	}

	j.logger.InfoContext(ctx, "Purge job finished.",
		slog.Int64("purged", purged),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nil
}
