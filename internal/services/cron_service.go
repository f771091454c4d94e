package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/models"
)

const (
	// cron format: second minute hour day month weekday
	reconcileSeatsSpec = "0 */10 * * * *"
	markOverdueSpec    = "0 0 * * * *"
	auditCleanupSpec   = "0 0 4 * * 0"

	auditRetention = 90 * 24 * time.Hour
	jobTimeout     = 2 * time.Minute
)

// CronService manages scheduled background jobs
type CronService struct {
	cron         *cron.Cron
	db           *sqlx.DB
	trips        *database.TripRepository
	ledger       *database.TransactionRepository
	audit        *AuditService
	availability *AvailabilityService
	logger       *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(
	db *sqlx.DB,
	trips *database.TripRepository,
	ledger *database.TransactionRepository,
	audit *AuditService,
	availability *AvailabilityService,
	logger *logrus.Logger,
) *CronService {
	return &CronService{
		cron:         cron.New(cron.WithSeconds()),
		db:           db,
		trips:        trips,
		ledger:       ledger,
		audit:        audit,
		availability: availability,
		logger:       logger,
	}
}

// Start schedules every job and starts the scheduler
func (s *CronService) Start() error {
	jobs := []struct {
		spec string
		name string
		fn   func()
	}{
		{reconcileSeatsSpec, "Reconcile trip seat counters (every 10 minutes)", s.reconcileSeatsJob},
		{markOverdueSpec, "Mark overdue ledger entries (hourly)", s.markOverdueJob},
		{auditCleanupSpec, "Cleanup old audit logs (Sundays at 4:00 AM)", s.cleanupAuditLogsJob},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("failed to schedule %q: %w", job.name, err)
		}
		s.logger.WithField("spec", job.spec).Infof("Scheduled: %s", job.name)
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) reconcileSeatsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.RunReconcileNow(ctx); err != nil {
		s.logger.WithError(err).Error("[CRON] Seat reconciliation failed")
	}
}

// RunReconcileNow rewrites every open trip's seat counter from its active reservations
// and returns the trips that had drifted. Each trip is reconciled in its own transaction
// under the trip lock; a trip that fails is logged and skipped.
func (s *CronService) RunReconcileNow(ctx context.Context) ([]models.SeatDrift, error) {
	start := time.Now()

	ids, err := s.trips.OpenTripIDs(ctx)
	if err != nil {
		return nil, err
	}

	drifts := []models.SeatDrift{}
	for _, id := range ids {
		var drift *models.SeatDrift
		err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
			var err error
			drift, err = s.trips.WithTx(tx).ReconcileSeats(ctx, id)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return drifts, ctx.Err()
			}
			s.logger.WithError(err).WithField("trip_id", id).Error("[CRON] Failed to reconcile trip")
			continue
		}
		if drift != nil {
			drifts = append(drifts, *drift)
		}
	}

	for _, d := range drifts {
		s.logger.WithFields(logrus.Fields{
			"trip_id":         d.TripID,
			"organization_id": d.OrganizationID,
			"previous":        d.Previous,
			"actual":          d.Actual,
		}).Warn("[CRON] Corrected seat counter drift")
		s.availability.Invalidate(ctx, d.OrganizationID, d.TripID)
		if s.audit != nil {
			s.audit.Log(ctx, AuditEvent{
				OrganizationID: d.OrganizationID,
				Action:         AuditSeatsReconciled,
				EntityType:     "trip",
				EntityID:       d.TripID,
				Details:        map[string]interface{}{"previous": d.Previous, "actual": d.Actual},
			})
		}
	}

	s.logger.WithFields(logrus.Fields{
		"checked":     len(ids),
		"corrected":   len(drifts),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("[CRON] Seat reconciliation finished")
	return drifts, nil
}

func (s *CronService) markOverdueJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.RunMarkOverdueNow(ctx); err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to mark overdue transactions")
	}
}

// RunMarkOverdueNow flags PENDING ledger entries past their due date
func (s *CronService) RunMarkOverdueNow(ctx context.Context) (int64, error) {
	n, err := s.ledger.MarkOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.WithField("count", n).Info("[CRON] Marked transactions overdue")
	}
	return n, nil
}

func (s *CronService) cleanupAuditLogsJob() {
	if s.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.audit.CleanupOldAuditLogs(ctx, auditRetention)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to cleanup old audit logs")
		return
	}
	s.logger.WithField("deleted", n).Info("[CRON] Cleaned up old audit logs")
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
