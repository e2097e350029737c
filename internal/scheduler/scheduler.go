package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/config"
	"github.com/Simplici0/jewelbook/internal/report"
)

const reportTimeout = 2 * time.Minute

// Reporter is the part of the report service the nightly job reads.
type Reporter interface {
	WastageByKarat(ctx context.Context) ([]report.KaratWastage, error)
	PendingDeliveries(ctx context.Context, now time.Time) ([]report.PendingDelivery, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	reporter Reporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler that runs in the configured time zone.
func NewScheduler(cfg config.Config, reporter Reporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(cfg.Location())),
		spec:     cfg.ReportCron,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the nightly report and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.nightlyReport); err != nil {
		return fmt.Errorf("schedule nightly report %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", zap.String("report_cron", s.spec))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) nightlyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := s.runReport(ctx); err != nil {
		s.logger.Error("nightly report failed", zap.Error(err))
	}
}

func (s *Scheduler) runReport(ctx context.Context) error {
	s.logger.Info("generating nightly report")

	rows, err := s.reporter.WastageByKarat(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		s.logger.Info("wastage by karat",
			zap.String("karat", row.Label),
			zap.Int("jobs", row.Jobs),
			zap.Float64("total_allowed", row.TotalAllowed),
			zap.Float64("total_actual", row.TotalActual),
			zap.Float64("net_difference", row.NetDifference),
			zap.Int("excess", row.Excess),
			zap.Int("low", row.Low),
			zap.Int("ideal", row.Ideal),
		)
	}

	pending, err := s.reporter.PendingDeliveries(ctx, s.now())
	if err != nil {
		return err
	}
	for _, p := range pending {
		fields := []zap.Field{
			zap.String("bill_id", p.BillID),
			zap.String("customer", p.CustomerName),
			zap.Time("delivery_date", p.DeliveryDate),
			zap.Int("days_left", p.DaysLeft),
		}
		if p.Status == billing.DeliveryOverdue {
			s.logger.Warn("custom order overdue", fields...)
		} else {
			s.logger.Info("custom order due soon", fields...)
		}
	}

	s.logger.Info("nightly report done", zap.Int("karats", len(rows)), zap.Int("pending_deliveries", len(pending)))
	return nil
}
