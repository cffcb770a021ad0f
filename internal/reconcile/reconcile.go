// Package reconcile periodically audits the ledger for settlements that only
// recorded one side of their pair.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// Sweeper scans for fiat references that appear on a single transaction.
// Every settlement writes two entries under one reference, so a lone entry
// means a pair was broken and needs operator attention.
type Sweeper struct {
	db       *pgxpool.Pool
	cron     *cron.Cron
	logger   *slog.Logger
	schedule string
}

func NewSweeper(db *pgxpool.Pool, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		db:       db,
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the sweep on its schedule and launches the scheduler.
func (s *Sweeper) Start() error {
	if s.db == nil {
		s.logger.Warn("reconciliation sweeper disabled, no database configured")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reconciliation sweeper started", "schedule", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep runs one audit pass and logs every unpaired reference.
func (s *Sweeper) Sweep(ctx context.Context) {
	rows, err := s.db.Query(ctx, `SELECT reference, COUNT(*)
        FROM transactions
        WHERE category = 'fiat' AND reference <> ''
        GROUP BY reference
        HAVING COUNT(*) <> 2`)
	if err != nil {
		s.logger.Error("reconciliation sweep failed", "error", err)
		return
	}
	defer rows.Close()

	unpaired := 0
	for rows.Next() {
		var reference string
		var count int
		if err := rows.Scan(&reference, &count); err != nil {
			s.logger.Error("reconciliation sweep failed", "error", err)
			return
		}
		unpaired++
		s.logger.Warn("unpaired settlement reference", "reference", reference, "entries", count)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("reconciliation sweep failed", "error", err)
		return
	}
	if unpaired == 0 {
		s.logger.Info("reconciliation sweep clean")
	}
}
