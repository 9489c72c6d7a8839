// Package jobs holds the background schedulers that keep cached
// financial-year totals in step with the underlying records.
package jobs

import (
	"github.com/robfig/cron/v3"

	"cbms/internal/logger"
	"cbms/internal/services"
)

// Recalculator periodically refreshes the cached allocated, spent, and
// income totals on every financial year.
type Recalculator struct {
	cron     *cron.Cron
	years    services.FinancialYearServicer
	schedule string
}

// NewRecalculator creates a Recalculator running on the given cron
// schedule (standard cron syntax or @every intervals).
func NewRecalculator(years services.FinancialYearServicer, schedule string) *Recalculator {
	return &Recalculator{
		cron:     cron.New(),
		years:    years,
		schedule: schedule,
	}
}

// Start registers the recalculation job and starts the scheduler. The
// first run happens after one schedule interval, not immediately.
func (r *Recalculator) Start() error {
	_, err := r.cron.AddFunc(r.schedule, r.run)
	if err != nil {
		return err
	}
	r.cron.Start()
	logger.Get().Infow("financial year recalculator started", "schedule", r.schedule)
	return nil
}

// Stop halts the scheduler, waiting for a running job to finish.
func (r *Recalculator) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	logger.Get().Infow("financial year recalculator stopped")
}

func (r *Recalculator) run() {
	if err := r.years.RecalculateAll(); err != nil {
		logger.Get().Errorw("financial year recalculation failed", "error", err)
		return
	}
	logger.Get().Debugw("financial year totals recalculated")
}
