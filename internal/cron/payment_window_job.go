package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gamerent/gamerent-backend/pkg/logger"
)

const defaultSweepBatchSize = 200

// overdueExpirer is the slice of the booking service the sweep needs.
type overdueExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}

// PaymentWindowJobParams configure the payment window sweep.
type PaymentWindowJobParams struct {
	Logger    *logger.Logger
	Bookings  overdueExpirer
	BatchSize int
}

// NewPaymentWindowJob builds the job that cancels approved bookings whose
// payment window lapsed. The lazy checks on the payment endpoints remain
// authoritative; the sweep keeps rows that nobody touches from lingering.
func NewPaymentWindowJob(params PaymentWindowJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}
	return &paymentWindowJob{
		logg:  params.Logger,
		svc:   params.Bookings,
		batch: batch,
		now:   time.Now,
	}, nil
}

type paymentWindowJob struct {
	logg  *logger.Logger
	svc   overdueExpirer
	batch int
	now   func() time.Time
}

func (j *paymentWindowJob) Name() string { return "payment-window" }

func (j *paymentWindowJob) Run(ctx context.Context) error {
	expired, err := j.svc.ExpireOverdue(ctx, j.now().UTC(), j.batch)
	if err != nil {
		return fmt.Errorf("payment window sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"bookings_expired": expired,
		"batch_size":       j.batch,
	})
	j.logg.Info(logCtx, "payment window sweep complete")
	return nil
}
