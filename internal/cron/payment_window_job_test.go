package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeExpirer struct {
	calls   int
	gotNow  time.Time
	gotMax  int
	expired int
	err     error
}

func (f *fakeExpirer) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	f.calls++
	f.gotNow = now
	f.gotMax = limit
	return f.expired, f.err
}

func TestPaymentWindowJobSweeps(t *testing.T) {
	expirer := &fakeExpirer{expired: 3}
	job, err := NewPaymentWindowJob(PaymentWindowJobParams{
		Logger:    testLogger(),
		Bookings:  expirer,
		BatchSize: 50,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "payment-window" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if expirer.calls != 1 {
		t.Fatalf("expected one sweep, got %d", expirer.calls)
	}
	if expirer.gotMax != 50 {
		t.Fatalf("expected batch size 50, got %d", expirer.gotMax)
	}
}

func TestPaymentWindowJobDefaultsBatchSize(t *testing.T) {
	expirer := &fakeExpirer{}
	job, err := NewPaymentWindowJob(PaymentWindowJobParams{
		Logger:   testLogger(),
		Bookings: expirer,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if expirer.gotMax != defaultSweepBatchSize {
		t.Fatalf("expected default batch size, got %d", expirer.gotMax)
	}
}

func TestPaymentWindowJobPropagatesErrors(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db down")}
	job, err := NewPaymentWindowJob(PaymentWindowJobParams{
		Logger:   testLogger(),
		Bookings: expirer,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected sweep error to propagate")
	}
}
