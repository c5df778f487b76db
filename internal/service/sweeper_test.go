package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestReservationSweeper_SweepOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	mgr := mocks.NewMockReservationManager(ctrl)
	sweeper := NewReservationSweeper(mgr, time.Minute, newTestLogger())

	before := testutil.ToFloat64(metrics.ReservationsExpired)
	mgr.EXPECT().ExpireOverdue(gomock.Any()).Return(int64(2), nil)
	sweeper.SweepOnce(context.Background())
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.ReservationsExpired))

	mgr.EXPECT().ExpireOverdue(gomock.Any()).Return(int64(0), errors.New("db down"))
	sweeper.SweepOnce(context.Background())
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.ReservationsExpired))
}

func TestReservationSweeper_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	mgr := mocks.NewMockReservationManager(ctrl)
	mgr.EXPECT().ExpireOverdue(gomock.Any()).Return(int64(0), nil).AnyTimes()

	sweeper := NewReservationSweeper(mgr, 5*time.Millisecond, newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(stopped)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestReservationSweeper_Disabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	sweeper := NewReservationSweeper(mocks.NewMockReservationManager(ctrl), 0, newTestLogger())
	// returns immediately without touching the manager
	sweeper.Run(context.Background())
}
