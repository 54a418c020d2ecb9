package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store/drivers/memory"
)

func TestHousekeepingService_PurgesExpiredSessions(t *testing.T) {
	st := memory.NewStore()
	now := time.Now()

	for key, expires := range map[string]time.Time{
		"expired": now.Add(-time.Minute),
		"live":    now.Add(time.Hour),
	} {
		require.NoError(t, st.CreateSession(context.Background(), domain.Session{
			ID: key, Key: key, Version: 1, ExpiresAt: expires,
		}))
	}

	m := metrics.New()
	hk := NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), m, time.Hour)
	hk.Start()
	hk.Stop()

	_, err := st.GetSession(context.Background(), "live")
	require.NoError(t, err)

	_, err = st.GetSession(context.Background(), "expired")
	require.Error(t, err)

	require.Equal(t, float64(1), testutil.ToFloat64(m.SessionsPurged))
}

func TestNewHousekeepingService_DefaultInterval(t *testing.T) {
	hk := NewHousekeepingService(memory.NewStore(), slog.Default(), nil, 0)
	require.Equal(t, time.Hour, hk.Interval)
}
