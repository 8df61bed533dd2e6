package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/vaultemu/internal/errors"
)

// assertMetricLine matches a Prometheus line by name, partial labels and value.
// The exporter adds otel scope labels, hence the regex.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "Nil", err: nil, expected: StatusSuccess},
		{name: "NotFound", err: apperrors.Wrap(apperrors.ErrNotFound, "key"), expected: StatusNotFound},
		{name: "Conflict", err: apperrors.ErrConflict, expected: StatusConflict},
		{name: "InvalidInput", err: apperrors.ErrInvalidInput, expected: StatusInvalidInput},
		{name: "IllegalState", err: apperrors.ErrIllegalState, expected: StatusIllegalState},
		{name: "Other", err: errors.New("boom"), expected: StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFromError(tt.err))
		})
	}
}

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")

	require.NoError(t, err)
	assert.NotNil(t, businessMetrics)
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOpMetrics := NewNoOpBusinessMetrics()

	assert.IsType(t, &NoOpBusinessMetrics{}, noOpMetrics)
	assert.NotPanics(t, func() {
		noOpMetrics.RecordOperation(context.Background(), "vault", "vault_create", StatusSuccess)
		noOpMetrics.RecordDuration(context.Background(), "vault", "vault_create", time.Millisecond, StatusSuccess)
		noOpMetrics.RecordLifetimeEvent(context.Background(), "certificate", "Renew", "DaysBeforeExpiry")
	})
}

func TestBusinessMetrics_Export(t *testing.T) {
	provider, err := NewProvider("vaultemu_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "vaultemu_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "vault", "vault_create", StatusSuccess)
	bm.RecordOperation(ctx, "vault", "vault_create", StatusSuccess)
	bm.RecordOperation(ctx, "vault", "vault_create", StatusConflict)
	bm.RecordOperation(ctx, "vault", "vault_purge", StatusIllegalState)
	bm.RecordDuration(ctx, "vault", "vault_create", 5*time.Millisecond, StatusSuccess)
	bm.RecordDuration(ctx, "vault", "vault_create", 7*time.Millisecond, StatusSuccess)
	bm.RecordLifetimeEvent(ctx, "key", "Renew", "DaysAfterCreate")
	bm.RecordLifetimeEvent(ctx, "key", "Renew", "DaysAfterCreate")
	bm.RecordLifetimeEvent(ctx, "certificate", "Notify", "LifetimePercentage")

	output := scrape(t, provider)

	assertMetricLine(t, output, `vaultemu_test_operations_total`,
		`domain="vault".*operation="vault_create".*status="success"`, `2`)
	assertMetricLine(t, output, `vaultemu_test_operations_total`,
		`domain="vault".*operation="vault_create".*status="conflict"`, `1`)
	assertMetricLine(t, output, `vaultemu_test_operations_total`,
		`domain="vault".*operation="vault_purge".*status="illegal_state"`, `1`)
	assertMetricLine(t, output, `vaultemu_test_operation_duration_seconds_count`,
		`domain="vault".*operation="vault_create".*status="success"`, `2`)
	assertMetricLine(t, output, `vaultemu_test_lifetime_events_total`,
		`action="Renew".*kind="key".*trigger="DaysAfterCreate"`, `2`)
	assertMetricLine(t, output, `vaultemu_test_lifetime_events_total`,
		`action="Notify".*kind="certificate".*trigger="LifetimePercentage"`, `1`)
}
