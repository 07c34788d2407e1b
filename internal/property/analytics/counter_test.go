package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	propertymetrics "estatehub/internal/property/metrics"
	"estatehub/internal/property/models"
	propertystore "estatehub/internal/property/store/property"
	id "estatehub/pkg/domain"
)

func seed(t *testing.T, store *propertystore.InMemory, tenantID id.TenantID, slug string) *models.Property {
	t.Helper()
	price := decimal.NewFromInt(1000)
	p := &models.Property{
		ID:           id.NewPropertyID(),
		TenantID:     tenantID,
		Title:        slug,
		Slug:         slug,
		PropertyType: models.TypeApartment,
		Purpose:      models.PurposeRent,
		Status:       models.StatusActive,
		Pricing:      models.Pricing{Currency: "USD", RentPrice: &price},
		Location:     models.Location{City: "Lisbon", Country: "PT"},
	}
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func TestCounter_HundredConcurrentViews(t *testing.T) {
	store := propertystore.NewInMemory()
	tenantID := id.NewTenantID()
	p := seed(t, store, tenantID, "flat")
	counter := New(store)

	done := make(chan struct{})
	for range 100 {
		go func() {
			counter.RecordView(context.Background(), tenantID, p.ID)
			done <- struct{}{}
		}()
	}
	for range 100 {
		<-done
	}
	counter.Wait()

	got, err := store.FindByID(context.Background(), tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Analytics.Views)
}

func TestCounter_FavoritesLeadsAndBatchViews(t *testing.T) {
	store := propertystore.NewInMemory()
	tenantID := id.NewTenantID()
	a := seed(t, store, tenantID, "a")
	b := seed(t, store, tenantID, "b")
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := prometheus.NewRegistry()
	m := propertymetrics.New(reg)
	counter := New(store, WithClock(func() time.Time { return fixed }), WithMetrics(m))

	ctx := context.Background()
	counter.RecordFavorite(ctx, tenantID, a.ID)
	counter.RecordLead(ctx, tenantID, a.ID)
	counter.RecordViews(ctx, tenantID, []id.PropertyID{a.ID, b.ID})
	counter.Wait()

	got, err := store.FindByID(ctx, tenantID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Analytics.Favorites)
	assert.Equal(t, int64(1), got.Analytics.Leads)
	assert.Equal(t, int64(1), got.Analytics.Views)
	require.NotNil(t, got.Analytics.LastViewAt)
	assert.True(t, fixed.Equal(*got.Analytics.LastViewAt))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalyticsIncrement.WithLabelValues("views")))
}

func TestCounter_FailuresAreCountedNotReturned(t *testing.T) {
	store := propertystore.NewInMemory()
	reg := prometheus.NewRegistry()
	m := propertymetrics.New(reg)
	counter := New(store, WithMetrics(m))

	counter.RecordView(context.Background(), id.NewTenantID(), id.NewPropertyID())
	counter.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalyticsFailures.WithLabelValues("views")))
}
