package live

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorepuestos/internal/events"
	"motorepuestos/internal/model"
	"motorepuestos/internal/repository"
	"motorepuestos/internal/store"
)

func newLiveEnv(t *testing.T, ttl time.Duration) (*store.MemoryStore, *events.Hub, *Hub) {
	t.Helper()
	mem := store.NewMemoryStore()
	evHub := events.NewHub(5 * time.Millisecond)
	t.Cleanup(evHub.Cleanup)
	h := NewHub(mem, evHub, ttl)
	t.Cleanup(h.Cleanup)
	return mem, evHub, h
}

func TestStartDeliversInitialSnapshots(t *testing.T) {
	mem, _, h := newLiveEnv(t, time.Minute)
	ctx := context.Background()

	products := repository.NewProductRepository(mem)
	_, err := products.Create(ctx, &model.Product{Name: "Filtro", Price: decimal.NewFromInt(1500), Stock: 10, MinStock: 2})
	require.NoError(t, err)

	require.NoError(t, h.Start(ctx))

	page := h.GetCached(CacheInventory)
	require.NotNil(t, page)
	inv, ok := page.([]model.Product)
	require.True(t, ok)
	require.Len(t, inv, 1)
	assert.Equal(t, "Filtro", inv[0].Name)

	// Every tracked collection has a page, even if empty.
	assert.NotNil(t, h.GetCached(CacheSales))
	assert.NotNil(t, h.GetCached(CacheShifts))
	assert.NotNil(t, h.GetCached(CacheExpenses))
}

func TestWriteRefreshesCacheAndPublishes(t *testing.T) {
	mem, evHub, h := newLiveEnv(t, time.Minute)
	ctx := context.Background()

	updated := make(chan events.SalesUpdated, 4)
	evHub.Subscribe(events.KindSalesUpdated, func(ev events.Event) {
		updated <- ev.(events.SalesUpdated)
	})

	require.NoError(t, h.Start(ctx))

	sales := repository.NewSaleRepository(mem)
	_, err := sales.Create(ctx, &model.Sale{
		Date:          "2025-03-10",
		Total:         decimal.NewFromInt(900),
		PaymentMethod: model.MethodCash,
		Timestamp:     time.Now().UTC(),
	})
	require.NoError(t, err)

	// The initial empty snapshot may flush first; wait for the page
	// that carries the write.
	deadline := time.After(time.Second)
	for synced := false; !synced; {
		select {
		case ev := <-updated:
			synced = len(ev.Sales) == 1
		case <-deadline:
			t.Fatal("no sales_updated carrying the new sale")
		}
	}

	page, ok := h.GetCached(CacheSales).([]model.Sale)
	require.True(t, ok)
	require.Len(t, page, 1)
	assert.True(t, page[0].Total.Equal(decimal.NewFromInt(900)))
}

func TestLowStockTriggersAlert(t *testing.T) {
	mem, evHub, h := newLiveEnv(t, time.Minute)
	ctx := context.Background()

	alerts := make(chan events.StockAlert, 2)
	evHub.Subscribe(events.KindStockAlert, func(ev events.Event) {
		alerts <- ev.(events.StockAlert)
	})
	notifications := make(chan events.NotificationReceived, 2)
	evHub.Subscribe(events.KindNotificationReceived, func(ev events.Event) {
		notifications <- ev.(events.NotificationReceived)
	})

	products := repository.NewProductRepository(mem)
	p := &model.Product{Name: "Bujia", Stock: 10, MinStock: 3}
	_, err := products.Create(ctx, p)
	require.NoError(t, err)

	require.NoError(t, h.Start(ctx))

	// Stock drops to the threshold.
	_, err = products.AdjustStock(ctx, p.ID, -7)
	require.NoError(t, err)

	select {
	case ev := <-alerts:
		require.Len(t, ev.Items, 1)
		assert.Equal(t, "Bujia", ev.Items[0].Name)
		assert.Equal(t, 3, ev.Items[0].Stock)
	case <-time.After(time.Second):
		t.Fatal("no stock_alert for low stock")
	}

	// The operator-facing notification rides along with the alert.
	select {
	case n := <-notifications:
		assert.Equal(t, "stock_alert", n.Type)
		assert.Equal(t, 1, n.Data["count"])
	case <-time.After(time.Second):
		t.Fatal("no notification for low stock")
	}
}

func TestGetCachedExpires(t *testing.T) {
	_, _, h := newLiveEnv(t, 30*time.Millisecond)
	require.NoError(t, h.Start(context.Background()))

	require.NotNil(t, h.GetCached(CacheSales))
	assert.Eventually(t, func() bool { return h.GetCached(CacheSales) == nil },
		time.Second, 10*time.Millisecond, "cache entry should expire after its TTL")
}

func TestCleanupStopsNotifications(t *testing.T) {
	mem, evHub, h := newLiveEnv(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, h.Start(ctx))

	got := make(chan struct{}, 4)
	evHub.Subscribe(events.KindShiftsUpdated, func(events.Event) { got <- struct{}{} })

	h.Cleanup()
	h.Cleanup() // idempotent

	shifts := repository.NewShiftRepository(mem)
	_, err := shifts.Create(ctx, &model.Shift{Date: "2025-03-10", Daypart: model.DaypartMorning, Status: model.ShiftActive})
	require.NoError(t, err)

	select {
	case <-got:
		t.Fatal("subscription survived Cleanup")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Nil(t, h.GetCached(CacheShifts))
}
