package tests

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/fuel-station/internal/adapter/storage"
	"github.com/fuelops/fuel-station/internal/core/domain"
	"github.com/fuelops/fuel-station/internal/core/service"
)

type testEnv struct {
	db      *sql.DB
	station *service.StationService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	db.SetMaxOpenConns(20)

	ctx := context.Background()
	require.NoError(t, storage.ApplySchema(ctx, db))
	_, err = db.Exec(`TRUNCATE sales, fuel_price_history, fuel_types RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	adapter := storage.NewPostgresAdapter(db)
	return &testEnv{db: db, station: service.NewStationService(adapter, nil)}
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestFullFlow(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	ft, err := env.station.CreateFuelType(ctx, "Diesel", mustDec(t, "90.000"), mustDec(t, "500.000"))
	require.NoError(t, err)

	lvl, err := env.station.RefillStock(ctx, ft.ID, mustDec(t, "100.000"))
	require.NoError(t, err)
	assert.Equal(t, "600.000", domain.QuantityString(lvl.StockLitres))

	sale, err := env.station.RecordSale(ctx, ft.ID, mustDec(t, "50.000"))
	require.NoError(t, err)
	assert.Equal(t, "90.000", domain.QuantityString(sale.PriceAtSale))
	assert.Equal(t, "4500.00", domain.MoneyString(sale.Amount))

	inv, err := env.station.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, "550.000", domain.QuantityString(inv[0].StockLitres))
}

func TestConcurrentSales_ExactlyOneWins(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	ft, err := env.station.CreateFuelType(ctx, "Diesel", mustDec(t, "90.000"), mustDec(t, "60.000"))
	require.NoError(t, err)

	var success, insufficient atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.station.RecordSale(ctx, ft.ID, mustDec(t, "50.000"))
			switch {
			case err == nil:
				success.Add(1)
			case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
				insufficient.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), success.Load())
	assert.Equal(t, int32(1), insufficient.Load())

	var stock decimal.Decimal
	var saleCount int
	require.NoError(t, env.db.QueryRow(`SELECT stock_litres FROM fuel_types WHERE id = $1`, ft.ID).Scan(&stock))
	require.NoError(t, env.db.QueryRow(`SELECT COUNT(*) FROM sales WHERE fuel_type_id = $1`, ft.ID).Scan(&saleCount))
	assert.Equal(t, "10.000", domain.QuantityString(stock))
	assert.Equal(t, 1, saleCount)
}

func TestConcurrentSales_NeverOversubscribe(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	ft, err := env.station.CreateFuelType(ctx, "Petrol", mustDec(t, "95.000"), mustDec(t, "100.000"))
	require.NoError(t, err)

	var success atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.station.RecordSale(ctx, ft.ID, mustDec(t, "15.000")); err == nil {
				success.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, success.Load(), int32(6))

	var sold, stock decimal.Decimal
	require.NoError(t, env.db.QueryRow(
		`SELECT COALESCE(SUM(litres), 0) FROM sales WHERE fuel_type_id = $1`, ft.ID).Scan(&sold))
	require.NoError(t, env.db.QueryRow(
		`SELECT stock_litres FROM fuel_types WHERE id = $1`, ft.ID).Scan(&stock))

	assert.True(t, sold.LessThanOrEqual(mustDec(t, "100.000")), "sold %s", sold)
	assert.True(t, stock.Equal(mustDec(t, "100.000").Sub(sold)), "stock %s, sold %s", stock, sold)
}

func TestConcurrentPriceChangeAndSale(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	ft, err := env.station.CreateFuelType(ctx, "Diesel", mustDec(t, "90.000"), mustDec(t, "1000.000"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := env.station.UpdatePrice(ctx, ft.ID, mustDec(t, "95.000"))
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		sale, err := env.station.RecordSale(ctx, ft.ID, mustDec(t, "10.000"))
		if assert.NoError(t, err) {
			// The sale binds whichever price was live at its decrement; either
			// way the amount must match it exactly.
			before, after := mustDec(t, "90.000"), mustDec(t, "95.000")
			assert.True(t, sale.PriceAtSale.Equal(before) || sale.PriceAtSale.Equal(after),
				"price_at_sale %s", sale.PriceAtSale)
			assert.True(t, sale.Amount.Equal(domain.Amount(sale.Litres, sale.PriceAtSale)))
		}
	}()
	wg.Wait()

	// Exactly one open price segment survives.
	var open int
	require.NoError(t, env.db.QueryRow(
		`SELECT COUNT(*) FROM fuel_price_history WHERE fuel_type_id = $1 AND valid_to IS NULL`,
		ft.ID).Scan(&open))
	assert.Equal(t, 1, open)
}

func TestConcurrentCreate_SameName(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	var success, conflict atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.station.CreateFuelType(ctx, "Premium", mustDec(t, "99.000"), mustDec(t, "10.000"))
			switch {
			case err == nil:
				success.Add(1)
			case assert.ErrorIs(t, err, domain.ErrConflict):
				conflict.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), success.Load())
	assert.Equal(t, int32(3), conflict.Load())

	var rows int
	require.NoError(t, env.db.QueryRow(`SELECT COUNT(*) FROM fuel_types WHERE name = 'Premium'`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestStoreConstraint_StockNeverNegative(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.db.Exec(`INSERT INTO fuel_types (name, price_per_litre, stock_litres) VALUES ('Bad', 1, -1)`)
	require.Error(t, err, "check constraint must reject negative stock at rest")
}
