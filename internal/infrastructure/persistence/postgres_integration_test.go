//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/document"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a throwaway PostgreSQL container and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("procurement_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestPostgres_DocumentRoundTripKeepsDecimals(t *testing.T) {
	db := newPostgresDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	doc := newTestDocument(t, document.KindInvoice, 100)
	require.NoError(t, repo.Create(ctx, doc))
	assert.ErrorIs(t, repo.Create(ctx, newTestDocument(t, document.KindInvoice, 100)), shared.ErrDuplicateNumber)

	found, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, doc.GrandTotal.Equal(found.GrandTotal))
	assert.True(t, doc.PPN.Equal(found.PPN))
	require.Len(t, found.Items, 2)
}

func TestPostgres_ConcurrentPaymentsOnlyOneWins(t *testing.T) {
	db := newPostgresDB(t)
	uow := NewGormUnitOfWork(db)
	ctx := context.Background()

	invoice := newTestBillingInvoice(t, 200)
	require.NoError(t, uow.Repositories().Billing.Create(ctx, invoice))

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = uow.Do(ctx, func(ctx context.Context, repos procurement.Repositories) error {
				record, err := repos.Billing.FindByID(ctx, invoice.ID)
				if err != nil {
					return err
				}
				if _, err := record.ApplyPayment(billing.PaymentFull, dec("1110000"), time.Now(), billing.DefaultInstallmentRules()); err != nil {
					return err
				}
				return repos.Billing.SaveWithLock(ctx, record)
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	found, err := uow.Repositories().Billing.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, found.Payments, 1)
	assert.Equal(t, billing.StatusCompleted, found.Status)
}

func TestPostgres_LedgerAdjustmentsJSON(t *testing.T) {
	db := newPostgresDB(t)
	repo := NewGormInventoryRepository(db)
	engine := inventory.NewCostEngine(repo)
	ctx := context.Background()

	_, _, err := engine.PostPurchase(ctx, 1, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), purchaseOf("Cable", "3", "1000"))
	require.NoError(t, err)
	_, err = engine.AdjustStock(ctx, "2024-06", "Cable", dec("-150"), "damaged")
	require.NoError(t, err)

	latest, err := repo.LatestInMonth(ctx, "Cable", "2024-06")
	require.NoError(t, err)
	require.Len(t, latest.Adjustments, 1)
	assert.True(t, latest.TotalStock.Equal(dec("2850")))
}
