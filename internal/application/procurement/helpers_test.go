package procurement_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/identity"
	"github.com/erp/procurement/internal/domain/journal"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/erp/procurement/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testAccounts = journal.Accounts{
	Cash:           "1-10001",
	VATIn:          "1-10501",
	PrepaidPPh:     "1-10502",
	VendorPayable:  "2-20100",
	AdvancePayment: "1-10401",
	TaxClearing:    "2-20900",
	Inventory:      "1-10301",
}

type testEnv struct {
	ctx        context.Context
	db         *gorm.DB
	blobs      *storage.MemoryBlobStorage
	documents  *procurement.DocumentService
	billing    *procurement.BillingService
	inventory  *procurement.InventoryService
	journal    *procurement.JournalService
	dispatcher *procurement.Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	settings := procurement.Settings{
		Accounts:    testAccounts,
		Installment: billing.DefaultInstallmentRules(),
	}
	uow := persistence.NewGormUnitOfWork(db)
	blobs := storage.NewMemoryBlobStorage()
	env := &testEnv{
		ctx:       context.Background(),
		db:        db,
		blobs:     blobs,
		documents: procurement.NewDocumentService(uow, blobs, settings, nil),
		billing:   procurement.NewBillingService(uow, settings, nil),
		inventory: procurement.NewInventoryService(uow, nil),
		journal:   procurement.NewJournalService(uow),
	}
	env.dispatcher = procurement.NewDispatcher(procurement.Services{
		Documents: env.documents,
		Billing:   env.billing,
		Inventory: env.inventory,
		Journal:   env.journal,
	})
	return env
}

func principal(roles ...identity.Role) identity.Principal {
	return identity.Principal{UserID: "user-1", Roles: identity.NewRoleSet(roles...)}
}

var (
	purchasing = principal(identity.RolePurchasing)
	approver   = principal(identity.RoleApprover)
	finance    = principal(identity.RoleFinance)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// documentInput is 10 x 50,000 of one stock item at PPN 11% Before Calculate:
// total 500,000, PPN 55,000, grand total 555,000.
func documentInput() procurement.DocumentInput {
	return procurement.DocumentInput{
		VendorName: "PT Sumber Makmur",
		TaxMethod:  "Before Calculate",
		PPNPercent: dec("11"),
		Items: []procurement.LineItemInput{
			{StockName: "Paper A4", Quantity: dec("10"), Price: dec("50000")},
		},
	}
}

func allFilter() shared.Filter {
	f := shared.DefaultFilter()
	f.PageSize = 100
	return f
}

func journalFor(t *testing.T, env *testEnv, source journal.SourceKind) []procurement.JournalResponse {
	t.Helper()
	f := allFilter()
	f.Filters["source_kind"] = string(source)
	page, err := env.journal.List(env.ctx, f)
	require.NoError(t, err)
	return page.Items
}

func requireBalanced(t *testing.T, entries ...procurement.JournalResponse) {
	t.Helper()
	for _, e := range entries {
		require.Truef(t, e.TotalDebit.Equal(e.TotalCredit),
			"%s unbalanced: debit %s credit %s", e.TransactionNumber, e.TotalDebit, e.TotalCredit)
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIsf(t, err, shared.NewDomainError(code, ""), "got %v", err)
}

func persistenceUoW(env *testEnv) procurement.UnitOfWork {
	return persistence.NewGormUnitOfWork(env.db)
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}
