package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"ledger/internal/models"
	"ledger/internal/numeric"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Fixture is a small persisted book: EUR default currency, a USD currency, a
// USD-quoted security, and one account per commodity.
type Fixture struct {
	Book *models.Book

	EUR  *models.Commodity
	USD  *models.Commodity
	AAPL *models.Commodity

	Root    *models.Account
	Asset   *models.Account // EUR
	Expense *models.Account // EUR
	Income  *models.Account // EUR
	USDBank *models.Account // USD
	Broker  *models.Account // AAPL
}

// SeedBook writes the fixture book straight into db, bypassing validation.
func SeedBook(t *testing.T, db *gorm.DB, useTradingAccounts bool) *Fixture {
	t.Helper()

	f := &Fixture{}
	f.EUR = CreateTestCurrency(t, db, "EUR")
	f.USD = CreateTestCurrency(t, db, "USD")
	f.AAPL = CreateTestSecurity(t, db, "NASDAQ", "AAPL", "USD")

	f.Root = createAccount(t, db, &models.Account{Name: "Root Account", Type: models.AccountTypeRoot})
	f.Asset = CreateTestAccount(t, db, f.Root, "asset", models.AccountTypeAsset, f.EUR)
	f.Expense = CreateTestAccount(t, db, f.Root, "expense", models.AccountTypeExpense, f.EUR)
	f.Income = CreateTestAccount(t, db, f.Root, "income", models.AccountTypeIncome, f.EUR)
	f.USDBank = CreateTestAccount(t, db, f.Root, "usd bank", models.AccountTypeBank, f.USD)
	f.Broker = CreateTestAccount(t, db, f.Root, "broker", models.AccountTypeStock, f.AAPL)

	f.Book = &models.Book{
		RootAccountID:      &f.Root.ID,
		DefaultCurrencyID:  &f.EUR.ID,
		UseTradingAccounts: useTradingAccounts,
	}
	if err := db.Create(f.Book).Error; err != nil {
		t.Fatalf("failed to create test book: %v", err)
	}

	for component, number := range models.SchemaVersions {
		v := &models.Version{Component: component, Number: number}
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("failed to write version %s: %v", component, err)
		}
	}
	return f
}

// CreateTestCurrency creates an ISO currency with two decimals.
func CreateTestCurrency(t *testing.T, db *gorm.DB, mnemonic string) *models.Commodity {
	t.Helper()

	c := &models.Commodity{
		Namespace:   models.NamespaceCurrency,
		Mnemonic:    mnemonic,
		Fullname:    mnemonic,
		Fraction:    100,
		QuoteFlag:   true,
		QuoteSource: "currency",
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to create test currency %s: %v", mnemonic, err)
	}
	return c
}

// CreateTestSecurity creates a whole-unit security quoted in quotedCurrency.
func CreateTestSecurity(t *testing.T, db *gorm.DB, namespace, mnemonic, quotedCurrency string) *models.Commodity {
	t.Helper()

	c := &models.Commodity{
		Namespace:      namespace,
		Mnemonic:       mnemonic,
		Fullname:       fmt.Sprintf("Test Security %d", nextID()),
		Fraction:       1,
		QuoteFlag:      true,
		QuoteSource:    "yahoo",
		QuotedCurrency: quotedCurrency,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to create test security %s: %v", mnemonic, err)
	}
	return c
}

// CreateTestAccount creates an account under parent holding commodity.
func CreateTestAccount(t *testing.T, db *gorm.DB, parent *models.Account, name string, accountType models.AccountType, commodity *models.Commodity) *models.Account {
	t.Helper()

	return createAccount(t, db, &models.Account{
		Name:        name,
		Type:        accountType,
		CommodityID: &commodity.ID,
		ParentID:    &parent.ID,
	})
}

func createAccount(t *testing.T, db *gorm.DB, account *models.Account) *models.Account {
	t.Helper()

	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account %s: %v", account.Name, err)
	}
	return account
}

// CreateTestPrice stores a price of commodity in currency on date.
func CreateTestPrice(t *testing.T, db *gorm.DB, commodity, currency *models.Commodity, date time.Time, value string) *models.Price {
	t.Helper()

	p := &models.Price{
		CommodityID: commodity.ID,
		CurrencyID:  currency.ID,
		Date:        date,
		Source:      models.DefaultPriceSource,
		Type:        models.PriceTypeLast,
		Value:       numeric.MustParse(value, models.PriceFraction),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test price: %v", err)
	}
	return p
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
