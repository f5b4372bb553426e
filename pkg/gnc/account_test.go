package gnc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() (root, assets, checking, credit *Account) {
	root = &Account{Guid: "root", Name: "Root Account", Type: AccountTypeRoot}
	assets = &Account{Guid: "assets", Name: "Assets", Type: AccountTypeAsset}
	checking = &Account{Guid: "checking", Name: "Checking Account", Type: AccountTypeBank}
	credit = &Account{Guid: "credit", Name: "Credit Card", Type: AccountTypeCredit}
	root.AddChild(assets)
	assets.AddChild(checking)
	root.AddChild(credit)
	return
}

func TestAddChildMovesAccount(t *testing.T) {
	root, assets, checking, _ := testTree()

	assert.Same(t, assets, checking.Parent())

	root.AddChild(checking)
	assert.Same(t, root, checking.Parent())
	assert.Empty(t, assets.Children())
	assert.Len(t, root.Children(), 3)
}

func TestSubaccountByID(t *testing.T) {
	root, _, checking, _ := testTree()
	assert.Same(t, checking, root.SubaccountByID("checking"))
	assert.Nil(t, root.SubaccountByID("missing"))
}

func TestSubtreeGuids(t *testing.T) {
	root, assets, _, _ := testTree()
	guids := assets.SubtreeGuids()
	assert.Len(t, guids, 2)
	assert.Contains(t, guids, "assets")
	assert.Contains(t, guids, "checking")

	all := root.SubtreeGuids()
	assert.Len(t, all, 4)
}

func TestDictEntryName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Checking Account", want: "checking_account"},
		{name: "Rent/Mortgage", want: "rent_mortgage"},
		{name: "401(k) Plan", want: "401k_plan"},
	}
	for _, tt := range tests {
		a := &Account{Name: tt.name}
		assert.Equal(t, tt.want, a.DictEntryName())
	}
}

func TestPathIndex(t *testing.T) {
	root, _, checking, _ := testTree()
	index := root.PathIndex()
	assert.Same(t, root, index[""])
	assert.Same(t, checking, index["assets/checking_account"])
}

func TestSlotBackedAccessors(t *testing.T) {
	a := &Account{Name: "Checking"}

	assert.Empty(t, a.Color())
	a.SetColor("#ff0000")
	assert.Equal(t, "#ff0000", a.Color())

	a.SetNotes("emergency fund")
	assert.Equal(t, "emergency fund", a.Notes())

	assert.False(t, a.Hidden())
	a.SetHidden(true)
	assert.True(t, a.Hidden())
	a.SetHidden(false)
	assert.False(t, a.Hidden())

	a.SetPlaceholder(true)
	assert.True(t, a.Placeholder())

	// setters replace in place, not append
	a.SetColor("#00ff00")
	assert.Equal(t, "#00ff00", a.Color())
	count := 0
	for _, s := range a.Slots {
		if s.Key == "color" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func balanceFixture() (*Account, []*Transaction) {
	checking := &Account{Guid: "checking", Name: "Checking", Type: AccountTypeBank}
	income := &Account{Guid: "income", Name: "Income", Type: AccountTypeIncome}

	day := func(d int) time.Time {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
	}
	txn := func(d int, cents int64) *Transaction {
		return &Transaction{
			Guid:       "txn",
			DatePosted: day(d),
			Splits: []*Split{
				{Account: checking, Value: Numeric{Num: cents, Denom: 100}},
				{Account: income, Value: Numeric{Num: -cents, Denom: 100}},
			},
		}
	}
	return checking, []*Transaction{
		txn(1, 100000), // opening 1000.00
		txn(5, -25000), // -250.00
		txn(10, 5000),  // +50.00
	}
}

func TestStartingBalance(t *testing.T) {
	checking, txns := balanceFixture()
	assert.True(t, checking.StartingBalance(txns).Equal(decimal.RequireFromString("1000")))
}

func TestBalanceAt(t *testing.T) {
	checking, txns := balanceFixture()

	at := func(d int) decimal.Decimal {
		return checking.BalanceAt(txns, time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC))
	}
	assert.True(t, at(1).Equal(decimal.RequireFromString("1000")))
	assert.True(t, at(6).Equal(decimal.RequireFromString("750")))
	assert.True(t, at(31).Equal(decimal.RequireFromString("800")))

	// zero date means no cutoff
	assert.True(t, checking.EndingBalance(txns).Equal(decimal.RequireFromString("800")))
}

func TestCreditAccountInvertsBalance(t *testing.T) {
	card := &Account{Guid: "card", Name: "Card", Type: AccountTypeCredit}
	expense := &Account{Guid: "exp", Name: "Expense", Type: AccountTypeExpense}
	txns := []*Transaction{{
		DatePosted: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Splits: []*Split{
			{Account: card, Value: Numeric{Num: -4200, Denom: 100}},
			{Account: expense, Value: Numeric{Num: 4200, Denom: 100}},
		},
	}}
	assert.True(t, card.EndingBalance(txns).Equal(decimal.RequireFromString("42")))
}

func TestMinimumBalancePast(t *testing.T) {
	checking, txns := balanceFixture()
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	minimum, date, ok := checking.MinimumBalancePast(txns, start)
	require.True(t, ok)
	assert.True(t, minimum.Equal(decimal.RequireFromString("750")))
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), date)
}
