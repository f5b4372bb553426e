package sqliteformat

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnewcash/gnewcash-go/pkg/gnc"
)

func fixtureDocument(t *testing.T) *gnc.File {
	t.Helper()
	doc := gnc.NewFile()
	book := doc.Book()

	usd := gnc.NewCommodity("USD", gnc.CurrencySpace)
	usd.Fraction = "100"
	book.Commodities = append(book.Commodities, usd)
	book.RootAccount.Commodity = usd

	checking := &gnc.Account{
		Guid:      doc.Guids.New(),
		Name:      "Checking",
		Type:      gnc.AccountTypeBank,
		Commodity: usd,
	}
	groceries := &gnc.Account{
		Guid:      doc.Guids.New(),
		Name:      "Groceries",
		Type:      gnc.AccountTypeExpense,
		Commodity: usd,
	}
	book.RootAccount.AddChild(checking)
	book.RootAccount.AddChild(groceries)

	txn := &gnc.Transaction{
		Guid:        doc.Guids.New(),
		Currency:    usd,
		DatePosted:  time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		DateEntered: time.Date(2024, time.March, 5, 18, 30, 0, 0, time.UTC),
		Description: "Weekly shopping",
		Slots: []gnc.Slot{
			{Key: "notes", Value: gnc.StringValue("paid cash")},
		},
		Splits: []*gnc.Split{
			{
				Guid:            doc.Guids.New(),
				Account:         checking,
				Value:           gnc.Numeric{Num: -5000, Denom: 100},
				Quantity:        gnc.Numeric{Num: -5000, Denom: 100},
				ReconciledState: "n",
				Slots: []gnc.Slot{
					{Key: "online_id", Value: gnc.StringValue("txn-0001")},
				},
			},
			{
				Guid:            doc.Guids.New(),
				Account:         groceries,
				Value:           gnc.Numeric{Num: 5000, Denom: 100},
				Quantity:        gnc.Numeric{Num: 5000, Denom: 100},
				ReconciledState: "n",
			},
		},
	}
	book.Transactions.Add(txn)
	return doc
}

func countRows(t *testing.T, path, table string) int {
	t.Helper()
	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()
	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
	return count
}

func TestRoundTrip(t *testing.T) {
	doc := fixtureDocument(t)
	path := filepath.Join(t.TempDir(), "book.gnucash")
	require.NoError(t, WriteFile(doc, path))

	got, err := ReadFile(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "book.gnucash", got.FileName)
	require.Len(t, got.Books, 1)
	book := got.Books[0]

	require.NotNil(t, book.RootAccount)
	assert.Equal(t, gnc.AccountTypeRoot, book.RootAccount.Type)
	require.Len(t, book.RootAccount.Children(), 2)

	require.Equal(t, 1, book.Transactions.Len())
	txn := book.Transactions.Transactions[0]
	assert.Equal(t, "Weekly shopping", txn.Description)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), txn.DatePosted)
	require.NotNil(t, txn.Currency)
	assert.Equal(t, "USD", txn.Currency.ID)

	require.Len(t, txn.Splits, 2)
	sum := int64(0)
	for _, s := range txn.Splits {
		sum += s.Value.Num
	}
	assert.Zero(t, sum)

	require.Len(t, txn.Slots, 1)
	assert.Equal(t, "notes", txn.Slots[0].Key)
	assert.Equal(t, gnc.StringValue("paid cash"), txn.Slots[0].Value)
	assert.NotZero(t, txn.Slots[0].SQLiteID)
}

func TestWriteBookWithoutTemplateRootStoresNull(t *testing.T) {
	doc := fixtureDocument(t)
	require.Nil(t, doc.Books[0].TemplateRootAccount)

	path := filepath.Join(t.TempDir(), "book.gnucash")
	require.NoError(t, WriteFile(doc, path))

	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	var templateGuid sql.NullString
	require.NoError(t, conn.QueryRow(
		"SELECT root_template_guid FROM books WHERE guid = ?", doc.Books[0].Guid).
		Scan(&templateGuid))
	assert.False(t, templateGuid.Valid)
}

func TestIdempotentDoubleWrite(t *testing.T) {
	doc := fixtureDocument(t)
	path := filepath.Join(t.TempDir(), "book.gnucash")
	require.NoError(t, WriteFile(doc, path))

	first, err := ReadFile(path, ReadOptions{})
	require.NoError(t, err)
	firstSlotID := first.Books[0].Transactions.Transactions[0].Slots[0].SQLiteID

	counts := map[string]int{}
	for _, table := range []string{"books", "accounts", "commodities", "transactions", "splits", "slots"} {
		counts[table] = countRows(t, path, table)
	}

	// Writing the loaded document back must not grow any table or reassign
	// surrogate ids.
	require.NoError(t, WriteFile(first, path))

	for table, count := range counts {
		assert.Equal(t, count, countRows(t, path, table), "table %s", table)
	}

	second, err := ReadFile(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, firstSlotID, second.Books[0].Transactions.Transactions[0].Slots[0].SQLiteID)
}

func TestDeleteTransactionCascades(t *testing.T) {
	doc := fixtureDocument(t)
	book := doc.Books[0]
	checking := book.RootAccount.Children()[0]
	groceries := book.RootAccount.Children()[1]

	second := &gnc.Transaction{
		Guid:        doc.Guids.New(),
		Currency:    book.Commodities[0],
		DatePosted:  time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC),
		Description: "More shopping",
		Splits: []*gnc.Split{
			{
				Guid:            doc.Guids.New(),
				Account:         checking,
				Value:           gnc.Numeric{Num: -2500, Denom: 100},
				ReconciledState: "n",
			},
			{
				Guid:            doc.Guids.New(),
				Account:         groceries,
				Value:           gnc.Numeric{Num: 2500, Denom: 100},
				ReconciledState: "n",
			},
		},
	}
	book.Transactions.Add(second)

	path := filepath.Join(t.TempDir(), "book.gnucash")
	require.NoError(t, WriteFile(doc, path))
	assert.Equal(t, 2, countRows(t, path, "transactions"))
	assert.Equal(t, 4, countRows(t, path, "splits"))

	deleted := book.Transactions.Transactions[0]
	book.Transactions.Delete(deleted)
	require.NoError(t, WriteFile(doc, path))

	assert.Equal(t, 1, countRows(t, path, "transactions"))
	assert.Equal(t, 2, countRows(t, path, "splits"))

	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	var orphans int
	require.NoError(t, conn.QueryRow(
		"SELECT COUNT(*) FROM slots WHERE obj_guid NOT IN (SELECT guid FROM books UNION SELECT guid FROM accounts UNION SELECT guid FROM transactions UNION SELECT guid FROM splits UNION SELECT guid FROM budgets)").
		Scan(&orphans))
	assert.Zero(t, orphans)

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM transactions WHERE guid = ?", deleted.Guid).Scan(&count))
	assert.Zero(t, count)
}

func TestNumericSlotKeepsDenominator(t *testing.T) {
	doc := fixtureDocument(t)
	book := doc.Books[0]
	checking := book.RootAccount.Children()[0]
	checking.Slots = append(checking.Slots, gnc.Slot{
		Key:   "interest-rate",
		Value: gnc.NumericValue(gnc.Numeric{Num: 1250, Denom: 1000}),
	})

	path := filepath.Join(t.TempDir(), "book.gnucash")
	require.NoError(t, WriteFile(doc, path))

	// Change the value through a different denominator; the stored row must
	// keep its original one.
	idx := len(checking.Slots) - 1
	checking.Slots[idx].Value = gnc.NumericValue(gnc.Numeric{Num: 15, Denom: 10})
	require.NoError(t, WriteFile(doc, path))

	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	var num, denom int64
	require.NoError(t, conn.QueryRow(
		"SELECT numeric_val_num, numeric_val_denom FROM slots WHERE obj_guid = ? AND name = ?",
		checking.Guid, "interest-rate").Scan(&num, &denom))
	assert.Equal(t, int64(1000), denom)
	assert.Equal(t, int64(1500), num)

	got := gnc.Numeric{Num: num, Denom: denom}
	assert.True(t, got.Decimal().Equal(decimal.RequireFromString("1.5")))
}

func TestFrameSlotRejected(t *testing.T) {
	doc := fixtureDocument(t)
	book := doc.Books[0]
	book.Slots = []gnc.Slot{{Key: "options", Value: gnc.FrameValue{}}}

	path := filepath.Join(t.TempDir(), "book.gnucash")
	err := WriteFile(doc, path)
	require.Error(t, err)
	var unsupported gnc.UnsupportedSlotTypeError
	require.ErrorAs(t, err, &unsupported)
}

func TestTemplateTransactionPartition(t *testing.T) {
	doc := fixtureDocument(t)
	book := doc.Books[0]

	templateRoot := &gnc.Account{Guid: doc.Guids.New(), Name: "Template Root", Type: gnc.AccountTypeRoot}
	templateAcct := &gnc.Account{Guid: doc.Guids.New(), Name: "Paycheck Template", Type: gnc.AccountTypeBank}
	templateRoot.AddChild(templateAcct)
	book.TemplateRootAccount = templateRoot
	book.TemplateTransactions = []*gnc.Transaction{{
		Guid:        doc.Guids.New(),
		Currency:    book.Commodities[0],
		Description: "Paycheck",
		Splits: []*gnc.Split{{
			Guid:            doc.Guids.New(),
			Account:         templateAcct,
			Value:           gnc.Numeric{Num: 0, Denom: 100},
			ReconciledState: "n",
		}},
	}}
	book.ScheduledTransactions = []*gnc.ScheduledTransaction{{
		Guid:                 doc.Guids.New(),
		Name:                 "Paycheck",
		Enabled:              true,
		StartDate:            time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		RecurrenceMultiplier: 2,
		RecurrencePeriod:     "week",
		RecurrenceStart:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		TemplateAccount:      templateAcct,
	}}

	path := filepath.Join(t.TempDir(), "book.gnucash")
	require.NoError(t, WriteFile(doc, path))

	got, err := ReadFile(path, ReadOptions{})
	require.NoError(t, err)
	gotBook := got.Books[0]

	// Transactions posting to the template subtree come back as templates,
	// not ledger entries.
	assert.Equal(t, 1, gotBook.Transactions.Len())
	require.Len(t, gotBook.TemplateTransactions, 1)
	assert.Equal(t, "Paycheck", gotBook.TemplateTransactions[0].Description)

	require.Len(t, gotBook.ScheduledTransactions, 1)
	sx := gotBook.ScheduledTransactions[0]
	assert.True(t, sx.Enabled)
	assert.Equal(t, 2, sx.RecurrenceMultiplier)
	assert.Equal(t, "week", sx.RecurrencePeriod)
	require.NotNil(t, sx.TemplateAccount)
	assert.Equal(t, "Paycheck Template", sx.TemplateAccount.Name)
}

func TestMissingSplitAccountSurfacesNotFound(t *testing.T) {
	doc := fixtureDocument(t)
	path := filepath.Join(t.TempDir(), "book.gnucash")
	require.NoError(t, WriteFile(doc, path))

	conn, err := Open(path)
	require.NoError(t, err)
	_, err = conn.Exec("UPDATE splits SET account_guid = 'dangling' WHERE account_guid = ?",
		doc.Books[0].RootAccount.Children()[0].Guid)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	_, err = ReadFile(path, ReadOptions{})
	require.Error(t, err)
	var notFound gnc.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "dangling", notFound.Guid)
}

func TestExistsProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.gnucash")
	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, InitializeSchema(conn))

	exists, err := conn.Exists("books", "guid", "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = conn.Exec("INSERT INTO books (guid, root_account_guid, root_template_guid) VALUES ('b1', 'r1', 't1')")
	require.NoError(t, err)

	exists, err = conn.Exists("books", "guid", "b1")
	require.NoError(t, err)
	assert.True(t, exists)
}
