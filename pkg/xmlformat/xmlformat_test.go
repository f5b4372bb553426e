package xmlformat

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
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
		Splits: []*gnc.Split{
			{
				Guid:            doc.Guids.New(),
				Account:         checking,
				Value:           gnc.Numeric{Num: -5000, Denom: 100},
				Quantity:        gnc.Numeric{Num: -5000, Denom: 100},
				ReconciledState: "n",
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

func roundTrip(t *testing.T, doc *gnc.File, opts WriteOptions) *gnc.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(doc, &buf, opts))
	got, err := Read(&buf, ReadOptions{})
	require.NoError(t, err)
	return got
}

func TestRoundTrip(t *testing.T) {
	doc := fixtureDocument(t)
	got := roundTrip(t, doc, WriteOptions{})

	require.Len(t, got.Books, 1)
	book := got.Books[0]

	require.NotNil(t, book.RootAccount)
	assert.Equal(t, gnc.AccountTypeRoot, book.RootAccount.Type)
	require.Len(t, book.RootAccount.Children(), 2)
	assert.Equal(t, "Checking", book.RootAccount.Children()[0].Name)
	assert.Equal(t, gnc.AccountTypeBank, book.RootAccount.Children()[0].Type)
	assert.Equal(t, gnc.AccountTypeExpense, book.RootAccount.Children()[1].Type)

	require.Equal(t, 1, book.Transactions.Len())
	txn := book.Transactions.Transactions[0]
	assert.Equal(t, "Weekly shopping", txn.Description)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), txn.DatePosted.UTC())
	require.Len(t, txn.Splits, 2)

	sum := gnc.Numeric{Denom: 100}
	for _, s := range txn.Splits {
		sum.Num += s.Value.Num
	}
	assert.True(t, sum.IsZero())
}

func TestRoundTripPretty(t *testing.T) {
	doc := fixtureDocument(t)
	got := roundTrip(t, doc, WriteOptions{Pretty: true})
	assert.Equal(t, 1, got.Books[0].Transactions.Len())
}

func TestGzipRoundTripThroughFiles(t *testing.T) {
	doc := fixtureDocument(t)
	path := filepath.Join(t.TempDir(), "book.gnucash")
	require.NoError(t, WriteFile(doc, path, WriteOptions{Compress: true}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 2)
	assert.Equal(t, byte(0x1f), raw[0])
	assert.Equal(t, byte(0x8b), raw[1])

	got, err := ReadFile(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "book.gnucash", got.FileName)
	assert.Equal(t, 1, got.Books[0].Transactions.Len())
}

func TestFrameSlotFidelity(t *testing.T) {
	doc := fixtureDocument(t)
	book := doc.Books[0]
	book.Slots = []gnc.Slot{
		{Key: "options", Value: gnc.FrameValue{
			{Key: "counter", Value: gnc.IntegerValue(42)},
			{Key: "label", Value: gnc.StringValue("hello")},
			{Key: "rate", Value: gnc.NumericValue(gnc.Numeric{Num: 125, Denom: 100})},
			{Key: "nested", Value: gnc.FrameValue{
				{Key: "when", Value: gnc.DateValue(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))},
			}},
		}},
	}

	got := roundTrip(t, doc, WriteOptions{})
	slots := got.Books[0].Slots
	require.Len(t, slots, 1)
	assert.Equal(t, "options", slots[0].Key)

	frame, ok := slots[0].Value.(gnc.FrameValue)
	require.True(t, ok)
	require.Len(t, frame, 4)

	assert.Equal(t, "counter", frame[0].Key)
	assert.Equal(t, gnc.IntegerValue(42), frame[0].Value)

	assert.Equal(t, "label", frame[1].Key)
	assert.Equal(t, gnc.StringValue("hello"), frame[1].Value)

	rate, ok := frame[2].Value.(gnc.NumericValue)
	require.True(t, ok)
	assert.True(t, gnc.Numeric(rate).Decimal().Equal(decimal.RequireFromString("1.25")))

	nested, ok := frame[3].Value.(gnc.FrameValue)
	require.True(t, ok)
	require.Len(t, nested, 1)
	when, ok := nested[0].Value.(gnc.DateValue)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), time.Time(when))
}

const malformedSplitXML = `<?xml version="1.0" encoding="utf-8"?>
<gnc-v2 xmlns:gnc="http://www.gnucash.org/XML/gnc" xmlns:act="http://www.gnucash.org/XML/act" xmlns:book="http://www.gnucash.org/XML/book" xmlns:cd="http://www.gnucash.org/XML/cd" xmlns:cmdty="http://www.gnucash.org/XML/cmdty" xmlns:trn="http://www.gnucash.org/XML/trn" xmlns:split="http://www.gnucash.org/XML/split" xmlns:ts="http://www.gnucash.org/XML/ts">
<gnc:book version="2.0.0">
<book:id type="guid">b1</book:id>
<gnc:account version="2.0.0">
<act:name>Root Account</act:name>
<act:id type="guid">a1</act:id>
<act:type>ROOT</act:type>
</gnc:account>
<gnc:transaction version="2.0.0">
<trn:id type="guid">t1</trn:id>
<trn:description>broken</trn:description>
<trn:splits>
<trn:split>
<split:id type="guid">s1</split:id>
<split:reconciled-state>n</split:reconciled-state>
<split:account type="guid">a1</split:account>
</trn:split>
</trn:splits>
</gnc:transaction>
</gnc:book>
</gnc-v2>`

func TestMalformedSplitAbortsLoad(t *testing.T) {
	_, err := Read(strings.NewReader(malformedSplitXML), ReadOptions{})
	require.Error(t, err)
	var malformed MalformedElementError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "split", malformed.Element)
}

const unsupportedSlotXML = `<?xml version="1.0" encoding="utf-8"?>
<gnc-v2 xmlns:gnc="http://www.gnucash.org/XML/gnc" xmlns:act="http://www.gnucash.org/XML/act" xmlns:book="http://www.gnucash.org/XML/book" xmlns:slot="http://www.gnucash.org/XML/slot">
<gnc:book version="2.0.0">
<book:id type="guid">b1</book:id>
<book:slots>
<slot>
<slot:key>mystery</slot:key>
<slot:value type="binary">00ff</slot:value>
</slot>
</book:slots>
<gnc:account version="2.0.0">
<act:name>Root Account</act:name>
<act:id type="guid">a1</act:id>
<act:type>ROOT</act:type>
</gnc:account>
</gnc:book>
</gnc-v2>`

func TestUnsupportedSlotTypeAbortsLoad(t *testing.T) {
	_, err := Read(strings.NewReader(unsupportedSlotXML), ReadOptions{})
	require.Error(t, err)
	var unsupported gnc.UnsupportedSlotTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "binary", unsupported.Type)
}

const unknownAccountXML = `<?xml version="1.0" encoding="utf-8"?>
<gnc-v2 xmlns:gnc="http://www.gnucash.org/XML/gnc" xmlns:act="http://www.gnucash.org/XML/act" xmlns:book="http://www.gnucash.org/XML/book" xmlns:trn="http://www.gnucash.org/XML/trn" xmlns:split="http://www.gnucash.org/XML/split">
<gnc:book version="2.0.0">
<book:id type="guid">b1</book:id>
<gnc:account version="2.0.0">
<act:name>Root Account</act:name>
<act:id type="guid">a1</act:id>
<act:type>ROOT</act:type>
</gnc:account>
<gnc:transaction version="2.0.0">
<trn:id type="guid">t1</trn:id>
<trn:splits>
<trn:split>
<split:id type="guid">s1</split:id>
<split:reconciled-state>n</split:reconciled-state>
<split:value>100/100</split:value>
<split:account type="guid">missing</split:account>
</trn:split>
</trn:splits>
</gnc:transaction>
</gnc:book>
</gnc-v2>`

func TestUnknownSplitAccountAbortsLoad(t *testing.T) {
	_, err := Read(strings.NewReader(unknownAccountXML), ReadOptions{})
	require.Error(t, err)
	var notFound gnc.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Guid)
}

func TestReadClaimsGuids(t *testing.T) {
	doc := fixtureDocument(t)
	got := roundTrip(t, doc, WriteOptions{})
	book := got.Books[0]
	assert.True(t, got.Guids.Known(book.Guid))
	assert.True(t, got.Guids.Known(book.RootAccount.Children()[0].Guid))
	assert.True(t, got.Guids.Known(book.Transactions.Transactions[0].Guid))
}

func TestScheduledTransactionRoundTrip(t *testing.T) {
	doc := fixtureDocument(t)
	book := doc.Books[0]

	templateRoot := &gnc.Account{Guid: doc.Guids.New(), Name: "Template Root", Type: gnc.AccountTypeRoot}
	templateAcct := &gnc.Account{Guid: doc.Guids.New(), Name: "Paycheck Template", Type: gnc.AccountTypeBank}
	templateRoot.AddChild(templateAcct)
	book.TemplateRootAccount = templateRoot
	book.TemplateTransactions = []*gnc.Transaction{{
		Guid:        doc.Guids.New(),
		Description: "Paycheck",
		Splits: []*gnc.Split{{
			Guid:            doc.Guids.New(),
			Account:         templateAcct,
			Value:           gnc.Numeric{Num: 0, Denom: 100},
			Quantity:        gnc.Numeric{Num: 0, Denom: 100},
			ReconciledState: "n",
		}},
	}}
	book.ScheduledTransactions = []*gnc.ScheduledTransaction{{
		Guid:                 doc.Guids.New(),
		Name:                 "Paycheck",
		Enabled:              true,
		AutoCreate:           true,
		StartDate:            time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		RecurrenceMultiplier: 2,
		RecurrencePeriod:     "week",
		RecurrenceStart:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		TemplateAccount:      templateAcct,
	}}

	got := roundTrip(t, doc, WriteOptions{})
	gotBook := got.Books[0]

	require.NotNil(t, gotBook.TemplateRootAccount)
	require.Len(t, gotBook.TemplateTransactions, 1)
	require.Len(t, gotBook.ScheduledTransactions, 1)

	sx := gotBook.ScheduledTransactions[0]
	assert.Equal(t, "Paycheck", sx.Name)
	assert.True(t, sx.Enabled)
	assert.True(t, sx.AutoCreate)
	assert.False(t, sx.AutoCreateNotify)
	assert.Equal(t, 2, sx.RecurrenceMultiplier)
	assert.Equal(t, "week", sx.RecurrencePeriod)
	require.NotNil(t, sx.TemplateAccount)
	assert.Equal(t, "Paycheck Template", sx.TemplateAccount.Name)
}

func TestBudgetRoundTrip(t *testing.T) {
	doc := fixtureDocument(t)
	book := doc.Books[0]
	book.Budgets = []*gnc.Budget{{
		Guid:                 doc.Guids.New(),
		Name:                 "Household",
		Description:          "monthly plan",
		NumPeriods:           12,
		RecurrenceMultiplier: 1,
		RecurrencePeriod:     "month",
		RecurrenceStart:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}}

	got := roundTrip(t, doc, WriteOptions{})
	require.Len(t, got.Books[0].Budgets, 1)
	budget := got.Books[0].Budgets[0]
	assert.Equal(t, "Household", budget.Name)
	assert.Equal(t, 12, budget.NumPeriods)
	assert.Equal(t, "month", budget.RecurrencePeriod)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), budget.RecurrenceStart)
}
