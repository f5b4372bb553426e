package gnc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txnOn(guid string, d time.Time) *Transaction {
	return &Transaction{Guid: guid, DatePosted: d}
}

func TestTransactionManagerSortedInsert(t *testing.T) {
	m := NewTransactionManager()
	march := func(d int) time.Time {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
	}

	m.Add(txnOn("c", march(10)))
	m.Add(txnOn("a", march(1)))
	m.Add(txnOn("b", march(5)))

	var guids []string
	for _, txn := range m.Transactions {
		guids = append(guids, txn.Guid)
	}
	assert.Equal(t, []string{"a", "b", "c"}, guids)
}

func TestTransactionManagerGuidTieBreak(t *testing.T) {
	m := NewTransactionManager()
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	m.Add(txnOn("bbb", day))
	m.Add(txnOn("aaa", day))
	m.Add(txnOn("ccc", day))

	var guids []string
	for _, txn := range m.Transactions {
		guids = append(guids, txn.Guid)
	}
	assert.Equal(t, []string{"aaa", "bbb", "ccc"}, guids)
}

func TestTransactionManagerDisableSort(t *testing.T) {
	m := NewTransactionManager()
	m.DisableSort = true
	march := func(d int) time.Time {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
	}

	m.Add(txnOn("later", march(10)))
	m.Add(txnOn("earlier", march(1)))

	assert.Equal(t, "later", m.Transactions[0].Guid)
	assert.Equal(t, "earlier", m.Transactions[1].Guid)
}

func TestTransactionManagerDelete(t *testing.T) {
	m := NewTransactionManager()
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	a := txnOn("aaa", day)
	b := txnOn("bbb", day)
	m.Add(a)
	m.Add(b)

	m.Delete(a)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []string{"aaa"}, m.DeletedGuids)

	// deleting again is a no-op
	m.Delete(a)
	assert.Equal(t, []string{"aaa"}, m.DeletedGuids)
}

func TestTransactionManagerInRange(t *testing.T) {
	m := NewTransactionManager()
	march := func(d int) time.Time {
		return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
	}
	m.Add(txnOn("a", march(1)))
	m.Add(txnOn("b", march(15)))
	m.Add(txnOn("c", march(30)))

	got := m.InRange(march(10), march(20))
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Guid)

	assert.Len(t, m.InRange(time.Time{}, march(20)), 2)
	assert.Len(t, m.InRange(march(10), time.Time{}), 2)
}

func TestSplitsFor(t *testing.T) {
	checking := &Account{Guid: "checking"}
	income := &Account{Guid: "income"}
	txn := &Transaction{Splits: []*Split{
		{Guid: "s1", Account: checking},
		{Guid: "s2", Account: income},
	}}
	got := txn.SplitsFor(checking)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].Guid)
}

func TestGuidRegistry(t *testing.T) {
	r := NewGuidRegistry()

	g := r.New()
	assert.Len(t, g, 32)
	assert.NotContains(t, g, "-")
	assert.True(t, r.Known(g))

	r.Claim("deadbeefdeadbeefdeadbeefdeadbeef")
	assert.True(t, r.Known("deadbeefdeadbeefdeadbeefdeadbeef"))
	assert.False(t, r.Known("0000"))
}

func TestBookGetAccount(t *testing.T) {
	f := NewFile()
	book := f.Book()

	assets := &Account{Guid: f.Guids.New(), Name: "Assets", Type: AccountTypeAsset}
	checking := &Account{Guid: f.Guids.New(), Name: "Checking", Type: AccountTypeBank}
	book.RootAccount.AddChild(assets)
	assets.AddChild(checking)

	assert.Same(t, checking, book.GetAccount("Assets", "Checking"))
	assert.Nil(t, book.GetAccount("Assets", "Savings"))
	assert.Same(t, book.RootAccount, book.GetAccount())
}
