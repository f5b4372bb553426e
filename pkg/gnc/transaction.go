package gnc

import (
	"sort"
	"time"
)

// Split assigns part of a transaction's amount to one account.
type Split struct {
	Guid            string
	Account         *Account
	Value           Numeric
	ReconciledState string
	Memo            string
	Action          string
	ReconcileDate   time.Time
	Quantity        Numeric
	LotGuid         string
	Slots           []Slot
}

// NewSplit creates a split against the given account. The guid is drawn from
// the registry.
func NewSplit(guids *GuidRegistry, account *Account, value Numeric, reconciledState string) *Split {
	return &Split{
		Guid:            guids.New(),
		Account:         account,
		Value:           value,
		Quantity:        value,
		ReconciledState: reconciledState,
	}
}

// Transaction is a dated journal entry made of balancing splits.
type Transaction struct {
	Guid        string
	Currency    *Commodity
	DatePosted  time.Time
	DateEntered time.Time
	Description string

	// Memo is the check number or memo text. It rides in the num element of
	// the XML encoding and the num column of the SQLite encoding.
	Memo string

	Splits []*Split
	Slots  []Slot
}

// NewTransaction creates an empty transaction with a fresh guid.
func NewTransaction(guids *GuidRegistry) *Transaction {
	return &Transaction{Guid: guids.New()}
}

// SplitsFor returns the transaction's splits posted to the given account.
func (t *Transaction) SplitsFor(account *Account) []*Split {
	var splits []*Split
	for _, s := range t.Splits {
		if s.Account == account {
			splits = append(splits, s)
		}
	}
	return splits
}

// SortMethod orders transactions within a TransactionManager.
type SortMethod interface {
	// Less reports whether a sorts before b.
	Less(a, b *Transaction) bool
}

// byDatePosted sorts by post date, breaking ties by guid so ordering is
// stable across loads.
type byDatePosted struct{}

func (byDatePosted) Less(a, b *Transaction) bool {
	if !a.DatePosted.Equal(b.DatePosted) {
		return a.DatePosted.Before(b.DatePosted)
	}
	return a.Guid < b.Guid
}

// ByDatePosted returns the default sort method: post date ascending, guid
// tie-break.
func ByDatePosted() SortMethod { return byDatePosted{} }

// TransactionManager holds a book's transactions in sorted order and tracks
// deletions so a SQLite target can remove the corresponding rows.
type TransactionManager struct {
	Transactions []*Transaction

	// DisableSort appends instead of insert-sorting. Useful for bulk loads
	// where the source is already ordered.
	DisableSort bool

	// Sort orders insertions. Nil means ByDatePosted.
	Sort SortMethod

	// DeletedGuids lists guids removed since the document was loaded.
	DeletedGuids []string
}

// NewTransactionManager creates an empty manager with the default ordering.
func NewTransactionManager() *TransactionManager {
	return &TransactionManager{Sort: ByDatePosted()}
}

func (m *TransactionManager) sortMethod() SortMethod {
	if m.Sort == nil {
		return ByDatePosted()
	}
	return m.Sort
}

// Add inserts a transaction at its sorted position, or appends when sorting
// is disabled.
func (m *TransactionManager) Add(t *Transaction) {
	if m.DisableSort {
		m.Transactions = append(m.Transactions, t)
		return
	}
	less := m.sortMethod().Less
	i := sort.Search(len(m.Transactions), func(i int) bool {
		return less(t, m.Transactions[i])
	})
	m.Transactions = append(m.Transactions, nil)
	copy(m.Transactions[i+1:], m.Transactions[i:])
	m.Transactions[i] = t
}

// Delete removes a transaction and records its guid for cascade deletion on
// the next SQLite save. Removing a transaction that is not present is a
// no-op.
func (m *TransactionManager) Delete(t *Transaction) {
	for i, existing := range m.Transactions {
		if existing == t {
			m.Transactions = append(m.Transactions[:i], m.Transactions[i+1:]...)
			m.DeletedGuids = append(m.DeletedGuids, t.Guid)
			return
		}
	}
}

// Get returns the transaction with the given guid, or nil.
func (m *TransactionManager) Get(guid string) *Transaction {
	for _, t := range m.Transactions {
		if t.Guid == guid {
			return t
		}
	}
	return nil
}

// InRange returns transactions posted within [start, end]. A zero start or
// end leaves that side unbounded.
func (m *TransactionManager) InRange(start, end time.Time) []*Transaction {
	var out []*Transaction
	for _, t := range m.Transactions {
		if !start.IsZero() && t.DatePosted.Before(start) {
			continue
		}
		if !end.IsZero() && t.DatePosted.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Len returns the number of transactions held.
func (m *TransactionManager) Len() int { return len(m.Transactions) }
