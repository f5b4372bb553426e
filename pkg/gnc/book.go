package gnc

import "github.com/shopspring/decimal"

// Book is one ledger: an account tree plus the transactions, commodities,
// schedules, and budgets that go with it.
type Book struct {
	Guid                string
	RootAccount         *Account
	TemplateRootAccount *Account

	Transactions         *TransactionManager
	TemplateTransactions []*Transaction

	Commodities           []*Commodity
	ScheduledTransactions []*ScheduledTransaction
	Budgets               []*Budget
	Slots                 []Slot
}

// NewBook creates a book with an empty root account and transaction manager.
func NewBook(guids *GuidRegistry) *Book {
	return &Book{
		Guid: guids.New(),
		RootAccount: &Account{
			Guid: guids.New(),
			Name: "Root Account",
			Type: AccountTypeRoot,
		},
		Transactions: NewTransactionManager(),
	}
}

// GetAccount walks the account tree by name, one path segment per level
// starting below the root account. Returns nil when any segment is missing.
func (b *Book) GetAccount(path ...string) *Account {
	current := b.RootAccount
	for _, segment := range path {
		var next *Account
		for _, child := range current.Children() {
			if child.Name == segment {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

// AccountBalance returns the account's balance over every transaction in the
// book.
func (b *Book) AccountBalance(a *Account) decimal.Decimal {
	if b.Transactions == nil {
		return decimal.Zero
	}
	return a.EndingBalance(b.Transactions.Transactions)
}

// Commodity returns the book commodity with the given namespace and
// mnemonic, or nil.
func (b *Book) Commodity(space, id string) *Commodity {
	for _, c := range b.Commodities {
		if c.Space == space && c.ID == id {
			return c
		}
	}
	return nil
}
