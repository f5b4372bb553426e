package gnc

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account types recognized by GnuCash.
const (
	AccountTypeRoot       = "ROOT"
	AccountTypeAsset      = "ASSET"
	AccountTypeBank       = "BANK"
	AccountTypeCash       = "CASH"
	AccountTypeCredit     = "CREDIT"
	AccountTypeEquity     = "EQUITY"
	AccountTypeExpense    = "EXPENSE"
	AccountTypeIncome     = "INCOME"
	AccountTypeLiability  = "LIABILITY"
	AccountTypeMutual     = "MUTUAL"
	AccountTypeStock      = "STOCK"
	AccountTypeTrading    = "TRADING"
	AccountTypeReceivable = "RECEIVABLE"
	AccountTypePayable    = "PAYABLE"
)

// Account is one node in a book's account tree.
type Account struct {
	Guid        string
	Name        string
	Type        string
	Commodity   *Commodity
	CommoditySCU string
	NonStdSCU   int
	Code        string
	Description string
	Slots       []Slot

	parent   *Account
	children []*Account
}

// NewAccount creates a detached account. Attach it with AddChild.
func NewAccount() *Account {
	return &Account{}
}

// AddChild attaches a child account under a. Attaching an account that
// already has a parent moves it.
func (a *Account) AddChild(child *Account) {
	if child.parent == a {
		return
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = a
	a.children = append(a.children, child)
}

func (a *Account) removeChild(child *Account) {
	for i, c := range a.children {
		if c == child {
			a.children = append(a.children[:i], a.children[i+1:]...)
			return
		}
	}
}

// Parent returns the account's parent, or nil for a root account.
func (a *Account) Parent() *Account { return a.parent }

// Children returns the account's direct children in attach order.
func (a *Account) Children() []*Account { return a.children }

// Walk visits a and every descendant in depth-first order.
func (a *Account) Walk(visit func(*Account)) {
	visit(a)
	for _, c := range a.children {
		c.Walk(visit)
	}
}

// SubaccountByID finds a descendant (or a itself) by guid.
func (a *Account) SubaccountByID(guid string) *Account {
	var found *Account
	a.Walk(func(acct *Account) {
		if found == nil && acct.Guid == guid {
			found = acct
		}
	})
	return found
}

// SubtreeGuids collects the guids of a and all its descendants.
func (a *Account) SubtreeGuids() map[string]struct{} {
	guids := make(map[string]struct{})
	a.Walk(func(acct *Account) {
		guids[acct.Guid] = struct{}{}
	})
	return guids
}

// ParentCommodity returns the commodity of the nearest ancestor that has
// one, or nil. Used when an account carries no commodity of its own.
func (a *Account) ParentCommodity() *Commodity {
	for p := a.parent; p != nil; p = p.parent {
		if p.Commodity != nil {
			return p.Commodity
		}
	}
	return nil
}

// DictEntryName normalizes the account name into a stable lookup key:
// lowercased, spaces and slashes replaced with underscores, all other
// non-alphanumeric characters stripped.
func (a *Account) DictEntryName() string {
	name := strings.ToLower(a.Name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ' || r == '/':
			b.WriteByte('_')
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PathIndex maps normalized slash-joined paths of every descendant to its
// account. The receiver itself maps to the empty path "".
func (a *Account) PathIndex() map[string]*Account {
	index := make(map[string]*Account)
	var walk func(acct *Account, path string)
	walk = func(acct *Account, path string) {
		index[path] = acct
		for _, c := range acct.children {
			childPath := c.DictEntryName()
			if path != "" {
				childPath = path + "/" + childPath
			}
			walk(c, childPath)
		}
	}
	walk(a, "")
	return index
}

// Color returns the account's color slot, or "".
func (a *Account) Color() string { return slotString(a.Slots, "color") }

// SetColor stores the account's color slot.
func (a *Account) SetColor(color string) {
	a.Slots = SetSlot(a.Slots, "color", StringValue(color))
}

// Notes returns the account's notes slot, or "".
func (a *Account) Notes() string { return slotString(a.Slots, "notes") }

// SetNotes stores the account's notes slot.
func (a *Account) SetNotes(notes string) {
	a.Slots = SetSlot(a.Slots, "notes", StringValue(notes))
}

// Hidden reports whether the account is marked hidden.
func (a *Account) Hidden() bool { return slotString(a.Slots, "hidden") == "true" }

// SetHidden marks or unmarks the account as hidden.
func (a *Account) SetHidden(hidden bool) {
	a.Slots = SetSlot(a.Slots, "hidden", StringValue(boolString(hidden)))
}

// Placeholder reports whether the account is a placeholder.
func (a *Account) Placeholder() bool { return slotString(a.Slots, "placeholder") == "true" }

// SetPlaceholder marks or unmarks the account as a placeholder.
func (a *Account) SetPlaceholder(placeholder bool) {
	a.Slots = SetSlot(a.Slots, "placeholder", StringValue(boolString(placeholder)))
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// creditBalance reports whether amounts on this account are sign-inverted
// for balance reporting.
func (a *Account) creditBalance() bool {
	return a.Type == AccountTypeCredit
}

// StartingBalance returns the first non-negative split amount posted to this
// account, in transaction order. Zero when the account has no such split.
func (a *Account) StartingBalance(transactions []*Transaction) decimal.Decimal {
	for _, t := range transactions {
		for _, s := range t.Splits {
			if s.Account == a && s.Value.Num >= 0 {
				return s.Value.Decimal()
			}
		}
	}
	return decimal.Zero
}

// BalanceAt sums split amounts posted to this account on or before the given
// date. A zero date means no cutoff. Credit accounts report the inverted sum.
func (a *Account) BalanceAt(transactions []*Transaction, date time.Time) decimal.Decimal {
	balance := decimal.Zero
	for _, t := range transactions {
		if !date.IsZero() && t.DatePosted.After(date) {
			continue
		}
		for _, s := range t.Splits {
			if s.Account == a {
				balance = balance.Add(s.Value.Decimal())
			}
		}
	}
	if a.creditBalance() {
		balance = balance.Neg()
	}
	return balance
}

// EndingBalance returns the account balance after all transactions.
func (a *Account) EndingBalance(transactions []*Transaction) decimal.Decimal {
	return a.BalanceAt(transactions, time.Time{})
}

// MinimumBalancePast scans day by day from the start date through December 31
// of the start date's year and returns the lowest balance and the date it
// occurs. ok is false when the account has no activity in that window.
func (a *Account) MinimumBalancePast(transactions []*Transaction, start time.Time) (decimal.Decimal, time.Time, bool) {
	end := time.Date(start.Year(), time.December, 31, 23, 59, 59, 0, start.Location())
	var (
		minimum decimal.Decimal
		minDate time.Time
		seen    bool
	)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		balance := a.BalanceAt(transactions, day)
		if !seen || balance.LessThan(minimum) {
			minimum = balance
			minDate = day
			seen = true
		}
	}
	return minimum, minDate, seen
}
