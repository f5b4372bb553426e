package gnc

import "time"

// Budget is a named plan spanning a fixed number of periods. Per-account
// amounts are carried in the slot list, keyed by account guid.
type Budget struct {
	Guid        string
	Name        string
	Description string
	NumPeriods  int

	RecurrenceMultiplier int
	RecurrencePeriod     string
	RecurrenceStart      time.Time

	Slots []Slot
}

// NewBudget creates a budget with a fresh guid.
func NewBudget(guids *GuidRegistry) *Budget {
	return &Budget{Guid: guids.New()}
}
