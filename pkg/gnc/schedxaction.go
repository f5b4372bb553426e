package gnc

import "time"

// ScheduledTransaction is a recurring transaction definition. The actual
// postings live as a template transaction under the book's template root
// account.
type ScheduledTransaction struct {
	Guid    string
	Name    string
	Enabled bool

	AutoCreate        bool
	AutoCreateNotify  bool
	AdvanceCreateDays int
	AdvanceRemindDays int
	InstanceCount     int

	StartDate time.Time
	EndDate   time.Time
	LastDate  time.Time

	NumOccurrences       int
	RemainingOccurrences int

	RecurrenceMultiplier    int
	RecurrencePeriod        string
	RecurrenceStart         time.Time
	RecurrenceWeekendAdjust string

	TemplateAccount *Account
}

// NewScheduledTransaction creates a scheduled transaction with a fresh guid.
func NewScheduledTransaction(guids *GuidRegistry) *ScheduledTransaction {
	return &ScheduledTransaction{Guid: guids.New()}
}
