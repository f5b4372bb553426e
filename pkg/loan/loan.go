// Package loan calculates amortization schedules and point-in-time status
// for interest-bearing accounts. It works purely on decimal arithmetic and
// does not touch the codecs.
package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// ExtraPayment is a one-off payment applied directly to the principal.
type ExtraPayment struct {
	Date   time.Time
	Amount decimal.Decimal
}

// Loan models an interest-bearing balance paid down in monthly installments.
// A loan split across multiple tranches is modeled with Subaccounts; the
// aggregate methods then sum over the tranches and the per-tranche fields of
// the parent are ignored.
type Loan struct {
	Principal decimal.Decimal
	Start     time.Time

	// Rate is the annual interest rate. Values above 1 are read as
	// percentages, so 12 and 0.12 both mean twelve percent.
	Rate decimal.Decimal

	// Payment is the fixed monthly payment.
	Payment decimal.Decimal

	ExtraPayments []ExtraPayment
	SkipDates     []time.Time

	// InterestStart delays interest accrual; payments before it go entirely
	// to principal. Zero means interest accrues from the first payment.
	InterestStart time.Time

	Subaccounts []*Loan
}

// Status is the state of a loan as of a payment date.
type Status struct {
	Balance   decimal.Decimal
	Date      time.Time
	Interest  decimal.Decimal
	ToCapital decimal.Decimal
}

// ScheduledPayment is one entry of an amortization schedule. Balance is the
// balance before the payment was applied.
type ScheduledPayment struct {
	Date      time.Time
	Balance   decimal.Decimal
	ToCapital decimal.Decimal
}

// TotalPrincipal returns the principal, summed over subaccounts when present.
func (l *Loan) TotalPrincipal() decimal.Decimal {
	if len(l.Subaccounts) == 0 {
		return l.Principal
	}
	total := decimal.Zero
	for _, sub := range l.Subaccounts {
		total = total.Add(sub.TotalPrincipal())
	}
	return total
}

// TotalRate returns the interest rate, summed over subaccounts when present.
func (l *Loan) TotalRate() decimal.Decimal {
	if len(l.Subaccounts) == 0 {
		return l.Rate
	}
	total := decimal.Zero
	for _, sub := range l.Subaccounts {
		total = total.Add(sub.TotalRate())
	}
	return total
}

// TotalPayment returns the monthly payment, summed over subaccounts when
// present.
func (l *Loan) TotalPayment() decimal.Decimal {
	if len(l.Subaccounts) == 0 {
		return l.Payment
	}
	total := decimal.Zero
	for _, sub := range l.Subaccounts {
		total = total.Add(sub.TotalPayment())
	}
	return total
}

// StartDate returns the loan's start, or the earliest subaccount start when
// subaccounts are present.
func (l *Loan) StartDate() time.Time {
	if len(l.Subaccounts) == 0 {
		return l.Start
	}
	earliest := l.Subaccounts[0].StartDate()
	for _, sub := range l.Subaccounts[1:] {
		if start := sub.StartDate(); start.Before(earliest) {
			earliest = start
		}
	}
	return earliest
}

// StatusAt walks payments month by month and returns the loan state as of
// the given date.
func (l *Loan) StatusAt(date time.Time) Status {
	if len(l.Subaccounts) > 0 {
		status := Status{Balance: decimal.Zero, Interest: decimal.Zero, ToCapital: decimal.Zero}
		for _, sub := range l.Subaccounts {
			subStatus := sub.StatusAt(date)
			status.Balance = status.Balance.Add(subStatus.Balance)
			status.Interest = status.Interest.Add(subStatus.Interest)
			status.ToCapital = status.ToCapital.Add(subStatus.ToCapital)
			status.Date = subStatus.Date
		}
		return status
	}

	current := l.Start
	balance := l.Principal
	rate := l.monthlyRate()
	interest := decimal.Zero
	toCapital := decimal.Zero

	for current.Before(date) {
		previous := current
		current = nextMonth(current)

		for _, extra := range l.ExtraPayments {
			if extra.Date.After(previous) && extra.Date.Before(current) {
				balance = balance.Sub(extra.Amount)
			}
		}
		if current.After(date) {
			break
		}
		if containsDate(l.SkipDates, current) {
			continue
		}

		if l.InterestStart.IsZero() || !current.Before(l.InterestStart) {
			interest = rate.Mul(balance).RoundUp(2)
			toCapital = l.Payment.Sub(interest)
		} else {
			interest = decimal.Zero
			toCapital = l.Payment
		}
		balance = balance.Sub(toCapital)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		if balance.IsZero() {
			break
		}
	}

	// Paid off before the requested date.
	if current.Before(date) {
		return Status{Balance: decimal.Zero, Date: date, Interest: decimal.Zero, ToCapital: decimal.Zero}
	}
	return Status{Balance: balance, Date: current, Interest: interest, ToCapital: toCapital}
}

// Schedule returns every payment until the loan is paid off. Extra payments
// appear as their own entries unless skipExtraPayments is set.
func (l *Loan) Schedule(skipExtraPayments bool) []ScheduledPayment {
	if len(l.Subaccounts) > 0 {
		var merged []ScheduledPayment
		for _, sub := range l.Subaccounts {
			subPayments := sub.Schedule(skipExtraPayments)
			if merged == nil {
				merged = subPayments
				continue
			}
			for i := 0; i < len(merged) && i < len(subPayments); i++ {
				merged[i].Balance = merged[i].Balance.Add(subPayments[i].Balance)
				merged[i].ToCapital = merged[i].ToCapital.Add(subPayments[i].ToCapital)
			}
		}
		return merged
	}

	current := l.Start
	balance := l.Principal
	rate := l.monthlyRate()
	var payments []ScheduledPayment

	for balance.IsPositive() {
		previous := current
		current = nextMonth(current)

		for _, extra := range l.ExtraPayments {
			if extra.Date.After(previous) && extra.Date.Before(current) {
				if !skipExtraPayments {
					payments = append(payments, ScheduledPayment{
						Date:      extra.Date,
						Balance:   balance,
						ToCapital: extra.Amount,
					})
				}
				balance = balance.Sub(extra.Amount)
			}
		}
		if containsDate(l.SkipDates, current) {
			continue
		}

		interest := rate.Mul(balance).RoundUp(2)
		toCapital := l.Payment.Sub(interest)
		if !toCapital.IsPositive() {
			// The payment no longer covers interest; the balance would grow
			// forever.
			break
		}
		payments = append(payments, ScheduledPayment{Date: current, Balance: balance, ToCapital: toCapital})
		balance = balance.Sub(toCapital)
	}
	return payments
}

// monthlyRate normalizes the annual rate to a monthly multiplier.
func (l *Loan) monthlyRate() decimal.Decimal {
	rate := l.Rate
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		rate = rate.Shift(-2)
	}
	return rate.Div(twelve)
}

// nextMonth advances one calendar month keeping the day of month.
func nextMonth(t time.Time) time.Time {
	if t.Month() == time.December {
		return time.Date(t.Year()+1, time.January, t.Day(), 0, 0, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month()+1, t.Day(), 0, 0, 0, 0, t.Location())
}

func containsDate(dates []time.Time, t time.Time) bool {
	for _, d := range dates {
		if d.Equal(t) {
			return true
		}
	}
	return false
}
