package gnc

import (
	"time"

	"github.com/shopspring/decimal"
)

// Slot type discriminators as they appear on the XML wire.
const (
	SlotTypeString  = "string"
	SlotTypeGuid    = "guid"
	SlotTypeNumeric = "numeric"
	SlotTypeInteger = "integer"
	SlotTypeDouble  = "double"
	SlotTypeGDate   = "gdate"
	SlotTypeFrame   = "frame"
)

// SlotValue is the closed set of typed payloads a slot can carry.
type SlotValue interface {
	// SlotType returns the wire discriminator for the payload.
	SlotType() string
}

// StringValue is a string slot payload.
type StringValue string

func (StringValue) SlotType() string { return SlotTypeString }

// GuidValue references another entity by guid.
type GuidValue string

func (GuidValue) SlotType() string { return SlotTypeGuid }

// NumericValue is an exact rational slot payload.
type NumericValue Numeric

func (NumericValue) SlotType() string { return SlotTypeNumeric }

// IntegerValue is a 64-bit integer slot payload.
type IntegerValue int64

func (IntegerValue) SlotType() string { return SlotTypeInteger }

// DoubleValue is a floating point slot payload, held as a decimal so repeated
// round trips do not drift.
type DoubleValue decimal.Decimal

func (DoubleValue) SlotType() string { return SlotTypeDouble }

// DateValue is a calendar date without a time of day.
type DateValue time.Time

func (DateValue) SlotType() string { return SlotTypeGDate }

// FrameValue nests a list of child slots under one key.
type FrameValue []Slot

func (FrameValue) SlotType() string { return SlotTypeFrame }

// Slot is one key/value entry in an entity's slot list.
type Slot struct {
	Key   string
	Value SlotValue

	// SQLiteID is the surrogate row id assigned by a SQLite source or target.
	// Zero means the slot has never been written to SQLite.
	SQLiteID int64
}

// FindSlot returns the first slot with the given key, or nil.
func FindSlot(slots []Slot, key string) *Slot {
	for i := range slots {
		if slots[i].Key == key {
			return &slots[i]
		}
	}
	return nil
}

// SetSlot replaces the value of the slot with the given key, appending a new
// slot if none exists. The slot list is returned so callers can reassign.
func SetSlot(slots []Slot, key string, value SlotValue) []Slot {
	if s := FindSlot(slots, key); s != nil {
		s.Value = value
		return slots
	}
	return append(slots, Slot{Key: key, Value: value})
}

// RemoveSlot deletes the slot with the given key if present.
func RemoveSlot(slots []Slot, key string) []Slot {
	for i := range slots {
		if slots[i].Key == key {
			return append(slots[:i], slots[i+1:]...)
		}
	}
	return slots
}

// slotString reads a string-typed slot, returning "" when absent or not a
// string.
func slotString(slots []Slot, key string) string {
	if s := FindSlot(slots, key); s != nil {
		if v, ok := s.Value.(StringValue); ok {
			return string(v)
		}
	}
	return ""
}
