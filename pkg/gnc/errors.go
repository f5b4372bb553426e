package gnc

import "fmt"

// NotFoundError indicates a reference to an entity guid that is not present
// in the loaded document, such as a split pointing at an unknown account.
type NotFoundError struct {
	Kind string
	Guid string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Guid)
}

// UnsupportedSlotTypeError indicates a slot type discriminator that the codec
// does not recognize. Parsing aborts rather than skipping the slot.
type UnsupportedSlotTypeError struct {
	Type string
}

func (e UnsupportedSlotTypeError) Error() string {
	return fmt.Sprintf("slot type %q is not supported", e.Type)
}
