package gnc

import "fmt"

// CurrencySpace is the commodity namespace used for real currencies.
const CurrencySpace = "CURRENCY"

// Commodity is a currency or tradeable unit, identified by namespace + mnemonic.
type Commodity struct {
	// Guid is assigned by the SQLite codec. Commodities loaded from XML have
	// no guid until they are written to a SQLite target.
	Guid string

	ID          string // mnemonic, e.g. "USD"
	Space       string // namespace, e.g. "CURRENCY"
	GetQuotes   bool
	QuoteSource string
	QuoteTZ     bool
	Name        string
	XCode       string
	Fraction    string
}

// NewCommodity creates a commodity with the given mnemonic and namespace.
func NewCommodity(id, space string) *Commodity {
	return &Commodity{ID: id, Space: space}
}

// IsCurrency reports whether the commodity lives in the CURRENCY namespace.
func (c *Commodity) IsCurrency() bool {
	return c.Space == CurrencySpace
}

func (c *Commodity) String() string {
	return fmt.Sprintf("%s.%s", c.Space, c.ID)
}
