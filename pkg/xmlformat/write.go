package xmlformat

import (
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gnewcash/gnewcash-go/pkg/gnc"
)

// Namespace URIs matched fully-qualified by the reader.
const (
	nsGnc = "http://www.gnucash.org/XML/gnc"
	nsTrn = "http://www.gnucash.org/XML/trn"
	nsTs  = "http://www.gnucash.org/XML/ts"
)

// namespaces lists every prefix declared on the document root, in the order
// GnuCash itself declares them.
var namespaces = []struct{ prefix, uri string }{
	{"gnc", nsGnc},
	{"act", "http://www.gnucash.org/XML/act"},
	{"book", "http://www.gnucash.org/XML/book"},
	{"cd", "http://www.gnucash.org/XML/cd"},
	{"cmdty", "http://www.gnucash.org/XML/cmdty"},
	{"price", "http://www.gnucash.org/XML/price"},
	{"slot", "http://www.gnucash.org/XML/slot"},
	{"split", "http://www.gnucash.org/XML/split"},
	{"sx", "http://www.gnucash.org/XML/sx"},
	{"trn", nsTrn},
	{"ts", nsTs},
	{"fs", "http://www.gnucash.org/XML/fs"},
	{"bgt", "http://www.gnucash.org/XML/bgt"},
	{"recurrence", "http://www.gnucash.org/XML/recurrence"},
	{"lot", "http://www.gnucash.org/XML/lot"},
	{"addr", "http://www.gnucash.org/XML/addr"},
	{"owner", "http://www.gnucash.org/XML/owner"},
	{"billterm", "http://www.gnucash.org/XML/billterm"},
	{"bt-days", "http://www.gnucash.org/XML/bt-days"},
	{"bt-prox", "http://www.gnucash.org/XML/bt-prox"},
	{"cust", "http://www.gnucash.org/XML/cust"},
	{"employee", "http://www.gnucash.org/XML/employee"},
	{"entry", "http://www.gnucash.org/XML/entry"},
	{"invoice", "http://www.gnucash.org/XML/invoice"},
	{"job", "http://www.gnucash.org/XML/job"},
	{"order", "http://www.gnucash.org/XML/order"},
	{"taxtable", "http://www.gnucash.org/XML/taxtable"},
	{"tte", "http://www.gnucash.org/XML/tte"},
	{"vendor", "http://www.gnucash.org/XML/vendor"},
}

// WriteOptions control document output.
type WriteOptions struct {
	// Pretty indents the output with two spaces per level.
	Pretty bool

	// Compress wraps the output in a gzip container.
	Compress bool
}

// element is one node of the materialized output tree. Names are emitted
// with their literal prefix; the prefixes are declared on the root element.
type element struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []*element
}

func newElement(name string, attrs ...xml.Attr) *element {
	return &element{name: name, attrs: attrs}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func (e *element) child(name string, attrs ...xml.Attr) *element {
	c := newElement(name, attrs...)
	e.children = append(e.children, c)
	return c
}

func (e *element) childText(name, text string, attrs ...xml.Attr) *element {
	c := e.child(name, attrs...)
	c.text = text
	return c
}

func (e *element) append(children ...*element) {
	e.children = append(e.children, children...)
}

func (e *element) encode(enc *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: e.name}, Attr: e.attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.text != "" {
		if err := enc.EncodeToken(xml.CharData(e.text)); err != nil {
			return err
		}
	}
	for _, c := range e.children {
		if err := c.encode(enc); err != nil {
			return err
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: start.Name})
}

// WriteFile serializes the document to the given path.
func WriteFile(doc *gnc.File, path string, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := Write(doc, f, opts); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Write serializes the document as GnuCash XML.
func Write(doc *gnc.File, w io.Writer, opts WriteOptions) error {
	out := w
	var gz *gzip.Writer
	if opts.Compress {
		gz, _ = gzip.NewWriterLevel(w, gzip.BestCompression)
		out = gz
	}

	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(out)
	if opts.Pretty {
		enc.Indent("", "  ")
	}

	root := buildDocument(doc)
	if err := root.encode(enc); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	if gz != nil {
		return gz.Close()
	}
	return nil
}

func buildDocument(doc *gnc.File) *element {
	var rootAttrs []xml.Attr
	for _, ns := range namespaces {
		rootAttrs = append(rootAttrs, attr("xmlns:"+ns.prefix, ns.uri))
	}
	root := newElement("gnc-v2", rootAttrs...)
	root.childText("gnc:count-data", strconv.Itoa(len(doc.Books)), attr("cd:type", "book"))
	for _, book := range doc.Books {
		root.append(buildBook(book))
	}
	return root
}

func buildBook(book *gnc.Book) *element {
	node := newElement("gnc:book", attr("version", "2.0.0"))
	node.childText("book:id", book.Guid, attr("type", "guid"))

	if len(book.Slots) > 0 {
		slots := node.child("book:slots")
		for _, s := range book.Slots {
			slots.append(buildSlot(s))
		}
	}

	var accounts []*element
	if book.RootAccount != nil {
		accounts = buildAccountSubtree(book.RootAccount)
	}

	// Count-data reflects live collection sizes, not counters carried over
	// from the source. The template commodity is excluded by convention.
	commodityCount := 0
	for _, c := range book.Commodities {
		if c.ID != "template" {
			commodityCount++
		}
	}
	node.childText("gnc:count-data", strconv.Itoa(commodityCount), attr("cd:type", "commodity"))
	node.childText("gnc:count-data", strconv.Itoa(len(accounts)), attr("cd:type", "account"))
	node.childText("gnc:count-data", strconv.Itoa(book.Transactions.Len()), attr("cd:type", "transaction"))
	if len(book.ScheduledTransactions) > 0 {
		node.childText("gnc:count-data", strconv.Itoa(len(book.ScheduledTransactions)), attr("cd:type", "schedxaction"))
	}
	if len(book.Budgets) > 0 {
		node.childText("gnc:count-data", strconv.Itoa(len(book.Budgets)), attr("cd:type", "budget"))
	}

	for _, c := range book.Commodities {
		node.append(buildCommodity(c))
	}
	node.append(accounts...)
	for _, txn := range book.Transactions.Transactions {
		node.append(buildTransaction(txn))
	}

	if book.TemplateRootAccount != nil && len(book.TemplateTransactions) > 0 {
		template := node.child("gnc:template-transactions")
		template.append(buildAccountSubtree(book.TemplateRootAccount)...)
		for _, txn := range book.TemplateTransactions {
			template.append(buildTransaction(txn))
		}
	}

	for _, sx := range book.ScheduledTransactions {
		node.append(buildScheduledTransaction(sx))
	}
	for _, budget := range book.Budgets {
		node.append(buildBudget(budget))
	}
	return node
}

// buildAccountSubtree flattens the account tree into the sibling element
// list the format expects: each account references its parent by guid.
func buildAccountSubtree(account *gnc.Account) []*element {
	node := newElement("gnc:account", attr("version", "2.0.0"))
	node.childText("act:name", account.Name)
	node.childText("act:id", account.Guid, attr("type", "guid"))
	node.childText("act:type", account.Type)

	commodity := account.Commodity
	if commodity == nil {
		commodity = account.ParentCommodity()
	}
	if commodity != nil {
		node.append(buildShortCommodity(commodity, "act:commodity"))
	}
	if account.CommoditySCU != "" {
		node.childText("act:commodity-scu", account.CommoditySCU)
	}
	if account.Code != "" {
		node.childText("act:code", account.Code)
	}
	if account.Description != "" {
		node.childText("act:description", account.Description)
	}
	if len(account.Slots) > 0 {
		slots := node.child("act:slots")
		for _, s := range account.Slots {
			slots.append(buildSlot(s))
		}
	}
	if account.Parent() != nil {
		node.childText("act:parent", account.Parent().Guid, attr("type", "guid"))
	}

	nodes := []*element{node}
	for _, child := range account.Children() {
		nodes = append(nodes, buildAccountSubtree(child)...)
	}
	return nodes
}

func buildSlot(slot gnc.Slot) *element {
	node := newElement("slot")
	node.childText("slot:key", slot.Key)
	value := node.child("slot:value", attr("type", slot.Value.SlotType()))
	switch v := slot.Value.(type) {
	case gnc.StringValue:
		value.text = string(v)
	case gnc.GuidValue:
		value.text = string(v)
	case gnc.NumericValue:
		value.text = gnc.Numeric(v).Decimal().String()
	case gnc.IntegerValue:
		value.text = strconv.FormatInt(int64(v), 10)
	case gnc.DoubleValue:
		value.text = decimal.Decimal(v).String()
	case gnc.DateValue:
		value.childText("gdate", formatGDate(time.Time(v)))
	case gnc.FrameValue:
		for _, child := range v {
			value.append(buildSlot(child))
		}
	}
	return node
}

func buildCommodity(c *gnc.Commodity) *element {
	node := newElement("gnc:commodity", attr("version", "2.0.0"))
	node.childText("cmdty:space", c.Space)
	node.childText("cmdty:id", c.ID)
	if c.GetQuotes {
		node.child("cmdty:get_quotes")
	}
	if c.QuoteSource != "" {
		node.childText("cmdty:quote_source", c.QuoteSource)
	}
	if c.QuoteTZ {
		node.child("cmdty:quote_tz")
	}
	if c.Name != "" {
		node.childText("cmdty:name", c.Name)
	}
	if c.XCode != "" {
		node.childText("cmdty:xcode", c.XCode)
	}
	if c.Fraction != "" {
		node.childText("cmdty:fraction", c.Fraction)
	}
	return node
}

func buildShortCommodity(c *gnc.Commodity, name string) *element {
	node := newElement(name)
	node.childText("cmdty:space", c.Space)
	node.childText("cmdty:id", c.ID)
	return node
}

func buildTransaction(txn *gnc.Transaction) *element {
	node := newElement("gnc:transaction", attr("version", "2.0.0"))
	node.childText("trn:id", txn.Guid, attr("type", "guid"))
	if txn.Currency != nil {
		node.append(buildShortCommodity(txn.Currency, "trn:currency"))
	}
	if txn.Memo != "" {
		node.childText("trn:num", txn.Memo)
	}
	if !txn.DatePosted.IsZero() {
		node.child("trn:date-posted").childText("ts:date", formatTimestamp(txn.DatePosted))
	}
	if !txn.DateEntered.IsZero() {
		node.child("trn:date-entered").childText("ts:date", formatTimestamp(txn.DateEntered))
	}
	node.childText("trn:description", txn.Description)
	if len(txn.Slots) > 0 {
		slots := node.child("trn:slots")
		for _, s := range txn.Slots {
			slots.append(buildSlot(s))
		}
	}
	if len(txn.Splits) > 0 {
		splits := node.child("trn:splits")
		for _, s := range txn.Splits {
			splits.append(buildSplit(s))
		}
	}
	return node
}

func buildSplit(split *gnc.Split) *element {
	node := newElement("trn:split")
	node.childText("split:id", split.Guid, attr("type", "guid"))
	if split.Memo != "" {
		node.childText("split:memo", split.Memo)
	}
	if split.Action != "" {
		node.childText("split:action", split.Action)
	}
	node.childText("split:reconciled-state", split.ReconciledState)
	if !split.ReconcileDate.IsZero() {
		node.child("split:reconcile-date").childText("ts:date", formatTimestamp(split.ReconcileDate))
	}
	node.childText("split:value", split.Value.String())
	quantity := split.Quantity
	if quantity.Denom == 0 {
		quantity = split.Value
	}
	node.childText("split:quantity", quantity.String())
	if split.Account != nil {
		node.childText("split:account", split.Account.Guid, attr("type", "guid"))
	}
	if split.LotGuid != "" {
		node.childText("split:lot", split.LotGuid, attr("type", "guid"))
	}
	if len(split.Slots) > 0 {
		slots := node.child("split:slots")
		for _, s := range split.Slots {
			slots.append(buildSlot(s))
		}
	}
	return node
}

func buildScheduledTransaction(sx *gnc.ScheduledTransaction) *element {
	node := newElement("gnc:schedxaction", attr("version", "2.0.0"))
	if sx.Guid != "" {
		node.childText("sx:id", sx.Guid, attr("type", "guid"))
	}
	if sx.Name != "" {
		node.childText("sx:name", sx.Name)
	}
	node.childText("sx:enabled", yesNo(sx.Enabled))
	node.childText("sx:autoCreate", yesNo(sx.AutoCreate))
	node.childText("sx:autoCreateNotify", yesNo(sx.AutoCreateNotify))
	node.childText("sx:advanceCreateDays", strconv.Itoa(sx.AdvanceCreateDays))
	node.childText("sx:advanceRemindDays", strconv.Itoa(sx.AdvanceRemindDays))
	node.childText("sx:instanceCount", strconv.Itoa(sx.InstanceCount))
	if !sx.StartDate.IsZero() {
		node.child("sx:start").childText("gdate", formatGDate(sx.StartDate))
	}
	if !sx.LastDate.IsZero() {
		node.child("sx:last").childText("gdate", formatGDate(sx.LastDate))
	}
	if !sx.EndDate.IsZero() {
		node.child("sx:end").childText("gdate", formatGDate(sx.EndDate))
	}
	if sx.TemplateAccount != nil {
		node.childText("sx:templ-acct", sx.TemplateAccount.Guid, attr("type", "guid"))
	}
	if sx.RecurrenceMultiplier != 0 || sx.RecurrencePeriod != "" || !sx.RecurrenceStart.IsZero() {
		recurrence := node.child("sx:schedule").child("gnc:recurrence", attr("version", "1.0.0"))
		if sx.RecurrenceMultiplier != 0 {
			recurrence.childText("recurrence:mult", strconv.Itoa(sx.RecurrenceMultiplier))
		}
		if sx.RecurrencePeriod != "" {
			recurrence.childText("recurrence:period_type", sx.RecurrencePeriod)
		}
		if !sx.RecurrenceStart.IsZero() {
			recurrence.child("recurrence:start").childText("gdate", formatGDate(sx.RecurrenceStart))
		}
		if sx.RecurrenceWeekendAdjust != "" {
			recurrence.childText("recurrence:weekend_adj", sx.RecurrenceWeekendAdjust)
		}
	}
	return node
}

func buildBudget(budget *gnc.Budget) *element {
	node := newElement("gnc:budget", attr("version", "2.0.0"))
	node.childText("bgt:id", budget.Guid, attr("type", "guid"))
	node.childText("bgt:name", budget.Name)
	node.childText("bgt:description", budget.Description)
	if budget.NumPeriods != 0 {
		node.childText("bgt:num-periods", strconv.Itoa(budget.NumPeriods))
	}
	if budget.RecurrenceMultiplier != 0 || budget.RecurrencePeriod != "" || !budget.RecurrenceStart.IsZero() {
		recurrence := node.child("bgt:recurrence", attr("version", "1.0.0"))
		if budget.RecurrenceMultiplier != 0 {
			recurrence.childText("recurrence:mult", strconv.Itoa(budget.RecurrenceMultiplier))
		}
		if budget.RecurrencePeriod != "" {
			recurrence.childText("recurrence:period_type", budget.RecurrencePeriod)
		}
		if !budget.RecurrenceStart.IsZero() {
			recurrence.child("recurrence:start").childText("gdate", formatGDate(budget.RecurrenceStart))
		}
	}
	if len(budget.Slots) > 0 {
		slots := node.child("bgt:slots")
		for _, s := range budget.Slots {
			slots.append(buildSlot(s))
		}
	}
	return node
}

func yesNo(v bool) string {
	if v {
		return "y"
	}
	return "n"
}
