package sqliteformat

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gnewcash/gnewcash-go/pkg/gnc"
)

// WriteFile merges the document into the SQLite database at path, creating
// the file and schema when absent. Each row is probed by guid first, so an
// existing database keeps its surrogate ids and unrelated rows.
//
// The per-book write is intentionally not wrapped in a SQL transaction:
// rows become visible as they are written, and a failure mid-save leaves
// the rows already written in place.
func WriteFile(doc *gnc.File, path string) error {
	conn, err := Open(path)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := InitializeSchema(conn); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	w := &writer{conn: conn, guids: doc.Guids, commodities: make(map[string]*gnc.Commodity)}
	for _, book := range doc.Books {
		if err := w.writeBook(book); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

type writer struct {
	conn  *Connection
	guids *gnc.GuidRegistry

	// commodities indexes written commodities by namespace and mnemonic so
	// account and transaction references share one guid per commodity.
	commodities map[string]*gnc.Commodity
}

func (w *writer) writeBook(book *gnc.Book) error {
	// Commodities parsed from XML have no guid until first saved here.
	for _, c := range book.Commodities {
		w.registerCommodity(c)
	}

	var rootGuid, templateGuid interface{}
	if book.RootAccount != nil {
		rootGuid = book.RootAccount.Guid
	}
	if book.TemplateRootAccount != nil {
		templateGuid = book.TemplateRootAccount.Guid
	}
	err := w.conn.Upsert("books", "guid", book.Guid,
		[]string{"root_account_guid", "root_template_guid"},
		[]interface{}{rootGuid, templateGuid})
	if err != nil {
		return err
	}

	if book.RootAccount != nil {
		if err := w.writeAccountTree(book.RootAccount); err != nil {
			return err
		}
	}
	if book.TemplateRootAccount != nil {
		if err := w.writeAccountTree(book.TemplateRootAccount); err != nil {
			return err
		}
	}

	for i := range book.Slots {
		if err := w.writeSlot(&book.Slots[i], book.Guid); err != nil {
			return err
		}
	}

	for _, commodity := range book.Commodities {
		if err := w.writeCommodity(commodity); err != nil {
			return err
		}
	}

	for _, txn := range book.Transactions.Transactions {
		if err := w.writeTransaction(txn); err != nil {
			return err
		}
	}
	for _, txn := range book.TemplateTransactions {
		if err := w.writeTransaction(txn); err != nil {
			return err
		}
	}

	for _, deletedGuid := range book.Transactions.DeletedGuids {
		if err := w.deleteTransaction(deletedGuid); err != nil {
			return err
		}
	}

	for _, sx := range book.ScheduledTransactions {
		if err := w.writeScheduledTransaction(sx); err != nil {
			return err
		}
	}

	for _, budget := range book.Budgets {
		if err := w.writeBudget(budget); err != nil {
			return err
		}
	}
	return nil
}

// registerCommodity assigns a guid if the commodity has none and records it
// under its namespace/mnemonic pair.
func (w *writer) registerCommodity(c *gnc.Commodity) {
	if c.Guid == "" {
		c.Guid = w.guids.New()
	}
	w.commodities[c.Space+"/"+c.ID] = c
}

// commodityGuid resolves a commodity reference to its row guid, writing a
// row for commodities not registered with the book (e.g. a transaction
// currency parsed from the short XML form).
func (w *writer) commodityGuid(c *gnc.Commodity) (interface{}, error) {
	if c == nil {
		return nil, nil
	}
	if c.Guid != "" {
		return c.Guid, nil
	}
	if known, ok := w.commodities[c.Space+"/"+c.ID]; ok {
		c.Guid = known.Guid
		return c.Guid, nil
	}
	w.registerCommodity(c)
	if err := w.writeCommodity(c); err != nil {
		return nil, err
	}
	return c.Guid, nil
}

func (w *writer) writeCommodity(c *gnc.Commodity) error {
	quoteFlag := 0
	if c.GetQuotes {
		quoteFlag = 1
	}
	fraction := c.Fraction
	if fraction == "" {
		fraction = "100"
	}
	return w.conn.Upsert("commodities", "guid", c.Guid,
		[]string{"namespace", "mnemonic", "fullname", "cusip", "fraction", "quote_flag", "quote_source", "quote_tz"},
		[]interface{}{c.Space, c.ID, c.Name, c.XCode, fraction, quoteFlag, c.QuoteSource, boolInt(c.QuoteTZ)})
}

func (w *writer) writeAccountTree(account *gnc.Account) error {
	commodityGuid, err := w.commodityGuid(account.Commodity)
	if err != nil {
		return err
	}
	var parentGuid interface{}
	if account.Parent() != nil {
		parentGuid = account.Parent().Guid
	}
	scu := account.CommoditySCU
	if scu == "" {
		scu = "0"
	}
	err = w.conn.Upsert("accounts", "guid", account.Guid,
		[]string{"name", "account_type", "commodity_guid", "commodity_scu", "non_std_scu",
			"parent_guid", "code", "description", "hidden", "placeholder"},
		[]interface{}{account.Name, account.Type, commodityGuid, scu,
			account.NonStdSCU, parentGuid, account.Code, account.Description,
			boolInt(account.Hidden()), boolInt(account.Placeholder())})
	if err != nil {
		return err
	}

	for i := range account.Slots {
		if err := w.writeSlot(&account.Slots[i], account.Guid); err != nil {
			return err
		}
	}
	for _, child := range account.Children() {
		if err := w.writeAccountTree(child); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) writeTransaction(txn *gnc.Transaction) error {
	currencyGuid, err := w.commodityGuid(txn.Currency)
	if err != nil {
		return err
	}
	err = w.conn.Upsert("transactions", "guid", txn.Guid,
		[]string{"currency_guid", "num", "post_date", "enter_date", "description"},
		[]interface{}{currencyGuid, txn.Memo, nullableTimestamp(txn.DatePosted),
			nullableTimestamp(txn.DateEntered), txn.Description})
	if err != nil {
		return err
	}

	for i := range txn.Slots {
		if err := w.writeSlot(&txn.Slots[i], txn.Guid); err != nil {
			return err
		}
	}
	for _, split := range txn.Splits {
		if err := w.writeSplit(split, txn.Guid); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) writeSplit(split *gnc.Split, txnGuid string) error {
	var accountGuid interface{}
	if split.Account != nil {
		accountGuid = split.Account.Guid
	}
	var lotGuid interface{}
	if split.LotGuid != "" {
		lotGuid = split.LotGuid
	}
	quantity := split.Quantity
	if quantity.Denom == 0 {
		quantity = split.Value
	}
	err := w.conn.Upsert("splits", "guid", split.Guid,
		[]string{"tx_guid", "account_guid", "memo", "action", "reconcile_state", "reconcile_date",
			"value_num", "value_denom", "quantity_num", "quantity_denom", "lot_guid"},
		[]interface{}{txnGuid, accountGuid, split.Memo, split.Action, split.ReconciledState,
			nullableTimestamp(split.ReconcileDate), split.Value.Num, split.Value.Denom,
			quantity.Num, quantity.Denom, lotGuid})
	if err != nil {
		return err
	}

	for i := range split.Slots {
		if err := w.writeSlot(&split.Slots[i], split.Guid); err != nil {
			return err
		}
	}
	return nil
}

// writeSlot inserts or updates a slot row. Inserted slots capture the
// assigned surrogate id so later writes update in place. Numeric updates
// keep the row's stored denominator and rescale the numerator to it.
func (w *writer) writeSlot(slot *gnc.Slot, objGuid string) error {
	var (
		typeID int
		column string
		value  interface{}
	)
	switch v := slot.Value.(type) {
	case gnc.IntegerValue:
		typeID, column, value = slotTypeInteger, "int64_val", int64(v)
	case gnc.DoubleValue:
		typeID, column, value = slotTypeDouble, "double_val", decimal.Decimal(v).InexactFloat64()
	case gnc.NumericValue:
		typeID, column = slotTypeNumeric, "numeric_val_num"
	case gnc.StringValue:
		typeID, column, value = slotTypeString, "string_val", string(v)
	case gnc.GuidValue:
		typeID, column, value = slotTypeGuid, "guid_val", string(v)
	case gnc.DateValue:
		typeID, column, value = slotTypeGDate, "gdate_val", time.Time(v).Format(dateLayout)
	default:
		return gnc.UnsupportedSlotTypeError{Type: slot.Value.SlotType()}
	}

	if slot.SQLiteID == 0 {
		var result sql.Result
		var err error
		if numeric, ok := slot.Value.(gnc.NumericValue); ok {
			result, err = w.conn.Exec(
				"INSERT INTO slots (obj_guid, name, slot_type, numeric_val_num, numeric_val_denom) VALUES (?, ?, ?, ?, ?)",
				objGuid, slot.Key, typeID, numeric.Num, numeric.Denom)
		} else {
			result, err = w.conn.Exec(
				fmt.Sprintf("INSERT INTO slots (obj_guid, name, slot_type, %s) VALUES (?, ?, ?, ?)", column),
				objGuid, slot.Key, typeID, value)
		}
		if err != nil {
			return fmt.Errorf("failed to insert slot %q: %w", slot.Key, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read slot id for %q: %w", slot.Key, err)
		}
		slot.SQLiteID = id
		return nil
	}

	if numeric, ok := slot.Value.(gnc.NumericValue); ok {
		var denom int64
		if err := w.conn.QueryRow("SELECT numeric_val_denom FROM slots WHERE id = ?", slot.SQLiteID).Scan(&denom); err != nil {
			return fmt.Errorf("failed to read denominator of slot %q: %w", slot.Key, err)
		}
		if denom == 0 {
			denom = 100
		}
		value = gnc.Numeric(numeric).Decimal().Mul(decimal.NewFromInt(denom)).IntPart()
	}
	_, err := w.conn.Exec(
		fmt.Sprintf("UPDATE slots SET obj_guid = ?, name = ?, slot_type = ?, %s = ? WHERE id = ?", column),
		objGuid, slot.Key, typeID, value, slot.SQLiteID)
	if err != nil {
		return fmt.Errorf("failed to update slot %q: %w", slot.Key, err)
	}
	return nil
}

// deleteTransaction cascade-deletes a removed transaction in dependency
// order: its slots, its splits' slots, the splits, then the row itself.
func (w *writer) deleteTransaction(txnGuid string) error {
	statements := []string{
		"DELETE FROM slots WHERE obj_guid = ?",
		"DELETE FROM slots WHERE obj_guid IN (SELECT guid FROM splits WHERE tx_guid = ?)",
		"DELETE FROM splits WHERE tx_guid = ?",
		"DELETE FROM transactions WHERE guid = ?",
	}
	for _, stmt := range statements {
		if _, err := w.conn.Exec(stmt, txnGuid); err != nil {
			return fmt.Errorf("failed to delete transaction %s: %w", txnGuid, err)
		}
	}
	return nil
}

func (w *writer) writeScheduledTransaction(sx *gnc.ScheduledTransaction) error {
	var templateGuid interface{}
	if sx.TemplateAccount != nil {
		templateGuid = sx.TemplateAccount.Guid
	}
	err := w.conn.Upsert("schedxactions", "guid", sx.Guid,
		[]string{"name", "enabled", "start_date", "end_date", "last_occur", "num_occur",
			"rem_occur", "auto_create", "auto_notify", "adv_creation", "adv_notify",
			"instance_count", "template_act_guid"},
		[]interface{}{sx.Name, boolInt(sx.Enabled), nullableDate(sx.StartDate),
			nullableDate(sx.EndDate), nullableDate(sx.LastDate), sx.NumOccurrences,
			sx.RemainingOccurrences, boolInt(sx.AutoCreate), boolInt(sx.AutoCreateNotify),
			sx.AdvanceCreateDays, sx.AdvanceRemindDays, sx.InstanceCount, templateGuid})
	if err != nil {
		return err
	}
	return w.writeRecurrence(sx.Guid, sx.RecurrenceMultiplier, sx.RecurrencePeriod,
		sx.RecurrenceStart, sx.RecurrenceWeekendAdjust)
}

func (w *writer) writeBudget(budget *gnc.Budget) error {
	err := w.conn.Upsert("budgets", "guid", budget.Guid,
		[]string{"name", "description", "num_periods"},
		[]interface{}{budget.Name, budget.Description, budget.NumPeriods})
	if err != nil {
		return err
	}
	if err := w.writeRecurrence(budget.Guid, budget.RecurrenceMultiplier,
		budget.RecurrencePeriod, budget.RecurrenceStart, ""); err != nil {
		return err
	}
	for i := range budget.Slots {
		if err := w.writeSlot(&budget.Slots[i], budget.Guid); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) writeRecurrence(objGuid string, mult int, periodType string, start time.Time, weekendAdjust string) error {
	return w.conn.Upsert("recurrences", "obj_guid", objGuid,
		[]string{"recurrence_mult", "recurrence_period_type", "recurrence_period_start", "recurrence_weekend_adjust"},
		[]interface{}{mult, periodType, nullableDate(start), weekendAdjust})
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableTimestamp(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(timestampLayout)
}

func nullableDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}
