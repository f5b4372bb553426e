package sqliteformat

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gnewcash/gnewcash-go/pkg/gnc"
)

// Slot type codes as stored in the slots.slot_type column.
const (
	slotTypeInteger = 1
	slotTypeDouble  = 2
	slotTypeNumeric = 3
	slotTypeString  = 4
	slotTypeGuid    = 5
	slotTypeKvpGuid = 9
	slotTypeGDate   = 10
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "20060102"
)

// ReadOptions control how a document is loaded.
type ReadOptions struct {
	// DisableSort keeps transactions in row order instead of re-sorting
	// them by post date on insert.
	DisableSort bool

	// SortMethod overrides the transaction ordering. Nil means post date
	// ascending with a guid tie-break.
	SortMethod gnc.SortMethod
}

// ReadFile loads a GnuCash SQLite database into memory.
func ReadFile(path string, opts ReadOptions) (*gnc.File, error) {
	conn, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	doc := gnc.NewFile()
	doc.FileName = filepath.Base(conn.GetPath())

	r := &reader{conn: conn, guids: doc.Guids}
	books, err := r.readBooks(opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc.Books = books
	return doc, nil
}

type reader struct {
	conn  *Connection
	guids *gnc.GuidRegistry
}

func (r *reader) readBooks(opts ReadOptions) ([]*gnc.Book, error) {
	rows, err := r.conn.Query("SELECT guid, root_account_guid, root_template_guid FROM books")
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	type bookRow struct {
		guid         string
		rootGuid     sql.NullString
		templateGuid sql.NullString
	}
	var bookRows []bookRow
	for rows.Next() {
		var row bookRow
		if err := rows.Scan(&row.guid, &row.rootGuid, &row.templateGuid); err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		bookRows = append(bookRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var books []*gnc.Book
	for _, row := range bookRows {
		book, err := r.readBook(row.guid, row.rootGuid, row.templateGuid, opts)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

func (r *reader) readBook(guid string, rootGuid, templateGuid sql.NullString, opts ReadOptions) (*gnc.Book, error) {
	book := &gnc.Book{
		Guid: guid,
		Transactions: &gnc.TransactionManager{
			DisableSort: opts.DisableSort,
			Sort:        opts.SortMethod,
		},
	}
	r.guids.Claim(guid)

	commodities, commodityIndex, err := r.readCommodities()
	if err != nil {
		return nil, err
	}
	book.Commodities = commodities

	if rootGuid.Valid {
		if book.RootAccount, err = r.readAccountTree(rootGuid.String, commodityIndex); err != nil {
			return nil, err
		}
	}
	if templateGuid.Valid {
		if book.TemplateRootAccount, err = r.readAccountTree(templateGuid.String, commodityIndex); err != nil {
			return nil, err
		}
	}

	if book.Slots, err = r.readSlots(guid); err != nil {
		return nil, err
	}

	// Split account references resolve against one prebuilt index rather
	// than a subtree search per split.
	accountIndex := make(map[string]*gnc.Account)
	templateGuids := make(map[string]struct{})
	if book.RootAccount != nil {
		book.RootAccount.Walk(func(a *gnc.Account) { accountIndex[a.Guid] = a })
	}
	if book.TemplateRootAccount != nil {
		book.TemplateRootAccount.Walk(func(a *gnc.Account) {
			accountIndex[a.Guid] = a
			templateGuids[a.Guid] = struct{}{}
		})
	}

	transactions, err := r.readTransactions(accountIndex, commodityIndex)
	if err != nil {
		return nil, err
	}
	// Transactions posting to the template subtree are schedule patterns,
	// not ledger entries.
	for _, txn := range transactions {
		isTemplate := false
		for _, split := range txn.Splits {
			if split.Account != nil {
				if _, ok := templateGuids[split.Account.Guid]; ok {
					isTemplate = true
					break
				}
			}
		}
		if isTemplate {
			book.TemplateTransactions = append(book.TemplateTransactions, txn)
		} else {
			book.Transactions.Add(txn)
		}
	}

	if book.ScheduledTransactions, err = r.readScheduledTransactions(book.TemplateRootAccount); err != nil {
		return nil, err
	}
	if book.Budgets, err = r.readBudgets(); err != nil {
		return nil, err
	}
	return book, nil
}

func (r *reader) readCommodities() ([]*gnc.Commodity, map[string]*gnc.Commodity, error) {
	rows, err := r.conn.Query(`SELECT guid, namespace, mnemonic, fullname, cusip, fraction,
		quote_flag, quote_source, quote_tz FROM commodities`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query commodities: %w", err)
	}
	defer rows.Close()

	var commodities []*gnc.Commodity
	index := make(map[string]*gnc.Commodity)
	for rows.Next() {
		var (
			c           gnc.Commodity
			fullname    sql.NullString
			cusip       sql.NullString
			fraction    sql.NullInt64
			quoteFlag   sql.NullInt64
			quoteSource sql.NullString
			quoteTZ     sql.NullString
		)
		if err := rows.Scan(&c.Guid, &c.Space, &c.ID, &fullname, &cusip, &fraction,
			&quoteFlag, &quoteSource, &quoteTZ); err != nil {
			return nil, nil, fmt.Errorf("failed to scan commodity row: %w", err)
		}
		c.Name = fullname.String
		c.XCode = cusip.String
		if fraction.Valid {
			c.Fraction = strconv.FormatInt(fraction.Int64, 10)
		}
		c.GetQuotes = quoteFlag.Int64 == 1
		c.QuoteSource = quoteSource.String
		c.QuoteTZ = quoteTZ.Valid && quoteTZ.String != "" && quoteTZ.String != "0"
		r.guids.Claim(c.Guid)

		commodity := c
		commodities = append(commodities, &commodity)
		index[commodity.Guid] = &commodity
	}
	return commodities, index, rows.Err()
}

func (r *reader) readAccountTree(guid string, commodities map[string]*gnc.Commodity) (*gnc.Account, error) {
	account, err := r.readAccountRow(guid, commodities)
	if err != nil {
		return nil, err
	}

	childRows, err := r.conn.Query("SELECT guid FROM accounts WHERE parent_guid = ?", guid)
	if err != nil {
		return nil, fmt.Errorf("failed to query subaccounts of %s: %w", guid, err)
	}
	var childGuids []string
	for childRows.Next() {
		var childGuid string
		if err := childRows.Scan(&childGuid); err != nil {
			childRows.Close()
			return nil, err
		}
		childGuids = append(childGuids, childGuid)
	}
	if err := childRows.Err(); err != nil {
		childRows.Close()
		return nil, err
	}
	childRows.Close()

	for _, childGuid := range childGuids {
		child, err := r.readAccountTree(childGuid, commodities)
		if err != nil {
			return nil, err
		}
		account.AddChild(child)
	}
	return account, nil
}

func (r *reader) readAccountRow(guid string, commodities map[string]*gnc.Commodity) (*gnc.Account, error) {
	var (
		account       gnc.Account
		commodityGuid sql.NullString
		commoditySCU  sql.NullInt64
		nonStdSCU     sql.NullInt64
		code          sql.NullString
		description   sql.NullString
		hidden        sql.NullInt64
		placeholder   sql.NullInt64
	)
	err := r.conn.QueryRow(`SELECT guid, name, account_type, commodity_guid, commodity_scu,
		non_std_scu, code, description, hidden, placeholder FROM accounts WHERE guid = ?`, guid).
		Scan(&account.Guid, &account.Name, &account.Type, &commodityGuid, &commoditySCU,
			&nonStdSCU, &code, &description, &hidden, &placeholder)
	if err == sql.ErrNoRows {
		return nil, gnc.NotFoundError{Kind: "account", Guid: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", guid, err)
	}

	if commoditySCU.Valid && commoditySCU.Int64 != 0 {
		account.CommoditySCU = strconv.FormatInt(commoditySCU.Int64, 10)
	}
	account.NonStdSCU = int(nonStdSCU.Int64)
	account.Code = code.String
	account.Description = description.String
	r.guids.Claim(account.Guid)

	if account.Slots, err = r.readSlots(account.Guid); err != nil {
		return nil, err
	}
	if hidden.Valid && hidden.Int64 == 1 {
		account.SetHidden(true)
	}
	if placeholder.Valid && placeholder.Int64 == 1 {
		account.SetPlaceholder(true)
	}

	if commodityGuid.Valid {
		commodity, ok := commodities[commodityGuid.String]
		if !ok {
			return nil, gnc.NotFoundError{Kind: "commodity", Guid: commodityGuid.String}
		}
		account.Commodity = commodity
	}
	return &account, nil
}

func (r *reader) readSlots(objGuid string) ([]gnc.Slot, error) {
	rows, err := r.conn.Query(`SELECT id, name, slot_type, int64_val, string_val, double_val,
		guid_val, numeric_val_num, numeric_val_denom, gdate_val FROM slots WHERE obj_guid = ?`, objGuid)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots of %s: %w", objGuid, err)
	}
	defer rows.Close()

	var slots []gnc.Slot
	for rows.Next() {
		var (
			id       int64
			name     string
			slotType int
			intVal   sql.NullInt64
			strVal   sql.NullString
			dblVal   sql.NullFloat64
			guidVal  sql.NullString
			numNum   sql.NullInt64
			numDenom sql.NullInt64
			dateVal  sql.NullString
		)
		if err := rows.Scan(&id, &name, &slotType, &intVal, &strVal, &dblVal,
			&guidVal, &numNum, &numDenom, &dateVal); err != nil {
			return nil, fmt.Errorf("failed to scan slot row: %w", err)
		}

		var value gnc.SlotValue
		switch slotType {
		case slotTypeInteger:
			value = gnc.IntegerValue(intVal.Int64)
		case slotTypeDouble:
			value = gnc.DoubleValue(decimal.NewFromFloat(dblVal.Float64))
		case slotTypeNumeric:
			denom := numDenom.Int64
			if denom == 0 {
				denom = 1
			}
			value = gnc.NumericValue(gnc.Numeric{Num: numNum.Int64, Denom: denom})
		case slotTypeString:
			value = gnc.StringValue(strVal.String)
		case slotTypeGuid, slotTypeKvpGuid:
			value = gnc.GuidValue(guidVal.String)
		case slotTypeGDate:
			var date time.Time
			if dateVal.String != "" {
				if date, err = time.Parse(dateLayout, dateVal.String); err != nil {
					return nil, fmt.Errorf("invalid gdate in slot %q: %w", name, err)
				}
			}
			value = gnc.DateValue(date)
		default:
			return nil, gnc.UnsupportedSlotTypeError{Type: strconv.Itoa(slotType)}
		}
		slots = append(slots, gnc.Slot{Key: name, Value: value, SQLiteID: id})
	}
	return slots, rows.Err()
}

func (r *reader) readTransactions(accounts map[string]*gnc.Account, commodities map[string]*gnc.Commodity) ([]*gnc.Transaction, error) {
	rows, err := r.conn.Query("SELECT guid, currency_guid, num, post_date, enter_date, description FROM transactions")
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	type txnRow struct {
		guid         string
		currencyGuid sql.NullString
		num          sql.NullString
		postDate     sql.NullString
		enterDate    sql.NullString
		description  sql.NullString
	}
	var txnRows []txnRow
	for rows.Next() {
		var row txnRow
		if err := rows.Scan(&row.guid, &row.currencyGuid, &row.num, &row.postDate,
			&row.enterDate, &row.description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txnRows = append(txnRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var transactions []*gnc.Transaction
	for _, row := range txnRows {
		txn := &gnc.Transaction{
			Guid:        row.guid,
			Memo:        row.num.String,
			Description: row.description.String,
		}
		r.guids.Claim(txn.Guid)

		if row.currencyGuid.Valid {
			currency, ok := commodities[row.currencyGuid.String]
			if !ok {
				return nil, gnc.NotFoundError{Kind: "commodity", Guid: row.currencyGuid.String}
			}
			txn.Currency = currency
		}
		if txn.DatePosted, err = parseNullableTimestamp(row.postDate); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txn.Guid, err)
		}
		if txn.DateEntered, err = parseNullableTimestamp(row.enterDate); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txn.Guid, err)
		}
		if txn.Slots, err = r.readSlots(txn.Guid); err != nil {
			return nil, err
		}
		if txn.Splits, err = r.readSplits(txn.Guid, accounts); err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, nil
}

func (r *reader) readSplits(txnGuid string, accounts map[string]*gnc.Account) ([]*gnc.Split, error) {
	rows, err := r.conn.Query(`SELECT guid, account_guid, memo, action, reconcile_state,
		reconcile_date, value_num, value_denom, quantity_num, quantity_denom, lot_guid
		FROM splits WHERE tx_guid = ?`, txnGuid)
	if err != nil {
		return nil, fmt.Errorf("failed to query splits of %s: %w", txnGuid, err)
	}
	type splitRow struct {
		guid          string
		accountGuid   string
		memo          sql.NullString
		action        sql.NullString
		reconcile     sql.NullString
		reconcileDate sql.NullString
		valueNum      int64
		valueDenom    int64
		quantityNum   sql.NullInt64
		quantityDenom sql.NullInt64
		lotGuid       sql.NullString
	}
	var splitRows []splitRow
	for rows.Next() {
		var row splitRow
		if err := rows.Scan(&row.guid, &row.accountGuid, &row.memo, &row.action, &row.reconcile,
			&row.reconcileDate, &row.valueNum, &row.valueDenom, &row.quantityNum,
			&row.quantityDenom, &row.lotGuid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan split row: %w", err)
		}
		splitRows = append(splitRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var splits []*gnc.Split
	for _, row := range splitRows {
		account, ok := accounts[row.accountGuid]
		if !ok {
			return nil, gnc.NotFoundError{Kind: "account", Guid: row.accountGuid}
		}
		split := &gnc.Split{
			Guid:            row.guid,
			Account:         account,
			Value:           gnc.Numeric{Num: row.valueNum, Denom: row.valueDenom},
			ReconciledState: row.reconcile.String,
			Memo:            row.memo.String,
			Action:          row.action.String,
			LotGuid:         row.lotGuid.String,
		}
		r.guids.Claim(split.Guid)
		if row.quantityDenom.Int64 != 0 {
			split.Quantity = gnc.Numeric{Num: row.quantityNum.Int64, Denom: row.quantityDenom.Int64}
		} else {
			split.Quantity = split.Value
		}
		if split.ReconcileDate, err = parseNullableTimestamp(row.reconcileDate); err != nil {
			return nil, fmt.Errorf("split %s: %w", split.Guid, err)
		}
		if split.Slots, err = r.readSlots(split.Guid); err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}
	return splits, nil
}

func (r *reader) readScheduledTransactions(templateRoot *gnc.Account) ([]*gnc.ScheduledTransaction, error) {
	rows, err := r.conn.Query(`SELECT guid, name, enabled, start_date, end_date, last_occur,
		num_occur, rem_occur, auto_create, auto_notify, adv_creation, adv_notify,
		instance_count, template_act_guid FROM schedxactions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled transactions: %w", err)
	}
	type sxRow struct {
		guid          string
		name          sql.NullString
		enabled       int
		startDate     sql.NullString
		endDate       sql.NullString
		lastOccur     sql.NullString
		numOccur      int
		remOccur      int
		autoCreate    int
		autoNotify    int
		advCreation   int
		advNotify     int
		instanceCount int
		templateGuid  sql.NullString
	}
	var sxRows []sxRow
	for rows.Next() {
		var row sxRow
		if err := rows.Scan(&row.guid, &row.name, &row.enabled, &row.startDate, &row.endDate,
			&row.lastOccur, &row.numOccur, &row.remOccur, &row.autoCreate, &row.autoNotify,
			&row.advCreation, &row.advNotify, &row.instanceCount, &row.templateGuid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan scheduled transaction row: %w", err)
		}
		sxRows = append(sxRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var scheduled []*gnc.ScheduledTransaction
	for _, row := range sxRows {
		sx := &gnc.ScheduledTransaction{
			Guid:                 row.guid,
			Name:                 row.name.String,
			Enabled:              row.enabled == 1,
			NumOccurrences:       row.numOccur,
			RemainingOccurrences: row.remOccur,
			AutoCreate:           row.autoCreate == 1,
			AutoCreateNotify:     row.autoNotify == 1,
			AdvanceCreateDays:    row.advCreation,
			AdvanceRemindDays:    row.advNotify,
			InstanceCount:        row.instanceCount,
		}
		r.guids.Claim(sx.Guid)
		if sx.StartDate, err = parseNullableDate(row.startDate); err != nil {
			return nil, fmt.Errorf("scheduled transaction %s: %w", sx.Guid, err)
		}
		if sx.EndDate, err = parseNullableDate(row.endDate); err != nil {
			return nil, fmt.Errorf("scheduled transaction %s: %w", sx.Guid, err)
		}
		if sx.LastDate, err = parseNullableDate(row.lastOccur); err != nil {
			return nil, fmt.Errorf("scheduled transaction %s: %w", sx.Guid, err)
		}
		if row.templateGuid.Valid && templateRoot != nil {
			sx.TemplateAccount = templateRoot.SubaccountByID(row.templateGuid.String)
		}
		if err := r.readRecurrence(sx.Guid, &sx.RecurrenceMultiplier, &sx.RecurrencePeriod,
			&sx.RecurrenceStart, &sx.RecurrenceWeekendAdjust); err != nil {
			return nil, err
		}
		scheduled = append(scheduled, sx)
	}
	return scheduled, nil
}

func (r *reader) readBudgets() ([]*gnc.Budget, error) {
	rows, err := r.conn.Query("SELECT guid, name, description, num_periods FROM budgets")
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	type budgetRow struct {
		guid        string
		name        sql.NullString
		description sql.NullString
		numPeriods  int
	}
	var budgetRows []budgetRow
	for rows.Next() {
		var row budgetRow
		if err := rows.Scan(&row.guid, &row.name, &row.description, &row.numPeriods); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan budget row: %w", err)
		}
		budgetRows = append(budgetRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var budgets []*gnc.Budget
	for _, row := range budgetRows {
		budget := &gnc.Budget{
			Guid:        row.guid,
			Name:        row.name.String,
			Description: row.description.String,
			NumPeriods:  row.numPeriods,
		}
		r.guids.Claim(budget.Guid)
		var weekendAdjust string
		if err := r.readRecurrence(budget.Guid, &budget.RecurrenceMultiplier,
			&budget.RecurrencePeriod, &budget.RecurrenceStart, &weekendAdjust); err != nil {
			return nil, err
		}
		if budget.Slots, err = r.readSlots(budget.Guid); err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, nil
}

func (r *reader) readRecurrence(objGuid string, mult *int, periodType *string, start *time.Time, weekendAdjust *string) error {
	var (
		m       int
		period  sql.NullString
		startS  sql.NullString
		weekend sql.NullString
	)
	err := r.conn.QueryRow(`SELECT recurrence_mult, recurrence_period_type, recurrence_period_start,
		recurrence_weekend_adjust FROM recurrences WHERE obj_guid = ?`, objGuid).
		Scan(&m, &period, &startS, &weekend)
	if err == sql.ErrNoRows {
		return gnc.NotFoundError{Kind: "recurrence", Guid: objGuid}
	}
	if err != nil {
		return fmt.Errorf("failed to load recurrence of %s: %w", objGuid, err)
	}
	*mult = m
	*periodType = period.String
	*weekendAdjust = weekend.String
	if *start, err = parseNullableDate(startS); err != nil {
		return fmt.Errorf("recurrence of %s: %w", objGuid, err)
	}
	return nil
}

func parseNullableTimestamp(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timestampLayout, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s.String, err)
	}
	return t, nil
}

func parseNullableDate(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s.String, err)
	}
	return t, nil
}
