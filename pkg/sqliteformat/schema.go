package sqliteformat

// Schema defines the SQL statements to create the GnuCash tables. It mirrors
// the schema GnuCash itself produces, trimmed to the tables this package
// reads and writes.
const Schema = `
CREATE TABLE IF NOT EXISTS books (
    guid TEXT(32) PRIMARY KEY NOT NULL,
    root_account_guid TEXT(32),
    root_template_guid TEXT(32)
);

CREATE TABLE IF NOT EXISTS commodities (
    guid TEXT(32) PRIMARY KEY NOT NULL,
    namespace TEXT(2048) NOT NULL,
    mnemonic TEXT(2048) NOT NULL,
    fullname TEXT(2048),
    cusip TEXT(2048),
    fraction INTEGER NOT NULL DEFAULT 100,
    quote_flag INTEGER NOT NULL DEFAULT 0,
    quote_source TEXT(2048),
    quote_tz TEXT(2048)
);

CREATE TABLE IF NOT EXISTS accounts (
    guid TEXT(32) PRIMARY KEY NOT NULL,
    name TEXT(2048) NOT NULL,
    account_type TEXT(2048) NOT NULL,
    commodity_guid TEXT(32),
    commodity_scu INTEGER NOT NULL DEFAULT 0,
    non_std_scu INTEGER NOT NULL DEFAULT 0,
    parent_guid TEXT(32),
    code TEXT(2048),
    description TEXT(2048),
    hidden INTEGER,
    placeholder INTEGER
);

CREATE TABLE IF NOT EXISTS transactions (
    guid TEXT(32) PRIMARY KEY NOT NULL,
    currency_guid TEXT(32),
    num TEXT(2048) NOT NULL DEFAULT '',
    post_date TEXT(19),
    enter_date TEXT(19),
    description TEXT(2048)
);

CREATE TABLE IF NOT EXISTS splits (
    guid TEXT(32) PRIMARY KEY NOT NULL,
    tx_guid TEXT(32) NOT NULL,
    account_guid TEXT(32) NOT NULL,
    memo TEXT(2048) NOT NULL DEFAULT '',
    action TEXT(2048) NOT NULL DEFAULT '',
    reconcile_state TEXT(1) NOT NULL DEFAULT 'n',
    reconcile_date TEXT(19),
    value_num BIGINT NOT NULL DEFAULT 0,
    value_denom BIGINT NOT NULL DEFAULT 1,
    quantity_num BIGINT NOT NULL DEFAULT 0,
    quantity_denom BIGINT NOT NULL DEFAULT 1,
    lot_guid TEXT(32)
);

CREATE INDEX IF NOT EXISTS splits_tx_guid_index ON splits(tx_guid);
CREATE INDEX IF NOT EXISTS splits_account_guid_index ON splits(account_guid);

CREATE TABLE IF NOT EXISTS slots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    obj_guid TEXT(32) NOT NULL,
    name TEXT(4096) NOT NULL,
    slot_type INTEGER NOT NULL,
    int64_val BIGINT,
    string_val TEXT(4096),
    double_val REAL,
    timespec_val TEXT(19),
    guid_val TEXT(32),
    numeric_val_num BIGINT,
    numeric_val_denom BIGINT,
    gdate_val TEXT(8)
);

CREATE INDEX IF NOT EXISTS slots_guid_index ON slots(obj_guid);

CREATE TABLE IF NOT EXISTS schedxactions (
    guid TEXT(32) PRIMARY KEY NOT NULL,
    name TEXT(2048),
    enabled INTEGER NOT NULL DEFAULT 0,
    start_date TEXT(8),
    end_date TEXT(8),
    last_occur TEXT(8),
    num_occur INTEGER NOT NULL DEFAULT 0,
    rem_occur INTEGER NOT NULL DEFAULT 0,
    auto_create INTEGER NOT NULL DEFAULT 0,
    auto_notify INTEGER NOT NULL DEFAULT 0,
    adv_creation INTEGER NOT NULL DEFAULT 0,
    adv_notify INTEGER NOT NULL DEFAULT 0,
    instance_count INTEGER NOT NULL DEFAULT 0,
    template_act_guid TEXT(32)
);

CREATE TABLE IF NOT EXISTS recurrences (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    obj_guid TEXT(32) NOT NULL,
    recurrence_mult INTEGER NOT NULL DEFAULT 1,
    recurrence_period_type TEXT(2048),
    recurrence_period_start TEXT(8),
    recurrence_weekend_adjust TEXT(2048) NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS recurrences_obj_guid_index ON recurrences(obj_guid);

CREATE TABLE IF NOT EXISTS budgets (
    guid TEXT(32) PRIMARY KEY NOT NULL,
    name TEXT(2048) NOT NULL,
    description TEXT(2048),
    num_periods INTEGER NOT NULL DEFAULT 0
);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
