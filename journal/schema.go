package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	market TEXT NOT NULL,
	action TEXT NOT NULL CHECK (action IN ('buy', 'sell')),
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	trade_date DATETIME NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	return_rate REAL
);

CREATE INDEX IF NOT EXISTS idx_trades_trade_date ON trades(trade_date);
`
