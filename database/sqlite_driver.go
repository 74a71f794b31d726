package database

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// sqliteDriverName is go-sqlite3 with the extra SQL functions below attached
// to every connection.
const sqliteDriverName = "sqlite3_stockadoodle"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// SQLite's LOWER folds ASCII only.
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}
