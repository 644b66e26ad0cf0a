package store

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/teamdir/internal/roster"
)

// DriverName is the database/sql driver registered by this package. It is
// the mattn SQLite driver with teamdir's collation and functions installed
// on every connection.
const DriverName = "sqlite3_teamdir"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterCollation("LOCALE", roster.Compare); err != nil {
				return err
			}
			return conn.RegisterFunc("fold", roster.Fold, true)
		},
	})
}
