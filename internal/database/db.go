// Package database owns the MySQL connection and the schema for the tables
// this service controls (roles, users, activation keys).
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Open builds the DSN through the driver's own config type, connects and
// verifies the connection.  parseTime maps DATETIME columns onto time.Time
// and the UTC location keeps last_login/expires_at comparisons sane across
// hosts.  Pool sizing comes from configuration so a small deployment is not
// stuck with hardcoded limits.
func Open(user, pass, host, port, name string, maxConns int, connLifetime time.Duration) (*sql.DB, error) {
	dsn := mysql.NewConfig()
	dsn.User = user
	dsn.Passwd = pass
	dsn.Net = "tcp"
	dsn.Addr = host + ":" + port
	dsn.DBName = name
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(connLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
