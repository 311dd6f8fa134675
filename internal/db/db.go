package db

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/curaious/sandpilot/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// NewConn opens the run-record database. Startup fails hard when the
// database is unreachable since every caller needs it immediately.
func NewConn(conf *config.Config) *sqlx.DB {
	str := fmt.Sprintf("postgresql://%v:%v@%v:%v/%v", conf.DB_USERNAME, conf.DB_PASSWORD, conf.DB_HOST, conf.DB_PORT, conf.DB_NAME)
	if conf.DISABLE_TLS == "true" {
		str = str + "?sslmode=disable"
	}

	slog.Info("Connecting to database")

	conn, err := sqlx.Open("postgres", str)
	if err != nil {
		log.Fatal(err)
	}

	if err := conn.Ping(); err != nil {
		log.Fatalln("Unable to connect to database", err.Error())
	}

	slog.Info("Connected to database")

	return conn
}
