package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
)

// Supported database/sql driver names
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite3"
)

// Params describes how to reach the database under test
type Params struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	// DSN, when set, is used verbatim
	DSN string
}

// Dialect returns the SQL dialect spoken through the driver
func (p Params) Dialect() string {
	if p.Driver == DriverPgx {
		return DriverPostgres
	}
	return p.Driver
}

// ConnString builds the driver-specific data source name
func (p Params) ConnString() (string, error) {
	if p.DSN != "" {
		return p.DSN, nil
	}

	switch p.Driver {
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			p.Host,
			p.Port,
			p.User,
			p.Password,
			p.Name,
			p.SSLMode,
		), nil
	case DriverPgx:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(p.User, p.Password),
			Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
			Path:   "/" + p.Name,
		}
		if p.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": []string{p.SSLMode}}.Encode()
		}
		return u.String(), nil
	case DriverMySQL:
		cfg := mysql.NewConfig()
		cfg.User = p.User
		cfg.Passwd = p.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
		cfg.DBName = p.Name
		cfg.MultiStatements = true
		return cfg.FormatDSN(), nil
	case DriverSQLite:
		if p.Name == "" {
			return "", fmt.Errorf("sqlite3 requires a database name")
		}
		return p.Name, nil
	}

	return "", fmt.Errorf("unsupported driver %q", p.Driver)
}
