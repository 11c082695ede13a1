package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// Transaction isolation levels
const (
	// LevelDefault uses the database's default isolation level
	LevelDefault = sql.LevelDefault

	// LevelReadUncommitted provides no guarantees about isolation
	LevelReadUncommitted = sql.LevelReadUncommitted

	// LevelReadCommitted prevents dirty reads
	LevelReadCommitted = sql.LevelReadCommitted

	// LevelRepeatableRead prevents dirty reads and non-repeatable reads
	LevelRepeatableRead = sql.LevelRepeatableRead

	// LevelSnapshot provides snapshot isolation
	LevelSnapshot = sql.LevelSnapshot

	// LevelSerializable provides the highest isolation; prevents all anomalies
	LevelSerializable = sql.LevelSerializable
)

// ParseIsolationLevel accepts names such as "READ COMMITTED", "read_committed"
// or "repeatable-read". The empty string maps to LevelDefault.
func ParseIsolationLevel(name string) (sql.IsolationLevel, error) {
	norm := strings.ToUpper(strings.TrimSpace(name))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)

	switch norm {
	case "", "DEFAULT":
		return LevelDefault, nil
	case "READ UNCOMMITTED":
		return LevelReadUncommitted, nil
	case "READ COMMITTED":
		return LevelReadCommitted, nil
	case "REPEATABLE READ":
		return LevelRepeatableRead, nil
	case "SNAPSHOT":
		return LevelSnapshot, nil
	case "SERIALIZABLE":
		return LevelSerializable, nil
	}

	return LevelDefault, fmt.Errorf("unknown isolation level %q", name)
}

// IsolationSQL returns the SQL spelling of a level, as used in SET statements.
// LevelDefault and levels without a standard spelling return "".
func IsolationSQL(level sql.IsolationLevel) string {
	switch level {
	case LevelReadUncommitted:
		return "READ UNCOMMITTED"
	case LevelReadCommitted:
		return "READ COMMITTED"
	case LevelRepeatableRead:
		return "REPEATABLE READ"
	case LevelSerializable:
		return "SERIALIZABLE"
	}
	return ""
}
