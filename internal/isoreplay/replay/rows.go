package replay

import (
	"fmt"
	"strings"
	"time"
)

// FormatRows renders each row as its values joined by a space, one row per
// line. No rows renders as the empty string.
func FormatRows(rows [][]interface{}) string {
	var b strings.Builder
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatValue(v))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}
