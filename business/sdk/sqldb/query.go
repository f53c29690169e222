package sqldb

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
)

const attrQuery = attribute.Key("db.statement")

// queryString provides a pretty print version of the query and parameters
// for logging purposes only.
func queryString(query string, args any) string {
	query, params, err := sqlx.Named(query, args)
	if err != nil {
		return err.Error()
	}

	for _, param := range params {
		var value string
		switch v := param.(type) {
		case string:
			value = fmt.Sprintf("'%s'", v)
		case []byte:
			value = fmt.Sprintf("'%s'", string(v))
		case time.Time:
			value = fmt.Sprintf("'%s'", v.Format(time.RFC3339))
		case driver.Valuer:
			val, err := v.Value()
			if err != nil {
				value = fmt.Sprintf("%v", v)
				break
			}
			value = fmt.Sprintf("'%v'", val)
		default:
			value = fmt.Sprintf("%v", v)
		}
		query = strings.Replace(query, "?", value, 1)
	}

	query = strings.ReplaceAll(query, "\t", "")
	query = strings.ReplaceAll(query, "\n", " ")

	return strings.Trim(query, " ")
}
