package migrations

import (
	"fmt"
	"slices"
	"strings"
)

// Tables owned by each store. Migrations may only create these tables and
// indexes on them.
var (
	clickhouseTables = []string{"holder_snapshots"}
	postgresTables   = []string{"trade_journal"}
)

// parseMigration splits a migration file into statements and checks that each
// one is an idempotent CREATE TABLE or CREATE INDEX on one of tables.
func parseMigration(sql string, tables []string) ([]string, error) {
	stmts, err := splitStatements(sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, fmt.Errorf("no statements")
	}
	for i, stmt := range stmts {
		table, err := createTarget(stmt)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
		if !slices.Contains(tables, table) {
			return nil, fmt.Errorf("statement %d: table %q is not one of %s", i+1, table, strings.Join(tables, ", "))
		}
	}
	return stmts, nil
}

// splitStatements splits on semicolons outside single-quoted literals and
// drops -- comments. An unterminated literal is an error.
func splitStatements(sql string) ([]string, error) {
	var (
		stmts   []string
		cur     strings.Builder
		inQuote bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		cur.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case inQuote:
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(sql) && sql[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
				} else {
					inQuote = false
				}
			}
		case ch == '\'':
			inQuote = true
			cur.WriteByte(ch)
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated string literal")
	}
	flush()
	return stmts, nil
}

// createTarget returns the table a CREATE TABLE or CREATE INDEX statement
// targets. IF NOT EXISTS is required.
func createTarget(stmt string) (string, error) {
	fields := strings.Fields(strings.NewReplacer("(", " ( ", ")", " ) ").Replace(stmt))
	upper := func(i int) string {
		if i < len(fields) {
			return strings.ToUpper(fields[i])
		}
		return ""
	}
	ifNotExists := func(at int) bool {
		return upper(at) == "IF" && upper(at+1) == "NOT" && upper(at+2) == "EXISTS"
	}

	if upper(0) != "CREATE" {
		return "", fmt.Errorf("only CREATE statements are allowed, got %q", firstWords(fields))
	}
	switch upper(1) {
	case "TABLE":
		if !ifNotExists(2) || len(fields) < 6 {
			return "", fmt.Errorf("CREATE TABLE must use IF NOT EXISTS")
		}
		return fields[5], nil
	case "INDEX":
		if !ifNotExists(2) || upper(6) != "ON" || len(fields) < 8 {
			return "", fmt.Errorf("CREATE INDEX must use IF NOT EXISTS ... ON")
		}
		return fields[7], nil
	default:
		return "", fmt.Errorf("unsupported statement %q", firstWords(fields))
	}
}

func firstWords(fields []string) string {
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}
