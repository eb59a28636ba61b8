package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"geolabel/internal/domain"
	"geolabel/internal/pointsource"
)

// Source reads points from one table of a SQLite database.
type Source struct {
	db      *sqlx.DB
	table   string
	columns pointsource.Columns
}

// Open connects to the database at dsn.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %v", domain.ErrInput, dsn, err)
	}
	return db, nil
}

// NewSource creates a point source over table.
func NewSource(db *sqlx.DB, table string, columns pointsource.Columns) *Source {
	return &Source{db: db, table: table, columns: columns}
}

// Load reads every row of the table in rowid order.
func (s *Source) Load(ctx context.Context) (domain.PointSet, error) {
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(s.table)))
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", domain.ErrInput, s.table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	layout, err := s.columns.Resolve(header)
	if err != nil {
		return nil, err
	}

	var points domain.PointSet
	for row := 1; rows.Next(); row++ {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		var p domain.Point
		if p.X, err = toFloat(vals[layout.X], row, s.columns.X); err != nil {
			return nil, err
		}
		if p.Y, err = toFloat(vals[layout.Y], row, s.columns.Y); err != nil {
			return nil, err
		}
		if layout.Token >= 0 {
			p.Token = toString(vals[layout.Token])
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

func toFloat(v any, row int, col string) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case string:
		return pointsource.ParseFloat(t, row, col)
	case []byte:
		return pointsource.ParseFloat(string(t), row, col)
	case nil:
		return 0, fmt.Errorf("%w: row %d column %s is NULL", domain.ErrInput, row, col)
	default:
		return 0, fmt.Errorf("%w: row %d column %s has type %T", domain.ErrInput, row, col, v)
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
