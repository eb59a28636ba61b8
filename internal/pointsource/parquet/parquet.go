package parquet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"geolabel/internal/domain"
	"geolabel/internal/pointsource"
)

// batchSize is how many rows are decoded per read.
const batchSize = 1024

// Source reads points from a Parquet file. Nested columns are addressed by
// their dotted path; the token column may be optional (null means no token).
type Source struct {
	path    string
	columns pointsource.Columns
}

// NewSource creates a Parquet point source for path.
func NewSource(path string, columns pointsource.Columns) *Source {
	return &Source{path: path, columns: columns}
}

// Load reads every row group in file order.
func (s *Source) Load(ctx context.Context) (domain.PointSet, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInput, err)
		}
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Read(ctx, f, info.Size(), s.columns)
}

// Read decodes the points of a Parquet file of the given size.
func Read(ctx context.Context, r io.ReaderAt, size int64, columns pointsource.Columns) (domain.PointSet, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: open parquet: %v", domain.ErrInput, err)
	}

	paths := pf.Schema().Columns()
	header := make([]string, len(paths))
	for i, p := range paths {
		header[i] = strings.Join(p, ".")
	}
	layout, err := columns.Resolve(header)
	if err != nil {
		return nil, err
	}

	var points domain.PointSet
	row := 0
	for _, rg := range pf.RowGroups() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		points, row, err = readGroup(rg, layout, columns, points, row)
		if err != nil {
			return nil, err
		}
	}
	return points, nil
}

func readGroup(rg parquet.RowGroup, layout pointsource.Layout, columns pointsource.Columns, points domain.PointSet, row int) (domain.PointSet, int, error) {
	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, batchSize)
	for {
		n, err := rows.ReadRows(buf)
		for _, r := range buf[:n] {
			row++
			p, perr := toPoint(r, layout, columns, row)
			if perr != nil {
				return nil, row, perr
			}
			points = append(points, p)
		}
		if errors.Is(err, io.EOF) {
			return points, row, nil
		}
		if err != nil {
			return nil, row, fmt.Errorf("%w: read parquet rows: %v", domain.ErrInput, err)
		}
	}
}

func toPoint(r parquet.Row, layout pointsource.Layout, columns pointsource.Columns, row int) (domain.Point, error) {
	var x, y, tok parquet.Value
	var haveX, haveY bool
	for _, v := range r {
		switch v.Column() {
		case layout.X:
			if !haveX {
				x, haveX = v, true
			}
		case layout.Y:
			if !haveY {
				y, haveY = v, true
			}
		case layout.Token:
			if tok.IsNull() {
				tok = v
			}
		}
	}

	var p domain.Point
	var err error
	if p.X, err = toFloat(x, haveX, row, columns.X); err != nil {
		return p, err
	}
	if p.Y, err = toFloat(y, haveY, row, columns.Y); err != nil {
		return p, err
	}
	if layout.Token >= 0 {
		p.Token = toString(tok)
	}
	return p, nil
}

func toFloat(v parquet.Value, ok bool, row int, col string) (float64, error) {
	if !ok || v.IsNull() {
		return 0, fmt.Errorf("%w: row %d column %s is null", domain.ErrInput, row, col)
	}
	switch v.Kind() {
	case parquet.Double:
		return v.Double(), nil
	case parquet.Float:
		return float64(v.Float()), nil
	case parquet.Int32:
		return float64(v.Int32()), nil
	case parquet.Int64:
		return float64(v.Int64()), nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return pointsource.ParseFloat(string(v.ByteArray()), row, col)
	default:
		return 0, fmt.Errorf("%w: row %d column %s has kind %s", domain.ErrInput, row, col, v.Kind())
	}
}

func toString(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	default:
		return v.String()
	}
}
