package pointsource

import (
	"fmt"
	"strconv"
	"strings"

	"geolabel/internal/domain"
)

// Columns names the input columns. Token is optional in the data.
type Columns struct {
	X     string
	Y     string
	Token string
}

// DefaultColumns returns x, y and token.
func DefaultColumns() Columns {
	return Columns{X: "x", Y: "y", Token: "token"}
}

// Layout is the position of each configured column in a header; Token is -1 when absent.
type Layout struct {
	X, Y, Token int
}

// Resolve finds the configured columns in header. Missing x or y is an input error.
func (c Columns) Resolve(header []string) (Layout, error) {
	l := Layout{X: -1, Y: -1, Token: -1}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case h == c.X:
			l.X = i
		case h == c.Y:
			l.Y = i
		case c.Token != "" && h == c.Token:
			l.Token = i
		}
	}
	var missing []string
	if l.X < 0 {
		missing = append(missing, c.X)
	}
	if l.Y < 0 {
		missing = append(missing, c.Y)
	}
	if len(missing) > 0 {
		return l, fmt.Errorf("%w: missing column(s) %s", domain.ErrInput, strings.Join(missing, ", "))
	}
	return l, nil
}

// ParseFloat parses a coordinate cell, reporting the row and column on failure.
func ParseFloat(s string, row int, col string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d column %s: %v", domain.ErrInput, row, col, err)
	}
	return v, nil
}
