// Package table reads delimited text into columns for the data node kinds.
//
// Plain CSV/TSV with one header row is accepted, as is the three-row header
// of tab-separated data files: names, then types (continuous / discrete /
// string), then flags (class / meta). Cells that are empty or "?" are
// missing; in numeric columns they read as NaN.
package table

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrEmpty is returned for input without a header row.
	ErrEmpty = zerr.New("no data")
	// ErrFormat is returned for rows that cannot be parsed.
	ErrFormat = zerr.New("malformed table")
	// ErrFetch is returned when the source cannot be read.
	ErrFetch = zerr.New("cannot fetch data")
)

// Role tells how a column takes part in analysis.
type Role int

const (
	RoleAttribute Role = iota
	RoleClass
	RoleMeta
)

// Column is one named column. Exactly one of Numbers and Strings is set.
type Column struct {
	Name    string
	Role    Role
	Numeric bool
	Numbers []float64
	Strings []string
}

// Table is a parsed data table.
type Table struct {
	Columns []Column
	Rows    int
}

// Attributes returns the columns with RoleAttribute.
func (t *Table) Attributes() []Column {
	var out []Column
	for _, c := range t.Columns {
		if c.Role == RoleAttribute {
			out = append(out, c)
		}
	}
	return out
}

// Names returns every column name in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the column called name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Numeric returns the names of numeric attribute columns.
func (t *Table) Numeric() []string {
	var out []string
	for _, c := range t.Attributes() {
		if c.Numeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// Pairs returns the rows where both x and y are present.
func Pairs(x, y *Column) (xs, ys []float64) {
	xs, ys = []float64{}, []float64{}
	for i := range x.Numbers {
		if i >= len(y.Numbers) {
			break
		}
		if math.IsNaN(x.Numbers[i]) || math.IsNaN(y.Numbers[i]) {
			continue
		}
		xs = append(xs, x.Numbers[i])
		ys = append(ys, y.Numbers[i])
	}
	return xs, ys
}

// Parse reads a table separated by comma.
func Parse(r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrFormat, "read records"), "reason", err.Error())
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmpty
	}

	names := records[0]
	rows := records[1:]
	var types, flags []string
	if len(rows) >= 2 && isTypeRow(rows[0]) {
		types, flags = rows[0], rows[1]
		rows = rows[2:]
	}

	t := &Table{Rows: len(rows), Columns: make([]Column, len(names))}
	for i, name := range names {
		col := Column{Name: strings.TrimSpace(name), Role: roleOf(cell(flags, i))}
		cells := make([]string, len(rows))
		for r, row := range rows {
			cells[r] = cell(row, i)
		}
		typ := cell(types, i)
		if typ == "" || isNumericType(typ) {
			if nums, ok := numbers(cells); ok {
				col.Numeric, col.Numbers = true, nums
			}
		}
		if !col.Numeric {
			col.Strings = cells
		}
		t.Columns[i] = col
	}
	return t, nil
}

// Load reads a table from an http(s) URL or a local path. The separator is
// a tab for .tab and .tsv sources and a comma otherwise.
func Load(ctx context.Context, client *http.Client, source string) (*Table, error) {
	rc, err := open(ctx, client, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := Parse(rc, separator(source))
	if err != nil {
		return nil, zerr.With(err, "source", source)
	}
	return t, nil
}

func open(ctx context.Context, client *http.Client, source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		f, err := os.Open(source)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(ErrFetch, err.Error()), "source", source)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrFetch, err.Error()), "source", source)
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, zerr.With(zerr.Wrap(ErrFetch, err.Error()), "source", source)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, zerr.With(zerr.With(zerr.Wrap(ErrFetch, "unexpected status"), "source", source), "status", resp.Status)
	}
	return resp.Body, nil
}

func separator(source string) rune {
	p := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".tab", ".tsv":
		return '\t'
	}
	return ','
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func missing(s string) bool {
	return s == "" || s == "?"
}

func numbers(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	seen := false
	for i, c := range cells {
		if missing(c) {
			out[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
		seen = true
	}
	return out, seen
}

var typeNames = map[string]bool{
	"c": true, "continuous": true, "d": true, "discrete": true,
	"s": true, "string": true, "t": true, "time": true,
}

func isTypeRow(row []string) bool {
	seen := false
	for _, c := range row {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !typeNames[c] {
			return false
		}
		seen = true
	}
	return seen
}

func isNumericType(t string) bool {
	switch strings.ToLower(t) {
	case "c", "continuous", "t", "time":
		return true
	}
	return false
}

func roleOf(flag string) Role {
	switch strings.ToLower(flag) {
	case "class":
		return RoleClass
	case "m", "meta":
		return RoleMeta
	}
	return RoleAttribute
}
