package erddap

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/stickplot/internal/vectorfield"
)

// table is the format-independent shape of a tabledap response.
type table struct {
	names []string
	units []string
	rows  [][]string
}

func (t *table) column(name string) (int, error) {
	for i, n := range t.names {
		if n == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not present in response (have %s)", name, strings.Join(t.names, ", "))
}

func (t *table) unit(col int) string {
	if col < 0 || col >= len(t.units) {
		return ""
	}
	return t.units[col]
}

// readCSV parses an ERDDAP .csv response: a header row, a units row, then data rows.
func readCSV(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.New("response has no header and units rows")
	}

	t := &table{
		names: records[0],
		units: records[1],
		rows:  records[2:],
	}
	for i, row := range t.rows {
		if len(row) != len(t.names) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(t.names))
		}
	}
	return t, nil
}

type jsonTable struct {
	Table struct {
		ColumnNames []string `json:"columnNames"`
		ColumnTypes []string `json:"columnTypes"`
		ColumnUnits []string `json:"columnUnits"`
		Rows        [][]any  `json:"rows"`
	} `json:"table"`
}

// readJSON parses an ERDDAP .json table response. Missing cells are null.
func readJSON(r io.Reader) (*table, error) {
	var jt jsonTable
	if err := json.NewDecoder(r).Decode(&jt); err != nil {
		return nil, err
	}
	if len(jt.Table.ColumnNames) == 0 {
		return nil, errors.New("response has no columnNames")
	}

	t := &table{
		names: jt.Table.ColumnNames,
		units: jt.Table.ColumnUnits,
		rows:  make([][]string, len(jt.Table.Rows)),
	}
	for i, row := range jt.Table.Rows {
		if len(row) != len(t.names) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(t.names))
		}
		cells := make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case nil:
				cells[j] = ""
			case string:
				cells[j] = v
			case float64:
				cells[j] = strconv.FormatFloat(v, 'g', -1, 64)
			default:
				return nil, fmt.Errorf("row %d column %q has unexpected value %v", i+1, t.names[j], v)
			}
		}
		t.rows[i] = cells
	}
	return t, nil
}

// parseFloat treats empty cells and NaN as missing.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// samples converts the table into Samples for the query's speed and direction columns.
func (t *table) samples(q Query) (*Response, error) {
	timeCol, err := t.column("time")
	if err != nil {
		return nil, err
	}
	depthCol, err := t.column("depth")
	if err != nil {
		return nil, err
	}
	speedCol, err := t.column(q.SpeedColumn())
	if err != nil {
		return nil, err
	}
	dirCol, err := t.column(q.DirectionColumn())
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Samples:        make([]vectorfield.Sample, 0, len(t.rows)),
		SpeedUnits:     t.unit(speedCol),
		DirectionUnits: t.unit(dirCol),
		DepthUnits:     t.unit(depthCol),
	}

	for i, row := range t.rows {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(row[timeCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad time %q: %w", i+1, row[timeCol], err)
		}
		depth, err := parseFloat(row[depthCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad depth %q: %w", i+1, row[depthCol], err)
		}
		speed, err := parseFloat(row[speedCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad speed %q: %w", i+1, row[speedCol], err)
		}
		dir, err := parseFloat(row[dirCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad direction %q: %w", i+1, row[dirCol], err)
		}

		s, err := vectorfield.NewSample(ts, depth, speed, dir, q.Instrument)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		resp.Samples = append(resp.Samples, s)
	}

	return resp, nil
}
