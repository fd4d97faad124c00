// Package erddap fetches current observations from an ERDDAP tabledap server and decodes
// them into vectorfield samples.
package erddap

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Response formats understood by the decoders.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

const isoLayout = "2006-01-02T15:04:05Z"

// Query describes one tabledap request for a single instrument.
type Query struct {
	ServerURL  string
	DatasetID  string
	Instrument string
	Start      time.Time
	End        time.Time
	// DepthMin and DepthMax are sent as server-side constraints when ConstrainDepth is set.
	DepthMin       float64
	DepthMax       float64
	ConstrainDepth bool
	// Format is the response file type, csv or json. Empty means csv.
	Format            string
	SpeedVariable     string
	DirectionVariable string
	Timeout           time.Duration
}

// SpeedColumn returns the speed variable name, sea_water_speed_<instrument> unless overridden.
func (q Query) SpeedColumn() string {
	if q.SpeedVariable != "" {
		return q.SpeedVariable
	}
	return "sea_water_speed_" + q.Instrument
}

// DirectionColumn returns the direction variable name, sea_water_direction_<instrument> unless overridden.
func (q Query) DirectionColumn() string {
	if q.DirectionVariable != "" {
		return q.DirectionVariable
	}
	return "sea_water_direction_" + q.Instrument
}

func (q Query) format() string {
	if q.Format == "" {
		return FormatCSV
	}
	return q.Format
}

// Validate checks the fields needed to build a URL.
func (q Query) Validate() error {
	if q.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if _, err := url.Parse(q.ServerURL); err != nil {
		return fmt.Errorf("invalid server_url %q: %w", q.ServerURL, err)
	}
	if q.DatasetID == "" {
		return fmt.Errorf("dataset_id is required")
	}
	if q.Instrument == "" && (q.SpeedVariable == "" || q.DirectionVariable == "") {
		return fmt.Errorf("instrument is required unless both speed_variable and direction_variable are set")
	}
	switch q.format() {
	case FormatCSV, FormatJSON:
	default:
		return fmt.Errorf("unsupported response format %q (use csv or json)", q.Format)
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.Start.After(q.End) {
		return fmt.Errorf("start_date %s is after end_date %s", q.Start.Format(isoLayout), q.End.Format(isoLayout))
	}
	return nil
}

// URL builds the tabledap request URL. Constraints are percent-encoded as ERDDAP expects.
func (q Query) URL() string {
	variables := []string{"time", "latitude", "longitude", "depth", q.SpeedColumn(), q.DirectionColumn()}

	var constraints []string
	if !q.Start.IsZero() {
		constraints = append(constraints, "time>="+q.Start.UTC().Format(isoLayout))
	}
	if !q.End.IsZero() {
		constraints = append(constraints, "time<="+q.End.UTC().Format(isoLayout))
	}
	if q.ConstrainDepth {
		constraints = append(constraints,
			"depth>="+strconv.FormatFloat(q.DepthMin, 'f', -1, 64),
			"depth<="+strconv.FormatFloat(q.DepthMax, 'f', -1, 64),
		)
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(q.ServerURL, "/"))
	b.WriteString("/tabledap/")
	b.WriteString(url.PathEscape(q.DatasetID))
	b.WriteString(".")
	b.WriteString(q.format())
	b.WriteString("?")
	b.WriteString(strings.Join(variables, ","))
	for _, c := range constraints {
		b.WriteString("&")
		b.WriteString(url.QueryEscape(c))
	}
	return b.String()
}
