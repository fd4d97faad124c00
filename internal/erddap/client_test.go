package erddap

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/stickplot/internal/vectorfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const csvBody = `time,latitude,longitude,depth,sea_water_speed_1,sea_water_direction_1
UTC,degrees_north,degrees_east,m,cm s-1,degree
2024-04-08T00:00:00Z,27.2,-90.1,10.0,5.0,0.0
2024-04-08T00:00:00Z,27.2,-90.1,30.0,45.0,90.0
2024-04-08T01:00:00Z,27.2,-90.1,10.0,NaN,12.0
2024-04-08T01:00:00Z,27.2,-90.1,30.0,,
`

const jsonBody = `{
  "table": {
    "columnNames": ["time", "latitude", "longitude", "depth", "sea_water_speed_1", "sea_water_direction_1"],
    "columnTypes": ["String", "float", "float", "float", "float", "float"],
    "columnUnits": ["UTC", "degrees_north", "degrees_east", "m", "cm s-1", "degree"],
    "rows": [
      ["2024-04-08T00:00:00Z", 27.2, -90.1, 10.0, 5.0, 0.0],
      ["2024-04-08T01:00:00Z", 27.2, -90.1, 10.0, null, 180.0]
    ]
  }
}`

func testQuery(serverURL string) Query {
	return Query{
		ServerURL:  serverURL,
		DatasetID:  "wmo_42881_2024",
		Instrument: "1",
		Start:      time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 4, 9, 0, 0, 0, 0, time.UTC),
	}
}

func newTestClient() *Client {
	return NewClient(nil, zap.NewNop().Sugar())
}

func TestQueryURL(t *testing.T) {
	q := testQuery("https://erddap.gcoos.org/erddap/")
	q.ConstrainDepth = true
	q.DepthMin = 0
	q.DepthMax = 1170

	u := q.URL()
	assert.True(t, strings.HasPrefix(u, "https://erddap.gcoos.org/erddap/tabledap/wmo_42881_2024.csv?"), u)
	assert.Contains(t, u, "?time,latitude,longitude,depth,sea_water_speed_1,sea_water_direction_1&")
	assert.Contains(t, u, "&time%3E%3D2024-04-08T00%3A00%3A00Z")
	assert.Contains(t, u, "&time%3C%3D2024-04-09T00%3A00%3A00Z")
	assert.Contains(t, u, "&depth%3E%3D0")
	assert.Contains(t, u, "&depth%3C%3D1170")
}

func TestQueryVariableOverrides(t *testing.T) {
	q := testQuery("http://x")
	q.Format = FormatJSON
	q.SpeedVariable = "CS"
	q.DirectionVariable = "CD"

	assert.Equal(t, "CS", q.SpeedColumn())
	assert.Equal(t, "CD", q.DirectionColumn())
	assert.Contains(t, q.URL(), "/tabledap/wmo_42881_2024.json?time,latitude,longitude,depth,CS,CD")
}

func TestQueryValidate(t *testing.T) {
	q := testQuery("http://x")
	require.NoError(t, q.Validate())

	bad := q
	bad.DatasetID = ""
	assert.Error(t, bad.Validate())

	bad = q
	bad.Format = "nc"
	assert.Error(t, bad.Validate())

	bad = q
	bad.Start, bad.End = bad.End, bad.Start
	assert.Error(t, bad.Validate())

	bad = q
	bad.Instrument = ""
	assert.Error(t, bad.Validate())
}

func TestFetchCSV(t *testing.T) {
	var gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	resp, err := newTestClient().Fetch(context.Background(), testQuery(srv.URL))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotQuery, "time,latitude"), gotQuery)
	assert.True(t, strings.HasPrefix(gotAgent, "stickplot/"), gotAgent)
	assert.Equal(t, "cm s-1", resp.SpeedUnits)
	assert.Equal(t, "degree", resp.DirectionUnits)
	assert.Equal(t, "m", resp.DepthUnits)
	require.Len(t, resp.Samples, 4)

	first := resp.Samples[0]
	assert.Equal(t, time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC), first.Time.UTC())
	assert.Equal(t, 10.0, first.Depth)
	assert.Equal(t, 5.0, first.Speed)
	assert.Equal(t, "1", first.Instrument)

	assert.True(t, math.IsNaN(resp.Samples[2].Speed))
	assert.True(t, math.IsNaN(resp.Samples[3].Direction))
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ".json"))
		w.Write([]byte(jsonBody))
	}))
	defer srv.Close()

	q := testQuery(srv.URL)
	q.Format = FormatJSON
	resp, err := newTestClient().Fetch(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, resp.Samples, 2)
	assert.Equal(t, 5.0, resp.Samples[0].Speed)
	assert.True(t, math.IsNaN(resp.Samples[1].Speed))
	assert.Equal(t, 180.0, resp.Samples[1].Direction)
}

func TestFetchHTTPErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient().Fetch(context.Background(), testQuery(srv.URL))
	var terr *TransportError
	require.True(t, errors.As(err, &terr), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
	assert.Contains(t, terr.Body, "boom")
}

func TestFetchUnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	u := srv.URL
	srv.Close()

	_, err := newTestClient().Fetch(context.Background(), testQuery(u))
	var terr *TransportError
	assert.True(t, errors.As(err, &terr), "got %v", err)
}

func TestFetchNoMatchingResultsIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Error {\n    code=404;\n    message=\"Not Found: Your query produced no matching results. (nRows = 0)\";\n}\n"))
	}))
	defer srv.Close()

	_, err := newTestClient().Fetch(context.Background(), testQuery(srv.URL))
	assert.True(t, errors.Is(err, vectorfield.ErrNoData), "got %v", err)
}

func TestFetchFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing speed column", body: "time,latitude,longitude,depth,sea_water_direction_1\nUTC,a,b,m,degree\n"},
		{name: "bad time", body: "time,depth,sea_water_speed_1,sea_water_direction_1\nUTC,m,cm s-1,degree\nyesterday,10,1,1\n"},
		{name: "bad number", body: "time,depth,sea_water_speed_1,sea_water_direction_1\nUTC,m,cm s-1,degree\n2024-04-08T00:00:00Z,ten,1,1\n"},
		{name: "only header", body: "time,depth\n"},
		{name: "ragged row", body: "time,depth,sea_water_speed_1,sea_water_direction_1\nUTC,m,cm s-1,degree\n2024-04-08T00:00:00Z,10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient().Fetch(context.Background(), testQuery(srv.URL))
			var ferr *FormatError
			assert.True(t, errors.As(err, &ferr), "got %v", err)
		})
	}
}

func TestFetchRejectsOutOfDomainValues(t *testing.T) {
	body := "time,depth,sea_water_speed_1,sea_water_direction_1\nUTC,m,cm s-1,degree\n2024-04-08T00:00:00Z,10,-3,10\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := newTestClient().Fetch(context.Background(), testQuery(srv.URL))
	var cerr *vectorfield.ComputationError
	assert.True(t, errors.As(err, &cerr), "got %v", err)
}

func TestSpeedFactor(t *testing.T) {
	tests := []struct {
		units string
		want  float64
	}{
		{"cm s-1", 100},
		{"cm/s", 100},
		{"m s-1", 1},
		{"M/S", 1},
		{"mm s-1", 1000},
		{"knots", 1.943844},
	}
	for _, tt := range tests {
		got, err := SpeedFactor(tt.units)
		require.NoError(t, err, tt.units)
		assert.InDelta(t, tt.want, got, 1e-9, tt.units)
	}

	_, err := SpeedFactor("furlongs per fortnight")
	assert.Error(t, err)
}
