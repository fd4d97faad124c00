package erddap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chrissnell/stickplot/internal/constants"
	"github.com/chrissnell/stickplot/internal/vectorfield"
	"go.uber.org/zap"
)

// ERDDAP answers an empty selection with a 404 carrying this message.
const noMatchingResults = "Your query produced no matching results"

const defaultTimeout = 60 * time.Second

// Response is a decoded tabledap response.
type Response struct {
	URL            string
	Samples        []vectorfield.Sample
	SpeedUnits     string
	DirectionUnits string
	DepthUnits     string
}

// Client fetches tabledap queries over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewClient creates a client. A nil httpClient gets a default with a 60s timeout.
func NewClient(httpClient *http.Client, logger *zap.SugaredLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Fetch runs q and decodes the response. Failures are returned as *TransportError or
// *FormatError; a selection with no rows returns vectorfield.ErrNoData.
func (c *Client) Fetch(ctx context.Context, q Query) (*Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if q.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.Timeout)
		defer cancel()
	}

	u := q.URL()
	c.logger.Debugf("fetching %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		body := strings.TrimSpace(string(excerpt))
		if resp.StatusCode == http.StatusNotFound && strings.Contains(body, noMatchingResults) {
			c.logger.Debugf("server reported no matching results for %s", u)
			return nil, fmt.Errorf("%s: %w", u, vectorfield.ErrNoData)
		}
		return nil, &TransportError{URL: u, StatusCode: resp.StatusCode, Body: body}
	}

	var t *table
	switch q.format() {
	case FormatJSON:
		t, err = readJSON(resp.Body)
	default:
		t, err = readCSV(resp.Body)
	}
	if err != nil {
		// A body cut short by the deadline is a transport failure, not a bad payload.
		if ctx.Err() != nil {
			return nil, &TransportError{URL: u, Err: err}
		}
		return nil, &FormatError{URL: u, Reason: "unreadable " + q.format() + " payload", Err: err}
	}

	decoded, err := t.samples(q)
	if err != nil {
		var cerr *vectorfield.ComputationError
		if errors.As(err, &cerr) {
			return nil, fmt.Errorf("%s: %w", u, err)
		}
		return nil, &FormatError{URL: u, Reason: "unexpected table contents", Err: err}
	}
	decoded.URL = u

	c.logger.Debugf("fetched %d rows from %s in %v", len(decoded.Samples), q.DatasetID, time.Since(start))
	return decoded, nil
}
