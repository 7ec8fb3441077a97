package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/covergrid/pulse/internal/core"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// validRange matches a sheet title with an optional A1 reference,
// like "Articles" or "Articles!A2:H100".
var validRange = regexp.MustCompile(`^[A-Za-z0-9 _-]+(![A-Za-z]{1,3}[0-9]*(:[A-Za-z]{1,3}[0-9]*)?)?$`)

// validateRange checks a range name before it goes on the wire.
func validateRange(name string) error {
	if name == "" {
		return core.WrapError(core.ErrRangeInvalid, fmt.Errorf("range cannot be empty"))
	}
	if len(name) > 100 {
		return core.WrapError(core.ErrRangeInvalid, fmt.Errorf("range too long: %s", name))
	}
	if !validRange.MatchString(name) {
		return core.WrapError(core.ErrRangeInvalid, fmt.Errorf("invalid range format: %s", name))
	}
	return nil
}

// Config holds spreadsheet connection settings.
type Config struct {
	SpreadsheetID string
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
}

// Client fetches named ranges from the spreadsheet values API.
type Client struct {
	client *http.Client
	cfg    Config
}

// NewClient creates a sheets client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		client: &http.Client{Timeout: timeout},
		cfg:    cfg,
	}
}

// Values fetches a single named range and returns its cells as strings.
func (c *Client) Values(ctx context.Context, rangeName string) ([][]string, error) {
	if err := validateRange(rangeName); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s/values/%s?key=%s",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.SpreadsheetID),
		url.PathEscape(rangeName),
		url.QueryEscape(c.cfg.APIKey))

	var result valueRange
	if err := c.getJSON(ctx, u, rangeName, &result); err != nil {
		return nil, err
	}
	return toStrings(result.Values), nil
}

// BatchValues fetches several ranges in one upstream call. The result
// is keyed by the requested range names, in request order.
func (c *Client) BatchValues(ctx context.Context, rangeNames []string) (map[string][][]string, error) {
	if len(rangeNames) == 0 {
		return map[string][][]string{}, nil
	}
	for _, name := range rangeNames {
		if err := validateRange(name); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	for _, name := range rangeNames {
		q.Add("ranges", name)
	}
	u := fmt.Sprintf("%s/%s/values:batchGet?%s",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.SpreadsheetID),
		q.Encode())

	var result batchResponse
	if err := c.getJSON(ctx, u, strings.Join(rangeNames, ","), &result); err != nil {
		return nil, err
	}

	// The API echoes ranges back in request order but expanded to full
	// A1 references, so match by position rather than by name.
	out := make(map[string][][]string, len(rangeNames))
	for i, name := range rangeNames {
		if i < len(result.ValueRanges) {
			out[name] = toStrings(result.ValueRanges[i].Values)
		} else {
			out[name] = nil
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u, rangeName string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return core.WrapError(core.ErrSheetUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrSheetUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusBadRequest &&
			strings.Contains(strings.ToLower(apiErr), "parse range") {
			return core.WrapError(core.ErrRangeNotFound,
				fmt.Errorf("range %s: %s", rangeName, apiErr))
		}
		if resp.StatusCode == http.StatusNotFound {
			return core.WrapError(core.ErrRangeNotFound,
				fmt.Errorf("range %s: %s", rangeName, apiErr))
		}
		return core.WrapError(core.ErrSheetUnavailable,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, apiErr))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return core.WrapError(core.ErrSheetUnavailable,
			fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// decodeAPIError pulls the message out of a Sheets API error body.
func decodeAPIError(resp *http.Response) string {
	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return resp.Status
	}
	if body.Error.Message == "" {
		return resp.Status
	}
	return body.Error.Message
}

// toStrings flattens API cell values to strings. The default render
// option returns strings, but numbers survive some export paths.
func toStrings(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case string:
				cells[j] = v
			case nil:
				cells[j] = ""
			default:
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}

// Sheets API response types
type valueRange struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

type batchResponse struct {
	SpreadsheetID string       `json:"spreadsheetId"`
	ValueRanges   []valueRange `json:"valueRanges"`
}
