package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"

	"github.com/covergrid/pulse/internal/core"
)

// FetchCSV downloads a published-to-web CSV export and parses it into
// a 2-D cell array, the same shape Values returns.
func (c *Client) FetchCSV(ctx context.Context, exportURL string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrSheetUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrSheetUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrSheetUnavailable,
			fmt.Errorf("csv export returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.WrapError(core.ErrSheetUnavailable, err)
	}
	return ParseCSV(data)
}

// ParseCSV parses raw CSV bytes. Exports are BOM-prefixed and quote
// cells loosely, and rows may have ragged lengths.
func ParseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return [][]string{}, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrSheetUnavailable,
				fmt.Errorf("parsing csv: %w", err))
		}
		rows = append(rows, record)
	}
	return rows, nil
}
