// Package backends provides the inventory backend capability interface
// and one HTTP adapter per supported no-code service: AirTable, Baserow,
// and NocoDB. The sync engine depends only on the Backend interface.
package backends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// Backend fetches raw records from a no-code database service. A fetch
// must be complete: adapters return an error rather than a truncated
// record list, so a pagination failure can never reach the diff engine.
type Backend interface {
	// Name identifies the backend type (airtable, baserow, nocodb).
	Name() string

	// Validate checks connectivity and credentials.
	Validate(ctx context.Context) error

	// ReadRecords fetches every record of the named backend table. The
	// backend record key is stored under types.RecordIDField.
	ReadRecords(ctx context.Context, table string) ([]types.RawRecord, error)
}

// httpDoer is the part of http.Client the adapters use; tests substitute
// an httptest client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// defaultTimeout bounds one backend HTTP request when the caller
// provides no client of its own.
const defaultTimeout = 30 * time.Second

// getJSON issues an authorized GET and decodes the JSON response body.
func getJSON(ctx context.Context, client httpDoer, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request %s: status %d: %s", url, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// flattenSingles unwraps one-element arrays. Linked-record fields come
// back from the no-code services as arrays even when they hold a single
// value.
func flattenSingles(fields map[string]any) map[string]any {
	for k, v := range fields {
		if arr, ok := v.([]any); ok && len(arr) == 1 {
			fields[k] = arr[0]
		}
	}
	return fields
}
