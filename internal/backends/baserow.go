package backends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// Baserow reads records from a Baserow database. Tables are addressed by
// numeric table ID; the configuration's table mapping supplies it.
type Baserow struct {
	APIKey  string
	BaseURL string
	Client  httpDoer
}

// NewBaserow creates a Baserow backend for the given instance URL.
func NewBaserow(apiKey, baseURL string) *Baserow {
	return &Baserow{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (b *Baserow) Name() string { return "baserow" }

// Validate checks the token against the settings endpoint.
func (b *Baserow) Validate(ctx context.Context) error {
	var out map[string]any
	u := b.BaseURL + "/api/settings/"
	if err := getJSON(ctx, b.Client, u, b.header(), &out); err != nil {
		return &types.BackendError{Backend: b.Name(), Err: err}
	}
	return nil
}

// ReadRecords fetches all rows of the table, following the "next" page
// link until exhausted. Field names are requested in user form so the
// table field mappings apply unchanged.
func (b *Baserow) ReadRecords(ctx context.Context, table string) ([]types.RawRecord, error) {
	var records []types.RawRecord
	u := fmt.Sprintf("%s/api/database/rows/table/%s/?user_field_names=true&size=200", b.BaseURL, url.PathEscape(table))
	for u != "" {
		var page struct {
			Next    *string          `json:"next"`
			Results []map[string]any `json:"results"`
		}
		if err := getJSON(ctx, b.Client, u, b.header(), &page); err != nil {
			return nil, &types.BackendError{Backend: b.Name(), Table: table, Err: err}
		}

		for _, row := range page.Results {
			raw := types.RawRecord(flattenSingles(row))
			// Baserow exposes the row id as a number.
			if id, ok := row["id"].(float64); ok {
				raw[types.RecordIDField] = fmt.Sprintf("%.0f", id)
			}
			records = append(records, raw)
		}
		if page.Next == nil {
			break
		}
		u = *page.Next
	}
	return records, nil
}

func (b *Baserow) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Token "+b.APIKey)
	return h
}
