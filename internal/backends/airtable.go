package backends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// airtableAPI is the AirTable REST endpoint; overridable for tests.
const airtableAPI = "https://api.airtable.com/v0"

// Airtable reads records from an AirTable base.
type Airtable struct {
	APIKey  string
	BaseID  string
	BaseURL string
	Client  httpDoer
}

// NewAirtable creates an AirTable backend.
func NewAirtable(apiKey, baseID string) *Airtable {
	return &Airtable{
		APIKey:  apiKey,
		BaseID:  baseID,
		BaseURL: airtableAPI,
		Client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (a *Airtable) Name() string { return "airtable" }

// Validate checks the API token by requesting the base schema.
func (a *Airtable) Validate(ctx context.Context) error {
	var out struct {
		Tables []any `json:"tables"`
	}
	u := fmt.Sprintf("%s/meta/bases/%s/tables", a.BaseURL, a.BaseID)
	if err := getJSON(ctx, a.Client, u, a.header(), &out); err != nil {
		return &types.BackendError{Backend: a.Name(), Err: err}
	}
	return nil
}

// ReadRecords fetches all records of the table, following the offset
// cursor until the listing is exhausted. Single-element linked-record
// arrays are flattened to their value.
func (a *Airtable) ReadRecords(ctx context.Context, table string) ([]types.RawRecord, error) {
	var records []types.RawRecord
	offset := ""
	for {
		u := fmt.Sprintf("%s/%s/%s", a.BaseURL, a.BaseID, url.PathEscape(table))
		if offset != "" {
			u += "?offset=" + url.QueryEscape(offset)
		}

		var page struct {
			Records []struct {
				ID     string         `json:"id"`
				Fields map[string]any `json:"fields"`
			} `json:"records"`
			Offset string `json:"offset"`
		}
		if err := getJSON(ctx, a.Client, u, a.header(), &page); err != nil {
			return nil, &types.BackendError{Backend: a.Name(), Table: table, Err: err}
		}

		for _, rec := range page.Records {
			raw := types.RawRecord(flattenSingles(rec.Fields))
			raw[types.RecordIDField] = rec.ID
			records = append(records, raw)
		}
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

func (a *Airtable) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+a.APIKey)
	return h
}
