package backends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// nocodbPageSize is the NocoDB listing page size.
const nocodbPageSize = 200

// NocoDB reads records from a NocoDB base. Tables are addressed by
// table ID from the configuration's table mapping.
type NocoDB struct {
	APIKey  string
	BaseURL string
	Client  httpDoer
}

// NewNocoDB creates a NocoDB backend for the given instance URL.
func NewNocoDB(apiKey, baseURL string) *NocoDB {
	return &NocoDB{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (n *NocoDB) Name() string { return "nocodb" }

// Validate checks the token against the user info endpoint.
func (n *NocoDB) Validate(ctx context.Context) error {
	var out map[string]any
	u := n.BaseURL + "/api/v2/meta/user/me"
	if err := getJSON(ctx, n.Client, u, n.header(), &out); err != nil {
		return &types.BackendError{Backend: n.Name(), Err: err}
	}
	return nil
}

// ReadRecords fetches all records of the table with offset pagination.
func (n *NocoDB) ReadRecords(ctx context.Context, table string) ([]types.RawRecord, error) {
	var records []types.RawRecord
	offset := 0
	for {
		u := fmt.Sprintf("%s/api/v2/tables/%s/records?limit=%d&offset=%d",
			n.BaseURL, url.PathEscape(table), nocodbPageSize, offset)

		var page struct {
			List     []map[string]any `json:"list"`
			PageInfo struct {
				IsLastPage bool `json:"isLastPage"`
			} `json:"pageInfo"`
		}
		if err := getJSON(ctx, n.Client, u, n.header(), &page); err != nil {
			return nil, &types.BackendError{Backend: n.Name(), Table: table, Err: err}
		}

		for _, row := range page.List {
			raw := types.RawRecord(flattenSingles(row))
			switch id := row["Id"].(type) {
			case float64:
				raw[types.RecordIDField] = fmt.Sprintf("%.0f", id)
			case string:
				raw[types.RecordIDField] = id
			}
			records = append(records, raw)
		}
		if page.PageInfo.IsLastPage || len(page.List) == 0 {
			return records, nil
		}
		offset += len(page.List)
	}
}

func (n *NocoDB) header() http.Header {
	h := http.Header{}
	h.Set("xc-token", n.APIKey)
	return h
}
