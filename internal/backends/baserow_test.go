package backends

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaserowReadRecordsFollowsNext(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token key123", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/database/rows/table/42/", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "" {
			fmt.Fprintf(w, `{
				"next": "%s/api/database/rows/table/42/?page=2",
				"results": [{"id": 7, "Name": "Ridgeline"}]
			}`, srv.URL)
			return
		}
		fmt.Fprint(w, `{"next": null, "results": [{"id": 8, "Name": "Valley Floor"}]}`)
	}))
	defer srv.Close()

	b := NewBaserow("key123", srv.URL)
	records, err := b.ReadRecords(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "7", records[0].ID(), "numeric row ids become strings")
	assert.Equal(t, "Ridgeline", records[0]["Name"])
	assert.Equal(t, "8", records[1].ID())
}

func TestBaserowValidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings/", r.URL.Path)
		fmt.Fprint(w, `{"instance_id": "x"}`)
	}))
	defer srv.Close()

	b := NewBaserow("key123", srv.URL)
	require.NoError(t, b.Validate(context.Background()))
}
