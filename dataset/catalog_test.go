package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDataset(t *testing.T) {
	t.Parallel()

	t.Run("returns distributions", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "museum visits", r.URL.Query().Get("identifier"))
			w.Write([]byte(`{"data": {"distribution": [
				{"identifier": "museum-visits", "title": "Museum Visits",
				 "url": "https://example.org/museum.csv", "format": "CSV"},
				{"identifier": "museum-visits", "title": "Museum Visits",
				 "url": "https://example.org/museum.xml", "format": "XML"}
			]}}`))
		}))
		defer srv.Close()

		datasets, err := NewCatalog(srv.URL).FetchDataset(context.Background(), "museum visits")
		require.NoError(t, err)
		require.Len(t, datasets, 2)
		assert.True(t, datasets[0].Loadable())
		assert.False(t, datasets[1].Loadable(), "non-CSV formats are not loadable")
	})

	t.Run("empty identifier", func(t *testing.T) {
		t.Parallel()
		_, err := NewCatalog("http://unused").FetchDataset(context.Background(), "")
		assert.Error(t, err)
	})

	t.Run("no distributions", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"distribution": []}}`))
		}))
		defer srv.Close()

		_, err := NewCatalog(srv.URL).FetchDataset(context.Background(), "anything")
		assert.ErrorContains(t, err, "no distributions")
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewCatalog(srv.URL).FetchDataset(context.Background(), "anything")
		assert.ErrorContains(t, err, "500")
	})
}

func TestLoadable(t *testing.T) {
	t.Parallel()

	assert.True(t, Dataset{URL: "https://x/y.csv", Format: "csv"}.Loadable())
	assert.True(t, Dataset{URL: "https://x/y.csv", Format: "CSV"}.Loadable())
	assert.False(t, Dataset{Format: "csv"}.Loadable(), "needs a URL")
	assert.False(t, Dataset{URL: "https://x/y.json", Format: "json"}.Loadable())
}
