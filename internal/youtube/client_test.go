package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/vidfeed/feed-sync-go/internal/provider"
	"github.com/vidfeed/feed-sync-go/internal/quota"
)

func apiServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, srv *httptest.Server, ledger quota.Ledger) *Client {
	t.Helper()
	return NewClient(ledger,
		WithPageDelay(time.Millisecond),
		WithClientOptions(option.WithEndpoint(srv.URL)),
	)
}

func subscriptionsPage(items []map[string]any, nextPageToken string) map[string]any {
	page := map[string]any{"items": items}
	if nextPageToken != "" {
		page["nextPageToken"] = nextPageToken
	}
	return page
}

func subItem(channelID, title string) map[string]any {
	return map[string]any{
		"snippet": map[string]any{
			"title":      title,
			"resourceId": map[string]any{"channelId": channelID},
		},
	}
}

func TestClient_ListAllSubscriptions(t *testing.T) {
	t.Run("walks all pages and charges one unit per page", func(t *testing.T) {
		var pages []string
		srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("pageToken")
			pages = append(pages, token)
			w.Header().Set("Content-Type", "application/json")

			switch token {
			case "":
				json.NewEncoder(w).Encode(subscriptionsPage(
					[]map[string]any{subItem("c1", "One"), subItem("c2", "Two")}, "page-2"))
			case "page-2":
				json.NewEncoder(w).Encode(subscriptionsPage(
					[]map[string]any{subItem("c3", "Three")}, ""))
			default:
				http.Error(w, "unexpected page token", http.StatusBadRequest)
			}
		})

		ledger := quota.NewMemoryLedger(100)
		c := testClient(t, srv, ledger)

		channels, err := c.ListAllSubscriptions(context.Background(), "tok")
		require.NoError(t, err)

		require.Len(t, channels, 3)
		assert.Equal(t, provider.Channel{ID: "c1", Name: "One"}, channels[0])
		assert.Equal(t, provider.Channel{ID: "c3", Name: "Three"}, channels[2])
		assert.Equal(t, []string{"", "page-2"}, pages)
		assert.Equal(t, 2, ledger.CurrentUsage().Used)
	})

	t.Run("quota wall stops pagination", func(t *testing.T) {
		srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(subscriptionsPage(
				[]map[string]any{subItem("c1", "One")}, "page-2"))
		})

		ledger := quota.NewMemoryLedger(1)
		c := testClient(t, srv, ledger)

		channels, err := c.ListAllSubscriptions(context.Background(), "tok")
		require.ErrorIs(t, err, quota.ErrQuotaExceeded)
		assert.Len(t, channels, 1, "the page fetched before the wall is kept")
	})

	t.Run("provider failure aborts the enumeration", func(t *testing.T) {
		srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"code":500,"message":"backend"}}`, http.StatusInternalServerError)
		})

		ledger := quota.NewMemoryLedger(100)
		c := testClient(t, srv, ledger)

		_, err := c.ListAllSubscriptions(context.Background(), "tok")
		require.Error(t, err)

		var provErr *provider.Error
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, http.StatusInternalServerError, provErr.StatusCode)
	})
}

func TestClient_SearchRecentUploads(t *testing.T) {
	channel := provider.Channel{ID: "chan-1", Name: "My Channel"}
	since := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)

	t.Run("maps results to candidates", func(t *testing.T) {
		srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "chan-1", r.URL.Query().Get("channelId"))
			assert.Equal(t, "date", r.URL.Query().Get("order"))
			assert.Equal(t, "2026-08-23T00:00:00Z", r.URL.Query().Get("publishedAfter"))
			assert.Equal(t, "10", r.URL.Query().Get("maxResults"))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"id": map[string]any{"videoId": "v1"},
						"snippet": map[string]any{
							"title":       "First",
							"publishedAt": "2026-08-24T09:00:00Z",
							"thumbnails": map[string]any{
								"high": map[string]any{"url": "https://example.com/high.jpg"},
							},
						},
					},
					{
						// No video ID; playlists and channels are skipped.
						"id":      map[string]any{},
						"snippet": map[string]any{"title": "Skip", "publishedAt": "2026-08-24T09:00:00Z"},
					},
				},
			})
		})

		ledger := quota.NewMemoryLedger(100)
		c := testClient(t, srv, ledger)

		got, err := c.SearchRecentUploads(context.Background(), "tok", channel, since)
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Equal(t, "v1", got[0].VideoID)
		assert.Equal(t, "chan-1", got[0].ChannelID)
		assert.Equal(t, "My Channel", got[0].ChannelName)
		assert.Equal(t, "https://example.com/high.jpg", got[0].ThumbnailURL)
		assert.Equal(t, 1, ledger.CurrentUsage().Used)
	})

	t.Run("exhausted budget rejects before the call", func(t *testing.T) {
		called := false
		srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })

		ledger := quota.NewMemoryLedger(1)
		require.NoError(t, ledger.Consume(quota.OpSearch, 1))
		c := testClient(t, srv, ledger)

		_, err := c.SearchRecentUploads(context.Background(), "tok", channel, since)
		require.ErrorIs(t, err, quota.ErrQuotaExceeded)
		assert.False(t, called)
	})
}

func TestClient_FetchDurations(t *testing.T) {
	t.Run("resolves durations in seconds", func(t *testing.T) {
		srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"id": "v1", "contentDetails": map[string]any{"duration": "PT3M25S"}},
					{"id": "v2", "contentDetails": map[string]any{"duration": "PT1H"}},
					{"id": "v3", "contentDetails": map[string]any{"duration": "garbled"}},
				},
			})
		})

		ledger := quota.NewMemoryLedger(100)
		c := testClient(t, srv, ledger)

		durations, soft, err := c.FetchDurations(context.Background(), "tok", []string{"v1", "v2", "v3"})
		require.NoError(t, err)

		assert.Equal(t, map[string]int{"v1": 205, "v2": 3600}, durations)
		require.Len(t, soft, 1, "unparseable duration is a soft error")
		assert.Contains(t, soft[0], "v3")
		assert.Equal(t, 1, ledger.CurrentUsage().Used)
	})

	t.Run("batches of fifty, one unit each", func(t *testing.T) {
		var requests int
		srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{}})
		})

		ledger := quota.NewMemoryLedger(100)
		c := testClient(t, srv, ledger)

		ids := make([]string, 120)
		for i := range ids {
			ids[i] = "v"
		}

		_, _, err := c.FetchDurations(context.Background(), "tok", ids)
		require.NoError(t, err)
		assert.Equal(t, 3, requests)
		assert.Equal(t, 3, ledger.CurrentUsage().Used)
	})

	t.Run("quota wall returns partial results", func(t *testing.T) {
		srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"id": "v1", "contentDetails": map[string]any{"duration": "PT5M"}},
				},
			})
		})

		ledger := quota.NewMemoryLedger(1)
		c := testClient(t, srv, ledger)

		ids := make([]string, 60) // two batches, budget covers one
		for i := range ids {
			ids[i] = "v"
		}

		durations, _, err := c.FetchDurations(context.Background(), "tok", ids)
		require.ErrorIs(t, err, quota.ErrQuotaExceeded)
		assert.Equal(t, 300, durations["v1"])
	})

	t.Run("empty input skips the API entirely", func(t *testing.T) {
		called := false
		srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })

		c := testClient(t, srv, quota.NewMemoryLedger(100))

		durations, soft, err := c.FetchDurations(context.Background(), "tok", nil)
		require.NoError(t, err)
		assert.Empty(t, durations)
		assert.Empty(t, soft)
		assert.False(t, called)
	})
}
