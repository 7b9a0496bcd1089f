package jellyfin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetItems_WalksAllPages(t *testing.T) {
	t.Parallel()

	const total = 250
	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/Items", r.URL.Path)

		start, err := strconv.Atoi(r.URL.Query().Get("StartIndex"))
		require.NoError(t, err)
		limit, err := strconv.Atoi(r.URL.Query().Get("Limit"))
		require.NoError(t, err)

		end := start + limit
		if end > total {
			end = total
		}
		items := make([]Item, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, Item{ID: strconv.Itoa(i), Name: "Item " + strconv.Itoa(i)})
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(ItemsResponse{
			Items:            items,
			TotalRecordCount: total,
			StartIndex:       start,
		}))
	}))
	defer server.Close()

	client, err := NewClient(Config{URL: server.URL, APIKey: "test-api-key"})
	require.NoError(t, err)

	items, err := client.GetItems(nil)
	require.NoError(t, err)
	assert.Len(t, items, total)
	assert.Equal(t, 3, requests)
	assert.Equal(t, "0", items[0].ID)
	assert.Equal(t, "249", items[total-1].ID)
}

func TestGetItems_ScopedToUser(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Users/AuthenticateByName":
			_ = json.NewEncoder(w).Encode(AuthResponse{AccessToken: "tok", User: AuthUser{ID: "u-9"}})
		case "/Users/u-9/Items":
			_ = json.NewEncoder(w).Encode(ItemsResponse{
				Items:            []Item{{ID: "1", Name: "Owned"}},
				TotalRecordCount: 1,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{URL: server.URL})
	require.NoError(t, err)
	require.NoError(t, client.Login("media", "pw"))

	items, err := client.GetItems(nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Owned", items[0].Name)
}

func TestGetUserViews_APIKeyFallsBackToMediaFolders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Library/MediaFolders", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ItemsResponse{
			Items: []Item{
				{ID: "lib-1", Name: "Movies", CollectionType: "movies", IsFolder: true},
				{ID: "lib-2", Name: "Shows", CollectionType: "tvshows", IsFolder: true},
			},
			TotalRecordCount: 2,
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{URL: server.URL, APIKey: "key"})
	require.NoError(t, err)

	views, err := client.GetUserViews()
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Movies", views[0].Name)
}

func TestFindItemByName_CaseFolded(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "the matrix", r.URL.Query().Get("SearchTerm"))
		_ = json.NewEncoder(w).Encode(ItemsResponse{
			Items: []Item{
				{ID: "1", Name: "The Matrix Reloaded"},
				{ID: "2", Name: "The MATRIX"},
			},
			TotalRecordCount: 2,
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{URL: server.URL, APIKey: "key"})
	require.NoError(t, err)

	item, err := client.FindItemByName("the matrix", "Movie")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "2", item.ID)
}

func TestArtworkURL(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{URL: "http://jellyfin.local:8096", APIKey: "key"})
	require.NoError(t, err)

	url := client.ArtworkURL("item-7", "Primary", 500)
	assert.Contains(t, url, "http://jellyfin.local:8096/Items/item-7/Images/Primary")
	assert.Contains(t, url, "maxWidth=500")
}
