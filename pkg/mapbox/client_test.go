package mapbox

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocoding/v5/mapbox.places/Joe's Diner, Austin.json", r.URL.Path)
		assert.Equal(t, "pk.token", r.URL.Query().Get("access_token"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"features":[{"center":[-97.74,30.27],"place_name":"Joe's Diner, Austin, Texas"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "pk.token", 5*time.Second)
	coords, err := client.Geocode(context.Background(), "Joe's Diner, Austin")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.Equal(t, 30.27, coords.Lat)
	assert.Equal(t, -97.74, coords.Lng)
}

func TestGeocode_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	coords, err := NewClient(srv.URL, "pk.token", 5*time.Second).Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, coords)
}

func TestGeocode_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "pk.token", 5*time.Second).Geocode(context.Background(), "Austin")
	require.ErrorContains(t, err, "mapbox api error 401")
}

func TestRedact(t *testing.T) {
	c := NewClient("", "pk.abcdefghijklmnop", time.Second)
	assert.Equal(t, "x?access_token=pk.abcde...&limit=1", c.redact("x?access_token=pk.abcdefghijklmnop&limit=1"))
}
