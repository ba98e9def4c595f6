package suggest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/klarwerk/zielbord/internal/suggest"
	"github.com/klarwerk/zielbord/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Kundenzufriedenheit steigern", req["title"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"suggestions": []map[string]string{
				{"title": "NPS auf 50 heben", "target_value": "50", "unit": "punkte"},
			},
		})
	}))
	defer srv.Close()

	client := suggest.NewClient(srv.URL, "test-key")
	suggestions, err := client.Fetch(context.Background(), "Kundenzufriedenheit steigern", "customer", nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "NPS auf 50 heben", suggestions[0].Title)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetriesOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"suggestions": []map[string]string{{"title": "Zweiter Versuch"}},
		})
	}))
	defer srv.Close()

	client := suggest.NewClient(srv.URL, "")
	suggestions, err := client.Fetch(context.Background(), "Titel", "", nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Disabled(t *testing.T) {
	client := suggest.NewClient("", "")
	_, err := client.Fetch(context.Background(), "Titel", "", nil)
	assert.ErrorIs(t, err, suggest.ErrServiceUnavailable)
}

func TestService_CachesFetches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"suggestions": []map[string]string{{"title": "Gecacht"}},
		})
	}))
	defer srv.Close()

	svc := suggest.NewService(
		suggest.NewCache(),
		suggest.NewClient(srv.URL, ""),
		testutil.DiscardLogger(),
	)

	for i := 0; i < 3; i++ {
		suggestions, err := svc.Suggest(context.Background(), "Titel", "cat", []string{"b", "a"})
		require.NoError(t, err)
		require.Len(t, suggestions, 1)
	}
	assert.Equal(t, int32(1), calls.Load())
}
