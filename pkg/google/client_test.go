package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadfinder/internal/resilience"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.websiteUri")
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "nextPageToken")

		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "warsztat samochodowy Kraków", body.TextQuery)
		assert.Equal(t, "pl", body.LanguageCode)
		require.NotNil(t, body.LocationBias)
		assert.InDelta(t, 50.06, body.LocationBias.Circle.Center.Latitude, 0.001)
		assert.InDelta(t, 5000, body.LocationBias.Circle.Radius, 0.001)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"places": [{
				"displayName": {"text": "Auto Serwis Kowalski"},
				"formattedAddress": "Długa 1, 31-147 Kraków, Polska",
				"addressComponents": [
					{"longText": "1", "types": ["street_number"]},
					{"longText": "Kraków", "shortText": "Kraków", "types": ["locality", "political"]}
				],
				"nationalPhoneNumber": "12 345 67 89",
				"rating": 4.5,
				"userRatingCount": 3,
				"googleMapsUri": "https://maps.google.com/?cid=1",
				"businessStatus": "OPERATIONAL"
			}],
			"nextPageToken": "page-2"
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL+"/"))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{
		TextQuery:    "warsztat samochodowy Kraków",
		LanguageCode: "pl",
		LocationBias: &LocationBias{Circle: Circle{
			Center: LatLng{Latitude: 50.06, Longitude: 19.94},
			Radius: 5000,
		}},
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	p := resp.Places[0]
	assert.Equal(t, "Auto Serwis Kowalski", p.DisplayName.Text)
	assert.Equal(t, "Kraków", p.Locality())
	assert.Equal(t, "12 345 67 89", p.NationalPhoneNumber)
	assert.Equal(t, 3, p.UserRatingCount)
	assert.Equal(t, "page-2", resp.NextPageToken)
}

func TestTextSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TextSearchResponse{Places: nil})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "nic"})

	require.NoError(t, err)
	assert.Empty(t, resp.Places)
	assert.Empty(t, resp.NextPageToken)
}

func TestTextSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "invalid API key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "test"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "403")
	assert.False(t, resilience.IsTransient(err))
}

func TestTextSearch_RateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limit exceeded"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "test"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.True(t, resilience.IsTransient(err))
}

func TestTextSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(ctx, TextSearchRequest{TextQuery: "test"})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestPlace_LocalityMissing(t *testing.T) {
	p := Place{AddressComponents: []AddressComponent{{LongText: "Polska", Types: []string{"country"}}}}
	assert.Equal(t, "", p.Locality())
}
