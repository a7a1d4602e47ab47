package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("query"), "43.6")
		w.Write([]byte(`{"addresses":[{"address":{"freeformAddress":"401 Kennedy Rd, Toronto"}}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	got := c.ReverseGeocode(context.Background(), 43.65, -79.38)
	assert.Equal(t, "401 Kennedy Rd, Toronto", got)
}

func TestReverseGeocodeEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"addresses":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	assert.Equal(t, UnknownLocation, c.ReverseGeocode(context.Background(), 0, 0))
}

func TestReverseGeocodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	assert.Equal(t, UnknownLocation, c.ReverseGeocode(context.Background(), 0, 0))
}

func TestReverseGeocodeUnreachable(t *testing.T) {
	c := NewClientWithBaseURL("test-key", "http://127.0.0.1:1")
	assert.Equal(t, UnknownLocation, c.ReverseGeocode(context.Background(), 0, 0))
}

func TestReverseGeocodeBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{{{`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	assert.Equal(t, UnknownLocation, c.ReverseGeocode(context.Background(), 0, 0))
}
