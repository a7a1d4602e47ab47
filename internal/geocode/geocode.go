// Package geocode reverse-geocodes driver positions through Azure Maps.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	logrus "github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://atlas.microsoft.com"

// UnknownLocation is reported whenever geocoding fails; a location update
// never fails because the geocoder did.
const UnknownLocation = "Unknown location"

type Client struct {
	key        string
	baseURL    string
	httpClient *http.Client
}

func NewClient(key string) *Client {
	return &Client{
		key:        key,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// NewClientWithBaseURL exists for tests against a stub server.
func NewClientWithBaseURL(key, baseURL string) *Client {
	c := NewClient(key)
	c.baseURL = baseURL
	return c
}

type reverseResponse struct {
	Addresses []struct {
		Address struct {
			FreeformAddress string `json:"freeformAddress"`
		} `json:"address"`
	} `json:"addresses"`
}

// ReverseGeocode returns a freeform address for the coordinates, or
// UnknownLocation on any failure.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	url := fmt.Sprintf("%s/search/address/reverse/json?api-version=1.0&query=%f,%f&subscription-key=%s",
		c.baseURL, lat, lon, c.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return UnknownLocation
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Debug("reverse geocode request failed")
		return UnknownLocation
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return UnknownLocation
	}

	var parsed reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return UnknownLocation
	}
	if len(parsed.Addresses) == 0 || parsed.Addresses[0].Address.FreeformAddress == "" {
		return UnknownLocation
	}
	return parsed.Addresses[0].Address.FreeformAddress
}
