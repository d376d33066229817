// Package logistics queries the external shipment tracking provider.
package logistics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/harborline/fleetd/internal/app/domain/waybill"
	"github.com/harborline/fleetd/internal/httputil"
	"github.com/harborline/fleetd/internal/logging"
)

// ErrNotFound reports that the provider has no record for the tracking number.
var ErrNotFound = errors.New("logistics: waybill not found")

// Tracker resolves waybill status from the provider.
type Tracker interface {
	Track(ctx context.Context, kind waybill.Kind, trackingNumber string) (waybill.Waybill, error)
}

// Client talks to the tracking provider's REST API.
type Client struct {
	client *httputil.Client
	log    *logging.Logger
}

// New creates a Client for the provider at baseURL.
func New(baseURL, apiKey string, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewDefault("logistics")
	}
	return &Client{
		client: httputil.NewClient(httputil.ClientConfig{BaseURL: baseURL, APIKey: apiKey, Timeout: 15 * time.Second}),
		log:    log,
	}
}

var _ Tracker = (*Client)(nil)

// trackResponse mirrors the provider payload. Field presence varies by kind,
// so everything beyond the tracking number is optional.
type trackResponse struct {
	TrackingNumber    string `json:"trackingNumber"`
	Carrier           string `json:"carrier"`
	Status            string `json:"status"`
	Origin            string `json:"origin"`
	Destination       string `json:"destination"`
	FlightNumber      string `json:"flightNumber"`
	Courier           string `json:"courier"`
	EstimatedDelivery string `json:"estimatedDelivery"`
	Checkpoints       []struct {
		Time        string `json:"time"`
		Location    string `json:"location"`
		Description string `json:"description"`
	} `json:"checkpoints"`
}

// Track fetches the waybill for the given kind and tracking number.
func (c *Client) Track(ctx context.Context, kind waybill.Kind, trackingNumber string) (waybill.Waybill, error) {
	path := fmt.Sprintf("/v1/%s/%s", url.PathEscape(string(kind)), url.PathEscape(trackingNumber))

	resp, err := c.client.Get(ctx, path)
	if err != nil {
		return waybill.Waybill{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return waybill.Waybill{}, ErrNotFound
	}

	var payload trackResponse
	if err := httputil.DecodeResponse(resp, &payload); err != nil {
		return waybill.Waybill{}, err
	}

	wb := waybill.Waybill{
		Kind:           kind,
		TrackingNumber: payload.TrackingNumber,
		Carrier:        payload.Carrier,
		Status:         payload.Status,
		Origin:         payload.Origin,
		Destination:    payload.Destination,
		FlightNumber:   payload.FlightNumber,
		Courier:        payload.Courier,
	}
	if wb.TrackingNumber == "" {
		wb.TrackingNumber = trackingNumber
	}
	if payload.EstimatedDelivery != "" {
		if eta, err := time.Parse(time.RFC3339, payload.EstimatedDelivery); err == nil {
			wb.EstimatedDelivery = &eta
		} else {
			c.log.WithField("value", payload.EstimatedDelivery).Debug("unparseable estimated delivery; dropping field")
		}
	}
	for _, cp := range payload.Checkpoints {
		point := waybill.Checkpoint{Location: cp.Location, Description: cp.Description}
		if ts, err := time.Parse(time.RFC3339, cp.Time); err == nil {
			point.Time = ts
		}
		wb.Checkpoints = append(wb.Checkpoints, point)
	}
	return wb, nil
}
