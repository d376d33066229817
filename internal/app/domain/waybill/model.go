package waybill

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the waybill variant. The logistics provider returns a different
// field set per kind, so decoding is defensive and kind-tagged.
type Kind string

const (
	KindAir    Kind = "air"
	KindParcel Kind = "parcel"
)

// ParseKind normalizes and validates a waybill kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAir:
		return KindAir, nil
	case KindParcel:
		return KindParcel, nil
	default:
		return "", fmt.Errorf("unknown waybill kind %q", s)
	}
}

// Checkpoint is a single tracking event.
type Checkpoint struct {
	Time        time.Time `json:"time"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Waybill is a shipment tracking document. Optional fields are populated per
// kind: FlightNumber for air, Courier for parcel.
type Waybill struct {
	Kind              Kind         `json:"kind"`
	TrackingNumber    string       `json:"trackingNumber"`
	Carrier           string       `json:"carrier,omitempty"`
	Status            string       `json:"status,omitempty"`
	Origin            string       `json:"origin,omitempty"`
	Destination       string       `json:"destination,omitempty"`
	FlightNumber      string       `json:"flightNumber,omitempty"`
	Courier           string       `json:"courier,omitempty"`
	EstimatedDelivery *time.Time   `json:"estimatedDelivery,omitempty"`
	Checkpoints       []Checkpoint `json:"checkpoints,omitempty"`
}
