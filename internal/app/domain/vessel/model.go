package vessel

import "time"

// Vessel is the tenant entity under which crew, requests and request types are
// scoped. Name is the external-facing handle used in routes; ID is opaque and
// stable.
type Vessel struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
