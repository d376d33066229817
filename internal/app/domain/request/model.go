package request

import "time"

// Request statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusDelivered = "delivered"
)

// Request is a supply requisition scoped to exactly one vessel.
type Request struct {
	ID        string
	VesselID  string
	TypeID    string
	Title     string
	Status    string
	CreatedBy string
	CreatedAt time.Time
}

// Type is a per-vessel request category. Name is uppercased and unique within
// a vessel.
type Type struct {
	ID        string
	VesselID  string
	Name      string
	Label     string
	Color     string
	CreatedAt time.Time
}

// Page is pagination metadata returned alongside a page of records.
type Page struct {
	CurrentPage     int  `json:"currentPage"`
	PageSize        int  `json:"pageSize"`
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPage computes consistent pagination metadata for a 1-indexed page.
func NewPage(page, rows, total int) Page {
	totalPages := 0
	if rows > 0 {
		totalPages = (total + rows - 1) / rows
	}
	return Page{
		CurrentPage:     page,
		PageSize:        rows,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
