// Package api defines the HTTP contract of the grid composition service.
package api

import "time"

// Defines values for HealthResponseStatus.
const (
	Healthy HealthResponseStatus = "healthy"
)

// Defines values for ComposeFormat.
const (
	Png  ComposeFormat = "png"
	Jpeg ComposeFormat = "jpeg"
)

// Defines values for error codes.
const (
	INVALIDFORM     = "INVALID_FORM"
	INVALIDIMAGE    = "INVALID_IMAGE"
	LAYOUTNOTFOUND  = "LAYOUT_NOT_FOUND"
	VALIDATIONERROR = "VALIDATION_ERROR"
	INTERNALERROR   = "INTERNAL_ERROR"
)

// HealthResponseStatus defines model for HealthResponse.Status.
type HealthResponseStatus string

// ComposeFormat is the encoding of a composed image.
type ComposeFormat string

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status    HealthResponseStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Uptime    *int                 `json:"uptime,omitempty"`
	Version   *string              `json:"version,omitempty"`
}

// Layout defines model for Layout.
type Layout struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// Slots is the number of images the layout takes; 0 means any number.
	Slots int `json:"slots"`
}

// LayoutList defines model for LayoutList.
type LayoutList struct {
	Layouts []Layout `json:"layouts"`
}

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Details   *map[string]interface{} `json:"details,omitempty"`
	Error     string                  `json:"error"`
	Message   string                  `json:"message"`
	RequestId *string                 `json:"request_id,omitempty"`
}

// ListLayoutsParams defines parameters for ListLayouts.
type ListLayoutsParams struct {
	// Slots filters layouts that accept exactly this many images.
	Slots *int `form:"slots,omitempty" json:"slots,omitempty"`
}
