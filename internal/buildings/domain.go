package buildings

import (
	"fmt"
	"time"

	"github.com/residence-hub/residence/internal/platform/httpx"
	"github.com/residence-hub/residence/internal/shared"
)

var (
	// ErrNotFound is returned when the building does not exist.
	ErrNotFound = fmt.Errorf("buildings: building not found: %w", httpx.ErrNotFound)
	// ErrDuplicateCode is returned when another building already uses the code.
	ErrDuplicateCode = fmt.Errorf("buildings: building code already exists: %w", httpx.ErrDuplicate)
	// ErrInUse is returned when deleting a building that still has floors.
	ErrInUse = fmt.Errorf("buildings: building still has floors: %w", httpx.ErrConflict)
)

// Building is one block of the complex.
type Building struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	FloorCount int       `json:"floor_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Input carries the editable fields of a building.
type Input struct {
	Code       string `json:"code" validate:"required,max=20"`
	Name       string `json:"name" validate:"required,max=100"`
	Address    string `json:"address" validate:"max=255"`
	FloorCount int    `json:"floor_count" validate:"gte=0,lte=200"`
}

// ListFilter narrows a listing. Query matches code or name.
type ListFilter struct {
	Query   string
	Page    int
	PerPage int
}

// Page is one page of a listing.
type Page struct {
	Items      []Building        `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}
