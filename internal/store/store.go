package store

import (
	"context"
	"regexp"
	"strings"
)

// AccessoryRow is the persisted shape of one accessory line
type AccessoryRow struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Note string `json:"note"`
}

// Row is the flat persisted representation of a customer as stored by the
// remote table. Measurements are persisted as strings, field names are
// snake_cased. Store-managed fields carry omitempty so an encoded row never
// sends them.
type Row struct {
	ID              string         `json:"id,omitempty"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	PhoneNumber     *string        `json:"phone_number"`
	Salesperson     *string        `json:"salesperson"`
	Status          string         `json:"status"`
	Dress           *string        `json:"dress"`
	Maker           *string        `json:"maker"`
	Skraedder       *string        `json:"skraedder"`
	SizeBryst       *string        `json:"size_bryst"`
	SizeTalje       *string        `json:"size_talje"`
	SizeHofte       *string        `json:"size_hofte"`
	SizeArms        *string        `json:"size_arms"`
	SizeHeight      *string        `json:"size_height"`
	Accessories     []AccessoryRow `json:"accessories"`
	InvoiceStatus   string         `json:"invoice_status"`
	InvoiceFileURL  *string        `json:"invoice_file_url"`
	SupplierFileURL *string        `json:"supplier_file_url"`
	Notes           *string        `json:"notes"`
	WeddingDate     *string        `json:"wedding_date"`
	DateAdded       string         `json:"date_added,omitempty"`
	CreatedBy       string         `json:"created_by"`
	CreatedAt       string         `json:"created_at,omitempty"`
	UpdatedAt       string         `json:"updated_at,omitempty"`
}

// Store is the remote customers table. List and Search return rows ordered
// by creation time, descending.
type Store interface {
	List(ctx context.Context) ([]Row, error)
	Insert(ctx context.Context, r Row) (Row, error)
	Update(ctx context.Context, id string, r Row) (Row, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]Row, error)
}

var searchEscaper = regexp.MustCompile(`[%_\\]`)

// SanitizeSearchQuery escapes the pattern-match wildcard and escape
// characters so a query is always matched literally.
func SanitizeSearchQuery(query string) string {
	return strings.TrimSpace(searchEscaper.ReplaceAllString(query, `\$0`))
}
