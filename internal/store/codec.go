package store

import (
	"fmt"
	"strconv"

	"github.com/amalieborg/bridal-crm/internal/model"
)

// Decode maps a persisted row to the customer entity. Null row fields stay
// nil on the entity. Malformed measurement strings and values outside the
// closed enumerations are decode failures, never silent sentinels.
func Decode(r Row) (*model.Customer, error) {
	size, err := decodeSize(r)
	if err != nil {
		return nil, err
	}

	status := model.Status(r.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("decode customer %s: unknown status %q", r.ID, r.Status)
	}

	invoiceStatus := model.InvoiceStatus(r.InvoiceStatus)
	if !invoiceStatus.Valid() {
		return nil, fmt.Errorf("decode customer %s: unknown invoice status %q", r.ID, r.InvoiceStatus)
	}

	var dress *model.DressType
	if r.Dress != nil {
		d := model.DressType(*r.Dress)
		if !d.Valid() {
			return nil, fmt.Errorf("decode customer %s: unknown dress type %q", r.ID, *r.Dress)
		}
		dress = &d
	}

	accessories := make([]model.Accessory, 0, len(r.Accessories))
	for _, a := range r.Accessories {
		at := model.AccessoryType(a.Type)
		if !at.Valid() {
			return nil, fmt.Errorf("decode customer %s: unknown accessory type %q", r.ID, a.Type)
		}
		accessories = append(accessories, model.Accessory{ID: a.ID, Type: at, Note: a.Note})
	}

	return &model.Customer{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		PhoneNumber:     r.PhoneNumber,
		Salesperson:     r.Salesperson,
		Status:          status,
		Dress:           dress,
		Maker:           r.Maker,
		Skraedder:       r.Skraedder,
		Size:            size,
		Accessories:     accessories,
		InvoiceStatus:   invoiceStatus,
		InvoiceFileURL:  r.InvoiceFileURL,
		SupplierFileURL: r.SupplierFileURL,
		Notes:           r.Notes,
		WeddingDate:     r.WeddingDate,
		DateAdded:       r.DateAdded,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

// Encode maps the entity back to the persisted row shape. Store-managed
// fields (id, timestamps, date_added) are left empty and therefore omitted
// on the wire.
func Encode(c *model.Customer) Row {
	var dress *string
	if c.Dress != nil {
		d := string(*c.Dress)
		dress = &d
	}

	accessories := make([]AccessoryRow, 0, len(c.Accessories))
	for _, a := range c.Accessories {
		accessories = append(accessories, AccessoryRow{ID: a.ID, Type: string(a.Type), Note: a.Note})
	}

	return Row{
		Name:            c.Name,
		Email:           c.Email,
		PhoneNumber:     c.PhoneNumber,
		Salesperson:     c.Salesperson,
		Status:          string(c.Status),
		Dress:           dress,
		Maker:           c.Maker,
		Skraedder:       c.Skraedder,
		SizeBryst:       encodeMeasurement(c.Size.Bryst),
		SizeTalje:       encodeMeasurement(c.Size.Talje),
		SizeHofte:       encodeMeasurement(c.Size.Hofte),
		SizeArms:        encodeMeasurement(c.Size.Arms),
		SizeHeight:      encodeMeasurement(c.Size.Height),
		Accessories:     accessories,
		InvoiceStatus:   string(c.InvoiceStatus),
		InvoiceFileURL:  c.InvoiceFileURL,
		SupplierFileURL: c.SupplierFileURL,
		Notes:           c.Notes,
		WeddingDate:     c.WeddingDate,
		CreatedBy:       c.CreatedBy,
	}
}

func decodeSize(r Row) (model.Size, error) {
	var size model.Size
	fields := []struct {
		column string
		value  *string
		target **float64
	}{
		{"size_bryst", r.SizeBryst, &size.Bryst},
		{"size_talje", r.SizeTalje, &size.Talje},
		{"size_hofte", r.SizeHofte, &size.Hofte},
		{"size_arms", r.SizeArms, &size.Arms},
		{"size_height", r.SizeHeight, &size.Height},
	}

	for _, f := range fields {
		n, err := decodeMeasurement(f.value)
		if err != nil {
			return model.Size{}, fmt.Errorf("decode customer %s: column %s: %w", r.ID, f.column, err)
		}
		*f.target = n
	}
	return size, nil
}

func decodeMeasurement(s *string) (*float64, error) {
	// the hosted table coerces empties on legacy rows, treat them like NULL
	if s == nil || *s == "" {
		return nil, nil
	}

	n, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed measurement %q", *s)
	}
	if n <= 0 {
		return nil, fmt.Errorf("measurement %q is not positive", *s)
	}
	return &n, nil
}

func encodeMeasurement(n *float64) *string {
	if n == nil {
		return nil
	}
	s := strconv.FormatFloat(*n, 'f', -1, 64)
	return &s
}
