package query

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/amalieborg/bridal-crm/internal/model"
)

// Direction orders a sort ascending or descending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Apply derives the displayed sequence from the cached collection: free-text
// filter, per-field filters, then a stable locale-aware sort. The input is
// never mutated.
func Apply(customers []model.Customer, searchText string, filters map[string]string, sortField string, dir Direction) []model.Customer {
	filtered := make([]model.Customer, 0, len(customers))
	filtered = append(filtered, customers...)

	if text := strings.TrimSpace(searchText); text != "" {
		filtered = filterByText(filtered, text)
	}

	for field, value := range filters {
		if value == "" {
			continue
		}
		filtered = filterByField(filtered, field, value)
	}

	collator := collate.New(language.Danish)
	sort.SliceStable(filtered, func(i, j int) bool {
		a := sortKey(&filtered[i], sortField)
		b := sortKey(&filtered[j], sortField)
		if dir == Desc {
			return collator.CompareString(b, a) < 0
		}
		return collator.CompareString(a, b) < 0
	})

	return filtered
}

func filterByText(customers []model.Customer, text string) []model.Customer {
	needle := strings.ToLower(text)

	kept := customers[:0]
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle) ||
			containsFold(c.Maker, needle) ||
			containsFold(c.Notes, needle) {
			kept = append(kept, c)
		}
	}
	return kept
}

func filterByField(customers []model.Customer, field, value string) []model.Customer {
	kept := customers[:0]
	for _, c := range customers {
		if matchesField(&c, field, value) {
			kept = append(kept, c)
		}
	}
	return kept
}

func matchesField(c *model.Customer, field, value string) bool {
	switch field {
	case "weddingMonth":
		if c.WeddingDate == nil {
			return false
		}
		d, err := time.Parse("2006-01-02", *c.WeddingDate)
		if err != nil {
			return false
		}
		return d.Format("01") == value
	case "status":
		return string(c.Status) == value
	default:
		s, ok := stringField(c, field)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(value))
	}
}

// stringField resolves the string value of a field, reporting false for
// absent values and non-string fields.
func stringField(c *model.Customer, field string) (string, bool) {
	switch field {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "email":
		return c.Email, true
	case "phoneNumber":
		return deref(c.PhoneNumber)
	case "salesperson":
		return deref(c.Salesperson)
	case "status":
		return string(c.Status), true
	case "dress":
		if c.Dress == nil {
			return "", false
		}
		return string(*c.Dress), true
	case "maker":
		return deref(c.Maker)
	case "skraedder":
		return deref(c.Skraedder)
	case "invoiceStatus":
		return string(c.InvoiceStatus), true
	case "invoiceFileUrl":
		return deref(c.InvoiceFileURL)
	case "supplierFileUrl":
		return deref(c.SupplierFileURL)
	case "notes":
		return deref(c.Notes)
	case "weddingDate":
		return deref(c.WeddingDate)
	case "dateAdded":
		return c.DateAdded, true
	case "createdBy":
		return c.CreatedBy, true
	case "createdAt":
		return c.CreatedAt, true
	case "updatedAt":
		return c.UpdatedAt, true
	}
	return "", false
}

// sortKey is the comparison key for a field: the nested size record compares
// by its canonical serialization, absent values and unknown fields compare
// as the empty string.
func sortKey(c *model.Customer, field string) string {
	if field == "size" {
		serialized, err := json.Marshal(c.Size)
		if err != nil {
			return ""
		}
		return string(serialized)
	}

	s, ok := stringField(c, field)
	if !ok {
		return ""
	}
	return s
}

func containsFold(s *string, needle string) bool {
	if s == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*s), needle)
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
