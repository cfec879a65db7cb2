package model

// Status is order progress state
type Status string

const (
	StatusVenter           Status = "Venter"
	StatusVenterPaProvning Status = "Venter på prøvning"
	StatusIProduktion      Status = "I produktion"
	StatusKlarTilAfhenting Status = "Klar til afhentning"
	StatusFaerdig          Status = "Færdig"
)

func (s Status) Valid() bool {
	switch s {
	case StatusVenter, StatusVenterPaProvning, StatusIProduktion, StatusKlarTilAfhenting, StatusFaerdig:
		return true
	}
	return false
}

// DressType is dress silhouette, nil on Customer when not chosen yet
type DressType string

const (
	DressALine     DressType = "A-line"
	DressBallGown  DressType = "Ball gown"
	DressMermaid   DressType = "Mermaid"
	DressSheath    DressType = "Sheath"
	DressTeaLength DressType = "Tea-length"
)

func (d DressType) Valid() bool {
	switch d {
	case DressALine, DressBallGown, DressMermaid, DressSheath, DressTeaLength:
		return true
	}
	return false
}

// InvoiceStatus is invoicing progress state
type InvoiceStatus string

const (
	InvoiceSkalSendes    InvoiceStatus = "Skal sendes"
	InvoiceSendt         InvoiceStatus = "Sendt"
	InvoiceDelvistBetalt InvoiceStatus = "Delvist betalt"
	InvoiceBetalt        InvoiceStatus = "Betalt"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceSkalSendes, InvoiceSendt, InvoiceDelvistBetalt, InvoiceBetalt:
		return true
	}
	return false
}

// AccessoryType is the shop's accessory taxonomy
type AccessoryType string

const (
	AccessorySlor     AccessoryType = "Slør"
	AccessoryBaelte   AccessoryType = "Bælte"
	AccessorySjal     AccessoryType = "Sjal"
	AccessoryHandsker AccessoryType = "Handsker"
	AccessoryAndet    AccessoryType = "Andet"
)

func (a AccessoryType) Valid() bool {
	switch a {
	case AccessorySlor, AccessoryBaelte, AccessorySjal, AccessoryHandsker, AccessoryAndet:
		return true
	}
	return false
}

// Size holds the five measurements in centimeters, positive or nil
type Size struct {
	Bryst  *float64 `json:"bryst"`
	Talje  *float64 `json:"talje"`
	Hofte  *float64 `json:"hofte"`
	Arms   *float64 `json:"arms"`
	Height *float64 `json:"height"`
}

// Accessory is a single accessory line on an order
type Accessory struct {
	ID   string        `json:"id"`
	Type AccessoryType `json:"type"`
	Note string        `json:"note"`
}

// Customer is the customer order entity used by application logic.
// Dates are ISO-8601 strings as returned by the hosted store.
type Customer struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	PhoneNumber     *string       `json:"phoneNumber"`
	Salesperson     *string       `json:"salesperson"`
	Status          Status        `json:"status"`
	Dress           *DressType    `json:"dress"`
	Maker           *string       `json:"maker"`
	Skraedder       *string       `json:"skraedder"`
	Size            Size          `json:"size"`
	Accessories     []Accessory   `json:"accessories"`
	InvoiceStatus   InvoiceStatus `json:"invoiceStatus"`
	InvoiceFileURL  *string       `json:"invoiceFileUrl"`
	SupplierFileURL *string       `json:"supplierFileUrl"`
	Notes           *string       `json:"notes"`
	WeddingDate     *string       `json:"weddingDate"`
	DateAdded       string        `json:"dateAdded"`
	CreatedBy       string        `json:"createdBy"`
	CreatedAt       string        `json:"createdAt"`
	UpdatedAt       string        `json:"updatedAt"`
}
