package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/amalieborg/bridal-crm/internal/cache"
	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
	"github.com/amalieborg/bridal-crm/internal/middleware"
	"github.com/amalieborg/bridal-crm/internal/model"
	"github.com/amalieborg/bridal-crm/internal/query"
)

// filterableFields are the query parameters forwarded to the query engine
// as per-field filters.
var filterableFields = []string{
	"status", "salesperson", "dress", "maker", "skraedder", "invoiceStatus", "weddingMonth",
}

type errorResponse struct {
	Error string `json:"error"`
}

type sizePayload struct {
	Bryst  *float64 `json:"bryst" validate:"omitempty,gt=0"`
	Talje  *float64 `json:"talje" validate:"omitempty,gt=0"`
	Hofte  *float64 `json:"hofte" validate:"omitempty,gt=0"`
	Arms   *float64 `json:"arms" validate:"omitempty,gt=0"`
	Height *float64 `json:"height" validate:"omitempty,gt=0"`
}

type accessoryPayload struct {
	ID   string `json:"id"`
	Type string `json:"type" validate:"required"`
	Note string `json:"note"`
}

type customerPayload struct {
	Name          string             `json:"name" validate:"required,max=100"`
	Email         string             `json:"email" validate:"required,email"`
	PhoneNumber   *string            `json:"phoneNumber"`
	Salesperson   *string            `json:"salesperson"`
	Status        string             `json:"status" validate:"required"`
	Dress         *string            `json:"dress"`
	Maker         *string            `json:"maker"`
	Skraedder     *string            `json:"skraedder"`
	Size          sizePayload        `json:"size"`
	Accessories   []accessoryPayload `json:"accessories" validate:"dive"`
	InvoiceStatus string             `json:"invoiceStatus" validate:"required"`
	Notes         *string            `json:"notes"`
	WeddingDate   *string            `json:"weddingDate" validate:"omitempty,datetime=2006-01-02"`
}

// toEntity checks the closed enumerations and builds the entity. Accessory
// lines without an id get one assigned here, not by the store.
func (p *customerPayload) toEntity() (*model.Customer, error) {
	status := model.Status(p.Status)
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", "unknown status")
	}

	invoiceStatus := model.InvoiceStatus(p.InvoiceStatus)
	if !invoiceStatus.Valid() {
		return nil, apperrors.NewValidationError("invoiceStatus", "unknown invoice status")
	}

	var dress *model.DressType
	if p.Dress != nil && *p.Dress != "" {
		d := model.DressType(*p.Dress)
		if !d.Valid() {
			return nil, apperrors.NewValidationError("dress", "unknown dress type")
		}
		dress = &d
	}

	accessories := make([]model.Accessory, 0, len(p.Accessories))
	for _, a := range p.Accessories {
		at := model.AccessoryType(a.Type)
		if !at.Valid() {
			return nil, apperrors.NewValidationError("accessories", "unknown accessory type")
		}
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		accessories = append(accessories, model.Accessory{ID: id, Type: at, Note: a.Note})
	}

	return &model.Customer{
		Name:        p.Name,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		Salesperson: p.Salesperson,
		Status:      status,
		Dress:       dress,
		Maker:       p.Maker,
		Skraedder:   p.Skraedder,
		Size: model.Size{
			Bryst:  p.Size.Bryst,
			Talje:  p.Size.Talje,
			Hofte:  p.Size.Hofte,
			Arms:   p.Size.Arms,
			Height: p.Size.Height,
		},
		Accessories:   accessories,
		InvoiceStatus: invoiceStatus,
		Notes:         p.Notes,
		WeddingDate:   p.WeddingDate,
	}, nil
}

type listResponse struct {
	Customers []model.Customer `json:"customers"`
	Loading   bool             `json:"loading"`
	Searching bool             `json:"searching"`
	Error     string           `json:"error,omitempty"`
}

// CustomerHandler serves the derived customer view and the CRUD operations
// over the optimistic cache.
type CustomerHandler struct {
	cache     *cache.CustomerCache
	debouncer *cache.SearchDebouncer
}

func NewCustomerHandler(c *cache.CustomerCache, d *cache.SearchDebouncer) *CustomerHandler {
	return &CustomerHandler{cache: c, debouncer: d}
}

// GetAll returns the filtered, sorted view of the cached collection. The
// free-text search is applied to the snapshot immediately; the same query is
// debounced against the remote store so the cache converges on the latest
// keystroke's results.
func (h *CustomerHandler) GetAll(c echo.Context) error {
	searchText := c.QueryParam("search")

	filters := make(map[string]string)
	for _, field := range filterableFields {
		if v := c.QueryParam(field); v != "" {
			filters[field] = v
		}
	}

	sortField := c.QueryParam("sort")
	if sortField == "" {
		sortField = "createdAt"
	}
	dir := query.Direction(c.QueryParam("dir"))
	if dir != query.Asc {
		dir = query.Desc
	}

	h.debouncer.Trigger(searchText)

	customers := query.Apply(h.cache.Customers(), searchText, filters, sortField, dir)
	return c.JSON(http.StatusOK, &listResponse{
		Customers: customers,
		Loading:   h.cache.Loading(),
		Searching: h.cache.Searching(),
		Error:     h.cache.Err(),
	})
}

// Get returns a single cached customer.
func (h *CustomerHandler) Get(c echo.Context) error {
	cust, ok := h.cache.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "customer not found")
	}
	return c.JSON(http.StatusOK, &cust)
}

// Post creates a customer; the signed-in staff member becomes createdBy.
func (h *CustomerHandler) Post(c echo.Context) error {
	var payload customerPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.Validate(&payload); err != nil {
		return err
	}

	entity, err := payload.toEntity()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: apperrors.Sanitize(err)})
	}

	if email, ok := c.Get(middleware.ContextKeyEmail).(string); ok {
		entity.CreatedBy = email
	}

	created, err := h.cache.Add(c.Request().Context(), entity)
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: apperrors.Sanitize(err)})
	}
	return c.JSON(http.StatusCreated, created)
}

// Put updates a customer in place.
func (h *CustomerHandler) Put(c echo.Context) error {
	var payload customerPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.Validate(&payload); err != nil {
		return err
	}

	entity, err := payload.toEntity()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: apperrors.Sanitize(err)})
	}

	updated, err := h.cache.Edit(c.Request().Context(), c.Param("id"), entity)
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: apperrors.Sanitize(err)})
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteByID removes a customer.
func (h *CustomerHandler) DeleteByID(c echo.Context) error {
	if err := h.cache.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: apperrors.Sanitize(err)})
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh forces a full reload from the store.
func (h *CustomerHandler) Refresh(c echo.Context) error {
	if err := h.cache.Refresh(c.Request().Context()); err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: apperrors.Sanitize(err)})
	}
	return c.JSON(http.StatusOK, &listResponse{
		Customers: h.cache.Customers(),
		Loading:   h.cache.Loading(),
		Searching: h.cache.Searching(),
	})
}

func statusFor(err error) int {
	var vErr *apperrors.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}

	var rlErr *apperrors.RateLimitError
	if errors.As(err, &rlErr) {
		return http.StatusTooManyRequests
	}

	var authErr *apperrors.AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized
	}

	var upErr *apperrors.UploadError
	if errors.As(err, &upErr) {
		return http.StatusBadRequest
	}

	var stErr *apperrors.StoreError
	if errors.As(err, &stErr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
