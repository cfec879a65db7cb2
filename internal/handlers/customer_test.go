package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/amalieborg/bridal-crm/internal/cache"
	"github.com/amalieborg/bridal-crm/internal/middleware"
	"github.com/amalieborg/bridal-crm/internal/model"
	"github.com/amalieborg/bridal-crm/internal/store"
)

type stubStore struct {
	rows     []store.Row
	insertFn func(ctx context.Context, r store.Row) (store.Row, error)
	updateFn func(ctx context.Context, id string, r store.Row) (store.Row, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubStore) List(context.Context) ([]store.Row, error) {
	return s.rows, nil
}

func (s *stubStore) Insert(ctx context.Context, r store.Row) (store.Row, error) {
	return s.insertFn(ctx, r)
}

func (s *stubStore) Update(ctx context.Context, id string, r store.Row) (store.Row, error) {
	return s.updateFn(ctx, id, r)
}

func (s *stubStore) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubStore) Search(context.Context, string) ([]store.Row, error) {
	return nil, nil
}

func storedRow(id, name, createdAt string) store.Row {
	return store.Row{
		ID:            id,
		Name:          name,
		Email:         fmt.Sprintf("%s@somemail.dk", id),
		Status:        "Venter",
		InvoiceStatus: "Skal sendes",
		DateAdded:     createdAt,
		CreatedBy:     "lise@salon.dk",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

type customerHandlerTestSuite struct {
	suite.Suite
	e         *echo.Echo
	store     *stubStore
	cache     *cache.CustomerCache
	debouncer *cache.SearchDebouncer
	handler   *CustomerHandler
}

func (s *customerHandlerTestSuite) SetupTest() {
	s.e = newEcho()
	s.store = &stubStore{
		rows: []store.Row{
			storedRow("a", "Maria Hansen", "2026-03-01T10:00:00Z"),
			storedRow("b", "Peter Nielsen", "2026-02-01T10:00:00Z"),
			storedRow("c", "Åse Berg", "2026-01-01T10:00:00Z"),
		},
	}
	s.cache = cache.NewCustomerCache(s.store)
	s.Require().NoError(s.cache.Refresh(context.Background()))
	s.debouncer = cache.NewSearchDebouncer(s.cache, 10*time.Millisecond)
	s.handler = NewCustomerHandler(s.cache, s.debouncer)
}

func (s *customerHandlerTestSuite) TearDownTest() {
	s.debouncer.Stop()
}

func (s *customerHandlerTestSuite) getAll(rawQuery string) listResponse {
	req := httptest.NewRequest(http.MethodGet, "/api/customers?"+rawQuery, nil)
	rec := httptest.NewRecorder()

	s.Require().NoError(s.handler.GetAll(s.e.NewContext(req, rec)))
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp listResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *customerHandlerTestSuite) TestGetAllDefaultsToNewestFirst() {
	resp := s.getAll("")

	s.Require().Len(resp.Customers, 3)
	s.Assert().Equal("a", resp.Customers[0].ID)
	s.Assert().Equal("b", resp.Customers[1].ID)
	s.Assert().Equal("c", resp.Customers[2].ID)
	s.Assert().Empty(resp.Error)
}

func (s *customerHandlerTestSuite) TestGetAllAppliesSearchToSnapshot() {
	resp := s.getAll("search=maria")

	s.Require().Len(resp.Customers, 1)
	s.Assert().Equal("Maria Hansen", resp.Customers[0].Name)
}

func (s *customerHandlerTestSuite) TestGetAllAppliesFiltersAndSort() {
	resp := s.getAll("status=Venter&sort=name&dir=asc")

	s.Require().Len(resp.Customers, 3)
	s.Assert().Equal("Maria Hansen", resp.Customers[0].Name)
	s.Assert().Equal("Peter Nielsen", resp.Customers[1].Name)
	s.Assert().Equal("Åse Berg", resp.Customers[2].Name, "Å sorts last under the Danish alphabet")
}

func (s *customerHandlerTestSuite) TestGetReturnsCachedCustomer() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("b")

	s.Require().NoError(s.handler.Get(c))
	s.Require().Equal(http.StatusOK, rec.Code)

	var cust model.Customer
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &cust))
	s.Assert().Equal("Peter Nielsen", cust.Name)
}

func (s *customerHandlerTestSuite) TestGetMissingCustomerFails() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := s.e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("ghost")

	err := s.handler.Get(c)
	s.Require().Error(err)

	httpErr, ok := err.(*echo.HTTPError)
	s.Require().True(ok)
	s.Assert().Equal(http.StatusNotFound, httpErr.Code)
}

func (s *customerHandlerTestSuite) TestPostCreatesCustomerWithCreatedBy() {
	s.store.insertFn = func(_ context.Context, r store.Row) (store.Row, error) {
		s.Assert().Equal("mette@salon.dk", r.CreatedBy)
		stored := r
		stored.ID = "new-id"
		stored.DateAdded = "2026-04-01T10:00:00Z"
		stored.CreatedAt = "2026-04-01T10:00:00Z"
		stored.UpdatedAt = "2026-04-01T10:00:00Z"
		return stored, nil
	}

	payload := `{"name":"Sofie Berg","email":"sofie@somemail.dk","status":"Venter","invoiceStatus":"Skal sendes","accessories":[{"type":"Slør"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/customers", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := s.e.NewContext(req, rec)
	c.Set(middleware.ContextKeyEmail, "mette@salon.dk")

	s.Require().NoError(s.handler.Post(c))
	s.Require().Equal(http.StatusCreated, rec.Code)

	var created model.Customer
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Assert().Equal("new-id", created.ID)
	s.Require().Len(created.Accessories, 1)
	s.Assert().NotEmpty(created.Accessories[0].ID, "accessory lines get an id assigned on create")

	s.Assert().Equal("new-id", s.cache.Customers()[0].ID, "created customer must be prepended to the cache")
}

func (s *customerHandlerTestSuite) TestPostRejectsUnknownStatus() {
	payload := `{"name":"Sofie Berg","email":"sofie@somemail.dk","status":"Ukendt","invoiceStatus":"Skal sendes"}`
	req := httptest.NewRequest(http.MethodPost, "/api/customers", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	s.Require().NoError(s.handler.Post(s.e.NewContext(req, rec)))
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var resp errorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Assert().Equal("unknown status", resp.Error)
}

func (s *customerHandlerTestSuite) TestPutUpdatesCustomerInPlace() {
	s.store.updateFn = func(_ context.Context, id string, r store.Row) (store.Row, error) {
		stored := r
		stored.ID = id
		stored.DateAdded = "2026-02-01T10:00:00Z"
		stored.CreatedAt = "2026-02-01T10:00:00Z"
		stored.UpdatedAt = "2026-04-02T08:00:00Z"
		return stored, nil
	}

	payload := `{"name":"Peter Nielsen-Holm","email":"b@somemail.dk","status":"I produktion","invoiceStatus":"Sendt"}`
	req := httptest.NewRequest(http.MethodPut, "/api/customers/b", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := s.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("b")

	s.Require().NoError(s.handler.Put(c))
	s.Require().Equal(http.StatusOK, rec.Code)

	customers := s.cache.Customers()
	s.Require().Len(customers, 3)
	s.Assert().Equal("Peter Nielsen-Holm", customers[1].Name, "position must be unchanged")
}

func (s *customerHandlerTestSuite) TestDeleteRemovesCustomer() {
	s.store.deleteFn = func(_ context.Context, id string) error {
		s.Assert().Equal("b", id)
		return nil
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/customers/b", nil)
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("b")

	s.Require().NoError(s.handler.DeleteByID(c))
	s.Require().Equal(http.StatusNoContent, rec.Code)

	_, ok := s.cache.Get("b")
	s.Assert().False(ok)
}

func TestCustomerHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(customerHandlerTestSuite))
}
