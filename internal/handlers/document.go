package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amalieborg/bridal-crm/internal/cache"
	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
	"github.com/amalieborg/bridal-crm/internal/storage"
)

type uploadResponse struct {
	URL string `json:"url"`
}

// DocumentHandler uploads invoice and supplier documents to the hosted
// storage buckets and records the resulting URLs on the customer.
type DocumentHandler struct {
	storage *storage.Client
	cache   *cache.CustomerCache
}

func NewDocumentHandler(s *storage.Client, c *cache.CustomerCache) *DocumentHandler {
	return &DocumentHandler{storage: s, cache: c}
}

// UploadInvoice stores the invoice document for a customer.
func (h *DocumentHandler) UploadInvoice(c echo.Context) error {
	return h.upload(c, storage.BucketInvoices)
}

// UploadSupplierDocument stores the supplier document for a customer.
func (h *DocumentHandler) UploadSupplierDocument(c echo.Context) error {
	return h.upload(c, storage.BucketSupplier)
}

func (h *DocumentHandler) upload(c echo.Context, bucket string) error {
	id := c.Param("id")

	fileHdr, err := c.FormFile("document")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if fileHdr.Size > storage.MaxFileSize {
		upErr := apperrors.NewUploadError("File too large. Maximum size is 10 MB.", nil)
		return c.JSON(http.StatusBadRequest, errorResponse{Error: apperrors.Sanitize(upErr)})
	}

	file, err := fileHdr.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("failed to load file content - %v", err))
	}
	defer file.Close()

	ctx := c.Request().Context()

	var url string
	if bucket == storage.BucketSupplier {
		url, err = h.storage.UploadSupplierDocument(ctx, id, fileHdr.Filename, file, fileHdr.Size)
	} else {
		url, err = h.storage.UploadInvoice(ctx, id, fileHdr.Filename, file, fileHdr.Size)
	}
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: apperrors.Sanitize(err)})
	}

	if cust, ok := h.cache.Get(id); ok {
		if bucket == storage.BucketSupplier {
			cust.SupplierFileURL = &url
		} else {
			cust.InvoiceFileURL = &url
		}
		if _, err := h.cache.Edit(ctx, id, &cust); err != nil {
			return c.JSON(statusFor(err), errorResponse{Error: apperrors.Sanitize(err)})
		}
	}

	return c.JSON(http.StatusOK, &uploadResponse{URL: url})
}
