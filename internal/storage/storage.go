package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
)

const (
	// BucketInvoices holds customer invoice documents
	BucketInvoices = "invoices"
	// BucketSupplier holds supplier confirmation documents
	BucketSupplier = "supplier"
)

const objectEndpoint = "/storage/v1/object"

// MaxFileSize is the largest accepted upload.
const MaxFileSize = 10 << 20 // 10 MB

const defaultRequestTimeout = 30 * time.Second

var validExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
}

// Client uploads documents to the hosted storage buckets and resolves their
// public URLs.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a storage client against the service at baseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, client: httpClient}
}

// UploadInvoice stores an invoice document and returns its public URL. The
// object is keyed {customerID}_invoice.{ext}, or a random key when no
// customer id exists yet.
func (c *Client) UploadInvoice(ctx context.Context, customerID, filename string, content io.Reader, size int64) (string, error) {
	return c.upload(ctx, BucketInvoices, customerID, "invoice", filename, content, size)
}

// UploadSupplierDocument stores a supplier document, keyed
// {customerID}_supplier.{ext}.
func (c *Client) UploadSupplierDocument(ctx context.Context, customerID, filename string, content io.Reader, size int64) (string, error) {
	return c.upload(ctx, BucketSupplier, customerID, "supplier", filename, content, size)
}

// Delete removes an object from a bucket.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	endpoint := fmt.Sprintf("%s%s/%s/%s", c.baseURL, objectEndpoint, bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return apperrors.NewUploadError("Failed to delete file", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewUploadError("Failed to delete file", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.NewUploadError("Failed to delete file",
			fmt.Errorf("storage service status %d - %s", resp.StatusCode, body))
	}
	return nil
}

// PublicURL resolves the publicly reachable URL of an object.
func (c *Client) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s%s/public/%s/%s", c.baseURL, objectEndpoint, bucket, key)
}

func (c *Client) upload(ctx context.Context, bucket, customerID, suffix, filename string, content io.Reader, size int64) (string, error) {
	ext, err := fileExtension(filename)
	if err != nil {
		return "", err
	}

	if size > MaxFileSize {
		return "", apperrors.NewUploadError("File too large. Maximum size is 10 MB.", nil)
	}

	key := fmt.Sprintf("%s_%s.%s", customerID, suffix, ext)
	if customerID == "" {
		key = fmt.Sprintf("%s.%s", uuid.NewString(), ext)
	}

	endpoint := fmt.Sprintf("%s%s/%s/%s", c.baseURL, objectEndpoint, bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, content)
	if err != nil {
		return "", apperrors.NewUploadError("Failed to upload file", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("x-upsert", "true") // replace an earlier document for the same customer
	if contentType := mime.TypeByExtension("." + ext); contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if size > 0 {
		req.ContentLength = size
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.NewUploadError("Failed to upload file", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", apperrors.NewUploadError("Failed to upload file",
			fmt.Errorf("storage service status %d - %s", resp.StatusCode, body))
	}

	return c.PublicURL(bucket, key), nil
}

func fileExtension(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if _, ok := validExtensions[ext]; !ok {
		return "", apperrors.NewUploadError("Invalid file type. Please upload PDF, JPG, PNG, or WebP files.", nil)
	}
	return ext, nil
}
