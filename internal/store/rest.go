package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
)

const customersEndpoint = "/rest/v1/customers"

const defaultRequestTimeout = 15 * time.Second

// restStore speaks the hosted table's REST dialect. The anonymous access key
// authenticates every call; row-level rules on the hosted side decide what it
// may touch.
type restStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRestStore builds a Store over the hosted table API at baseURL.
func NewRestStore(baseURL, apiKey string, client *http.Client) Store {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &restStore{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (s *restStore) List(ctx context.Context) ([]Row, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")

	body, err := s.do(ctx, "list", http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}
	return s.decodeRows("list", body)
}

func (s *restStore) Insert(ctx context.Context, r Row) (Row, error) {
	body, err := s.do(ctx, "insert", http.MethodPost, url.Values{}, []Row{r})
	if err != nil {
		return Row{}, err
	}

	rows, err := s.decodeRows("insert", body)
	if err != nil {
		return Row{}, err
	}
	if len(rows) == 0 {
		return Row{}, apperrors.NewStoreError("insert", fmt.Errorf("no row returned"))
	}
	return rows[0], nil
}

func (s *restStore) Update(ctx context.Context, id string, r Row) (Row, error) {
	r.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	q := url.Values{}
	q.Set("id", "eq."+id)

	body, err := s.do(ctx, "update", http.MethodPatch, q, r)
	if err != nil {
		return Row{}, err
	}

	rows, err := s.decodeRows("update", body)
	if err != nil {
		return Row{}, err
	}
	if len(rows) == 0 {
		return Row{}, apperrors.NewStoreError("update", fmt.Errorf("no customer with id %s", id))
	}
	return rows[0], nil
}

func (s *restStore) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)

	_, err := s.do(ctx, "delete", http.MethodDelete, q, nil)
	return err
}

func (s *restStore) Search(ctx context.Context, query string) ([]Row, error) {
	pattern := "%" + SanitizeSearchQuery(query) + "%"

	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	q.Set("or", fmt.Sprintf("(name.ilike.%s,email.ilike.%s,dress.ilike.%s,maker.ilike.%s,notes.ilike.%s)",
		pattern, pattern, pattern, pattern, pattern))

	body, err := s.do(ctx, "search", http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}
	return s.decodeRows("search", body)
}

func (s *restStore) do(ctx context.Context, op, method string, q url.Values, payload any) ([]byte, error) {
	endpoint := s.baseURL + customersEndpoint
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.NewStoreError(op, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperrors.NewStoreError(op, fmt.Errorf("unexpected status %d - %s", resp.StatusCode, body))
	}
	return body, nil
}

func (s *restStore) decodeRows(op string, body []byte) ([]Row, error) {
	rows := make([]Row, 0)
	if len(body) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, apperrors.NewStoreError(op, fmt.Errorf("malformed response - %w", err))
	}
	return rows, nil
}
