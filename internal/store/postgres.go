package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
)

const customerColumns = `id, name, email, phone_number, salesperson, status, dress, maker, skraedder,
	size_bryst, size_talje, size_hofte, size_arms, size_height, accessories, invoice_status,
	invoice_file_url, supplier_file_url, notes, wedding_date, date_added, created_by, created_at, updated_at`

// postgresStore talks to the hosted table over a direct SQL connection.
// Used when a DSN is configured, e.g. for back-office jobs that bypass the
// REST dialect.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a Store over a pgx connection pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) List(ctx context.Context) ([]Row, error) {
	q := fmt.Sprintf("SELECT %s FROM customers ORDER BY created_at DESC", customerColumns)

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, apperrors.NewStoreError("list", err)
	}
	defer rows.Close()

	return collectRows("list", rows)
}

func (s *postgresStore) Insert(ctx context.Context, r Row) (Row, error) {
	accessories, err := json.Marshal(r.Accessories)
	if err != nil {
		return Row{}, apperrors.NewStoreError("insert", err)
	}

	q := fmt.Sprintf(`INSERT INTO customers(name, email, phone_number, salesperson, status, dress, maker, skraedder,
			size_bryst, size_talje, size_hofte, size_arms, size_height, accessories, invoice_status,
			invoice_file_url, supplier_file_url, notes, wedding_date, created_by)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING %s`, customerColumns)

	inserted, err := scanRow(s.pool.QueryRow(ctx, q,
		r.Name, r.Email, r.PhoneNumber, r.Salesperson, r.Status, r.Dress, r.Maker, r.Skraedder,
		r.SizeBryst, r.SizeTalje, r.SizeHofte, r.SizeArms, r.SizeHeight, accessories, r.InvoiceStatus,
		r.InvoiceFileURL, r.SupplierFileURL, r.Notes, r.WeddingDate, r.CreatedBy))
	if err != nil {
		return Row{}, apperrors.NewStoreError("insert", err)
	}
	return inserted, nil
}

func (s *postgresStore) Update(ctx context.Context, id string, r Row) (Row, error) {
	accessories, err := json.Marshal(r.Accessories)
	if err != nil {
		return Row{}, apperrors.NewStoreError("update", err)
	}

	q := fmt.Sprintf(`UPDATE customers SET name = $1, email = $2, phone_number = $3, salesperson = $4, status = $5,
			dress = $6, maker = $7, skraedder = $8, size_bryst = $9, size_talje = $10, size_hofte = $11,
			size_arms = $12, size_height = $13, accessories = $14, invoice_status = $15, invoice_file_url = $16,
			supplier_file_url = $17, notes = $18, wedding_date = $19, updated_at = now()
		WHERE id = $20
		RETURNING %s`, customerColumns)

	updated, err := scanRow(s.pool.QueryRow(ctx, q,
		r.Name, r.Email, r.PhoneNumber, r.Salesperson, r.Status, r.Dress, r.Maker, r.Skraedder,
		r.SizeBryst, r.SizeTalje, r.SizeHofte, r.SizeArms, r.SizeHeight, accessories, r.InvoiceStatus,
		r.InvoiceFileURL, r.SupplierFileURL, r.Notes, r.WeddingDate, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, apperrors.NewStoreError("update", fmt.Errorf("no customer with id %s", id))
		}
		return Row{}, apperrors.NewStoreError("update", err)
	}
	return updated, nil
}

func (s *postgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM customers WHERE id = $1", id); err != nil {
		return apperrors.NewStoreError("delete", err)
	}
	return nil
}

func (s *postgresStore) Search(ctx context.Context, query string) ([]Row, error) {
	pattern := "%" + SanitizeSearchQuery(query) + "%"

	q := fmt.Sprintf(`SELECT %s FROM customers
		WHERE name ILIKE $1 OR email ILIKE $1 OR dress ILIKE $1 OR maker ILIKE $1 OR notes ILIKE $1
		ORDER BY created_at DESC`, customerColumns)

	rows, err := s.pool.Query(ctx, q, pattern)
	if err != nil {
		return nil, apperrors.NewStoreError("search", err)
	}
	defer rows.Close()

	return collectRows("search", rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(sc rowScanner) (Row, error) {
	var r Row
	var accessories []byte
	var weddingDate *time.Time
	var dateAdded, createdAt, updatedAt time.Time

	err := sc.Scan(&r.ID, &r.Name, &r.Email, &r.PhoneNumber, &r.Salesperson, &r.Status, &r.Dress, &r.Maker,
		&r.Skraedder, &r.SizeBryst, &r.SizeTalje, &r.SizeHofte, &r.SizeArms, &r.SizeHeight, &accessories,
		&r.InvoiceStatus, &r.InvoiceFileURL, &r.SupplierFileURL, &r.Notes, &weddingDate, &dateAdded,
		&r.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return Row{}, err
	}

	if len(accessories) > 0 {
		if err := json.Unmarshal(accessories, &r.Accessories); err != nil {
			return Row{}, fmt.Errorf("malformed accessories column - %w", err)
		}
	}

	if weddingDate != nil {
		d := weddingDate.Format("2006-01-02")
		r.WeddingDate = &d
	}
	r.DateAdded = dateAdded.UTC().Format(time.RFC3339)
	r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	r.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)

	return r, nil
}

func collectRows(op string, rows pgx.Rows) ([]Row, error) {
	out := make([]Row, 0)
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, apperrors.NewStoreError(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}
	return out, nil
}
