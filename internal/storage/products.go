package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, price_per_kg, COALESCE(description, '') AS description, is_deleted`

func (s *Storage) AddProduct(ctx context.Context, name string, pricePerKg float64, description string) (int64, error) {
	const operation = "storage.AddProduct"

	query := s.db.Rebind(`
		INSERT INTO products (name, price_per_kg, description, is_deleted)
		VALUES (?, ?, ?, 0)
		RETURNING id`)

	var id int64
	if err := s.db.QueryRowxContext(ctx, query, name, pricePerKg, nullString(description)).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	return id, nil
}

// ListProducts returns visible products, newest first.
func (s *Storage) ListProducts(ctx context.Context) ([]Product, error) {
	const operation = "storage.ListProducts"

	var products []Product
	query := `SELECT ` + productColumns + ` FROM products WHERE is_deleted = 0 ORDER BY id DESC`
	if err := s.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return products, nil
}

// ProductByID does not return soft-deleted products.
func (s *Storage) ProductByID(ctx context.Context, id int64) (Product, error) {
	const operation = "storage.ProductByID"

	var p Product
	query := s.db.Rebind(`SELECT ` + productColumns + ` FROM products WHERE id = ? AND is_deleted = 0`)
	if err := s.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}
	return p, nil
}

func (s *Storage) UpdateProductName(ctx context.Context, id int64, name string) error {
	return s.updateProduct(ctx, "storage.UpdateProductName", `UPDATE products SET name = ? WHERE id = ? AND is_deleted = 0`, name, id)
}

// UpdateProductPrice changes the current price only; existing orders keep theirs.
func (s *Storage) UpdateProductPrice(ctx context.Context, id int64, pricePerKg float64) error {
	return s.updateProduct(ctx, "storage.UpdateProductPrice", `UPDATE products SET price_per_kg = ? WHERE id = ? AND is_deleted = 0`, pricePerKg, id)
}

func (s *Storage) UpdateProductDescription(ctx context.Context, id int64, description string) error {
	return s.updateProduct(ctx, "storage.UpdateProductDescription", `UPDATE products SET description = ? WHERE id = ? AND is_deleted = 0`, nullString(description), id)
}

func (s *Storage) updateProduct(ctx context.Context, operation, query string, value any, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), value, id)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SetProductPhotos replaces the photo list, keeping the given order.
func (s *Storage) SetProductPhotos(ctx context.Context, productID int64, refs []string) error {
	const operation = "storage.SetProductPhotos"

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM product_photos WHERE product_id = ?`), productID); err != nil {
			return err
		}
		insert := tx.Rebind(`INSERT INTO product_photos (product_id, file_reference, position) VALUES (?, ?, ?)`)
		for i, ref := range refs {
			if _, err := tx.ExecContext(ctx, insert, productID, ref, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func (s *Storage) ProductPhotos(ctx context.Context, productID int64) ([]string, error) {
	const operation = "storage.ProductPhotos"

	var refs []string
	query := s.db.Rebind(`SELECT file_reference FROM product_photos WHERE product_id = ? ORDER BY position`)
	if err := s.db.SelectContext(ctx, &refs, query, productID); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return refs, nil
}

// DeleteProduct hides the product and drops its photos. Orders keep referencing it.
func (s *Storage) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	const operation = "storage.DeleteProduct"

	var removed bool
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE products SET is_deleted = 1 WHERE id = ? AND is_deleted = 0`), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		removed = true
		_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM product_photos WHERE product_id = ?`), id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", operation, err)
	}
	return removed, nil
}
