package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/product-api/pkg/database"
	"github.com/nimeshabuddhika/product-api/pkg/models"
	"github.com/nimeshabuddhika/product-api/pkg/utils"
)

// productDoc is the JSONB body stored next to the id.
type productDoc struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// PostgresProductRepository stores products as JSONB documents in `products`.
type PostgresProductRepository struct {
	db    *database.DB
	newID func() string
}

func NewPostgresProductRepository(db *database.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db, newID: utils.NewObjectID}
}

func (r *PostgresProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT id, doc FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

func (r *PostgresProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT id, doc FROM products WHERE id = $1`, id)
	return oneProduct(row, "find product", id)
}

func (r *PostgresProductRepository) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	if err := checkSchema(in); err != nil {
		return models.Product{}, err
	}
	p := models.NewProduct(r.newID(), in)
	doc, err := json.Marshal(productDoc{Name: p.Name, Price: p.Price})
	if err != nil {
		return models.Product{}, err
	}
	if _, err = r.db.Exec(ctx, `INSERT INTO products (id, doc) VALUES ($1, $2)`, p.ID, doc); err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (r *PostgresProductRepository) UpdateByID(ctx context.Context, id string, patch models.ProductPatch) (models.Product, error) {
	if err := checkSchema(patch); err != nil {
		return models.Product{}, err
	}
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}
	set := make(map[string]any, 2)
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	doc, err := json.Marshal(set)
	if err != nil {
		return models.Product{}, err
	}
	// jsonb || merges top-level keys, i.e. a partial $set
	row := r.db.QueryRowPrimary(ctx, `
		UPDATE products SET doc = doc || $2::jsonb, updated_at = now()
		WHERE id = $1
		RETURNING id, doc`, id, doc)
	return oneProduct(row, "update product", id)
}

func (r *PostgresProductRepository) DeleteByID(ctx context.Context, id string) (models.Product, error) {
	row := r.db.QueryRowPrimary(ctx, `DELETE FROM products WHERE id = $1 RETURNING id, doc`, id)
	return oneProduct(row, "delete product", id)
}

func oneProduct(row pgx.Row, op, id string) (models.Product, error) {
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, ErrRecordNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("%s %s: %w", op, id, err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		id  string
		raw []byte
		doc productDoc
	)
	if err := row.Scan(&id, &raw); err != nil {
		return models.Product{}, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.Product{}, err
	}
	return models.Product{ID: id, Name: doc.Name, Price: doc.Price}, nil
}
