package repositories

import (
	"context"
	"sync"

	"github.com/nimeshabuddhika/product-api/pkg/models"
	"github.com/nimeshabuddhika/product-api/pkg/utils"
)

// MemoryProductRepository keeps products in process memory. Safe for concurrent use.
type MemoryProductRepository struct {
	mu    sync.RWMutex
	docs  map[string]models.Product
	order []string
	newID func() string
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		docs:  make(map[string]models.Product),
		newID: utils.NewObjectID,
	}
}

func (r *MemoryProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.docs[id])
	}
	return out, nil
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.docs[id]
	if !ok {
		return models.Product{}, ErrRecordNotFound
	}
	return p, nil
}

func (r *MemoryProductRepository) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	if err := checkSchema(in); err != nil {
		return models.Product{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p := models.NewProduct(r.newID(), in)
	r.docs[p.ID] = p
	r.order = append(r.order, p.ID)
	return p, nil
}

func (r *MemoryProductRepository) UpdateByID(ctx context.Context, id string, patch models.ProductPatch) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	if err := checkSchema(patch); err != nil {
		return models.Product{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.docs[id]
	if !ok {
		return models.Product{}, ErrRecordNotFound
	}
	p = p.Apply(patch)
	r.docs[id] = p
	return p, nil
}

func (r *MemoryProductRepository) DeleteByID(ctx context.Context, id string) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.docs[id]
	if !ok {
		return models.Product{}, ErrRecordNotFound
	}
	delete(r.docs, id)
	for i, docID := range r.order {
		if docID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, nil
}
