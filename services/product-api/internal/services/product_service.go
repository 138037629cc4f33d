package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nimeshabuddhika/product-api/pkg"
	"github.com/nimeshabuddhika/product-api/pkg/models"
	"github.com/nimeshabuddhika/product-api/pkg/repositories"
	"github.com/nimeshabuddhika/product-api/pkg/views"
	"go.uber.org/zap"
)

const productResource = "product"

type ProductService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	CreateProduct(ctx context.Context, traceId string, in models.ProductInput) (models.Product, error)
	UpdateProduct(ctx context.Context, traceId string, id string, patch models.ProductPatch) (models.Product, error)
	DeleteProduct(ctx context.Context, traceId string, id string) (models.Product, error)
}

type ProductServiceImpl struct {
	logger    *zap.Logger
	repo      repositories.ProductRepository
	publisher ProductPublisher
}

func NewProductService(logger *zap.Logger, repo repositories.ProductRepository, publisher ProductPublisher) ProductService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &ProductServiceImpl{
		logger:    logger,
		repo:      repo,
		publisher: publisher,
	}
}

func (s *ProductServiceImpl) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *ProductServiceImpl) GetProduct(ctx context.Context, id string) (models.Product, error) {
	product, err := s.repo.FindByID(ctx, storeID(id))
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return models.Product{}, pkg.NewNotFoundWithID(productResource, id, pkg.WithCause(err))
	}
	return product, err
}

func (s *ProductServiceImpl) CreateProduct(ctx context.Context, traceId string, in models.ProductInput) (models.Product, error) {
	product, err := s.repo.Create(ctx, in)
	if err != nil {
		return models.Product{}, err
	}
	s.logger.Info("product created", zap.String(pkg.TraceId, traceId), zap.String(pkg.ProductId, product.ID))
	s.publish(ctx, views.NewProductEvent(views.ProductCreated, traceId, product))
	return product, nil
}

// UpdateProduct returns 404 without touching the store when id does not exist.
func (s *ProductServiceImpl) UpdateProduct(ctx context.Context, traceId string, id string, patch models.ProductPatch) (models.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return models.Product{}, err
	}
	product, err := s.repo.UpdateByID(ctx, storeID(id), patch)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		// deleted between the existence check and the update
		return models.Product{}, pkg.NewNotFoundWithID(productResource, id, pkg.WithCause(err))
	}
	if err != nil {
		return models.Product{}, err
	}
	s.logger.Info("product updated", zap.String(pkg.TraceId, traceId), zap.String(pkg.ProductId, product.ID))
	s.publish(ctx, views.NewProductEvent(views.ProductUpdated, traceId, product))
	return product, nil
}

// DeleteProduct returns 404 without touching the store when id does not exist.
func (s *ProductServiceImpl) DeleteProduct(ctx context.Context, traceId string, id string) (models.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return models.Product{}, err
	}
	product, err := s.repo.DeleteByID(ctx, storeID(id))
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return models.Product{}, pkg.NewNotFoundWithID(productResource, id, pkg.WithCause(err))
	}
	if err != nil {
		return models.Product{}, err
	}
	s.logger.Info("product deleted", zap.String(pkg.TraceId, traceId), zap.String(pkg.ProductId, product.ID))
	s.publish(ctx, views.NewProductEvent(views.ProductDeleted, traceId, product))
	return product, nil
}

// storeID is the canonical lowercase form ids are stored under.
// Not-found messages keep the id as the caller sent it.
func storeID(id string) string {
	return strings.ToLower(id)
}

// publish never fails the request; a lost event is only logged.
func (s *ProductServiceImpl) publish(ctx context.Context, event views.ProductEvent) {
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish product event",
			zap.String(pkg.TraceId, event.TraceID),
			zap.String("type", string(event.Type)),
			zap.String(pkg.ProductId, event.Product.ID),
			zap.Error(err),
		)
	}
}
