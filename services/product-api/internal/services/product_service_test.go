package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nimeshabuddhika/product-api/pkg"
	"github.com/nimeshabuddhika/product-api/pkg/models"
	"github.com/nimeshabuddhika/product-api/pkg/repositories"
	"github.com/nimeshabuddhika/product-api/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	knownID   = "54edb381a13ec9142b9bb111"
	missingID = "54edb381a13ec9142b9bb999"
	traceID   = "trace-1"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) FindAll(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (models.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *mockRepo) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *mockRepo) UpdateByID(ctx context.Context, id string, patch models.ProductPatch) (models.Product, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *mockRepo) DeleteByID(ctx context.Context, id string) (models.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Product), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishProductEvent(ctx context.Context, event views.ProductEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() {}

func product() models.Product {
	return models.Product{ID: knownID, Name: "FakeProduct", Price: 3.5}
}

func eventOf(t views.ProductEventType) any {
	return mock.MatchedBy(func(e views.ProductEvent) bool {
		return e.Type == t && e.TraceID == traceID && e.Product.ID == knownID
	})
}

func assertNotFound(t *testing.T, err error, id string) {
	t.Helper()
	appErr, category := pkg.Classify(err)
	require.Equal(t, pkg.CategoryKnown, category)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, "No product found with ID: '"+id+"'.", appErr.Message)
}

func TestListProducts_NilBecomesEmpty(t *testing.T) {
	repo := &mockRepo{}
	repo.On("FindAll", mock.Anything).Return(nil, nil)
	svc := NewProductService(zap.NewNop(), repo, nil)

	products, err := svc.ListProducts(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestListProducts_StoreFailurePassesThrough(t *testing.T) {
	storeErr := errors.New("connection reset")
	repo := &mockRepo{}
	repo.On("FindAll", mock.Anything).Return(nil, storeErr)
	svc := NewProductService(zap.NewNop(), repo, nil)

	_, err := svc.ListProducts(context.Background())

	assert.ErrorIs(t, err, storeErr)
	_, category := pkg.Classify(err)
	assert.Equal(t, pkg.CategoryUnknown, category)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := &mockRepo{}
	repo.On("FindByID", mock.Anything, missingID).Return(models.Product{}, repositories.ErrRecordNotFound)
	svc := NewProductService(zap.NewNop(), repo, nil)

	_, err := svc.GetProduct(context.Background(), missingID)

	assertNotFound(t, err, missingID)
}

func TestGetProduct_UppercaseIDLooksUpLowercase(t *testing.T) {
	upper := "54EDB381A13EC9142B9BB999"
	repo := &mockRepo{}
	repo.On("FindByID", mock.Anything, missingID).Return(models.Product{}, repositories.ErrRecordNotFound)
	svc := NewProductService(zap.NewNop(), repo, nil)

	_, err := svc.GetProduct(context.Background(), upper)

	assertNotFound(t, err, upper)
	repo.AssertExpectations(t)
}

func TestDeleteProduct_UppercaseID(t *testing.T) {
	repo := &mockRepo{}
	repo.On("FindByID", mock.Anything, knownID).Return(product(), nil)
	repo.On("DeleteByID", mock.Anything, knownID).Return(product(), nil)
	svc := NewProductService(zap.NewNop(), repo, nil)

	got, err := svc.DeleteProduct(context.Background(), traceID, "54EDB381A13EC9142B9BB111")

	require.NoError(t, err)
	assert.Equal(t, product(), got)
	repo.AssertExpectations(t)
}

func TestCreateProduct_PublishesEvent(t *testing.T) {
	in := models.ProductInput{}
	repo := &mockRepo{}
	repo.On("Create", mock.Anything, in).Return(product(), nil)
	pub := &mockPublisher{}
	pub.On("PublishProductEvent", mock.Anything, eventOf(views.ProductCreated)).Return(nil).Once()
	svc := NewProductService(zap.NewNop(), repo, pub)

	got, err := svc.CreateProduct(context.Background(), traceID, in)

	require.NoError(t, err)
	assert.Equal(t, product(), got)
	pub.AssertExpectations(t)
}

func TestCreateProduct_FailureDoesNotPublish(t *testing.T) {
	schemaErr := pkg.NewBadRequest(pkg.MsgInvalidProduct)
	repo := &mockRepo{}
	repo.On("Create", mock.Anything, mock.Anything).Return(models.Product{}, schemaErr)
	pub := &mockPublisher{}
	svc := NewProductService(zap.NewNop(), repo, pub)

	_, err := svc.CreateProduct(context.Background(), traceID, models.ProductInput{})

	assert.Same(t, schemaErr, err)
	pub.AssertNotCalled(t, "PublishProductEvent", mock.Anything, mock.Anything)
}

func TestCreateProduct_PublishFailureIsOnlyLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := &mockRepo{}
	repo.On("Create", mock.Anything, mock.Anything).Return(product(), nil)
	pub := &mockPublisher{}
	pub.On("PublishProductEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	svc := NewProductService(zap.New(core), repo, pub)

	got, err := svc.CreateProduct(context.Background(), traceID, models.ProductInput{})

	require.NoError(t, err)
	assert.Equal(t, product(), got)
	entries := logs.FilterMessage("failed to publish product event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, traceID, entries[0].ContextMap()[pkg.TraceId])
}

func TestUpdateProduct_MissingIsNotIssued(t *testing.T) {
	repo := &mockRepo{}
	repo.On("FindByID", mock.Anything, missingID).Return(models.Product{}, repositories.ErrRecordNotFound)
	pub := &mockPublisher{}
	svc := NewProductService(zap.NewNop(), repo, pub)

	_, err := svc.UpdateProduct(context.Background(), traceID, missingID, models.ProductPatch{})

	assertNotFound(t, err, missingID)
	repo.AssertNotCalled(t, "UpdateByID", mock.Anything, mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "PublishProductEvent", mock.Anything, mock.Anything)
}

func TestUpdateProduct_Success(t *testing.T) {
	name := "Renamed"
	patch := models.ProductPatch{Name: &name}
	updated := product()
	updated.Name = name
	repo := &mockRepo{}
	repo.On("FindByID", mock.Anything, knownID).Return(product(), nil)
	repo.On("UpdateByID", mock.Anything, knownID, patch).Return(updated, nil)
	pub := &mockPublisher{}
	pub.On("PublishProductEvent", mock.Anything, eventOf(views.ProductUpdated)).Return(nil)
	svc := NewProductService(zap.NewNop(), repo, pub)

	got, err := svc.UpdateProduct(context.Background(), traceID, knownID, patch)

	require.NoError(t, err)
	assert.Equal(t, updated, got)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestUpdateProduct_DeletedAfterExistenceCheck(t *testing.T) {
	repo := &mockRepo{}
	repo.On("FindByID", mock.Anything, knownID).Return(product(), nil)
	repo.On("UpdateByID", mock.Anything, knownID, mock.Anything).Return(models.Product{}, repositories.ErrRecordNotFound)
	svc := NewProductService(zap.NewNop(), repo, nil)

	_, err := svc.UpdateProduct(context.Background(), traceID, knownID, models.ProductPatch{})

	assertNotFound(t, err, knownID)
}

func TestDeleteProduct_MissingIsNotIssued(t *testing.T) {
	repo := &mockRepo{}
	repo.On("FindByID", mock.Anything, missingID).Return(models.Product{}, repositories.ErrRecordNotFound)
	svc := NewProductService(zap.NewNop(), repo, nil)

	_, err := svc.DeleteProduct(context.Background(), traceID, missingID)

	assertNotFound(t, err, missingID)
	repo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestDeleteProduct_Success(t *testing.T) {
	repo := &mockRepo{}
	repo.On("FindByID", mock.Anything, knownID).Return(product(), nil)
	repo.On("DeleteByID", mock.Anything, knownID).Return(product(), nil)
	pub := &mockPublisher{}
	pub.On("PublishProductEvent", mock.Anything, eventOf(views.ProductDeleted)).Return(nil)
	svc := NewProductService(zap.NewNop(), repo, pub)

	got, err := svc.DeleteProduct(context.Background(), traceID, knownID)

	require.NoError(t, err)
	assert.Equal(t, product(), got)
	pub.AssertExpectations(t)
}

func TestDeleteProduct_LookupFailurePassesThrough(t *testing.T) {
	storeErr := errors.New("timeout")
	repo := &mockRepo{}
	repo.On("FindByID", mock.Anything, knownID).Return(models.Product{}, storeErr)
	svc := NewProductService(zap.NewNop(), repo, nil)

	_, err := svc.DeleteProduct(context.Background(), traceID, knownID)

	assert.ErrorIs(t, err, storeErr)
	repo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}
