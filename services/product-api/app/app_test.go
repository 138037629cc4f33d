package app

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg/models"
	"github.com/nimeshabuddhika/product-api/pkg/repositories"
	"github.com/nimeshabuddhika/product-api/pkg/testutils"
	"github.com/nimeshabuddhika/product-api/pkg/utils"
	"github.com/nimeshabuddhika/product-api/services/product-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()
	svc := services.NewProductService(logger, repositories.NewMemoryProductRepository(), services.NoopPublisher{})
	return NewRouter(logger, svc, nil)
}

func createProduct(t *testing.T, r *gin.Engine, payload any) models.Product {
	t.Helper()
	w := testutils.Do(t, r, http.MethodPost, "/api/v1/products", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	out, err := testutils.DecodeSuccess(w.Body)
	require.NoError(t, err)
	var p models.Product
	require.NoError(t, json.Unmarshal(out.Data, &p))
	return p
}

func TestCreateProduct_Success(t *testing.T) {
	// Arrange
	r := newTestRouter(t)

	// Act
	w := testutils.Do(t, r, http.MethodPost, "/api/v1/products", map[string]any{"name": "FakeProduct", "price": 3.5})

	// Assert response
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, testutils.GetTraceId(w))

	// Assert response body
	out, err := testutils.DecodeSuccess(w.Body)
	require.NoError(t, err)
	assert.True(t, out.Success)
	var p map[string]any
	require.NoError(t, json.Unmarshal(out.Data, &p))
	assert.Equal(t, "FakeProduct", p["name"])
	assert.Equal(t, 3.5, p["price"])
	id, ok := p["_id"].(string)
	assert.True(t, ok)
	assert.True(t, utils.IsObjectID(id))
}

func TestCreateProduct_InvalidJSON(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodPost, "/api/v1/products", `{"name": "x",`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid JSON body provided."}`, w.Body.String())
}

func TestCreateProduct_SchemaViolation(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodPost, "/api/v1/products", map[string]any{"name": "NoPrice"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	out, err := testutils.DecodeError(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Invalid product.", out.Message)
	assert.Equal(t, "'price' is required.", out.Details)
}

func TestListProducts(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())

	first := createProduct(t, r, map[string]any{"name": "A", "price": 1})
	second := createProduct(t, r, map[string]any{"name": "B", "price": 2})

	w = testutils.Do(t, r, http.MethodGet, "/api/v1/products", nil)
	out, err := testutils.DecodeSuccess(w.Body)
	require.NoError(t, err)
	var products []models.Product
	require.NoError(t, json.Unmarshal(out.Data, &products))
	assert.Equal(t, []models.Product{first, second}, products)
}

func TestGetProduct(t *testing.T) {
	r := newTestRouter(t)
	created := createProduct(t, r, map[string]any{"name": "FakeProduct", "price": 3.5})

	w := testutils.Do(t, r, http.MethodGet, "/api/v1/products/"+created.ID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	out, err := testutils.DecodeSuccess(w.Body)
	require.NoError(t, err)
	var got models.Product
	require.NoError(t, json.Unmarshal(out.Data, &got))
	assert.Equal(t, created, got)
}

func TestGetProduct_NotFound(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodGet, "/api/v1/products/54edb381a13ec9142b9bb999", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"No product found with ID: '54edb381a13ec9142b9bb999'."}`, w.Body.String())
}

func TestGetProduct_IDIsCaseInsensitive(t *testing.T) {
	r := newTestRouter(t)
	created := createProduct(t, r, map[string]any{"name": "FakeProduct", "price": 3.5})
	upper := strings.ToUpper(created.ID)

	w := testutils.Do(t, r, http.MethodGet, "/api/v1/products/"+upper, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out, err := testutils.DecodeSuccess(w.Body)
	require.NoError(t, err)
	var got models.Product
	require.NoError(t, json.Unmarshal(out.Data, &got))
	assert.Equal(t, created, got)

	w = testutils.Do(t, r, http.MethodPut, "/api/v1/products/"+upper, map[string]any{"price": 4})
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.Do(t, r, http.MethodDelete, "/api/v1/products/"+upper, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.Do(t, r, http.MethodGet, "/api/v1/products/"+upper, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No product found with ID: '"+upper+"'.")
}

func TestGetProduct_MalformedID(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodGet, "/api/v1/products/1234", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"No product found with ID: '1234'."}`, w.Body.String())
}

func TestUpdateProduct(t *testing.T) {
	r := newTestRouter(t)
	created := createProduct(t, r, map[string]any{"name": "FakeProduct", "price": 3.5})

	w := testutils.Do(t, r, http.MethodPut, "/api/v1/products/"+created.ID, map[string]any{"price": 4})

	assert.Equal(t, http.StatusOK, w.Code)
	out, err := testutils.DecodeSuccess(w.Body)
	require.NoError(t, err)
	var got models.Product
	require.NoError(t, json.Unmarshal(out.Data, &got))
	assert.Equal(t, models.Product{ID: created.ID, Name: "FakeProduct", Price: 4}, got)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodPut, "/api/v1/products/54edb381a13ec9142b9bb999", map[string]any{"price": 4})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No product found with ID: '54edb381a13ec9142b9bb999'.")
}

func TestUpdateProduct_TypeMismatch(t *testing.T) {
	r := newTestRouter(t)
	created := createProduct(t, r, map[string]any{"name": "FakeProduct", "price": 3.5})

	w := testutils.Do(t, r, http.MethodPut, "/api/v1/products/"+created.ID, map[string]any{"price": "free"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON body provided.")
}

func TestDeleteProduct(t *testing.T) {
	r := newTestRouter(t)
	created := createProduct(t, r, map[string]any{"name": "FakeProduct", "price": 3.5})

	w := testutils.Do(t, r, http.MethodDelete, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.Do(t, r, http.MethodGet, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.Do(t, r, http.MethodDelete, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouteNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodPatch, "/api/v1/widgets", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	out, err := testutils.DecodeError(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Cannot PATCH /api/v1/widgets", out.Message)
	assert.Equal(t, testutils.GetTraceId(w), out.TraceID)
}

func TestRouteNotFound_MalformedBodyIsBadRequest(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodPost, "/nope", `{bad`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid JSON body provided."}`, w.Body.String())
}

func TestCreateProduct_BlankName(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodPost, "/api/v1/products", map[string]any{"name": "   ", "price": 1})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	out, err := testutils.DecodeError(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Invalid product.", out.Message)
	assert.Equal(t, "'name' must not be empty.", out.Details)
}

func TestTestEndpoint_AnyMethod(t *testing.T) {
	r := newTestRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		w := testutils.Do(t, r, method, "/api/v1/test", nil)
		assert.Equal(t, http.StatusOK, w.Code, method)
		assert.JSONEq(t, `{"success":true,"message":"Successful request!"}`, w.Body.String(), method)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w := testutils.Do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = testutils.Do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "product_api_http_requests_total")
}
