package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg"
	middleware "github.com/nimeshabuddhika/product-api/pkg/middlewares"
	"github.com/nimeshabuddhika/product-api/pkg/models"
	"github.com/nimeshabuddhika/product-api/services/product-api/internal/services"
	"go.uber.org/zap"
)

type ProductHandler struct {
	logger  *zap.Logger
	service services.ProductService
}

func NewProductHandler(logger *zap.Logger, svc services.ProductService) *ProductHandler {
	return &ProductHandler{logger: logger, service: svc}
}

// RegisterRoutes registers product routes on the provided group.
func (h *ProductHandler) RegisterRoutes(r *gin.RouterGroup) {
	validateID := middleware.ValidateID("product")

	products := r.Group("/products")
	products.GET("", middleware.Handle(h.ListProducts))
	products.POST("", middleware.Handle(h.CreateProduct))
	products.GET("/:id", validateID, middleware.Handle(h.GetProduct))
	products.PUT("/:id", validateID, middleware.Handle(h.UpdateProduct))
	products.DELETE("/:id", validateID, middleware.Handle(h.DeleteProduct))
}

func (h *ProductHandler) ListProducts(c *gin.Context) error {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, pkg.NewAPIResponse(products))
	return nil
}

func (h *ProductHandler) GetProduct(c *gin.Context) error {
	product, err := h.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, pkg.NewAPIResponse(product))
	return nil
}

func (h *ProductHandler) CreateProduct(c *gin.Context) error {
	var in models.ProductInput
	if err := middleware.BindJSON(c, &in); err != nil {
		return err
	}
	product, err := h.service.CreateProduct(c.Request.Context(), middleware.GetTraceID(c), in)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, pkg.NewAPIResponse(product))
	return nil
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) error {
	var patch models.ProductPatch
	if err := middleware.BindJSON(c, &patch); err != nil {
		return err
	}
	product, err := h.service.UpdateProduct(c.Request.Context(), middleware.GetTraceID(c), c.Param("id"), patch)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, pkg.NewAPIResponse(product))
	return nil
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) error {
	product, err := h.service.DeleteProduct(c.Request.Context(), middleware.GetTraceID(c), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, pkg.NewAPIResponse(product))
	return nil
}
