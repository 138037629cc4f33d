package repositories

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/nimeshabuddhika/product-api/pkg"
	"github.com/nimeshabuddhika/product-api/pkg/models"
)

// ErrRecordNotFound is returned when no document has the requested id.
var ErrRecordNotFound = errors.New("record not found")

type ProductRepository interface {
	// FindAll returns every product in insertion order. The slice is never nil.
	FindAll(ctx context.Context) ([]models.Product, error)
	// FindByID returns ErrRecordNotFound when no product has id.
	FindByID(ctx context.Context, id string) (models.Product, error)
	// Create assigns a new id and stores the product.
	Create(ctx context.Context, in models.ProductInput) (models.Product, error)
	// UpdateByID applies patch and returns the updated product.
	UpdateByID(ctx context.Context, id string, patch models.ProductPatch) (models.Product, error)
	// DeleteByID removes the product and returns what was removed.
	DeleteByID(ctx context.Context, id string) (models.Product, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their document names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Whitespace-only names are treated as empty
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// checkSchema enforces the product document schema, reporting violations as a 400.
func checkSchema(doc any) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("schema validation: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return pkg.NewBadRequest(pkg.MsgInvalidProduct, pkg.WithDetails(strings.Join(msgs, " ")), pkg.WithCause(err))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required.", fe.Field())
	case "notblank":
		return fmt.Sprintf("'%s' must not be empty.", fe.Field())
	case "gte":
		return fmt.Sprintf("'%s' must be greater than or equal to %s.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("'%s' failed on '%s'.", fe.Field(), fe.Tag())
	}
}
