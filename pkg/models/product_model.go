package models

// Product is the stored document. The id is assigned by the store.
type Product struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name" validate:"required,notblank"`
	Price float64 `json:"price" validate:"gte=0"`
}

// ProductInput is the body of a create request. Pointers tell absent fields from zero values.
type ProductInput struct {
	Name  *string  `json:"name" validate:"required,notblank"`
	Price *float64 `json:"price" validate:"required,gte=0"`
}

// ProductPatch is the body of an update request. Only supplied fields change.
type ProductPatch struct {
	Name  *string  `json:"name" validate:"omitempty,notblank"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

// NewProduct builds a document from a validated input.
func NewProduct(id string, in ProductInput) Product {
	p := Product{ID: id}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	return p
}

// Apply returns a copy of p with the patch's supplied fields set.
func (p Product) Apply(patch ProductPatch) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (patch ProductPatch) IsEmpty() bool {
	return patch.Name == nil && patch.Price == nil
}
