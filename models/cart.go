package models

// CartItem is one selectable line in the cart. Two entries never share
// the same (ProductID, SelectedSize) pair; adding a duplicate merges
// quantities instead.
type CartItem struct {
	ProductID     string  `json:"productId"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Image         string  `json:"image,omitempty"`
	SelectedSize  string  `json:"selectedSize,omitempty"`
	SelectedColor string  `json:"selectedColor,omitempty"`
	Quantity      int     `json:"quantity"`
}

// Matches reports whether the item carries the given identity key.
func (i CartItem) Matches(productID, size string) bool {
	return i.ProductID == productID && i.SelectedSize == size
}

// Cart is the serialized form written to the cart storage namespace.
// TotalPrice is derived from Items and stored alongside them, mirroring
// what the storefront client persists.
type Cart struct {
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
}
