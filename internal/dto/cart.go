package dto

// Cart is the caller's experience cart.
type Cart struct {
	Items  []Experience `json:"items"`
	IsOpen bool         `json:"isOpen"`
	Count  int          `json:"count"`
}

// NewCart builds a cart view, never returning a nil item list.
func NewCart(items []Experience, open bool) Cart {
	if items == nil {
		items = []Experience{}
	}
	return Cart{Items: items, IsOpen: open, Count: len(items)}
}

// AddCartItemPayload adds or replaces an experience in the cart.
type AddCartItemPayload struct {
	ExperienceID string `json:"experienceId" validate:"required,max=128"`
}
