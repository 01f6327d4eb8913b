package models

import (
	"bytes"
	"errors"

	"github.com/shashiranjanraj/recordshop/pkg/wire"
)

// CartDetail is one line of a cart as the backend returns it.
type CartDetail struct {
	ID          int     `json:"idCartDetail,omitempty"`
	CartID      int     `json:"cartId"`
	RecordID    int     `json:"recordId"`
	Title       string  `json:"titleRecord,omitempty"`
	RecordTitle string  `json:"recordTitle,omitempty"`
	GroupName   string  `json:"groupName,omitempty"`
	Image       *string `json:"imageRecord,omitempty"`
	Amount      int     `json:"amount"`
	Price       float64 `json:"price,omitempty"`
	Total       float64 `json:"total,omitempty"`
	Stock       int     `json:"stock,omitempty"`
}

// UnmarshalJSON reads each field on its own, so a value of the wrong JSON
// type only zeroes that field.
func (d *CartDetail) UnmarshalJSON(raw []byte) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	f, ok := wire.Decode(raw)
	if !ok {
		return errors.New("models: cart detail is not an object")
	}
	*d = CartDetail{
		ID:          f.Int("idCartDetail"),
		CartID:      f.Int("cartId"),
		RecordID:    f.Int("recordId"),
		Title:       f.String("titleRecord"),
		RecordTitle: f.String("recordTitle"),
		GroupName:   f.String("groupName"),
		Image:       f.StringPtr("imageRecord"),
		Amount:      f.Int("amount"),
		Price:       f.Float("price"),
		Total:       f.Float("total"),
		Stock:       f.Int("stock"),
	}
	return nil
}

// DisplayTitle returns whichever title field the backend filled.
func (d CartDetail) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.RecordTitle
}

// CartLine is the local mirror of one cart line. A line with InCart false
// and Quantity 0 was soft-removed by a resync.
type CartLine struct {
	RecordID  int     `json:"idRecord"`
	Title     string  `json:"title"`
	Image     *string `json:"image,omitempty"`
	GroupName string  `json:"groupName,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"amount"`
	Stock     int     `json:"stock"`
	InCart    bool    `json:"inCart"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// CartState is the immutable snapshot published to subscribers.
type CartState struct {
	Email     string     `json:"email"`
	Lines     []CartLine `json:"lines"`
	ItemCount int        `json:"itemCount"`
	Total     float64    `json:"total"`
	Enabled   bool       `json:"enabled"`
}

// Line returns the line for recordID, if any.
func (s CartState) Line(recordID int) (CartLine, bool) {
	for _, l := range s.Lines {
		if l.RecordID == recordID {
			return l, true
		}
	}
	return CartLine{}, false
}

// Cart is the admin view of a user's cart.
type Cart struct {
	ID         int     `json:"idCart"`
	UserEmail  string  `json:"userEmail"`
	TotalPrice float64 `json:"totalPrice"`
	Enabled    bool    `json:"enabled"`
}

// CartStatus is the body of Carts/GetCartStatus.
type CartStatus struct {
	Enabled bool `json:"enabled"`
}

// ItemCount is the body of CartDetails/getCartItemCount.
type ItemCount struct {
	TotalItems int `json:"totalItems"`
}
