package models

import "time"

// Order is a normalized order. Every field is always populated.
type Order struct {
	ID            int           `json:"idOrder"`
	Date          time.Time     `json:"orderDate"`
	PaymentMethod string        `json:"paymentMethod"`
	Total         float64       `json:"total"`
	UserEmail     string        `json:"userEmail"`
	CartID        int           `json:"cartId"`
	Details       []OrderDetail `json:"orderDetails"`
}

// OrderDetail is one normalized order line.
type OrderDetail struct {
	ID          int     `json:"idOrderDetail"`
	OrderID     int     `json:"orderId"`
	RecordID    int     `json:"recordId"`
	RecordTitle string  `json:"recordTitle"`
	Amount      int     `json:"amount"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}
