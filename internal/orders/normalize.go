package orders

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/wire"
)

const (
	unknownPayment = "Unknown"
	unknownRecord  = "Unknown Record"
)

// dateLayouts are tried in order. The backend omits the zone.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// normalizeOrder always yields a well formed order. Each field is read on
// its own: a missing or mistyped field takes its default and the rest of
// the order survives. A null or non-object order becomes an empty one
// dated now with no payment method.
func normalizeOrder(raw json.RawMessage, now time.Time) models.Order {
	f, ok := wire.Decode(raw)
	if !ok {
		return models.Order{Date: now, Details: []models.OrderDetail{}}
	}

	out := models.Order{
		ID:            f.Int("idOrder"),
		Date:          parseDate(f.String("orderDate"), now),
		PaymentMethod: f.String("paymentMethod"),
		Total:         f.Float("total"),
		UserEmail:     f.String("userEmail"),
		CartID:        f.Int("cartId"),
		Details:       []models.OrderDetail{},
	}
	if out.PaymentMethod == "" {
		out.PaymentMethod = unknownPayment
	}

	elems, err := wire.Elements(f.Raw("orderDetails"))
	if err != nil {
		return out
	}
	for _, el := range elems {
		out.Details = append(out.Details, normalizeDetail(el))
	}
	return out
}

// normalizeDetail fills a missing or zero total with amount x price and a
// missing title with a placeholder naming the record.
func normalizeDetail(raw json.RawMessage) models.OrderDetail {
	f, ok := wire.Decode(raw)
	if !ok {
		return models.OrderDetail{RecordTitle: unknownRecord}
	}

	out := models.OrderDetail{
		ID:          f.Int("idOrderDetail"),
		OrderID:     f.Int("orderId"),
		RecordID:    f.Int("recordId"),
		RecordTitle: f.String("recordTitle"),
		Amount:      f.Int("amount"),
		Price:       f.Float("price"),
		Total:       f.Float("total"),
	}
	if out.Total == 0 {
		out.Total = float64(out.Amount) * out.Price
	}
	if out.RecordTitle == "" {
		if out.RecordID != 0 {
			out.RecordTitle = "Record " + strconv.Itoa(out.RecordID)
		} else {
			out.RecordTitle = "Record Unknown"
		}
	}
	return out
}

func parseDate(s string, now time.Time) time.Time {
	if s == "" {
		return now
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return now
}
