// Package stock broadcasts record stock changes to whoever is watching.
package stock

import (
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/event"
	"github.com/shashiranjanraj/recordshop/pkg/logger"
	"github.com/shashiranjanraj/recordshop/pkg/metrics"
)

// Update is one stock change.
type Update struct {
	RecordID int `json:"recordId"`
	NewStock int `json:"newStock"`
}

// Notifier is a multicast stream of Updates with no replay.
type Notifier struct {
	bus *event.Bus[Update]
}

// NewNotifier returns a Notifier whose subscribers buffer up to buffer
// updates (0 uses the event package default).
func NewNotifier(buffer int) *Notifier {
	bus := event.NewBus[Update](buffer)
	bus.OnDrop = func(u Update) {
		metrics.StockDropped.Inc()
		logger.Warn("stock: subscriber too slow, update dropped",
			"record_id", u.RecordID, "new_stock", u.NewStock)
	}
	return &Notifier{bus: bus}
}

// Notify broadcasts (recordID, newStock) to every current subscriber.
func (n *Notifier) Notify(recordID, newStock int) {
	metrics.StockEvents.Inc()
	delivered := n.bus.Publish(Update{RecordID: recordID, NewStock: newStock})
	logger.Debug("stock: notify", "record_id", recordID, "new_stock", newStock, "subscribers", delivered)
}

// Subscribe returns a receiver for every later update.
func (n *Notifier) Subscribe() *event.Subscription[Update] {
	return n.bus.Subscribe()
}

// Subscribers reports how many receivers are attached.
func (n *Notifier) Subscribers() int { return n.bus.Len() }

// Close detaches every subscriber.
func (n *Notifier) Close() { n.bus.Close() }

// Reconcile patches the stock of the record u refers to, if present, and
// reports whether anything changed.
func Reconcile(records []models.Record, u Update) bool {
	for i := range records {
		if records[i].ID == u.RecordID {
			changed := records[i].Stock != u.NewStock
			records[i].Stock = u.NewStock
			return changed
		}
	}
	return false
}
