package stock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/internal/stock"
	"github.com/shashiranjanraj/recordshop/pkg/event"
)

func next(t *testing.T, sub *event.Subscription[stock.Update]) stock.Update {
	t.Helper()
	select {
	case u := <-sub.C():
		return u
	case <-time.After(time.Second):
		t.Fatal("no stock update received")
		return stock.Update{}
	}
}

func TestNotifyReachesEverySubscriber(t *testing.T) {
	n := stock.NewNotifier(0)
	a, b := n.Subscribe(), n.Subscribe()
	defer a.Unsubscribe()
	defer b.Unsubscribe()

	n.Notify(7, 2)

	assert.Equal(t, stock.Update{RecordID: 7, NewStock: 2}, next(t, a))
	assert.Equal(t, stock.Update{RecordID: 7, NewStock: 2}, next(t, b))
}

func TestLateSubscriberMissesEarlierUpdates(t *testing.T) {
	n := stock.NewNotifier(0)
	n.Notify(1, 5)

	late := n.Subscribe()
	defer late.Unsubscribe()
	n.Notify(2, 9)

	assert.Equal(t, 2, next(t, late).RecordID)
	select {
	case u := <-late.C():
		t.Fatalf("unexpected replay %+v", u)
	default:
	}
}

func TestUnsubscribeDetaches(t *testing.T) {
	n := stock.NewNotifier(0)
	sub := n.Subscribe()
	require.Equal(t, 1, n.Subscribers())
	sub.Unsubscribe()
	assert.Equal(t, 0, n.Subscribers())
	n.Notify(1, 1)
}

func TestReconcilePatchesMatchingRecord(t *testing.T) {
	records := []models.Record{{ID: 7, Stock: 3}, {ID: 8, Stock: 1}}

	assert.True(t, stock.Reconcile(records, stock.Update{RecordID: 7, NewStock: 2}))
	assert.Equal(t, 2, records[0].Stock)
	assert.Equal(t, 1, records[1].Stock)

	assert.False(t, stock.Reconcile(records, stock.Update{RecordID: 99, NewStock: 0}))
}
