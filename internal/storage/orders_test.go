package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shrot-bot/internal/order"
)

const (
	adminA int64 = 111
	adminB int64 = 222
)

func openOrder(t *testing.T, s *Storage, userID, productID int64) int64 {
	t.Helper()
	id, err := s.CreateOrder(context.Background(), NewOrder{
		UserID:    userID,
		ProductID: productID,
		Quantity:  tons(2.3),
		Address:   "Toshkent, Chilonzor",
	})
	require.NoError(t, err)
	return id
}

func TestCreateOrderFreezesPrice(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	u := seedCustomer(t, s, 10)
	product := seedProduct(t, s, 1000)

	lat, lon := 41.31, 69.24
	id, err := s.CreateOrder(ctx, NewOrder{
		UserID:    u.ID,
		ProductID: product,
		Quantity:  tons(2.3),
		Address:   "Toshkent",
		Latitude:  &lat,
		Longitude: &lon,
	})
	require.NoError(t, err)

	require.NoError(t, s.UpdateProductPrice(ctx, product, 1200))

	o, err := s.OrderByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusOpen, o.Status)
	assert.Equal(t, "2.3 tonna", o.Quantity.String())
	assert.Equal(t, 1000.0, o.EffectivePrice())
	assert.Equal(t, 1200.0, o.ProductPrice)
	assert.Nil(t, o.ClosedAt)
	require.NotNil(t, o.Latitude)
	assert.Equal(t, lat, *o.Latitude)

	total, ok := o.Total()
	require.True(t, ok)
	assert.InDelta(t, 2_300_000, total, 1e-6)

	require.NotNil(t, o.ChatID)
	assert.Equal(t, int64(10), *o.ChatID)
	assert.Equal(t, "Kunjara", o.ProductName)
}

func TestCreateOrderMissingProduct(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	u := seedCustomer(t, s, 10)
	product := seedProduct(t, s, 1000)
	_, err := s.DeleteProduct(ctx, product)
	require.NoError(t, err)

	_, err = s.CreateOrder(ctx, NewOrder{UserID: u.ID, ProductID: product, Quantity: tons(2), Address: "x"})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateClosedOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	fixClock(s, time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC))

	walkIn, err := s.CreateWalkInUser(ctx, "Karim", "998931112233")
	require.NoError(t, err)
	product := seedProduct(t, s, 900)

	id, err := s.CreateClosedOrder(ctx, NewOrder{UserID: walkIn, ProductID: product, Quantity: tons(5), Address: "Ombor"}, adminA)
	require.NoError(t, err)

	o, err := s.OrderByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusClosed, o.Status)
	require.NotNil(t, o.ClosedBy)
	assert.Equal(t, adminA, *o.ClosedBy)
	require.NotNil(t, o.ClosedAt)
	assert.Equal(t, time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC), o.ClosedAt.Time)
	assert.Nil(t, o.ChatID)

	outcome, err := s.CancelOrderByAdmin(ctx, id, adminB)
	require.NoError(t, err)
	assert.Equal(t, order.RejectClosedByOther, outcome.Reject(adminB))
}

func TestCreateWalkInOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	product := seedProduct(t, s, 1200)

	userID, orderID, err := s.CreateWalkInOrder(ctx, "Karim", "998931112233", NewOrder{ProductID: product, Quantity: tons(3), Address: "Ombor"}, adminA)
	require.NoError(t, err)

	o, err := s.OrderByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, userID, o.UserID)
	assert.Equal(t, order.StatusClosed, o.Status)
	require.NotNil(t, o.ClosedBy)
	assert.Equal(t, adminA, *o.ClosedBy)

	u, err := s.FindUserByPhone(ctx, "93 111 22 33")
	require.NoError(t, err)
	assert.Equal(t, userID, u.ID)
}

func TestCreateWalkInOrderRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	product := seedProduct(t, s, 1200)
	_, err := s.DeleteProduct(ctx, product)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err = s.CreateWalkInOrder(ctx, "Karim", "998931112233", NewOrder{ProductID: product, Quantity: tons(3), Address: "Ombor"}, adminA)
		require.ErrorIs(t, err, ErrProductNotFound)
	}

	_, err = s.FindUserByPhone(ctx, "931112233")
	require.ErrorIs(t, err, ErrUserNotFound)
	total, err := s.CountOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCloseOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	u := seedCustomer(t, s, 10)
	id := openOrder(t, s, u.ID, seedProduct(t, s, 1000))

	outcome, err := s.CloseOrder(ctx, id, adminA)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, order.RejectNone, outcome.Reject(adminA))

	again, err := s.CloseOrder(ctx, id, adminA)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, order.RejectClosed, again.Reject(adminA))

	other, err := s.CloseOrder(ctx, id, adminB)
	require.NoError(t, err)
	assert.Equal(t, order.RejectClosedByOther, other.Reject(adminB))

	missing, err := s.CloseOrder(ctx, 9999, adminA)
	require.NoError(t, err)
	assert.False(t, missing.Found)
	assert.Equal(t, order.RejectNotFound, missing.Reject(adminA))
}

func TestTerminalOrdersNeverChange(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	setNow := fixClock(s, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	u := seedCustomer(t, s, 10)
	product := seedProduct(t, s, 1000)

	closed := openOrder(t, s, u.ID, product)
	_, err := s.CloseOrder(ctx, closed, adminA)
	require.NoError(t, err)

	canceled := openOrder(t, s, u.ID, product)
	_, err = s.CancelOrderByUser(ctx, canceled, u.ID)
	require.NoError(t, err)

	before := map[int64]Order{}
	for _, id := range []int64{closed, canceled} {
		o, err := s.OrderByID(ctx, id)
		require.NoError(t, err)
		before[id] = o
	}

	setNow(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC))
	for _, id := range []int64{closed, canceled} {
		for _, attempt := range []func() (order.Outcome, error){
			func() (order.Outcome, error) { return s.CloseOrder(ctx, id, adminB) },
			func() (order.Outcome, error) { return s.CancelOrderByAdmin(ctx, id, adminB) },
			func() (order.Outcome, error) { return s.CancelOrderByUser(ctx, id, u.ID) },
		} {
			outcome, err := attempt()
			require.NoError(t, err)
			assert.False(t, outcome.Applied)
			assert.NotEqual(t, order.RejectNone, outcome.Reject(adminB))
		}

		after, err := s.OrderByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before[id].Status, after.Status)
		assert.Equal(t, before[id].ClosedAt, after.ClosedAt)
		assert.Equal(t, before[id].ClosedBy, after.ClosedBy)
		assert.Equal(t, before[id].CanceledBy, after.CanceledBy)
	}
}

func TestConcurrentCloseAndCancel(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	u := seedCustomer(t, s, 10)
	product := seedProduct(t, s, 1000)

	for round := 0; round < 10; round++ {
		id := openOrder(t, s, u.ID, product)

		var (
			wg       sync.WaitGroup
			start    = make(chan struct{})
			outcomes [2]order.Outcome
			errs     [2]error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			outcomes[0], errs[0] = s.CloseOrder(ctx, id, adminA)
		}()
		go func() {
			defer wg.Done()
			<-start
			outcomes[1], errs[1] = s.CancelOrderByAdmin(ctx, id, adminB)
		}()
		close(start)
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		require.True(t, outcomes[0].Applied != outcomes[1].Applied, "exactly one transition must apply")

		winner, loser, loserActor := outcomes[0], outcomes[1], adminB
		if outcomes[1].Applied {
			winner, loser, loserActor = outcomes[1], outcomes[0], adminA
		}
		assert.Equal(t, winner.Status, loser.Status)
		if winner.Status == order.StatusClosed {
			assert.Equal(t, order.RejectClosedByOther, loser.Reject(loserActor))
		} else {
			assert.Equal(t, order.RejectCanceledByOther, loser.Reject(loserActor))
		}

		stored, err := s.OrderByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, winner.Status, stored.Status)
	}
}

func TestCancelOrderByUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	owner := seedCustomer(t, s, 10)
	stranger := seedCustomer(t, s, 20)
	id := openOrder(t, s, owner.ID, seedProduct(t, s, 1000))

	foreign, err := s.CancelOrderByUser(ctx, id, stranger.ID)
	require.NoError(t, err)
	assert.False(t, foreign.Applied)
	assert.Equal(t, order.RejectNotFound, foreign.Reject(0))

	outcome, err := s.CancelOrderByUser(ctx, id, owner.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	o, err := s.OrderByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCanceled, o.Status)
	assert.Equal(t, order.RoleUser, o.CanceledBy)
	assert.Nil(t, o.ClosedBy)
	assert.NotNil(t, o.ClosedAt)

	adminTry, err := s.CloseOrder(ctx, id, adminA)
	require.NoError(t, err)
	assert.Equal(t, order.RejectCanceledByUser, adminTry.Reject(adminA))
}

func TestDeleteOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	u := seedCustomer(t, s, 10)
	id := openOrder(t, s, u.ID, seedProduct(t, s, 1000))

	removed, err := s.DeleteOrder(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteOrder(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.OrderByID(ctx, id)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	setNow := fixClock(s, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	u := seedCustomer(t, s, 10)
	product := seedProduct(t, s, 1000)

	var ids []int64
	for i := 0; i < 12; i++ {
		setNow(time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC))
		id := openOrder(t, s, u.ID, product)
		_, err := s.CloseOrder(ctx, id, adminA)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	open := openOrder(t, s, u.ID, product)

	page, err := s.ListOrders(ctx, order.StatusClosed, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, ids[11], page[0].ID)

	rest, err := s.ListOrders(ctx, order.StatusClosed, 10, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, ids[0], rest[1].ID)

	openList, err := s.ListOrders(ctx, order.StatusOpen, 0, 0)
	require.NoError(t, err)
	require.Len(t, openList, 1)
	assert.Equal(t, open, openList[0].ID)

	mine, err := s.ListUserOrders(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 13)

	total, err := s.CountOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)

	closedCount, err := s.CountOrdersByStatus(ctx, order.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, int64(12), closedCount)
}

func TestClosedOrdersBetween(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	setNow := fixClock(s, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	u := seedCustomer(t, s, 10)
	product := seedProduct(t, s, 1000)

	closeAt := func(at time.Time) int64 {
		setNow(at)
		id, err := s.CreateClosedOrder(ctx, NewOrder{UserID: u.ID, ProductID: product, Quantity: tons(2), Address: "x"}, adminA)
		require.NoError(t, err)
		return id
	}

	before := closeAt(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC))
	onStart := closeAt(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	onEnd := closeAt(time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC))
	after := closeAt(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	// Created inside the range but closed after it: the closing date wins.
	setNow(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	lateClose := openOrder(t, s, u.ID, product)
	setNow(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	_, err := s.CloseOrder(ctx, lateClose, adminA)
	require.NoError(t, err)

	setNow(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	stillOpen := openOrder(t, s, u.ID, product)
	canceled := openOrder(t, s, u.ID, product)
	_, err = s.CancelOrderByAdmin(ctx, canceled, adminA)
	require.NoError(t, err)

	rows, err := s.ClosedOrdersBetween(ctx,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var got []int64
	for _, o := range rows {
		got = append(got, o.ID)
	}
	assert.Equal(t, []int64{onStart, onEnd}, got)
	assert.NotContains(t, got, before)
	assert.NotContains(t, got, after)
	assert.NotContains(t, got, lateClose)
	assert.NotContains(t, got, stillOpen)
}
