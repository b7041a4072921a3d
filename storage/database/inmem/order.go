package inmemdb

import (
	"context"

	"github.com/trezcool/elimu/core/order"
)

type orderRepository struct {
	db *orderTable
}

var _ order.Repository = (*orderRepository)(nil)

func NewOrderRepository(db *DB) order.Repository {
	return &orderRepository{db: db.order}
}

func (repo *orderRepository) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.put(ctx, o.ID, o)
	return o, nil
}

func (repo *orderRepository) GetOrder(_ context.Context, id string) (order.Order, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if o, ok := repo.db.table[id]; ok {
		return o, nil
	}
	return order.Order{}, order.ErrNotFound
}

func (repo *orderRepository) UpdateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[o.ID]; !ok {
		return order.Order{}, order.ErrNotFound
	}
	repo.db.put(ctx, o.ID, o)
	return o, nil
}
