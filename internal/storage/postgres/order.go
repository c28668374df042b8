package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartmenu/order-intake/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
	(customer_name, customer_phone, customer_address, currency, subtotal, tax, total, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

	insertItemSQL = `INSERT INTO order_items
	(order_id, position, item_id, item_name, price, quantity)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`

	selectOrderColumns = `SELECT id, customer_name, customer_phone, customer_address,
	currency, subtotal, tax, total, created_at
	FROM orders`

	listOrdersSQL = selectOrderColumns + ` ORDER BY created_at DESC, id DESC`
	getOrderSQL   = selectOrderColumns + ` WHERE id = $1`

	itemsByOrdersSQL = `SELECT id, order_id, item_id, item_name, price, quantity
	FROM order_items
	WHERE order_id = ANY($1)
	ORDER BY order_id, position`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order and its items in a single transaction and fills
// in the assigned IDs. On error nothing is committed and o is left untouched.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	var (
		orderID int64
		itemIDs = make([]int64, len(o.Items))
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertOrderSQL,
			o.CustomerName, o.CustomerPhone, o.CustomerAddress,
			o.Currency, o.Subtotal, o.Tax, o.Total, o.CreatedAt,
		).Scan(&orderID); err != nil {
			return errors.Wrap(err, "insert order")
		}

		batch := &pgx.Batch{}
		for i, item := range o.Items {
			batch.Queue(insertItemSQL, orderID, i, item.ItemID, item.Name, item.Price, item.Quantity)
		}
		br := tx.SendBatch(ctx, batch)
		for i := range o.Items {
			if err := br.QueryRow().Scan(&itemIDs[i]); err != nil {
				_ = br.Close()
				return errors.Wrapf(err, "insert item %d", i)
			}
		}
		return br.Close()
	})
	if err != nil {
		return errors.Wrap(err, "creating order")
	}

	o.ID = orderID
	for i := range o.Items {
		o.Items[i].ID = itemIDs[i]
		o.Items[i].OrderID = orderID
	}
	return nil
}

// List returns every order with its items, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scanning orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	return orders, nil
}

// Get returns the order with the given id, or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting order %d", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "scanning order %d", id)
	}

	items, err := r.itemsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *OrderRepository) itemsFor(ctx context.Context, orderIDs []int64) ([]order.Item, error) {
	rows, err := r.pool.Query(ctx, itemsByOrdersSQL, orderIDs)
	if err != nil {
		return nil, errors.Wrap(err, "listing order items")
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var item order.Item
		err := row.Scan(&item.ID, &item.OrderID, &item.ItemID, &item.Name, &item.Price, &item.Quantity)
		return item, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning order items")
	}
	return items, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddress,
		&o.Currency, &o.Subtotal, &o.Tax, &o.Total, &o.CreatedAt,
	)
	o.CreatedAt = o.CreatedAt.UTC()
	return o, err
}
