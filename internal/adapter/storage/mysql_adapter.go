package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/minhdq/online-store/internal/core/domain"
	"github.com/minhdq/online-store/internal/port"
)

const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

type MySQLAdapter struct {
	db              *sql.DB
	lockWaitTimeout time.Duration
}

func NewMySQLAdapter(db *sql.DB, lockWaitTimeout time.Duration) *MySQLAdapter {
	return &MySQLAdapter{db: db, lockWaitTimeout: lockWaitTimeout}
}

// RunMigrations brings the schema up to date from the given directory.
func (m *MySQLAdapter) RunMigrations(dir string) error {
	driver, err := migratemysql.WithInstance(m.db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	mig, err := migrate.NewWithDatabaseInstance("file://"+dir, "mysql", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// WithinTx runs fn in one transaction and commits only when fn returns
// nil. The per-transaction innodb_lock_wait_timeout bounds every locked
// read taken through the returned Tx.
func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(tx port.Tx) error) error {
	dbTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback()

	if m.lockWaitTimeout > 0 {
		seconds := int(m.lockWaitTimeout.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		if _, err := dbTx.ExecContext(ctx, `SET innodb_lock_wait_timeout = ?`, seconds); err != nil {
			return fmt.Errorf("set lock wait timeout: %w", err)
		}
	}

	if err := fn(&mysqlTx{tx: dbTx}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, orderID string, userID int64) (*domain.Order, error) {
	var order domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, total_amount, status, created_at
		FROM orders WHERE id = ? AND user_id = ?`, orderID, userID,
	).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	items, err := m.orderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, userID int64, page, perPage int) (*domain.OrderPage, error) {
	var total int
	err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, total_amount, status, created_at
		FROM orders WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	result := &domain.OrderPage{Page: page, PerPage: perPage, Total: total}
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		result.Orders = append(result.Orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order rows: %w", err)
	}

	for i := range result.Orders {
		items, err := m.orderItems(ctx, result.Orders[i].ID)
		if err != nil {
			return nil, err
		}
		result.Orders[i].Items = items
	}
	return result, nil
}

func (m *MySQLAdapter) ListInventory(ctx context.Context, lowStockBelow *int, page, perPage int) ([]domain.InventoryItem, int, error) {
	where := ""
	args := []any{}
	if lowStockBelow != nil {
		where = " WHERE stock_quantity <= ?"
		args = append(args, *lowStockBelow)
	}

	var total int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, price, stock_quantity
		FROM products`+where+`
		ORDER BY id
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.StockQuantity); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("product rows: %w", err)
	}
	return items, total, nil
}

func (m *MySQLAdapter) orderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	// id is auto-increment, so ordering by it preserves insertion
	// order, which is the submitted line order.
	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = ?
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order item rows: %w", err)
	}
	return items, nil
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) LockProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, price, stock_quantity
		FROM products WHERE id = ? FOR UPDATE`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrProductNotFound
	}
	if err != nil {
		return nil, wrapLockErr(fmt.Errorf("lock product %d: %w", productID, err), err)
	}
	return &p, nil
}

func (t *mysqlTx) UpdateProductStock(ctx context.Context, productID int64, newStock int) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE products SET stock_quantity = ?, updated_at = NOW()
		WHERE id = ?`, newStock, productID)
	if err != nil {
		return wrapLockErr(fmt.Errorf("update product stock: %w", err), err)
	}
	return nil
}

func (t *mysqlTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.TotalAmount, order.Status, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *mysqlTx) InsertOrderItem(ctx context.Context, item *domain.OrderItem) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES (?, ?, ?, ?)`,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

// wrapLockErr tags lock-wait timeouts and deadlocks so the service
// layer can report a bounded-wait failure instead of a generic one.
func wrapLockErr(wrapped, cause error) error {
	var myErr *mysql.MySQLError
	if errors.As(cause, &myErr) && (myErr.Number == mysqlErrLockWaitTimeout || myErr.Number == mysqlErrDeadlock) {
		return fmt.Errorf("%w: %v", port.ErrLockTimeout, wrapped)
	}
	return wrapped
}
