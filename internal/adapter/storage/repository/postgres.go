package repository

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/savorsave/savorsave/internal/adapter/storage"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
)

type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	statement := r.db.QueryBuilder.
		Insert("users").
		Columns("login", "password").
		Values(user.Login, user.Password).
		Suffix("RETURNING id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	statement := r.db.QueryBuilder.
		Select("id", "login", "password").
		From("users").
		Where(sq.Eq{"login": login})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	user := domain.User{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.Login, &user.Password)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return &user, nil
}

var orderColumns = []string{
	"id", "number", "owner_id", "restaurant_id", "restaurant_name", "delivery_type",
	"subtotal", "delivery_fee", "tax", "discount", "total", "status",
	"payment_method", "payment_status", "payment_id", "transaction_id",
	"COALESCE(rating, 0)", "COALESCE(review, '')", "estimated_delivery_time",
	"placed_at", "confirmed_at", "preparing_at", "ready_at", "picked_up_at",
	"on_the_way_at", "nearby_at", "delivered_at", "cancelled_at", "failed_at",
	"cancelled_reason", "cancelled_by",
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := domain.Order{}
	err := row.Scan(
		&order.ID, &order.Number, &order.OwnerID,
		&order.RestaurantID, &order.RestaurantName, &order.DeliveryType,
		&order.Subtotal, &order.DeliveryFee, &order.Tax, &order.Discount, &order.Total,
		&order.Status,
		&order.Payment.Method, &order.Payment.Status, &order.Payment.PaymentID, &order.Payment.TransactionID,
		&order.Rating, &order.Review, &order.EstimatedDeliveryTime,
		&order.PlacedAt, &order.ConfirmedAt, &order.PreparingAt, &order.ReadyAt,
		&order.PickedUpAt, &order.OnTheWayAt, &order.NearbyAt, &order.DeliveredAt,
		&order.CancelledAt, &order.FailedAt,
		&order.CancelledReason, &order.CancelledBy,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder assigns the next date-prefixed order number and inserts the
// order, its items and the first history entry in one transaction. The count
// and the insert share the transaction, which keeps the sequence collision
// free under the store's isolation.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	now := time.Now()
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var count int
		prefix := now.Format("20060102") + "%"
		err := tx.QueryRow(ctx,
			`SELECT count(*) FROM orders WHERE number LIKE $1`, prefix).Scan(&count)
		if err != nil {
			return err
		}
		order.Number = domain.FormatOrderNumber(now, count+1)

		orderSt := r.db.QueryBuilder.
			Insert("orders").
			Columns("number", "owner_id", "restaurant_id", "restaurant_name", "delivery_type",
				"subtotal", "delivery_fee", "tax", "discount", "total", "status",
				"payment_method", "payment_status", "payment_id", "transaction_id",
				"estimated_delivery_time", "placed_at").
			Values(order.Number, order.OwnerID, order.RestaurantID, order.RestaurantName, order.DeliveryType,
				order.Subtotal, order.DeliveryFee, order.Tax, order.Discount, order.Total, order.Status,
				order.Payment.Method, order.Payment.Status, order.Payment.PaymentID, order.Payment.TransactionID,
				order.EstimatedDeliveryTime, order.PlacedAt).
			Suffix("RETURNING id")

		sql, args, err := orderSt.ToSql()
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&order.ID); err != nil {
			return err
		}

		for _, item := range order.Items {
			itemSt := r.db.QueryBuilder.
				Insert("order_items").
				Columns("order_id", "name", "quantity", "unit_price", "subtotal").
				Values(order.ID, item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
			sql, args, err := itemSt.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, sql, args...); err != nil {
				return err
			}
		}

		histSt := r.db.QueryBuilder.
			Insert("order_status_history").
			Columns("order_id", "status", "message", "created_at").
			Values(order.ID, domain.OrderStatusPlaced, "Order placed", now)
		sql, args, err = histSt.ToSql()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}
	return order, nil
}

func (r *Repository) ReadOrder(ctx context.Context, number string) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"number": number})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	itemsSt := r.db.QueryBuilder.
		Select("name", "quantity", "unit_price", "subtotal").
		From("order_items").
		Where(sq.Eq{"order_id": order.ID}).
		OrderBy("id")
	sql, args, err = itemsSt.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		item := domain.OrderItem{}
		if err := rows.Scan(&item.Name, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) ListOrdersByOwner(ctx context.Context, owner *uint64) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"owner_id": owner}).
		OrderBy("placed_at DESC")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func statusColumn(s domain.OrderStatus) string {
	switch s {
	case domain.OrderStatusPlaced:
		return "placed_at"
	case domain.OrderStatusConfirmed:
		return "confirmed_at"
	case domain.OrderStatusPreparing:
		return "preparing_at"
	case domain.OrderStatusReady:
		return "ready_at"
	case domain.OrderStatusPickedUp:
		return "picked_up_at"
	case domain.OrderStatusOnTheWay:
		return "on_the_way_at"
	case domain.OrderStatusNearby:
		return "nearby_at"
	case domain.OrderStatusDelivered:
		return "delivered_at"
	case domain.OrderStatusCancelled:
		return "cancelled_at"
	case domain.OrderStatusFailed:
		return "failed_at"
	}
	return ""
}

// UpdateOrderStatus persists an already-applied transition: the status row
// update and the history append commit together or not at all. Timestamp
// columns are only ever filled, never overwritten (COALESCE keeps the first
// value).
func (r *Repository) UpdateOrderStatus(ctx context.Context, order *domain.Order, entry *domain.StatusHistoryEntry) (bool, error) {
	found := false
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		column := statusColumn(entry.Status)
		if column == "" {
			return domain.ErrBadOrderStatus
		}
		stamp := entry.CreatedAt
		if slot := order.StatusTimestamp(entry.Status); slot != nil && *slot != nil {
			stamp = **slot
		}
		updateSt := r.db.QueryBuilder.
			Update("orders").
			Set("status", order.Status).
			Set(column, sq.Expr("COALESCE("+column+", ?)", stamp)).
			Set("cancelled_reason", order.CancelledReason).
			Set("cancelled_by", order.CancelledBy).
			Where(sq.Eq{"id": order.ID})

		sql, args, err := updateSt.ToSql()
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		histSt := r.db.QueryBuilder.
			Insert("order_status_history").
			Columns("order_id", "status", "message", "location", "created_at").
			Values(entry.OrderID, entry.Status, entry.Message, entry.Location, entry.CreatedAt)
		sql, args, err = histSt.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return found, nil
}

func (r *Repository) SaveOrderRating(ctx context.Context, number string, rating int, review string) (bool, error) {
	statement := r.db.QueryBuilder.
		Update("orders").
		Set("rating", rating).
		Set("review", review).
		Where(sq.Eq{"number": number}).
		Where("rating IS NULL")

	sql, args, err := statement.ToSql()
	if err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) ListOrderHistory(ctx context.Context, orderID uint64) ([]*domain.StatusHistoryEntry, error) {
	statement := r.db.QueryBuilder.
		Select("id", "order_id", "status", "message", "location", "created_at").
		From("order_status_history").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("created_at", "id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.StatusHistoryEntry, 0)
	for rows.Next() {
		entry := domain.StatusHistoryEntry{}
		err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status,
			&entry.Message, &entry.Location, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		list = append(list, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) CreateExpense(ctx context.Context, expense *domain.FoodExpense) (*domain.FoodExpense, error) {
	var shares []byte
	if expense.IsSplit {
		b, err := json.Marshal(expense.SplitShares)
		if err != nil {
			return nil, err
		}
		shares = b
	}

	statement := r.db.QueryBuilder.
		Insert("expenses").
		Columns("owner_id", "description", "amount", "category", "meal_type", "occurred_at",
			"cuisine", "restaurant", "notes", "status", "transaction_type",
			"is_split", "split_total", "split_people_count", "split_method", "split_shares",
			"cancelled_at", "cancelled_reason").
		Values(expense.OwnerID, expense.Description, expense.Amount, expense.Category, expense.MealType,
			expense.Date, expense.Cuisine, expense.Restaurant, expense.Notes,
			expense.Status, expense.TransactionType,
			expense.IsSplit, expense.SplitTotal, expense.SplitPeopleCount, expense.SplitMethod, shares,
			expense.CancelledAt, expense.CancelledReason).
		Suffix("RETURNING id::text, created_at")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	created := *expense
	err = r.db.QueryRow(ctx, sql, args...).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, id string, owner *uint64, upd *port.ExpenseUpdate) error {
	statement := r.db.QueryBuilder.
		Update("expenses").
		Where(sq.Eq{"id": id, "owner_id": owner})

	changed := false
	set := func(column string, value any) {
		statement = statement.Set(column, value)
		changed = true
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Amount != nil {
		set("amount", *upd.Amount)
	}
	if upd.Category != nil {
		set("category", *upd.Category)
	}
	if upd.MealType != nil {
		set("meal_type", *upd.MealType)
	}
	if upd.Date != nil {
		set("occurred_at", *upd.Date)
	}
	if upd.Cuisine != nil {
		set("cuisine", *upd.Cuisine)
	}
	if upd.Restaurant != nil {
		set("restaurant", *upd.Restaurant)
	}
	if upd.Notes != nil {
		set("notes", *upd.Notes)
	}
	if upd.Status != nil {
		set("status", *upd.Status)
	}
	if upd.CancelledAt != nil {
		set("cancelled_at", *upd.CancelledAt)
	}
	if upd.CancelledReason != nil {
		set("cancelled_reason", *upd.CancelledReason)
	}
	if !changed {
		return domain.ErrNoUpdatedData
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDataNotFound
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id string, owner *uint64) error {
	statement := r.db.QueryBuilder.
		Delete("expenses").
		Where(sq.Eq{"id": id, "owner_id": owner})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDataNotFound
	}
	return nil
}

func (r *Repository) ListExpensesByOwner(ctx context.Context, owner *uint64) ([]*domain.FoodExpense, error) {
	statement := r.db.QueryBuilder.
		Select("id::text", "owner_id", "description", "amount", "category", "meal_type", "occurred_at",
			"cuisine", "restaurant", "notes", "status", "transaction_type",
			"is_split", "COALESCE(split_total, 0)", "COALESCE(split_people_count, 0)",
			"COALESCE(split_method, '')", "split_shares",
			"cancelled_at", "cancelled_reason", "created_at").
		From("expenses").
		Where(sq.Eq{"owner_id": owner}).
		OrderBy("occurred_at DESC", "created_at DESC")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.FoodExpense, 0)
	for rows.Next() {
		expense := domain.FoodExpense{}
		var shares []byte
		err := rows.Scan(
			&expense.ID, &expense.OwnerID, &expense.Description, &expense.Amount,
			&expense.Category, &expense.MealType, &expense.Date,
			&expense.Cuisine, &expense.Restaurant, &expense.Notes,
			&expense.Status, &expense.TransactionType,
			&expense.IsSplit, &expense.SplitTotal, &expense.SplitPeopleCount, &expense.SplitMethod, &shares,
			&expense.CancelledAt, &expense.CancelledReason, &expense.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(shares) > 0 {
			if err := json.Unmarshal(shares, &expense.SplitShares); err != nil {
				return nil, err
			}
		}
		list = append(list, &expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) ReadBudget(ctx context.Context, owner *uint64, period domain.BudgetPeriod) (*domain.Budget, error) {
	statement := r.db.QueryBuilder.
		Select("id", "owner_id", "period", "spending_limit", "alert_threshold", "enabled").
		From("budgets").
		Where(sq.Eq{"owner_id": owner, "period": period})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	budget := domain.Budget{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&budget.ID, &budget.OwnerID, &budget.Period,
		&budget.Limit, &budget.AlertThreshold, &budget.Enabled)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return &budget, nil
}

// UpsertBudget keeps exactly one budget row per owner and period; concurrent
// writers collapse onto the unique expression index.
func (r *Repository) UpsertBudget(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	statement := r.db.QueryBuilder.
		Insert("budgets").
		Columns("owner_id", "period", "spending_limit", "alert_threshold", "enabled").
		Values(budget.OwnerID, budget.Period, budget.Limit, budget.AlertThreshold, budget.Enabled).
		Suffix(`ON CONFLICT ((COALESCE(owner_id, 0)), period) DO UPDATE
			SET spending_limit = EXCLUDED.spending_limit,
			    alert_threshold = EXCLUDED.alert_threshold,
			    enabled = EXCLUDED.enabled
			RETURNING id`)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&budget.ID); err != nil {
		return nil, err
	}
	return budget, nil
}
