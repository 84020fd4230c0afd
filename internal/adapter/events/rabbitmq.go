// Package events carries expense change notifications between sessions over
// RabbitMQ. Incoming payloads cross a validated deserialization boundary: a
// message that fails the embedded JSON schema never reaches the ledger.
package events

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/govalues/decimal"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/savorsave/savorsave/internal/adapter/config"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

//go:embed schema.json
var eventSchema []byte

type Bus struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	schema   *jsonschema.Schema
	logger   *zap.Logger
}

func New(cfg *config.Events, log *zap.Logger) (*Bus, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(eventSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Bus{
		conn:     conn,
		ch:       ch,
		exchange: cfg.Exchange,
		schema:   schema,
		logger:   log,
	}, nil
}

func (b *Bus) Close() error {
	if b.ch != nil && !b.ch.IsClosed() {
		if err := b.ch.Close(); err != nil {
			return fmt.Errorf("close channel: %w", err)
		}
	}
	if b.conn != nil && !b.conn.IsClosed() {
		if err := b.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	return nil
}

func (b *Bus) PublishExpenseEvent(ctx context.Context, ev port.ExpenseEvent) error {
	body, err := json.Marshal(toWire(ev))
	if err != nil {
		return err
	}
	return b.ch.PublishWithContext(ctx, b.exchange, "expense_events", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Subscribe binds a fresh queue to the exchange and streams decoded events
// until ctx is cancelled. Invalid payloads are logged and dropped.
func (b *Bus) Subscribe(ctx context.Context) (<-chan port.ExpenseEvent, error) {
	q, err := b.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := b.ch.QueueBind(q.Name, "expense_events", b.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := b.ch.ConsumeWithContext(ctx, q.Name, "", false, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	out := make(chan port.ExpenseEvent)
	go func() {
		defer close(out)
		for d := range deliveries {
			ev, err := b.decode(d.Body)
			if err != nil {
				b.logger.Warn("dropping invalid expense event", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			if err := d.Ack(false); err != nil {
				b.logger.Warn("ack expense event", zap.Error(err))
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) decode(body []byte) (port.ExpenseEvent, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return port.ExpenseEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := b.schema.Validate(raw); err != nil {
		return port.ExpenseEvent{}, fmt.Errorf("event does not match schema: %w", err)
	}
	var w wireEvent
	if err := json.Unmarshal(body, &w); err != nil {
		return port.ExpenseEvent{}, err
	}
	return w.toPort()
}

type wireEvent struct {
	Kind      string       `json:"kind"`
	ExpenseID string       `json:"expense_id"`
	OwnerID   *uint64      `json:"owner_id"`
	Expense   *wireExpense `json:"expense"`
}

type wireExpense struct {
	ID               string     `json:"id"`
	Description      string     `json:"description"`
	Amount           string     `json:"amount"`
	Category         string     `json:"category"`
	MealType         string     `json:"meal_type"`
	Date             time.Time  `json:"date"`
	Cuisine          string     `json:"cuisine"`
	Restaurant       string     `json:"restaurant"`
	Notes            string     `json:"notes"`
	Status           string     `json:"status"`
	TransactionType  string     `json:"transaction_type"`
	IsSplit          bool       `json:"is_split"`
	SplitTotal       string     `json:"split_total,omitempty"`
	SplitPeopleCount int        `json:"split_people_count,omitempty"`
	SplitMethod      string     `json:"split_method,omitempty"`
	SplitShares      []struct {
		Person string `json:"person"`
		Amount string `json:"amount"`
	} `json:"split_shares,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at"`
	CancelledReason string     `json:"cancelled_reason"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toWire(ev port.ExpenseEvent) wireEvent {
	w := wireEvent{
		Kind:      string(ev.Kind),
		ExpenseID: ev.ExpenseID,
		OwnerID:   ev.OwnerID,
	}
	if ev.Expense == nil {
		return w
	}
	e := ev.Expense
	we := &wireExpense{
		ID:               e.ID,
		Description:      e.Description,
		Amount:           e.Amount.String(),
		Category:         string(e.Category),
		MealType:         string(e.MealType),
		Date:             e.Date,
		Cuisine:          e.Cuisine,
		Restaurant:       e.Restaurant,
		Notes:            e.Notes,
		Status:           string(e.Status),
		TransactionType:  string(e.TransactionType),
		IsSplit:          e.IsSplit,
		SplitPeopleCount: e.SplitPeopleCount,
		SplitMethod:      string(e.SplitMethod),
		CancelledAt:      e.CancelledAt,
		CancelledReason:  e.CancelledReason,
		CreatedAt:        e.CreatedAt,
	}
	if e.IsSplit {
		we.SplitTotal = e.SplitTotal.String()
		for _, s := range e.SplitShares {
			we.SplitShares = append(we.SplitShares, struct {
				Person string `json:"person"`
				Amount string `json:"amount"`
			}{Person: s.Person, Amount: s.Amount.String()})
		}
	}
	w.Expense = we
	return w
}

func (w wireEvent) toPort() (port.ExpenseEvent, error) {
	ev := port.ExpenseEvent{
		Kind:      port.EventKind(w.Kind),
		ExpenseID: w.ExpenseID,
		OwnerID:   w.OwnerID,
	}
	if w.Expense == nil {
		return ev, nil
	}
	amount, err := decimal.Parse(w.Expense.Amount)
	if err != nil {
		return port.ExpenseEvent{}, fmt.Errorf("parse amount: %w", err)
	}
	e := &domain.FoodExpense{
		ID:               w.Expense.ID,
		OwnerID:          w.OwnerID,
		Description:      w.Expense.Description,
		Amount:           amount,
		Category:         domain.ExpenseCategory(w.Expense.Category),
		MealType:         domain.MealType(w.Expense.MealType),
		Date:             w.Expense.Date,
		Cuisine:          w.Expense.Cuisine,
		Restaurant:       w.Expense.Restaurant,
		Notes:            w.Expense.Notes,
		Status:           domain.ExpenseStatus(w.Expense.Status),
		TransactionType:  domain.TransactionType(w.Expense.TransactionType),
		IsSplit:          w.Expense.IsSplit,
		SplitPeopleCount: w.Expense.SplitPeopleCount,
		SplitMethod:      domain.SplitMethod(w.Expense.SplitMethod),
		CancelledAt:      w.Expense.CancelledAt,
		CancelledReason:  w.Expense.CancelledReason,
		CreatedAt:        w.Expense.CreatedAt,
	}
	if w.Expense.IsSplit && w.Expense.SplitTotal != "" {
		if e.SplitTotal, err = decimal.Parse(w.Expense.SplitTotal); err != nil {
			return port.ExpenseEvent{}, fmt.Errorf("parse split total: %w", err)
		}
		for _, s := range w.Expense.SplitShares {
			share, err := decimal.Parse(s.Amount)
			if err != nil {
				return port.ExpenseEvent{}, fmt.Errorf("parse share: %w", err)
			}
			e.SplitShares = append(e.SplitShares, domain.SplitShare{Person: s.Person, Amount: share})
		}
	}
	ev.Expense = e
	return ev, nil
}
