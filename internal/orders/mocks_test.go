package orders

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type MockRepository struct {
	mu        sync.Mutex
	Orders    []*Order
	CreateErr error
	GetErr    error
	UpdateErr error

	OutboxEvents []*OutboxEvent
	FetchErr     error
	MarkErr      error
	ProcessedIDs []int64
}

func (m *MockRepository) CreateOrder(_ context.Context, order *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Orders = append(m.Orders, order)
	return nil
}

func (m *MockRepository) GetOrder(_ context.Context, reference uuid.UUID) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, o := range m.Orders {
		if o.Reference == reference {
			return o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (m *MockRepository) ListOrdersByCustomer(_ context.Context, customerID string) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	var out []*Order
	for _, o := range m.Orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockRepository) UpdateStatus(_ context.Context, reference uuid.UUID, next Status) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	for _, o := range m.Orders {
		if o.Reference != reference {
			continue
		}
		if !o.Status.CanTransitionTo(next) {
			return nil, ErrInvalidTransition
		}
		o.Status = next
		return o, nil
	}
	return nil, ErrOrderNotFound
}

func (m *MockRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	var out []*OutboxEvent
	for _, ev := range m.OutboxEvents {
		if !m.processed(ev.ID) {
			out = append(out, ev)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.ProcessedIDs = append(m.ProcessedIDs, id)
	return nil
}

func (m *MockRepository) processed(id int64) bool {
	for _, p := range m.ProcessedIDs {
		if p == id {
			return true
		}
	}
	return false
}

type MockWriter struct {
	mu       sync.Mutex
	Messages []kafka.Message
	FailKeys map[string]error
}

func (w *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, msg := range msgs {
		if err := w.FailKeys[string(msg.Key)]; err != nil {
			return err
		}
		w.Messages = append(w.Messages, msg)
	}
	return nil
}
