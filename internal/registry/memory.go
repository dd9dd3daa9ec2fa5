package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/librobot/internal/domain"
)

var (
	_ Repository = (*Postgres)(nil)
	_ Repository = (*Memory)(nil)
)

// Memory is an in-memory Repository for tests and development. Records are
// kept in insertion order; a single mutex makes every operation atomic.
type Memory struct {
	mu      sync.RWMutex
	readers []domain.Reader
	loans   []domain.Loan
	now     func() time.Time
}

// MemoryOption tunes a Memory store.
type MemoryOption func(*Memory)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateReader inserts a reader with a zero deposit and returns its id.
func (m *Memory) CreateReader(_ context.Context, nr NewReader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := domain.Reader{
		ID:               uuid.NewString(),
		Name:             nr.Name,
		Contact:          nr.Contact,
		RegistrationDate: m.now(),
	}
	m.readers = append(m.readers, r)
	return r.ID, nil
}

// ListReaders returns all readers in insertion order.
func (m *Memory) ListReaders(_ context.Context) ([]domain.Reader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Reader, len(m.readers))
	copy(out, m.readers)
	return out, nil
}

// GetReaderByID returns the reader or nil when absent.
func (m *Memory) GetReaderByID(_ context.Context, id string) (*domain.Reader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.readers {
		if m.readers[i].ID == id {
			r := m.readers[i]
			return &r, nil
		}
	}
	return nil, nil
}

// GetReaderByName returns the first reader with that exact name or nil.
func (m *Memory) GetReaderByName(_ context.Context, name string) (*domain.Reader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.readers {
		if m.readers[i].Name == name {
			r := m.readers[i]
			return &r, nil
		}
	}
	return nil, nil
}

// SetReaderDeposit overwrites the held deposit and reports whether the
// reader exists.
func (m *Memory) SetReaderDeposit(_ context.Context, id string, amount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.readers {
		if m.readers[i].ID == id {
			m.readers[i].DepositAmount = amount
			return true, nil
		}
	}
	return false, nil
}

// CreateLoan opens an active loan and returns its id.
func (m *Memory) CreateLoan(_ context.Context, nl NewLoan) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := domain.Loan{
		ID:        uuid.NewString(),
		ReaderID:  nl.ReaderID,
		BookTitle: nl.BookTitle,
		LoanDate:  m.now(),
		IsActive:  true,
	}
	m.loans = append(m.loans, l)
	return l.ID, nil
}

// ListActiveLoans returns every open loan, oldest first.
func (m *Memory) ListActiveLoans(_ context.Context) ([]domain.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Loan
	for _, l := range m.loans {
		if l.IsActive {
			out = append(out, l)
		}
	}
	return out, nil
}

// ListActiveLoansForReader returns the reader's open loans, oldest first.
func (m *Memory) ListActiveLoansForReader(_ context.Context, readerID string) ([]domain.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Loan
	for _, l := range m.loans {
		if l.IsActive && l.ReaderID == readerID {
			out = append(out, l)
		}
	}
	return out, nil
}

// CloseLoan closes the most recent matching active loan and reports whether
// one was found.
func (m *Memory) CloseLoan(_ context.Context, readerID, bookTitle string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Ties on LoanDate resolve to the later insertion.
	last := -1
	for i, l := range m.loans {
		if l.IsActive && l.ReaderID == readerID && l.BookTitle == bookTitle {
			if last < 0 || !l.LoanDate.Before(m.loans[last].LoanDate) {
				last = i
			}
		}
	}
	if last < 0 {
		return false, nil
	}
	ts := m.now()
	m.loans[last].IsActive = false
	m.loans[last].ReturnDate = &ts
	return true, nil
}
