// Package registry is the durable store of readers and loans.
package registry

import (
	"context"

	"github.com/m3rciful/librobot/internal/domain"
)

// NewReader carries the fields needed to register a reader.
type NewReader struct {
	Name    string
	Contact string
}

// NewLoan carries the fields needed to open a loan.
type NewLoan struct {
	ReaderID  string
	BookTitle string
}

// Repository is the storage contract the dialog machine depends on.
//
// Lookups return (nil, nil) when the entity is absent; a non-nil error
// always means the storage itself is unavailable. Implementations must make
// read-modify-write on a reader's deposit and on a loan's active flag atomic
// per record, so concurrent checkouts and returns for the same reader cannot
// corrupt the deposit or double-close a loan.
type Repository interface {
	CreateReader(ctx context.Context, nr NewReader) (string, error)
	ListReaders(ctx context.Context) ([]domain.Reader, error)
	GetReaderByID(ctx context.Context, id string) (*domain.Reader, error)
	// GetReaderByName returns the first registered reader with that exact
	// name; names are not unique.
	GetReaderByName(ctx context.Context, name string) (*domain.Reader, error)
	SetReaderDeposit(ctx context.Context, id string, amount int) (bool, error)

	CreateLoan(ctx context.Context, nl NewLoan) (string, error)
	ListActiveLoans(ctx context.Context) ([]domain.Loan, error)
	ListActiveLoansForReader(ctx context.Context, readerID string) ([]domain.Loan, error)
	// CloseLoan closes the most recent active loan matching the pair and
	// reports whether one was found. It never closes more than one.
	CloseLoan(ctx context.Context, readerID, bookTitle string) (bool, error)
}
