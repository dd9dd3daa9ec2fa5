package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"log/slog"

	"github.com/m3rciful/librobot/core/logger"
	"github.com/m3rciful/librobot/internal/domain"
)

// Postgres stores the registry in PostgreSQL via sqlx. Each mutation is a
// single statement, so per-record atomicity comes from the database itself.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// CreateReader inserts a reader with a zero deposit and returns its id.
func (p *Postgres) CreateReader(ctx context.Context, nr NewReader) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO readers (id, name, contact, deposit_amount, registration_date)
		VALUES ($1, $2, $3, 0, now())`,
		id, nr.Name, nr.Contact,
	)
	if err != nil {
		return "", fmt.Errorf("create reader: %w", err)
	}
	logger.DB.Debug("reader created",
		slog.String("event", "registry.reader.create"),
		slog.String("reader_id", id),
	)
	return id, nil
}

// ListReaders returns all readers in registration order.
func (p *Postgres) ListReaders(ctx context.Context) ([]domain.Reader, error) {
	var out []domain.Reader
	err := p.db.SelectContext(ctx, &out, `
		SELECT id, name, contact, deposit_amount, registration_date
		FROM readers
		ORDER BY registration_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}
	return out, nil
}

// GetReaderByID returns the reader or nil when absent.
func (p *Postgres) GetReaderByID(ctx context.Context, id string) (*domain.Reader, error) {
	var r domain.Reader
	err := p.db.GetContext(ctx, &r, `
		SELECT id, name, contact, deposit_amount, registration_date
		FROM readers
		WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reader by id: %w", err)
	}
	return &r, nil
}

// GetReaderByName returns the earliest-registered reader with that exact
// name, or nil when none matches.
func (p *Postgres) GetReaderByName(ctx context.Context, name string) (*domain.Reader, error) {
	var r domain.Reader
	err := p.db.GetContext(ctx, &r, `
		SELECT id, name, contact, deposit_amount, registration_date
		FROM readers
		WHERE name = $1
		ORDER BY registration_date, id
		LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reader by name: %w", err)
	}
	return &r, nil
}

// SetReaderDeposit overwrites the held deposit and reports whether the
// reader exists.
func (p *Postgres) SetReaderDeposit(ctx context.Context, id string, amount int) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE readers SET deposit_amount = $2 WHERE id = $1`, id, amount)
	if err != nil {
		return false, fmt.Errorf("set reader deposit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set reader deposit: %w", err)
	}
	if n > 0 {
		logger.DB.Debug("deposit updated",
			slog.String("event", "registry.reader.deposit"),
			slog.String("reader_id", id),
			slog.Int("deposit", amount),
		)
	}
	return n > 0, nil
}

// CreateLoan opens an active loan and returns its id.
func (p *Postgres) CreateLoan(ctx context.Context, nl NewLoan) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO loans (id, reader_id, book_title, loan_date, is_active)
		VALUES ($1, $2, $3, now(), TRUE)`,
		id, nl.ReaderID, nl.BookTitle,
	)
	if err != nil {
		return "", fmt.Errorf("create loan: %w", err)
	}
	logger.DB.Debug("loan created",
		slog.String("event", "registry.loan.create"),
		slog.String("loan_id", id),
		slog.String("reader_id", nl.ReaderID),
	)
	return id, nil
}

// ListActiveLoans returns every open loan, oldest first.
func (p *Postgres) ListActiveLoans(ctx context.Context) ([]domain.Loan, error) {
	var out []domain.Loan
	err := p.db.SelectContext(ctx, &out, `
		SELECT id, reader_id, book_title, loan_date, is_active, return_date
		FROM loans
		WHERE is_active
		ORDER BY loan_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list active loans: %w", err)
	}
	return out, nil
}

// ListActiveLoansForReader returns the reader's open loans, oldest first.
func (p *Postgres) ListActiveLoansForReader(ctx context.Context, readerID string) ([]domain.Loan, error) {
	var out []domain.Loan
	err := p.db.SelectContext(ctx, &out, `
		SELECT id, reader_id, book_title, loan_date, is_active, return_date
		FROM loans
		WHERE is_active AND reader_id = $1
		ORDER BY loan_date, id`, readerID)
	if err != nil {
		return nil, fmt.Errorf("list active loans for reader: %w", err)
	}
	return out, nil
}

// CloseLoan closes the most recent matching active loan in one statement.
// The subselect pins a single row, so concurrent returns cannot close the
// same loan twice.
func (p *Postgres) CloseLoan(ctx context.Context, readerID, bookTitle string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE loans SET is_active = FALSE, return_date = now()
		WHERE is_active AND id = (
			SELECT id FROM loans
			WHERE reader_id = $1 AND book_title = $2 AND is_active
			ORDER BY loan_date DESC, id DESC
			LIMIT 1
		)`, readerID, bookTitle)
	if err != nil {
		return false, fmt.Errorf("close loan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close loan: %w", err)
	}
	if n > 0 {
		logger.DB.Debug("loan closed",
			slog.String("event", "registry.loan.close"),
			slog.String("reader_id", readerID),
			slog.String("book_title", bookTitle),
		)
	}
	return n > 0, nil
}
