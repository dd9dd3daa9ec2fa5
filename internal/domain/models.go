// Package domain holds the lending registry entities.
package domain

import "time"

// Reader is a registered library member. DepositAmount is nonzero exactly
// while the reader holds at least one active loan that required a deposit.
type Reader struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	Contact          string    `db:"contact"`
	DepositAmount    int       `db:"deposit_amount"`
	RegistrationDate time.Time `db:"registration_date"`
}

// HasDeposit reports whether a refundable deposit is currently held.
func (r Reader) HasDeposit() bool { return r.DepositAmount > 0 }

// Loan records a single book checkout. ReturnDate is set once, when the
// loan is closed.
type Loan struct {
	ID         string     `db:"id"`
	ReaderID   string     `db:"reader_id"`
	BookTitle  string     `db:"book_title"`
	LoanDate   time.Time  `db:"loan_date"`
	IsActive   bool       `db:"is_active"`
	ReturnDate *time.Time `db:"return_date"`
}
