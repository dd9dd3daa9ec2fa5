package registry

import (
	"context"
	"testing"
	"time"
)

func TestMemoryReaderLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	id, err := repo.CreateReader(ctx, NewReader{Name: "Ann", Contact: "@ann"})
	if err != nil {
		t.Fatalf("CreateReader: %v", err)
	}

	got, err := repo.GetReaderByID(ctx, id)
	if err != nil {
		t.Fatalf("GetReaderByID: %v", err)
	}
	if got == nil || got.Name != "Ann" || got.Contact != "@ann" || got.DepositAmount != 0 {
		t.Fatalf("reader = %+v", got)
	}

	if missing, err := repo.GetReaderByID(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("absent lookup = %+v, %v; want nil, nil", missing, err)
	}

	applied, err := repo.SetReaderDeposit(ctx, id, 25)
	if err != nil || !applied {
		t.Fatalf("SetReaderDeposit = %v, %v", applied, err)
	}
	got, _ = repo.GetReaderByID(ctx, id)
	if got.DepositAmount != 25 {
		t.Fatalf("deposit = %d, want 25", got.DepositAmount)
	}

	if applied, err := repo.SetReaderDeposit(ctx, "nope", 5); err != nil || applied {
		t.Fatalf("deposit on absent reader = %v, %v; want false, nil", applied, err)
	}
}

func TestMemoryListReadersInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	for _, name := range []string{"Zoe", "Ann", "Bob"} {
		if _, err := repo.CreateReader(ctx, NewReader{Name: name, Contact: "@" + name}); err != nil {
			t.Fatalf("CreateReader(%s): %v", name, err)
		}
	}

	readers, err := repo.ListReaders(ctx)
	if err != nil {
		t.Fatalf("ListReaders: %v", err)
	}
	want := []string{"Zoe", "Ann", "Bob"}
	if len(readers) != len(want) {
		t.Fatalf("len = %d, want %d", len(readers), len(want))
	}
	for i, name := range want {
		if readers[i].Name != name {
			t.Fatalf("readers[%d] = %s, want %s", i, readers[i].Name, name)
		}
	}
}

func TestMemoryGetReaderByNameFirstMatch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	first, _ := repo.CreateReader(ctx, NewReader{Name: "Ann", Contact: "@first"})
	repo.CreateReader(ctx, NewReader{Name: "Ann", Contact: "@second"})

	got, err := repo.GetReaderByName(ctx, "Ann")
	if err != nil {
		t.Fatalf("GetReaderByName: %v", err)
	}
	if got == nil || got.ID != first {
		t.Fatalf("got %+v, want first registration %s", got, first)
	}
}

func TestMemoryLoanLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	ann, _ := repo.CreateReader(ctx, NewReader{Name: "Ann", Contact: "@ann"})
	bob, _ := repo.CreateReader(ctx, NewReader{Name: "Bob", Contact: "@bob"})

	repo.CreateLoan(ctx, NewLoan{ReaderID: ann, BookTitle: "Dune"})
	repo.CreateLoan(ctx, NewLoan{ReaderID: bob, BookTitle: "Solaris"})

	all, err := repo.ListActiveLoans(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListActiveLoans = %d loans, %v", len(all), err)
	}
	annLoans, _ := repo.ListActiveLoansForReader(ctx, ann)
	if len(annLoans) != 1 || annLoans[0].BookTitle != "Dune" {
		t.Fatalf("ann's loans = %+v", annLoans)
	}

	applied, err := repo.CloseLoan(ctx, ann, "Dune")
	if err != nil || !applied {
		t.Fatalf("CloseLoan = %v, %v", applied, err)
	}
	if applied, _ := repo.CloseLoan(ctx, ann, "Dune"); applied {
		t.Fatal("closing the same loan twice reported applied")
	}

	all, _ = repo.ListActiveLoans(ctx)
	if len(all) != 1 || all[0].BookTitle != "Solaris" {
		t.Fatalf("active loans after close = %+v", all)
	}
}

func TestMemoryCloseLoanPrefersNewest(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo := NewMemory(WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	ann, _ := repo.CreateReader(ctx, NewReader{Name: "Ann", Contact: "@ann"})
	oldest, _ := repo.CreateLoan(ctx, NewLoan{ReaderID: ann, BookTitle: "Dune"})
	repo.CreateLoan(ctx, NewLoan{ReaderID: ann, BookTitle: "Dune"})

	if applied, err := repo.CloseLoan(ctx, ann, "Dune"); err != nil || !applied {
		t.Fatalf("CloseLoan = %v, %v", applied, err)
	}
	open, _ := repo.ListActiveLoansForReader(ctx, ann)
	if len(open) != 1 || open[0].ID != oldest {
		t.Fatalf("remaining = %+v, want oldest %s still open", open, oldest)
	}
	if open[0].ReturnDate != nil {
		t.Fatalf("open loan carries a return date: %v", open[0].ReturnDate)
	}
}

func TestMemoryCloseLoanTieOnTimestamp(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	repo := NewMemory(WithClock(func() time.Time { return frozen }))

	ann, _ := repo.CreateReader(ctx, NewReader{Name: "Ann", Contact: "@ann"})
	first, _ := repo.CreateLoan(ctx, NewLoan{ReaderID: ann, BookTitle: "Dune"})
	repo.CreateLoan(ctx, NewLoan{ReaderID: ann, BookTitle: "Dune"})

	repo.CloseLoan(ctx, ann, "Dune")
	open, _ := repo.ListActiveLoansForReader(ctx, ann)
	if len(open) != 1 || open[0].ID != first {
		t.Fatalf("equal timestamps should close the later insertion, remaining = %+v", open)
	}
}
