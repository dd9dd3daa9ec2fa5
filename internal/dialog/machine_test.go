package dialog

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/librobot/internal/registry"
)

func newTestMachine(t *testing.T) (*Machine, *registry.Memory) {
	t.Helper()
	repo := registry.NewMemory()
	m := NewMachine(repo, Config{FixedDeposit: -1})
	return m, repo
}

// drive feeds a sequence of inputs through the machine, failing the test on
// any step error, and returns the final session and reply.
func drive(t *testing.T, m *Machine, sess Session, inputs ...Input) (Session, Reply) {
	t.Helper()
	ctx := context.Background()
	var reply Reply
	var err error
	for i, in := range inputs {
		sess, reply, err = m.Step(ctx, sess, in)
		if err != nil {
			t.Fatalf("step %d (%+v): %v", i, in, err)
		}
	}
	return sess, reply
}

func text(s string) Input   { return Input{Text: s} }
func action(a Action) Input { return Input{Action: a} }

func registerReader(t *testing.T, m *Machine, name, contact string) {
	t.Helper()
	sess, _ := drive(t, m, NewSession(),
		action(ActionAddReader),
		text(name),
		text(contact),
		action(ActionYes),
	)
	if sess.State != StateMainMenu {
		t.Fatalf("after registration state = %q, want %q", sess.State, StateMainMenu)
	}
}

func checkoutBook(t *testing.T, m *Machine, readerName, title, deposit string) {
	t.Helper()
	inputs := []Input{action(ActionCheckout), text(readerName), text(title)}
	if deposit != "" {
		inputs = append(inputs, text(deposit))
	}
	inputs = append(inputs, action(ActionYes))
	drive(t, m, NewSession(), inputs...)
}

func TestRegistrationFlow(t *testing.T) {
	m, repo := newTestMachine(t)

	sess, reply := drive(t, m, NewSession(), action(ActionAddReader))
	if sess.State != StateAwaitingReaderName {
		t.Fatalf("state = %q, want %q", sess.State, StateAwaitingReaderName)
	}

	sess, reply = drive(t, m, sess, text("Ann"), text("@ann"))
	if sess.State != StateConfirmingReader {
		t.Fatalf("state = %q, want %q", sess.State, StateConfirmingReader)
	}
	if !strings.Contains(reply.Text, "Ann") || !strings.Contains(reply.Text, "@ann") {
		t.Fatalf("confirmation does not echo collected fields: %q", reply.Text)
	}

	sess, reply = drive(t, m, sess, action(ActionYes))
	if sess.State != StateMainMenu {
		t.Fatalf("state = %q, want %q", sess.State, StateMainMenu)
	}
	if !strings.Contains(reply.Text, "Ann added") {
		t.Fatalf("reply = %q, want registration acknowledgement", reply.Text)
	}

	readers, err := repo.ListReaders(context.Background())
	if err != nil {
		t.Fatalf("ListReaders: %v", err)
	}
	if len(readers) != 1 || readers[0].Name != "Ann" || readers[0].Contact != "@ann" {
		t.Fatalf("stored readers = %+v", readers)
	}
}

func TestRegistrationCancelled(t *testing.T) {
	m, repo := newTestMachine(t)

	sess, reply := drive(t, m, NewSession(),
		action(ActionAddReader),
		text("Bob"),
		text("bob@example.com"),
		action(ActionNo),
	)
	if sess.State != StateMainMenu {
		t.Fatalf("state = %q, want %q", sess.State, StateMainMenu)
	}
	if !strings.Contains(reply.Text, "cancelled") {
		t.Fatalf("reply = %q, want cancellation", reply.Text)
	}

	readers, _ := repo.ListReaders(context.Background())
	if len(readers) != 0 {
		t.Fatalf("cancelled registration persisted: %+v", readers)
	}
}

func TestCheckoutFirstLoanTakesDeposit(t *testing.T) {
	m, repo := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")

	sess, reply := drive(t, m, NewSession(), action(ActionCheckout))
	if sess.State != StateChoosingReaderForCheckout {
		t.Fatalf("state = %q, want %q", sess.State, StateChoosingReaderForCheckout)
	}

	sess, reply = drive(t, m, sess, text("Ann"), text("Dune"))
	if sess.State != StateAwaitingDepositAmount {
		t.Fatalf("first loan skipped the deposit prompt, state = %q", sess.State)
	}
	if len(reply.Keyboard) == 0 || reply.Keyboard[0][0] != "10" {
		t.Fatalf("deposit keyboard = %v, want presets starting with 10", reply.Keyboard)
	}

	sess, reply = drive(t, m, sess, text("20"), action(ActionYes))
	if sess.State != StateMainMenu {
		t.Fatalf("state = %q, want %q", sess.State, StateMainMenu)
	}
	if !strings.Contains(reply.Text, `"Dune"`) || !strings.Contains(reply.Text, "Deposit 20") {
		t.Fatalf("reply = %q", reply.Text)
	}

	ann, _ := repo.GetReaderByName(context.Background(), "Ann")
	if ann.DepositAmount != 20 {
		t.Fatalf("deposit = %d, want 20", ann.DepositAmount)
	}
	loans, _ := repo.ListActiveLoansForReader(context.Background(), ann.ID)
	if len(loans) != 1 || loans[0].BookTitle != "Dune" {
		t.Fatalf("active loans = %+v", loans)
	}
}

func TestCheckoutSecondLoanSkipsDeposit(t *testing.T) {
	m, repo := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")
	checkoutBook(t, m, "Ann", "Dune", "20")

	sess, reply := drive(t, m, NewSession(),
		action(ActionCheckout),
		text("Ann"),
		text("Solaris"),
	)
	if sess.State != StateConfirmingCheckout {
		t.Fatalf("second loan prompted for deposit, state = %q", sess.State)
	}
	if !strings.Contains(reply.Text, "no deposit") {
		t.Fatalf("reply = %q", reply.Text)
	}

	_, reply = drive(t, m, sess, action(ActionYes))
	if strings.Contains(reply.Text, "Deposit") {
		t.Fatalf("second checkout mentions a deposit: %q", reply.Text)
	}

	ann, _ := repo.GetReaderByName(context.Background(), "Ann")
	if ann.DepositAmount != 20 {
		t.Fatalf("deposit = %d, want unchanged 20", ann.DepositAmount)
	}
	loans, _ := repo.ListActiveLoansForReader(context.Background(), ann.ID)
	if len(loans) != 2 {
		t.Fatalf("active loans = %d, want 2", len(loans))
	}
}

func TestFixedDepositPolicy(t *testing.T) {
	repo := registry.NewMemory()
	m := NewMachine(repo, Config{FixedDeposit: 15})
	registerReader(t, m, "Ann", "@ann")

	sess, reply := drive(t, m, NewSession(),
		action(ActionCheckout),
		text("Ann"),
		text("Dune"),
	)
	if sess.State != StateConfirmingCheckout {
		t.Fatalf("fixed deposit still prompted, state = %q", sess.State)
	}
	if !strings.Contains(reply.Text, "Deposit: 15") {
		t.Fatalf("reply = %q, want fixed amount echoed", reply.Text)
	}

	drive(t, m, sess, action(ActionYes))
	ann, _ := repo.GetReaderByName(context.Background(), "Ann")
	if ann.DepositAmount != 15 {
		t.Fatalf("deposit = %d, want 15", ann.DepositAmount)
	}
}

func TestZeroFixedDepositSkipsCharge(t *testing.T) {
	repo := registry.NewMemory()
	m := NewMachine(repo, Config{FixedDeposit: 0})
	registerReader(t, m, "Ann", "@ann")

	_, reply := drive(t, m, NewSession(),
		action(ActionCheckout),
		text("Ann"),
		text("Dune"),
		action(ActionYes),
	)
	if strings.Contains(reply.Text, "received") {
		t.Fatalf("zero deposit acknowledged as received: %q", reply.Text)
	}
	ann, _ := repo.GetReaderByName(context.Background(), "Ann")
	if ann.DepositAmount != 0 {
		t.Fatalf("deposit = %d, want 0", ann.DepositAmount)
	}
}

func TestReturnLastLoanRefundsDeposit(t *testing.T) {
	m, repo := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")
	checkoutBook(t, m, "Ann", "Dune", "20")

	sess, reply := drive(t, m, NewSession(), action(ActionReturn))
	if sess.State != StateChoosingLoanToReturn {
		t.Fatalf("state = %q, want %q", sess.State, StateChoosingLoanToReturn)
	}
	label := ReturnLabel("Ann", "Dune")
	if _, ok := sess.Scratch.ReturnOptions[label]; !ok {
		t.Fatalf("options = %v, want %q", sess.Scratch.ReturnOptions, label)
	}

	sess, reply = drive(t, m, sess, text(label))
	if sess.State != StateMainMenu {
		t.Fatalf("state = %q, want %q", sess.State, StateMainMenu)
	}
	if !strings.Contains(reply.Text, "Refund the 20 deposit") {
		t.Fatalf("reply = %q, want refund notice", reply.Text)
	}

	ann, _ := repo.GetReaderByName(context.Background(), "Ann")
	if ann.DepositAmount != 0 {
		t.Fatalf("deposit = %d, want 0 after refund", ann.DepositAmount)
	}
	loans, _ := repo.ListActiveLoans(context.Background())
	if len(loans) != 0 {
		t.Fatalf("active loans = %+v, want none", loans)
	}
}

func TestReturnKeepsDepositWhileLoansRemain(t *testing.T) {
	m, repo := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")
	checkoutBook(t, m, "Ann", "Dune", "20")
	checkoutBook(t, m, "Ann", "Solaris", "")

	sess, _ := drive(t, m, NewSession(), action(ActionReturn))
	sess, reply := drive(t, m, sess, text(ReturnLabel("Ann", "Dune")))
	if strings.Contains(reply.Text, "Refund") {
		t.Fatalf("refund offered while a loan is still open: %q", reply.Text)
	}

	ann, _ := repo.GetReaderByName(context.Background(), "Ann")
	if ann.DepositAmount != 20 {
		t.Fatalf("deposit = %d, want 20 kept", ann.DepositAmount)
	}
	loans, _ := repo.ListActiveLoansForReader(context.Background(), ann.ID)
	if len(loans) != 1 || loans[0].BookTitle != "Solaris" {
		t.Fatalf("active loans = %+v", loans)
	}
}

func TestReturnResolvesDuplicateReaderNames(t *testing.T) {
	m, repo := newTestMachine(t)
	registerReader(t, m, "Ann", "@first")
	registerReader(t, m, "Ann", "@second")
	checkoutBook(t, m, "Ann", "Dune", "10")

	readers, _ := repo.ListReaders(context.Background())
	first, second := readers[0], readers[1]
	// The label lookup picked the first Ann; check out for the second
	// directly so both share a label-colliding name.
	if _, err := repo.CreateLoan(context.Background(), registry.NewLoan{
		ReaderID: second.ID, BookTitle: "Dune",
	}); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	sess, _ := drive(t, m, NewSession(), action(ActionReturn))
	if len(sess.Scratch.ReturnOptions) != 1 {
		// Both loans render the same label; the map keeps one target.
		t.Logf("options = %v", sess.Scratch.ReturnOptions)
	}
	target := sess.Scratch.ReturnOptions[ReturnLabel("Ann", "Dune")]
	if target.ReaderID != first.ID && target.ReaderID != second.ID {
		t.Fatalf("target %+v resolves to neither reader", target)
	}

	drive(t, m, sess, text(ReturnLabel("Ann", "Dune")))
	loans, _ := repo.ListActiveLoans(context.Background())
	if len(loans) != 1 {
		t.Fatalf("active loans = %d, want exactly one closed", len(loans))
	}
}

func TestReturnLabelContainingSeparator(t *testing.T) {
	m, repo := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")
	checkoutBook(t, m, "Ann", "Dune: Messiah", "10")

	sess, _ := drive(t, m, NewSession(), action(ActionReturn))
	label := ReturnLabel("Ann", "Dune: Messiah")
	if _, ok := sess.Scratch.ReturnOptions[label]; !ok {
		t.Fatalf("options = %v, want %q", sess.Scratch.ReturnOptions, label)
	}

	drive(t, m, sess, text(label))
	loans, _ := repo.ListActiveLoans(context.Background())
	if len(loans) != 0 {
		t.Fatalf("loan with separator in title not closed: %+v", loans)
	}
}

func TestListingFlows(t *testing.T) {
	m, _ := newTestMachine(t)

	_, reply := drive(t, m, NewSession(), action(ActionListReaders))
	if !strings.Contains(reply.Text, "Nobody is registered") {
		t.Fatalf("empty listing reply = %q", reply.Text)
	}

	registerReader(t, m, "Ann", "@ann")
	checkoutBook(t, m, "Ann", "Dune", "20")

	_, reply = drive(t, m, NewSession(), action(ActionListReaders))
	if !strings.Contains(reply.Text, "Ann: @ann") {
		t.Fatalf("reader listing = %q", reply.Text)
	}

	_, reply = drive(t, m, NewSession(), action(ActionListLoans))
	if !strings.Contains(reply.Text, `"Dune" - Ann`) {
		t.Fatalf("loan listing = %q", reply.Text)
	}

	sess, _ := drive(t, m, NewSession(), action(ActionReaderLoans))
	if sess.State != StateChoosingReaderForListing {
		t.Fatalf("state = %q, want %q", sess.State, StateChoosingReaderForListing)
	}
	_, reply = drive(t, m, sess, text("Ann"))
	if !strings.Contains(reply.Text, "Dune") || !strings.Contains(reply.Text, "Deposit on file: 20") {
		t.Fatalf("per-reader listing = %q", reply.Text)
	}
}

func TestReaderWithoutLoansListing(t *testing.T) {
	m, _ := newTestMachine(t)
	registerReader(t, m, "Bob", "@bob")

	sess, _ := drive(t, m, NewSession(), action(ActionReaderLoans))
	_, reply := drive(t, m, sess, text("Bob"))
	if !strings.Contains(reply.Text, "no active loans") {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestInvalidInputKeepsState(t *testing.T) {
	m, _ := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")

	cases := []struct {
		name   string
		setup  []Input
		bad    Input
		expect State
	}{
		{"empty name", []Input{action(ActionAddReader)}, text("   "), StateAwaitingReaderName},
		{"empty contact", []Input{action(ActionAddReader), text("Bob")}, text(""), StateAwaitingReaderContact},
		{"garbage confirm", []Input{action(ActionAddReader), text("Bob"), text("@bob")}, text("maybe"), StateConfirmingReader},
		{"unknown reader", []Input{action(ActionCheckout)}, text("Nobody"), StateChoosingReaderForCheckout},
		{"empty title", []Input{action(ActionCheckout), text("Ann")}, text(""), StateAwaitingBookTitle},
		{"bad deposit", []Input{action(ActionCheckout), text("Ann"), text("Dune")}, text("lots"), StateAwaitingDepositAmount},
		{"negative deposit", []Input{action(ActionCheckout), text("Ann"), text("Dune")}, text("-5"), StateAwaitingDepositAmount},
	}
	for _, tc := range cases {
		sess, _ := drive(t, m, NewSession(), tc.setup...)
		sess, _ = drive(t, m, sess, tc.bad)
		if sess.State != tc.expect {
			t.Fatalf("%s: state = %q, want %q", tc.name, sess.State, tc.expect)
		}
	}
}

func TestBadReturnSelection(t *testing.T) {
	m, _ := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")
	checkoutBook(t, m, "Ann", "Dune", "10")

	sess, _ := drive(t, m, NewSession(), action(ActionReturn))
	sess, reply := drive(t, m, sess, text("not a label"))
	if sess.State != StateChoosingLoanToReturn {
		t.Fatalf("state = %q, want to stay choosing", sess.State)
	}
	if !strings.Contains(reply.Text, "pick from the list") {
		t.Fatalf("reply = %q", reply.Text)
	}

	sess, reply = drive(t, m, sess, text(ReturnLabel("Ann", "Hamlet")))
	if sess.State != StateChoosingLoanToReturn {
		t.Fatalf("state = %q, want to stay choosing", sess.State)
	}
	if !strings.Contains(reply.Text, "not active anymore") {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestResetFromAnyState(t *testing.T) {
	m, _ := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")

	starts := [][]Input{
		{action(ActionAddReader)},
		{action(ActionAddReader), text("Bob")},
		{action(ActionAddReader), text("Bob"), text("@bob")},
		{action(ActionCheckout)},
		{action(ActionCheckout), text("Ann")},
		{action(ActionCheckout), text("Ann"), text("Dune")},
	}
	for i, setup := range starts {
		sess, _ := drive(t, m, NewSession(), setup...)
		sess, reply := drive(t, m, sess, action(ActionReset))
		if sess.State != StateMainMenu {
			t.Fatalf("case %d: state = %q, want %q", i, sess.State, StateMainMenu)
		}
		if sess.Scratch.ReaderName != "" || sess.Scratch.BookTitle != "" {
			t.Fatalf("case %d: scratch survived reset: %+v", i, sess.Scratch)
		}
		if len(reply.Keyboard) == 0 {
			t.Fatalf("case %d: reset reply has no menu keyboard", i)
		}
	}
}

func TestBackReturnsToMenu(t *testing.T) {
	m, _ := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")
	registerReader(t, m, "Bob", "@bob")
	checkoutBook(t, m, "Ann", "Dune", "10")

	// Bob has no loans, so his checkout reaches the deposit prompt.
	for i, tc := range []struct {
		setup []Input
		from  State
	}{
		{[]Input{action(ActionCheckout)}, StateChoosingReaderForCheckout},
		{[]Input{action(ActionCheckout), text("Bob"), text("Hamlet")}, StateAwaitingDepositAmount},
		{[]Input{action(ActionReturn)}, StateChoosingLoanToReturn},
		{[]Input{action(ActionReaderLoans)}, StateChoosingReaderForListing},
	} {
		sess, _ := drive(t, m, NewSession(), tc.setup...)
		if sess.State != tc.from {
			t.Fatalf("case %d: setup landed in %q, want %q", i, sess.State, tc.from)
		}
		sess, _ = drive(t, m, sess, action(ActionBack))
		if sess.State != StateMainMenu {
			t.Fatalf("case %d: state = %q, want %q", i, sess.State, StateMainMenu)
		}
	}
}

func TestMainMenuFallback(t *testing.T) {
	decorated := "✨ pick something"
	m := NewMachine(registry.NewMemory(), Config{FixedDeposit: -1},
		WithFallback(func() string { return decorated }))

	sess, reply := drive(t, m, NewSession(), text("what?"))
	if sess.State != StateMainMenu {
		t.Fatalf("state = %q, want %q", sess.State, StateMainMenu)
	}
	if reply.Text != decorated {
		t.Fatalf("reply = %q, want decorator output", reply.Text)
	}
}

func TestEmptyRegistryShortcuts(t *testing.T) {
	m, _ := newTestMachine(t)

	for _, a := range []Action{ActionCheckout, ActionReturn, ActionListLoans, ActionReaderLoans} {
		sess, reply := drive(t, m, NewSession(), action(a))
		if sess.State != StateMainMenu {
			t.Fatalf("%s: state = %q, want %q", a, sess.State, StateMainMenu)
		}
		if !strings.HasPrefix(reply.Text, "❌") {
			t.Fatalf("%s: reply = %q, want empty-registry notice", a, reply.Text)
		}
	}
}

type faultyRepo struct {
	*registry.Memory
	err error
}

func (f *faultyRepo) CreateReader(context.Context, registry.NewReader) (string, error) {
	return "", f.err
}

func (f *faultyRepo) CloseLoan(context.Context, string, string) (bool, error) {
	return false, f.err
}

func TestStorageErrorLeavesSessionUnchanged(t *testing.T) {
	errDown := errors.New("storage down")
	repo := &faultyRepo{Memory: registry.NewMemory(), err: errDown}
	m := NewMachine(repo, Config{FixedDeposit: -1})

	good := NewMachine(repo.Memory, Config{FixedDeposit: -1})
	sess, _ := drive(t, good, NewSession(),
		action(ActionAddReader), text("Ann"), text("@ann"))

	next, _, err := m.Step(context.Background(), sess, action(ActionYes))
	if !errors.Is(err, errDown) {
		t.Fatalf("err = %v, want %v", err, errDown)
	}
	if !reflect.DeepEqual(next, sess) {
		t.Fatalf("session changed on storage error: %+v -> %+v", sess, next)
	}
}

func TestScratchCarriesAcrossTurnsOnly(t *testing.T) {
	m, _ := newTestMachine(t)
	registerReader(t, m, "Ann", "@ann")

	sess, _ := drive(t, m, NewSession(),
		action(ActionCheckout), text("Ann"), text("Dune"), text("20"), action(ActionYes))
	if sess.Scratch.BookTitle != "" || sess.Scratch.ReaderID != "" {
		t.Fatalf("scratch survived flow completion: %+v", sess.Scratch)
	}
}

func TestCloseLoanPicksMostRecent(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	repo := registry.NewMemory(registry.WithClock(func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Hour)
	}))
	ctx := context.Background()

	id, _ := repo.CreateReader(ctx, registry.NewReader{Name: "Ann", Contact: "@ann"})
	first, _ := repo.CreateLoan(ctx, registry.NewLoan{ReaderID: id, BookTitle: "Dune"})
	repo.CreateLoan(ctx, registry.NewLoan{ReaderID: id, BookTitle: "Dune"})

	applied, err := repo.CloseLoan(ctx, id, "Dune")
	if err != nil || !applied {
		t.Fatalf("CloseLoan = %v, %v", applied, err)
	}
	loans, _ := repo.ListActiveLoansForReader(ctx, id)
	if len(loans) != 1 || loans[0].ID != first {
		t.Fatalf("remaining loans = %+v, want the older copy %s", loans, first)
	}
}
