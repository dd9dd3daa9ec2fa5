package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"log/slog"

	"github.com/m3rciful/librobot/core/logger"
	"github.com/m3rciful/librobot/internal/domain"
	"github.com/m3rciful/librobot/internal/registry"
)

// Config tunes machine policy.
type Config struct {
	// FixedDeposit, when >= 0, charges that amount on a reader's first
	// active loan without prompting. A negative value prompts the user.
	FixedDeposit int
	// DepositPresets are the quick-pick amounts offered on the deposit
	// prompt. Defaults to 10, 20, 50.
	DepositPresets []int
}

// Machine drives the menu conversation over a Repository.
type Machine struct {
	repo     registry.Repository
	cfg      Config
	fallback func() string
}

// Option customizes a Machine.
type Option func(*Machine)

// WithFallback installs a decorator producing the reply text for
// unrecognized main-menu input. Purely cosmetic; the session is unaffected.
func WithFallback(fn func() string) Option {
	return func(m *Machine) {
		if fn != nil {
			m.fallback = fn
		}
	}
}

// NewMachine builds a Machine over the given repository.
func NewMachine(repo registry.Repository, cfg Config, opts ...Option) *Machine {
	if len(cfg.DepositPresets) == 0 {
		cfg.DepositPresets = []int{10, 20, 50}
	}
	m := &Machine{
		repo:     repo,
		cfg:      cfg,
		fallback: func() string { return msgFallback },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Step processes one incoming event against the session and returns the
// updated session plus the outgoing reply. On a storage error the original
// session is returned unchanged so the same turn can be retried.
func (m *Machine) Step(ctx context.Context, sess Session, in Input) (Session, Reply, error) {
	if in.Action == ActionReset {
		return m.mainMenu("")
	}

	next, reply, err := m.dispatch(ctx, sess, in)
	if err != nil {
		return sess, Reply{}, err
	}
	if next.State != sess.State {
		logger.Debug(ctx, "dialog", "transition",
			slog.String("from", string(sess.State)),
			slog.String("to", string(next.State)),
			slog.String("action", string(in.Action)),
		)
	}
	return next, reply, nil
}

func (m *Machine) dispatch(ctx context.Context, sess Session, in Input) (Session, Reply, error) {
	switch sess.State {
	case StateMainMenu, "":
		return m.stepMainMenu(ctx, in)
	case StateAwaitingReaderName:
		return m.stepReaderName(sess, in)
	case StateAwaitingReaderContact:
		return m.stepReaderContact(sess, in)
	case StateConfirmingReader:
		return m.stepConfirmReader(ctx, sess, in)
	case StateChoosingReaderForCheckout:
		return m.stepChooseReaderForCheckout(ctx, sess, in)
	case StateAwaitingBookTitle:
		return m.stepBookTitle(ctx, sess, in)
	case StateAwaitingDepositAmount:
		return m.stepDepositAmount(sess, in)
	case StateConfirmingCheckout:
		return m.stepConfirmCheckout(ctx, sess, in)
	case StateChoosingLoanToReturn:
		return m.stepReturnLoan(ctx, sess, in)
	case StateChoosingReaderForListing:
		return m.stepChooseReaderForListing(ctx, sess, in)
	default:
		// Unknown persisted state; recover to the menu.
		return m.mainMenu("")
	}
}

// mainMenu returns a fresh session and the menu reply. When prefix is
// non-empty it is prepended to the menu prompt, collapsing "result + menu"
// into a single outgoing message.
func (m *Machine) mainMenu(prefix string) (Session, Reply, error) {
	text := msgChooseAction
	if prefix != "" {
		text = prefix + "\n\n" + text
	}
	return NewSession(), Reply{
		Text: text,
		Keyboard: [][]string{
			{CaptionAddReader, CaptionListReaders},
			{CaptionCheckout, CaptionReturn},
			{CaptionListLoans, CaptionReaderLoans},
		},
		OneTime: true,
	}, nil
}

func stay(sess Session, text string, keyboard ...[]string) (Session, Reply, error) {
	return sess, Reply{Text: text, Keyboard: keyboard, OneTime: len(keyboard) > 0}, nil
}

func (m *Machine) stepMainMenu(ctx context.Context, in Input) (Session, Reply, error) {
	sess := NewSession()
	switch in.Action {
	case ActionAddReader:
		return Session{State: StateAwaitingReaderName}, Reply{Text: msgPromptName}, nil

	case ActionListReaders:
		readers, err := m.repo.ListReaders(ctx)
		if err != nil {
			return sess, Reply{}, err
		}
		if len(readers) == 0 {
			return m.mainMenu(msgNobodyHere)
		}
		var b strings.Builder
		for i, r := range readers {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, r.Name, r.Contact)
		}
		return m.mainMenu(strings.TrimRight(b.String(), "\n"))

	case ActionCheckout:
		readers, err := m.repo.ListReaders(ctx)
		if err != nil {
			return sess, Reply{}, err
		}
		if len(readers) == 0 {
			return m.mainMenu(msgNoReaders)
		}
		return Session{State: StateChoosingReaderForCheckout}, Reply{
			Text:     msgWhoGetsBook,
			Keyboard: readerKeyboard(readers),
			OneTime:  true,
		}, nil

	case ActionReturn:
		loans, err := m.repo.ListActiveLoans(ctx)
		if err != nil {
			return sess, Reply{}, err
		}
		if len(loans) == 0 {
			return m.mainMenu(msgNothingOut)
		}
		options := make(map[string]ReturnTarget, len(loans))
		keyboard := make([][]string, 0, len(loans)+1)
		for _, l := range loans {
			reader, err := m.repo.GetReaderByID(ctx, l.ReaderID)
			if err != nil {
				return sess, Reply{}, err
			}
			if reader == nil {
				// Orphaned loan; nothing to render.
				continue
			}
			label := ReturnLabel(reader.Name, l.BookTitle)
			options[label] = ReturnTarget{ReaderID: l.ReaderID, BookTitle: l.BookTitle}
			keyboard = append(keyboard, []string{label})
		}
		if len(options) == 0 {
			return m.mainMenu(msgNothingOut)
		}
		keyboard = append(keyboard, []string{CaptionBack})
		return Session{
			State:   StateChoosingLoanToReturn,
			Scratch: Scratch{ReturnOptions: options},
		}, Reply{Text: msgWhichReturn, Keyboard: keyboard, OneTime: true}, nil

	case ActionListLoans:
		loans, err := m.repo.ListActiveLoans(ctx)
		if err != nil {
			return sess, Reply{}, err
		}
		if len(loans) == 0 {
			return m.mainMenu(msgNothingOut)
		}
		var b strings.Builder
		n := 0
		for _, l := range loans {
			reader, err := m.repo.GetReaderByID(ctx, l.ReaderID)
			if err != nil {
				return sess, Reply{}, err
			}
			if reader == nil {
				continue
			}
			n++
			fmt.Fprintf(&b, "%d. %q - %s (%s)\n", n, l.BookTitle, reader.Name, l.LoanDate.Format(dateLayout))
		}
		if n == 0 {
			return m.mainMenu(msgNothingOut)
		}
		return m.mainMenu(strings.TrimRight(b.String(), "\n"))

	case ActionReaderLoans:
		readers, err := m.repo.ListReaders(ctx)
		if err != nil {
			return sess, Reply{}, err
		}
		if len(readers) == 0 {
			return m.mainMenu(msgNoReaders)
		}
		return Session{State: StateChoosingReaderForListing}, Reply{
			Text:     msgPickReader,
			Keyboard: readerKeyboard(readers),
			OneTime:  true,
		}, nil

	default:
		return stay(sess, m.fallback())
	}
}

func readerKeyboard(readers []domain.Reader) [][]string {
	keyboard := make([][]string, 0, len(readers)+1)
	for _, r := range readers {
		keyboard = append(keyboard, []string{r.Name})
	}
	return append(keyboard, []string{CaptionBack})
}

func (m *Machine) stepReaderName(sess Session, in Input) (Session, Reply, error) {
	name := strings.TrimSpace(in.Text)
	if name == "" {
		return stay(sess, msgNeedName)
	}
	sess.State = StateAwaitingReaderContact
	sess.Scratch.ReaderName = name
	return sess, Reply{Text: msgPromptContact}, nil
}

func (m *Machine) stepReaderContact(sess Session, in Input) (Session, Reply, error) {
	contact := strings.TrimSpace(in.Text)
	if contact == "" {
		return stay(sess, msgNeedContact)
	}
	sess.State = StateConfirmingReader
	sess.Scratch.ReaderContact = contact
	return sess, Reply{
		Text:     msgConfirmReader(sess.Scratch.ReaderName, contact),
		Keyboard: [][]string{{CaptionYes, CaptionNo}},
		OneTime:  true,
	}, nil
}

func (m *Machine) stepConfirmReader(ctx context.Context, sess Session, in Input) (Session, Reply, error) {
	switch in.Action {
	case ActionYes:
		id, err := m.repo.CreateReader(ctx, registry.NewReader{
			Name:    sess.Scratch.ReaderName,
			Contact: sess.Scratch.ReaderContact,
		})
		if err != nil {
			return sess, Reply{}, err
		}
		logger.Info(ctx, "service.readers", "reader.registered",
			slog.String("reader_id", id),
		)
		return m.mainMenu(msgReaderAdded(sess.Scratch.ReaderName))
	case ActionNo:
		return m.mainMenu(msgCancelled)
	default:
		return stay(sess, msgYesOrNo, []string{CaptionYes, CaptionNo})
	}
}

func (m *Machine) stepChooseReaderForCheckout(ctx context.Context, sess Session, in Input) (Session, Reply, error) {
	if in.Action == ActionBack {
		return m.mainMenu("")
	}
	reader, err := m.repo.GetReaderByName(ctx, strings.TrimSpace(in.Text))
	if err != nil {
		return sess, Reply{}, err
	}
	if reader == nil {
		return stay(sess, msgReaderGone)
	}
	sess.State = StateAwaitingBookTitle
	sess.Scratch.ReaderID = reader.ID
	sess.Scratch.SelectedName = reader.Name
	return sess, Reply{Text: msgPromptTitle(reader.Name)}, nil
}

func (m *Machine) stepBookTitle(ctx context.Context, sess Session, in Input) (Session, Reply, error) {
	title := strings.TrimSpace(in.Text)
	if title == "" {
		return stay(sess, msgNeedTitle)
	}

	active, err := m.repo.ListActiveLoansForReader(ctx, sess.Scratch.ReaderID)
	if err != nil {
		return sess, Reply{}, err
	}
	sess.Scratch.BookTitle = title

	if len(active) > 0 {
		// A deposit is already held; this loan rides on it.
		sess.State = StateConfirmingCheckout
		sess.Scratch.Deposit = 0
		return sess, Reply{
			Text:     msgConfirmCheckoutNoDeposit(sess.Scratch.SelectedName, title),
			Keyboard: [][]string{{CaptionYes, CaptionNo}},
			OneTime:  true,
		}, nil
	}

	if m.cfg.FixedDeposit >= 0 {
		sess.State = StateConfirmingCheckout
		sess.Scratch.Deposit = m.cfg.FixedDeposit
		return sess, Reply{
			Text:     msgConfirmCheckout(sess.Scratch.SelectedName, title, m.cfg.FixedDeposit),
			Keyboard: [][]string{{CaptionYes, CaptionNo}},
			OneTime:  true,
		}, nil
	}

	sess.State = StateAwaitingDepositAmount
	presets := make([]string, 0, len(m.cfg.DepositPresets))
	for _, p := range m.cfg.DepositPresets {
		presets = append(presets, strconv.Itoa(p))
	}
	return sess, Reply{
		Text:     msgPromptDeposit(sess.Scratch.SelectedName),
		Keyboard: [][]string{presets, {CaptionBack}},
		OneTime:  true,
	}, nil
}

func (m *Machine) stepDepositAmount(sess Session, in Input) (Session, Reply, error) {
	if in.Action == ActionBack {
		return m.mainMenu("")
	}
	amount, err := strconv.Atoi(strings.TrimSpace(in.Text))
	if err != nil || amount < 0 {
		return stay(sess, msgNotANumber)
	}
	sess.State = StateConfirmingCheckout
	sess.Scratch.Deposit = amount
	return sess, Reply{
		Text:     msgConfirmCheckout(sess.Scratch.SelectedName, sess.Scratch.BookTitle, amount),
		Keyboard: [][]string{{CaptionYes, CaptionNo}},
		OneTime:  true,
	}, nil
}

func (m *Machine) stepConfirmCheckout(ctx context.Context, sess Session, in Input) (Session, Reply, error) {
	switch in.Action {
	case ActionYes:
		sc := sess.Scratch
		loanID, err := m.repo.CreateLoan(ctx, registry.NewLoan{
			ReaderID:  sc.ReaderID,
			BookTitle: sc.BookTitle,
		})
		if err != nil {
			return sess, Reply{}, err
		}
		if sc.Deposit > 0 {
			applied, err := m.repo.SetReaderDeposit(ctx, sc.ReaderID, sc.Deposit)
			if err != nil {
				return sess, Reply{}, err
			}
			if !applied {
				logger.Warn(ctx, "service.loans", "loan.deposit.skip",
					slog.String("reader_id", sc.ReaderID),
				)
			}
		}
		logger.Info(ctx, "service.loans", "loan.opened",
			slog.String("loan_id", loanID),
			slog.String("reader_id", sc.ReaderID),
			slog.Int("deposit", sc.Deposit),
		)
		return m.mainMenu(msgCheckedOut(sc.SelectedName, sc.BookTitle, sc.Deposit))
	case ActionNo:
		return m.mainMenu(msgCancelled)
	default:
		return stay(sess, msgYesOrNo, []string{CaptionYes, CaptionNo})
	}
}

func (m *Machine) stepReturnLoan(ctx context.Context, sess Session, in Input) (Session, Reply, error) {
	if in.Action == ActionBack {
		return m.mainMenu("")
	}

	target, ok := sess.Scratch.ReturnOptions[in.Text]
	if !ok {
		// Free-typed input: fall back to label parsing with a
		// first-match name lookup.
		name, title, parsed := ParseReturnLabel(in.Text)
		if !parsed {
			return stay(sess, msgBadSelection)
		}
		reader, err := m.repo.GetReaderByName(ctx, name)
		if err != nil {
			return sess, Reply{}, err
		}
		if reader == nil {
			return stay(sess, msgReaderGone)
		}
		target = ReturnTarget{ReaderID: reader.ID, BookTitle: title}
	}

	reader, err := m.repo.GetReaderByID(ctx, target.ReaderID)
	if err != nil {
		return sess, Reply{}, err
	}
	if reader == nil {
		return stay(sess, msgReaderGone)
	}

	applied, err := m.repo.CloseLoan(ctx, target.ReaderID, target.BookTitle)
	if err != nil {
		return sess, Reply{}, err
	}
	if !applied {
		return stay(sess, msgLoanGone)
	}

	remaining, err := m.repo.ListActiveLoansForReader(ctx, target.ReaderID)
	if err != nil {
		return sess, Reply{}, err
	}
	if len(remaining) > 0 {
		logger.Info(ctx, "service.loans", "loan.closed",
			slog.String("reader_id", target.ReaderID),
		)
		return m.mainMenu(msgReturned(target.BookTitle))
	}

	// Last active loan: release the deposit that was held before the reset.
	refund := reader.DepositAmount
	if _, err := m.repo.SetReaderDeposit(ctx, target.ReaderID, 0); err != nil {
		return sess, Reply{}, err
	}
	logger.Info(ctx, "service.loans", "loan.closed",
		slog.String("reader_id", target.ReaderID),
		slog.Int("refund", refund),
	)
	return m.mainMenu(msgReturnedWithRefund(reader.Name, target.BookTitle, refund))
}

func (m *Machine) stepChooseReaderForListing(ctx context.Context, sess Session, in Input) (Session, Reply, error) {
	if in.Action == ActionBack {
		return m.mainMenu("")
	}
	reader, err := m.repo.GetReaderByName(ctx, strings.TrimSpace(in.Text))
	if err != nil {
		return sess, Reply{}, err
	}
	if reader == nil {
		return stay(sess, msgReaderGone)
	}
	loans, err := m.repo.ListActiveLoansForReader(ctx, reader.ID)
	if err != nil {
		return sess, Reply{}, err
	}
	if len(loans) == 0 {
		return m.mainMenu(msgReaderHasNoLoans(reader.Name))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Books checked out to %s:\n\n", reader.Name)
	for i, l := range loans {
		fmt.Fprintf(&b, "%d. %s (since %s)\n", i+1, l.BookTitle, l.LoanDate.Format(dateLayout))
	}
	if reader.HasDeposit() {
		fmt.Fprintf(&b, "\nDeposit on file: %d", reader.DepositAmount)
	}
	return m.mainMenu(strings.TrimRight(b.String(), "\n"))
}
