package dialog

// State identifies the user's position in the dialog graph. Every state is
// entered from the main menu and falls back to it on completion or
// cancellation.
type State string

const (
	// StateMainMenu is the top-level menu; the zero session starts here.
	StateMainMenu State = "main_menu"

	// Registration flow.
	StateAwaitingReaderName    State = "awaiting_reader_name"
	StateAwaitingReaderContact State = "awaiting_reader_contact"
	StateConfirmingReader      State = "confirming_reader"

	// Checkout flow.
	StateChoosingReaderForCheckout State = "choosing_reader_for_checkout"
	StateAwaitingBookTitle         State = "awaiting_book_title"
	StateAwaitingDepositAmount     State = "awaiting_deposit_amount"
	StateConfirmingCheckout        State = "confirming_checkout"

	// Return flow.
	StateChoosingLoanToReturn State = "choosing_loan_to_return"

	// Per-reader listing.
	StateChoosingReaderForListing State = "choosing_reader_for_listing"
)

// Action is a tagged menu input produced by caption normalization at the
// transport boundary. Free text that matches no caption arrives as
// ActionNone, keeping decorated display text out of control flow.
type Action string

const (
	ActionNone        Action = ""
	ActionReset       Action = "reset"
	ActionAddReader   Action = "add_reader"
	ActionListReaders Action = "list_readers"
	ActionCheckout    Action = "checkout"
	ActionReturn      Action = "return"
	ActionListLoans   Action = "list_loans"
	ActionReaderLoans Action = "reader_loans"
	ActionBack        Action = "back"
	ActionYes         Action = "yes"
	ActionNo          Action = "no"
)

// Input is one incoming user event.
type Input struct {
	Text   string
	Action Action
}

// Reply is the outgoing content produced by one dialog turn. A nil Keyboard
// means free-text input is expected next.
type Reply struct {
	Text     string
	Keyboard [][]string
	OneTime  bool
}
