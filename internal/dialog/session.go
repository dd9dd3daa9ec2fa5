package dialog

// ReturnTarget resolves a rendered return-selection label back to the exact
// loan it was generated from, independent of reader name collisions.
type ReturnTarget struct {
	ReaderID  string
	BookTitle string
}

// Scratch accumulates the fields collected across the turns of one flow.
// It is dropped whenever the session returns to the main menu.
type Scratch struct {
	// Registration flow.
	ReaderName    string
	ReaderContact string

	// Checkout flow.
	ReaderID     string
	SelectedName string
	BookTitle    string
	Deposit      int

	// Return flow: label -> loan, captured when the keyboard was rendered.
	ReturnOptions map[string]ReturnTarget
}

// Session is the per-user conversation state. Step receives it by value and
// returns the updated copy; the transport owns persistence between turns.
type Session struct {
	State   State
	Scratch Scratch
}

// NewSession returns a session parked at the main menu.
func NewSession() Session {
	return Session{State: StateMainMenu}
}
