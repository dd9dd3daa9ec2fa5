package dialog

import (
	"fmt"
	"strings"
)

// Menu captions shown on reply keyboards. The transport maps these back to
// Actions; the machine only uses them to render keyboards.
const (
	CaptionAddReader   = "➕ New reader"
	CaptionListReaders = "👥 All readers"
	CaptionCheckout    = "📕 Check out"
	CaptionReturn      = "🔄 Return"
	CaptionListLoans   = "📚 Active loans"
	CaptionReaderLoans = "📋 Reader's books"
	CaptionBack        = "⬅️ Back"
	CaptionYes         = "✅ Yes"
	CaptionNo          = "❌ No"
)

// ReturnLabelSeparator joins reader name and book title in return-selection
// labels. Only the first occurrence splits on parse, so titles may contain
// the separator themselves.
const ReturnLabelSeparator = ": "

const dateLayout = "02.01.2006"

const (
	msgChooseAction  = "Choose an action:"
	msgPromptName    = "📝 Name:"
	msgPromptContact = "☎️ Contact details (phone, e-mail, telegram, etc.):"
	msgCancelled     = "Okay, cancelled."
	msgNoReaders     = "❌ No readers yet."
	msgNobodyHere    = "❌ Nobody is registered."
	msgNothingOut    = "❌ Nothing is checked out."
	msgWhoGetsBook   = "🔎 Who gets the book?"
	msgWhichReturn   = "🔎 Which book is coming back?"
	msgPickReader    = "🔎 Pick a reader:"
	msgNeedName      = "The name cannot be empty. What is it?"
	msgNeedContact   = "The contact cannot be empty. How do we reach them?"
	msgNeedTitle     = "The title cannot be empty. Which book is it?"
	msgNotANumber    = "That has to be a whole non-negative number, try again."
	msgReaderGone    = "Reader not found. Please pick one from the list."
	msgBadSelection  = "That selection doesn't look right. Please pick from the list."
	msgLoanGone      = "That loan is not active anymore. Please pick from the list."
	msgYesOrNo       = "Please answer with the buttons."
	msgFallback      = "Pick an action from the menu."
)

// ReturnLabel renders the selection label for an active loan.
func ReturnLabel(readerName, bookTitle string) string {
	return readerName + ReturnLabelSeparator + bookTitle
}

// ParseReturnLabel splits a "<name>: <title>" selection label.
func ParseReturnLabel(s string) (name, title string, ok bool) {
	parts := strings.SplitN(s, ReturnLabelSeparator, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	name = strings.TrimSpace(parts[0])
	title = strings.TrimSpace(parts[1])
	if name == "" || title == "" {
		return "", "", false
	}
	return name, title, true
}

func msgReaderAdded(name string) string {
	return fmt.Sprintf("Reader %s added!", name)
}

func msgConfirmReader(name, contact string) string {
	return fmt.Sprintf("Name: %s\nContact: %s\n\nAll correct?", name, contact)
}

func msgPromptTitle(name string) string {
	return fmt.Sprintf("✏️ Title of the book %s is taking:", name)
}

func msgPromptDeposit(name string) string {
	return fmt.Sprintf("Enter the deposit amount for %s or pick one:", name)
}

func msgConfirmCheckoutNoDeposit(name, title string) string {
	return fmt.Sprintf("%s already has active loans, no deposit needed.\n\nCheck out %q?", name, title)
}

func msgConfirmCheckout(name, title string, deposit int) string {
	return fmt.Sprintf("Reader: %s\nBook: %s\nDeposit: %d\n\nAll correct?", name, title, deposit)
}

func msgCheckedOut(name, title string, deposit int) string {
	out := fmt.Sprintf("Book %q checked out to %s.", title, name)
	if deposit > 0 {
		out += fmt.Sprintf(" Deposit %d received.", deposit)
	}
	return out
}

func msgReturned(title string) string {
	return fmt.Sprintf("Book %q returned.", title)
}

func msgReturnedWithRefund(name, title string, refund int) string {
	return fmt.Sprintf("Book %q returned.\nThat was %s's last book. Refund the %d deposit.", title, name, refund)
}

func msgReaderHasNoLoans(name string) string {
	return fmt.Sprintf("%s has no active loans.", name)
}
