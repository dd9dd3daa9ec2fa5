package bot

import (
	"strings"

	"github.com/m3rciful/librobot/internal/dialog"
)

var actionByCaption = map[string]dialog.Action{
	dialog.CaptionAddReader:   dialog.ActionAddReader,
	dialog.CaptionListReaders: dialog.ActionListReaders,
	dialog.CaptionCheckout:    dialog.ActionCheckout,
	dialog.CaptionReturn:      dialog.ActionReturn,
	dialog.CaptionListLoans:   dialog.ActionListLoans,
	dialog.CaptionReaderLoans: dialog.ActionReaderLoans,
	dialog.CaptionBack:        dialog.ActionBack,
	dialog.CaptionYes:         dialog.ActionYes,
	dialog.CaptionNo:          dialog.ActionNo,
}

// NormalizeAction maps incoming message text to a dialog action. Text that
// matches no caption maps to ActionNone and is passed through as free input.
func NormalizeAction(text string) dialog.Action {
	t := strings.TrimSpace(text)
	if t == "/start" {
		return dialog.ActionReset
	}
	if a, ok := actionByCaption[t]; ok {
		return a
	}
	return dialog.ActionNone
}
