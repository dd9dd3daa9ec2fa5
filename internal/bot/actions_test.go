package bot

import (
	"testing"

	"github.com/m3rciful/librobot/internal/dialog"
)

func TestNormalizeAction(t *testing.T) {
	cases := []struct {
		in   string
		want dialog.Action
	}{
		{"/start", dialog.ActionReset},
		{"  /start  ", dialog.ActionReset},
		{dialog.CaptionAddReader, dialog.ActionAddReader},
		{dialog.CaptionListReaders, dialog.ActionListReaders},
		{dialog.CaptionCheckout, dialog.ActionCheckout},
		{dialog.CaptionReturn, dialog.ActionReturn},
		{dialog.CaptionListLoans, dialog.ActionListLoans},
		{dialog.CaptionReaderLoans, dialog.ActionReaderLoans},
		{dialog.CaptionBack, dialog.ActionBack},
		{dialog.CaptionYes, dialog.ActionYes},
		{dialog.CaptionNo, dialog.ActionNo},
		{"Ann", dialog.ActionNone},
		{"", dialog.ActionNone},
		{"/help", dialog.ActionNone},
	}
	for _, tc := range cases {
		if got := NormalizeAction(tc.in); got != tc.want {
			t.Fatalf("NormalizeAction(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
