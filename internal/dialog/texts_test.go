package dialog

import "testing"

func TestParseReturnLabel(t *testing.T) {
	cases := []struct {
		in    string
		name  string
		title string
		ok    bool
	}{
		{"Ann: Dune", "Ann", "Dune", true},
		{"Ann: Dune: Messiah", "Ann", "Dune: Messiah", true},
		{"  Ann :  Dune  ", "Ann", "Dune", true},
		{"Ann:Dune", "", "", false},
		{"Ann: ", "", "", false},
		{": Dune", "", "", false},
		{"Dune", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		name, title, ok := ParseReturnLabel(tc.in)
		if ok != tc.ok || name != tc.name || title != tc.title {
			t.Fatalf("ParseReturnLabel(%q) = %q, %q, %v; want %q, %q, %v",
				tc.in, name, title, ok, tc.name, tc.title, tc.ok)
		}
	}
}

func TestReturnLabelRoundTrip(t *testing.T) {
	label := ReturnLabel("Ann", "Dune: Messiah")
	name, title, ok := ParseReturnLabel(label)
	if !ok || name != "Ann" || title != "Dune: Messiah" {
		t.Fatalf("round trip = %q, %q, %v", name, title, ok)
	}
}
