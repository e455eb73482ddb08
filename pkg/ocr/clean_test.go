package ocr

import "testing"

func TestCleanLine(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Lightning   Bolt", "Lightning Bolt"},
		{"  Llanowar\tElves  ", "Llanowar Elves"},
		{"Jace. the Mind Sculptor", "Jace, the Mind Sculptor"},
		{"Elspeth. Sun's Champion", "Elspeth, Sun's Champion"},
		{"FirstOf the Hunt", "First Of the Hunt"},
		{"Serra™ Angel", "Serra Angel"},
		{"Counterspell ~ a", "Counterspell"},
		{"Birds of Paradise ,i", "Birds of Paradise"},
		{"Sol Ring", "Sol Ring"},
		{"Ox", "Ox"},
		{"Ghor-Clan Rampager", "Ghor-Clan Rampager"},
		{"@#$%", ""},
	}
	for _, c := range cases {
		if got := CleanLine(c.in); got != c.want {
			t.Errorf("CleanLine(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

func TestCleanLineIdempotent(t *testing.T) {
	inputs := []string{
		"Lightning Bolt",
		"FirstOfTheHunt aB",
		"Fire of Ax ab",
		"Jace. the. Mind. Sculptor.",
		"a.. b",
		"  ~~Wrath  of  God ¦ i ",
		"xYzWq. Qr s",
		"Ob Nixilis. Unlocked x",
	}
	for _, in := range inputs {
		once := CleanLine(in)
		if twice := CleanLine(once); twice != once {
			t.Errorf("cleanup not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestCleanTitleFirstLine(t *testing.T) {
	raw := "\n  ::  \nShivan Dragon a\nCreature - Dragon\n"
	if got := CleanTitle(raw); got != "Shivan Dragon" {
		t.Fatalf("CleanTitle = %q", got)
	}
	if got := CleanTitle("\n \n ;;\n"); got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
}
