package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames = %v, want 3 themes", names)
	}
	for _, name := range names {
		if got := GetTheme(name).Name; got != name {
			t.Fatalf("GetTheme(%q).Name = %q", name, got)
		}
	}
}

func TestGetTheme_UnknownFallsBack(t *testing.T) {
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(unknown) = %q, want Nightfox", got)
	}
}

func TestNextTheme_Cycles(t *testing.T) {
	names := ThemeNames()
	for i, name := range names {
		want := names[(i+1)%len(names)]
		if got := NextTheme(name); got != want {
			t.Fatalf("NextTheme(%q) = %q, want %q", name, got, want)
		}
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
}

func TestThemes_DefineEveryBadge(t *testing.T) {
	badges := []string{badgeSearching, badgeSettled, badgeCached, badgeOffline, badgeSoldOut, badgeLowStock, badgeYours}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, b := range badges {
			if th.BadgeColors[b] == "" {
				t.Fatalf("theme %s has no color for badge %q", name, b)
			}
		}
	}
}

func TestWithBackground_KeepsBadgeFallback(t *testing.T) {
	th := GetTheme("Slate")
	styles := th.Styles().WithBackground(th.Surface)
	// Unknown badges fall back to the muted color.
	got := styles.BadgeStyle("unknown").GetBackground()
	want := lipgloss.Color(th.Muted)
	if got != want {
		t.Fatalf("unknown badge background = %v, want muted %v", got, want)
	}
}
