package ui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stall/internal/market"
)

// barStyles returns the styles for text drawn on the Surface-colored bars.
func (m Model) barStyles() (Styles, BgStyle) {
	return m.theme.Styles().WithBackground(m.theme.Surface), NewBgStyle(m.theme.Surface)
}

// renderHeader renders the top status bar.
func (m Model) renderHeader() string {
	styles, bg := m.barStyles()
	logo := bg.Render("stall", styles.Logo)
	gap := bg.Spaces(2)

	var parts []string
	switch {
	case m.snapshot.HasItems:
		parts = m.statusParts(styles, bg)
	case m.snapshot.LastError != nil:
		parts = []string{
			logo,
			bg.Render("API "+connectionLabel(m.snapshot.LastError), styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
		}
		if m.config != nil && m.config.LogPath() != "" {
			parts = append(parts, bg.Render("logs", styles.FaintText)+bg.Space()+
				bg.Render(truncateMiddle(m.config.LogPath(), 50), styles.MutedText))
		}
	default:
		parts = []string{logo, bg.Render("Connecting to marketplace...", styles.WarningText.Bold(true))}
	}
	return styles.Header.Width(m.width).Render(bg.Join(parts, gap))
}

// statusParts lists the header segments once listings have loaded.
func (m Model) statusParts(styles Styles, bg BgStyle) []string {
	compact := m.width < LayoutCompactWidth
	parts := []string{
		bg.Render("stall", styles.Logo),
		bg.Render("Items:", styles.MutedText) + bg.Space() +
			bg.Render(fmt.Sprintf("%d", len(m.snapshot.Items)), styles.Text),
	}

	email := m.watcher.Email()
	switch {
	case email == "":
		parts = append(parts, bg.Render("○ signed out", styles.MutedText))
	case compact:
		parts = append(parts, bg.Render("● "+truncate(email, 20), styles.SuccessText))
	default:
		parts = append(parts, bg.Render("● "+email, styles.SuccessText))
	}

	if m.currentView == ViewBrowse && m.browse.view.Query != "" {
		parts = append(parts, pill(styles, searchBadge(m.browse.view.Phase.Busy())))
	}

	if m.snapshot.IsOffline() {
		parts = append(parts, pill(styles, badgeOffline))
		if !compact {
			parts = append(parts, bg.Render(connectionLabel(m.snapshot.LastError), styles.DangerText))
		}
	} else if m.snapshot.FromCache {
		parts = append(parts, pill(styles, badgeCached))
	}

	if !compact {
		parts = append(parts, bg.Render("Updated "+formatAge(m.snapshot.LastUpdated, m.now()), styles.FaintText))
	}
	return parts
}

func searchBadge(busy bool) string {
	if busy {
		return badgeSearching
	}
	return badgeSettled
}

func pill(styles Styles, label string) string {
	return styles.BadgeStyle(label).Render(label)
}

// connectionLabel names the kind of failure behind a refresh error.
func connectionLabel(err error) string {
	var (
		apiErr *market.APIError
		dnsErr *net.DNSError
		netErr net.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, syscall.ECONNREFUSED):
		return "OFFLINE"
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		return "HOST NOT FOUND"
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return "TIMEOUT"
	case errors.As(err, &apiErr) && apiErr.Status >= 500:
		return "SERVER ERROR"
	default:
		return "ERROR"
	}
}

// keyHint is one key and what it does, shown on the command bar.
type keyHint struct{ key, desc string }

// viewHints are the command bar entries for views whose hints never change.
var viewHints = map[View][]keyHint{
	ViewDetail: {
		{"+/-", "Quantity"}, {"enter", "Add to cart"}, {"y", "Copy id"},
		{"c", "Cart"}, {"esc", "Back"}, {"?", "More"},
	},
	ViewCart: {
		{"j/k", "Navigate"}, {"r", "Reload"}, {"b", "Browse"},
		{"m", "My items"}, {"?", "More"},
	},
	ViewManage: {
		{"a", "Add"}, {"E", "Edit"}, {"d", "Delete"},
		{"enter", "Open"}, {"j/k", "Navigate"}, {"?", "More"},
	},
	ViewForm: {
		{"tab", "Next field"}, {"ctrl+s", "Save"}, {"esc", "Cancel"},
	},
	ViewLogin: {
		{"tab", "Next field"}, {"enter", "Submit"},
		{"ctrl+n", "Sign in / register"}, {"esc", "Cancel"},
	},
}

// commandHints returns the hints for the current view.
func (m Model) commandHints() []keyHint {
	if hints, ok := viewHints[m.currentView]; ok {
		return hints
	}
	if m.currentView == ViewLogs {
		follow := keyHint{"Space", "Pause"}
		if !m.logs.follow {
			follow.desc = "Follow"
		}
		return []keyHint{follow, {"g/G", "Top/Bottom"}, {"b", "Browse"}, {"?", "More"}}
	}

	hints := []keyHint{
		{"/", "Search"}, {"enter", "Open"}, {"j/k", "Navigate"},
		{"c", "Cart"}, {"m", "My items"}, {"a", "Add"},
	}
	if m.watcher.Email() == "" {
		hints = append(hints, keyHint{"s", "Sign in"})
	} else {
		hints = append(hints, keyHint{"O", "Sign out"})
	}
	return append(hints, keyHint{"?", "More"})
}

// renderCommandBar renders the key hints and the active theme.
func (m Model) renderCommandBar() string {
	styles, bg := m.barStyles()
	colon := bg.Sep(":")
	item := func(k, desc string, descStyle lipgloss.Style) string {
		return bg.Render(k, styles.AccentText) + colon + bg.Render(desc, descStyle)
	}

	hints := m.commandHints()
	segments := make([]string, 0, len(hints)+1)
	for _, h := range hints {
		segments = append(segments, item(h.key, h.desc, styles.MutedText))
	}
	segments = append(segments, item("T", m.theme.Name, styles.FaintText))
	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderFooter shows the latest flash message.
func (m Model) renderFooter() string {
	styles, _ := m.barStyles()
	if m.flash == "" {
		return styles.Footer.Width(m.width).Render("")
	}
	style := styles.InfoText
	if m.flashErr {
		style = styles.DangerText
	}
	return styles.Footer.Width(m.width).Render(style.Render(truncate(m.flash, max(m.width-2, 1))))
}

// truncateMiddle shortens a path to limit bytes, keeping about two thirds
// of the room for the tail so the file name survives.
func truncateMiddle(s string, limit int) string {
	switch {
	case limit <= 0:
		return ""
	case len(s) <= limit:
		return s
	case limit <= 5:
		return s[:limit]
	}
	room := limit - len("...")
	tail := room * 2 / 3
	return s[:room-tail] + "..." + s[len(s)-tail:]
}
