package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	colKey      = 24 // widest label plus colon: "Days Since Last Service:"
	colField    = 26 // one form column
	maxBoxInner = 72
	minBoxInner = 40
)

type kv struct {
	Key string
	Val string
}

// padVisible right-pads s to width terminal cells, ignoring ANSI escapes.
func padVisible(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// boxSection renders lines under a title inside a rounded border.
func boxSection(title string, lines []string, innerW int) string {
	rule := dimStyle.Render(strings.Repeat("─", innerW))
	body := make([]string, 0, len(lines)+2)
	body = append(body, headerStyle.Render(title), rule)
	body = append(body, lines...)
	return sectionStyle.Width(innerW+2).Render(strings.Join(body, "\n")) + "\n"
}

// kvLines aligns the values of a detail list in one column.
func kvLines(details []kv) []string {
	lines := make([]string, len(details))
	for i, d := range details {
		lines[i] = padVisible(dimStyle.Render(d.Key+":"), colKey) + " " + valueStyle.Render(d.Val)
	}
	return lines
}

// scoreBar maps a score in [-0.5, 0.5] onto width cells. Scores above zero
// are on the anomalous side of the detector's boundary.
func scoreBar(score float64, width int) string {
	if width < 1 {
		width = 10
	}
	filled := int((score + 0.5) * float64(width))
	filled = max(0, min(width, filled))
	return scoreStyle(score).Render(strings.Repeat("█", filled) + strings.Repeat("░", width-filled))
}

// pageInnerW fits result boxes to the terminal.
func pageInnerW(termWidth int) int {
	return max(minBoxInner, min(maxBoxInner, termWidth-6))
}
