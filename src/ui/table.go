package ui

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// column fits text into exactly width terminal cells, padding on the right
// or truncating with "...".
func column(text string, width int) string {
	switch {
	case width <= 0:
		return ""
	case runewidth.StringWidth(text) <= width:
		return runewidth.FillRight(text, width)
	case width <= 3:
		return strings.Repeat(".", width)
	default:
		return runewidth.FillRight(runewidth.Truncate(text, width, "..."), width)
	}
}

// row joins cells sized by widths with the table separator.
func row(widths []int, cells ...string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = column(cell, widths[i])
	}
	return strings.Join(parts, "|")
}

// header centres each title in its column.
func header(widths []int, titles ...string) string {
	parts := make([]string, len(titles))
	for i, title := range titles {
		pad := widths[i] - runewidth.StringWidth(title)
		if pad < 0 {
			parts[i] = column(title, widths[i])
			continue
		}
		left := pad / 2
		parts[i] = strings.Repeat(" ", left) + title + strings.Repeat(" ", pad-left)
	}
	return strings.Join(parts, "|")
}

// banner renders "---- TITLE ----" across the full table width.
func banner(title string, width int) string {
	label := " " + title + " "
	dashes := width - runewidth.StringWidth(label)
	if dashes < 2 {
		return label
	}
	left := dashes / 2
	return strings.Repeat("-", left) + label + strings.Repeat("-", dashes-left)
}

func tableWidth(widths []int) int {
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	return total
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
