package ui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// AuthorColor derives a stable terminal color from an author name, so
// the same author keeps the same line color across fetches and modes.
// The name hashes to a hue; saturation and lightness are pinned to a
// band that stays readable on dark backgrounds.
func AuthorColor(author string) lipgloss.Color {
	h := fnv.New32a()
	h.Write([]byte(author))
	hue := float64(h.Sum32() % 360)
	c := colorful.Hsl(hue, 0.65, 0.62)
	return lipgloss.Color(c.Hex())
}

// seriesColor picks the line color for a series: the author's stable
// color when known, a neutral fallback for aggregate series.
func seriesColor(author string) lipgloss.Color {
	if author == "" {
		return colorPrimary
	}
	return AuthorColor(author)
}
