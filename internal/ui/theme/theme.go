// Package theme holds the lipgloss palette and styles for terminal output.
package theme

import (
	"strings"

	"charm.land/lipgloss/v2"
)

var (
	violet = lipgloss.Color("#8B5CF6")
	teal   = lipgloss.Color("#14B8A6")
	amber  = lipgloss.Color("#F59E0B")
	green  = lipgloss.Color("#22C55E")
	rose   = lipgloss.Color("#F43F5E")
	ink    = lipgloss.Color("#F8FAFC")
	slate  = lipgloss.Color("#94A3B8")
	track  = lipgloss.Color("#334155")
)

// Header and prose.
var (
	Title    = lipgloss.NewStyle().Bold(true).Foreground(violet)
	Subtitle = lipgloss.NewStyle().Foreground(slate)
	Body     = lipgloss.NewStyle().Foreground(ink)
	Hint     = lipgloss.NewStyle().Foreground(slate).Italic(true)
	Warning  = lipgloss.NewStyle().Foreground(rose).Bold(true)
)

// Question parts. None of these pad, so plain and styled output line up.
var (
	QuestionNumber = lipgloss.NewStyle().Foreground(teal).Bold(true)
	TypeBadge      = lipgloss.NewStyle().Foreground(amber)
	Option         = lipgloss.NewStyle().Foreground(ink)
	Answer         = lipgloss.NewStyle().Foreground(green).Bold(true)
	Explanation    = lipgloss.NewStyle().Foreground(slate).Italic(true)
)

// Coverage bar cells.
var (
	ProgressFilled = lipgloss.NewStyle().Background(teal)
	ProgressEmpty  = lipgloss.NewStyle().Background(track)
)

var difficultyStyles = map[string]lipgloss.Style{
	"EASY":   lipgloss.NewStyle().Foreground(green).Bold(true),
	"MEDIUM": lipgloss.NewStyle().Foreground(amber).Bold(true),
	"HARD":   lipgloss.NewStyle().Foreground(rose).Bold(true),
}

// Difficulty returns the badge style for a difficulty level, falling back
// to Subtitle for unknown levels.
func Difficulty(level string) lipgloss.Style {
	if s, ok := difficultyStyles[strings.ToUpper(level)]; ok {
		return s
	}
	return Subtitle
}
