package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Metronome styles using shared brand colors from styles.go
	bannerDimStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	bannerBeatStyle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	bannerTickStyle    = lipgloss.NewStyle().Foreground(colorPrimaryLight)
	bannerTitleStyle   = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	bannerTaglineStyle = lipgloss.NewStyle().Foreground(colorPrimaryDark).Italic(true)
	bannerVersionStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func renderBanner() string {
	// Build styled characters
	dot := bannerDimStyle.Render("·")
	bar := bannerDimStyle.Render("|")
	beat := bannerBeatStyle.Render("◆")
	tick := bannerTickStyle.Render("◇")
	title := bannerTitleStyle.Render("PACER")

	// Construct the pulse line as a slice for clarity
	lines := []string{
		"   " + dot + " " + tick + " " + dot + " " + beat + " " + dot + " " + tick + " " + dot,
		"   " + bar + "   " + title + "   " + bar,
		"   " + dot + " " + tick + " " + dot + " " + beat + " " + dot + " " + tick + " " + dot,
	}

	return strings.Join(lines, "\n")
}

func renderBannerWithTagline() string {
	banner := renderBanner()
	tagline := bannerTaglineStyle.Render("   review at the right beat")
	ver := bannerVersionStyle.Render("          " + version)

	return strings.Join([]string{banner, tagline, ver}, "\n")
}
