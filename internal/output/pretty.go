package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jaxxstorm/relaygen/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	rowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	loadInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	loadSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	loadWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	loadError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// RenderCandidates lists relays in rank order. total is the size of the
// selection before any display limit was applied.
func RenderCandidates(candidates []model.ServerRecord, total int) string {
	lines := []string{titleStyle.Render("relaygen"), ""}
	if len(candidates) == 0 {
		lines = append(lines, failureStyle.Render("No server found"), "No servers were found that match your criteria.")
		return strings.Join(lines, "\n")
	}

	for i, server := range candidates {
		flag := FlagEmoji(server.CountryCode)
		if flag == "" {
			flag = "  "
		}
		line := fmt.Sprintf("%3d %-10s %s %s %s, %s", i+1, strings.ToUpper(server.Identifier),
			LoadStyle(server.Load).Render(fmt.Sprintf("%3d%%", server.Load)),
			flag, server.City, server.Country)
		lines = append(lines, rowStyle.Render(line))
	}

	lines = append(lines, "")
	summary := fmt.Sprintf("%d of %d matching relays", len(candidates), total)
	lines = append(lines, successStyle.Render(summary))
	return strings.Join(lines, "\n")
}

// LoadStyle colors a load percentage by bracket.
func LoadStyle(load int) lipgloss.Style {
	switch {
	case load <= 10:
		return loadInfo
	case load <= 30:
		return loadSuccess
	case load <= 50:
		return loadWarning
	default:
		return loadError
	}
}

func RenderVerify(result model.VerifyResult) string {
	lines := []string{titleStyle.Render("relaygen verify"), ""}
	lines = append(lines, fmt.Sprintf("%s (%s) station %s", strings.ToUpper(result.Identifier), result.Hostname, result.Station), "")

	for _, step := range result.Steps {
		label := successStyle.Render("OK")
		switch {
		case step.Error != "":
			label = failureStyle.Render("FAIL")
		case !step.Match:
			label = failureStyle.Render("DIFF")
		}
		line := fmt.Sprintf("%s %02d %s -> %s", label, step.Index+1, step.Resolver, step.Rcode)
		if step.Error != "" {
			line = fmt.Sprintf("%s %02d %s -> error: %s", label, step.Index+1, step.Resolver, step.Error)
		}
		if step.Transport != "" {
			line += " via " + step.Transport
		}
		if step.RTT != "" {
			line += " rtt=" + step.RTT
		}
		if len(step.Addresses) > 0 {
			line += " addresses=" + strings.Join(step.Addresses, ",")
		}
		lines = append(lines, rowStyle.Render(line))
	}

	lines = append(lines, "")
	summary := fmt.Sprintf("%s %s", result.Diagnosis.Classification, result.Diagnosis.Summary)
	if result.Diagnosis.Classification == "MATCH" {
		lines = append(lines, successStyle.Render(summary))
	} else {
		lines = append(lines, failureStyle.Render(summary))
	}
	if len(result.Diagnosis.Hints) > 0 {
		lines = append(lines, "Hints:")
		for _, hint := range result.Diagnosis.Hints {
			lines = append(lines, "- "+hint)
		}
	}
	return strings.Join(lines, "\n")
}

// FlagEmoji maps a two letter country code to its regional indicator pair.
func FlagEmoji(code string) string {
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range strings.ToUpper(code) {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + c - 'A')
	}
	return b.String()
}
