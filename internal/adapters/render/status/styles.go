package status

import (
	"github.com/bnema/clawsync/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title       lipgloss.Style
	header      lipgloss.Style
	agent       lipgloss.Style
	subAgent    lipgloss.Style
	selected    lipgloss.Style
	detail      lipgloss.Style
	warning     lipgloss.Style
	section     lipgloss.Style
	sectionName lipgloss.Style
	empty       lipgloss.Style
	timestamp   lipgloss.Style
	barBracket  lipgloss.Style
	barEmpty    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true),
		header:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		agent:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		subAgent:    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		selected:    lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("213")),
		detail:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:     lipgloss.NewStyle().MarginTop(1),
		sectionName: lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Underline(true),
		empty:       lipgloss.NewStyle().Faint(true),
		timestamp:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		barBracket:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barEmpty:    lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}

func statusColor(status domain.AgentStatus) lipgloss.Color {
	switch status {
	case domain.AgentStatusThinking:
		return lipgloss.Color("220")
	case domain.AgentStatusToolCalling:
		return lipgloss.Color("39")
	case domain.AgentStatusSpeaking:
		return lipgloss.Color("42")
	case domain.AgentStatusSpawning:
		return lipgloss.Color("141")
	case domain.AgentStatusError:
		return lipgloss.Color("203")
	case domain.AgentStatusOffline:
		return lipgloss.Color("238")
	default:
		return lipgloss.Color("245")
	}
}

func connectionColor(status domain.ConnectionStatus) lipgloss.Color {
	switch status {
	case domain.ConnectionConnected:
		return lipgloss.Color("42")
	case domain.ConnectionConnecting, domain.ConnectionReconnecting:
		return lipgloss.Color("220")
	case domain.ConnectionError:
		return lipgloss.Color("203")
	default:
		return lipgloss.Color("245")
	}
}
