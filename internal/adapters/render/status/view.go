package status

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bnema/clawsync/internal/application"
	"github.com/bnema/clawsync/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const defaultHistoryLimit = 8

type RenderOptions struct {
	Now time.Time
	// HeartbeatStaleAfter flags the heartbeat when it is older than this.
	// Zero disables the check.
	HeartbeatStaleAfter time.Duration
	HistoryLimit        int
}

func renderView(snapshot application.Snapshot, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Gateway Fleet"),
		connectionLine(snapshot, opts, s),
		s.header.Render(fmt.Sprintf(
			"agents: %d  active: %d  heat: %.0f%%",
			snapshot.Metrics.TotalAgents,
			snapshot.Metrics.ActiveAgents,
			snapshot.Metrics.CollaborationHeat,
		)),
		usageLine(snapshot, s),
	}

	if len(snapshot.Agents) == 0 {
		lines = append(lines, s.section.Render(s.empty.Render("No agents reported yet.")))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, s.section.Render(renderAgents(snapshot, s)))
	if len(snapshot.Meetings) > 0 {
		lines = append(lines, s.section.Render(renderMeetings(snapshot, s)))
	}
	if len(snapshot.Links) > 0 {
		lines = append(lines, s.section.Render(renderLinks(snapshot, s)))
	}
	if len(snapshot.History) > 0 {
		lines = append(lines, s.section.Render(renderHistory(snapshot.History, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func connectionLine(snapshot application.Snapshot, opts RenderOptions, s styles) string {
	conn := snapshot.Connection
	status := conn.Status
	if status == "" {
		status = domain.ConnectionDisconnected
	}

	parts := []string{
		s.header.Render("gateway:"),
		lipgloss.NewStyle().Foreground(connectionColor(status)).Render(string(status)),
	}
	if conn.Error != "" {
		parts = append(parts, s.warning.Render("("+conn.Error+")"))
	}
	if snapshot.Health != nil {
		health := "ok"
		if !snapshot.Health.OK {
			health = "degraded"
		}
		parts = append(parts, s.header.Render("health: "+health))
	}
	if heartbeatStale(snapshot.LastHeartbeat, opts) {
		parts = append(parts, s.warning.Render("[stale heartbeat]"))
	}

	return strings.Join(parts, " ")
}

func heartbeatStale(last time.Time, opts RenderOptions) bool {
	if opts.Now.IsZero() || opts.HeartbeatStaleAfter <= 0 || last.IsZero() {
		return false
	}
	return opts.Now.Sub(last) > opts.HeartbeatStaleAfter
}

func usageLine(snapshot application.Snapshot, s styles) string {
	latest, ok := snapshot.LatestTokens()
	if !ok {
		return s.detail.Render("usage: n/a")
	}

	line := fmt.Sprintf("usage: %d tokens (%.1f/min)", latest.TotalTokens, snapshot.Metrics.TokenRate)
	if len(snapshot.AgentCosts) > 0 {
		line += fmt.Sprintf("  cost: $%.2f", snapshot.TotalCost())
	}
	line = s.detail.Render(line)
	if latest.Estimated {
		line += " " + s.warning.Render("[estimated]")
	}
	return line
}

// renderAgents lists top-level agents in roster order with their sub-agents
// nested underneath.
func renderAgents(snapshot application.Snapshot, s styles) string {
	byID := make(map[domain.AgentID]domain.VisualAgent, len(snapshot.Agents))
	for _, agent := range snapshot.Agents {
		byID[agent.ID] = agent
	}

	lines := []string{s.sectionName.Render("Agents")}
	for _, agent := range snapshot.Agents {
		if agent.IsSubAgent {
			if _, ok := byID[agent.ParentAgentID]; ok {
				continue
			}
		}
		lines = append(lines, agentLine(agent, 0, snapshot, s))
		for _, childID := range agent.ChildAgentIDs {
			if child, ok := byID[childID]; ok {
				lines = append(lines, agentLine(child, 1, snapshot, s))
			}
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func agentLine(agent domain.VisualAgent, depth int, snapshot application.Snapshot, s styles) string {
	nameStyle := s.agent
	if depth > 0 {
		nameStyle = s.subAgent
	}
	if agent.ID == snapshot.SelectedAgent {
		nameStyle = s.selected
	}

	indent := ""
	if depth > 0 {
		indent = strings.Repeat("  ", depth) + "└ "
	}

	statusStyle := lipgloss.NewStyle().Foreground(statusColor(agent.Status))
	parts := []string{
		indent + statusStyle.Render("●"),
		nameStyle.Render(agentName(agent)),
		statusStyle.Render(string(agent.Status)),
	}
	if agent.CurrentTool != nil {
		parts = append(parts, s.detail.Render("→ "+agent.CurrentTool.Name))
	}
	if agent.Zone != "" {
		parts = append(parts, s.header.Render("@"+string(agent.Zone)))
	}
	if agent.ToolCallCount > 0 {
		parts = append(parts, s.header.Render(fmt.Sprintf("tools: %d", agent.ToolCallCount)))
	}
	if cost, ok := snapshot.AgentCosts[agent.ID]; ok {
		parts = append(parts, s.header.Render(fmt.Sprintf("$%.2f", cost)))
	}

	return strings.Join(parts, " ")
}

func agentName(agent domain.VisualAgent) string {
	name := strings.TrimSpace(agent.Name)
	if name == "" || name == string(agent.ID) {
		return string(agent.ID)
	}
	return fmt.Sprintf("%s (%s)", name, agent.ID)
}

func renderMeetings(snapshot application.Snapshot, s styles) string {
	lines := []string{s.sectionName.Render("Meetings")}
	for _, group := range snapshot.Meetings {
		names := make([]string, 0, len(group.AgentIDs))
		for _, id := range group.AgentIDs {
			names = append(names, displayName(snapshot, id))
		}
		sort.Strings(names)
		lines = append(lines, s.detail.Render(fmt.Sprintf("%s: %s", group.SessionKey, strings.Join(names, ", "))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderLinks(snapshot application.Snapshot, s styles) string {
	links := append([]domain.CollaborationLink(nil), snapshot.Links...)
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Strength > links[j].Strength
	})

	lines := []string{s.sectionName.Render("Collaboration")}
	for _, link := range links {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.detail.Render(fmt.Sprintf("%s ↔ %s ", displayName(snapshot, link.SourceID), displayName(snapshot, link.TargetID))),
			renderStrengthBar(link.Strength*100, 10, s),
			s.header.Render(fmt.Sprintf(" %.1f", link.Strength)),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderHistory(history []domain.EventHistoryItem, opts RenderOptions, s styles) string {
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	lines := []string{s.sectionName.Render("Recent")}
	for i := len(history) - 1; i >= 0; i-- {
		item := history[i]
		lines = append(lines, strings.Join([]string{
			s.timestamp.Render(formatEventTime(item.Timestamp, opts.Now)),
			s.agent.Render(item.AgentName),
			s.detail.Render(item.Summary),
		}, " "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func displayName(snapshot application.Snapshot, id domain.AgentID) string {
	if agent, ok := snapshot.Agent(id); ok && strings.TrimSpace(agent.Name) != "" {
		return agent.Name
	}
	return string(id)
}

func formatEventTime(at, now time.Time) string {
	if at.IsZero() {
		return "--:--:--"
	}
	if now.IsZero() {
		return at.Format("15:04:05")
	}

	ago := now.Sub(at)
	switch {
	case ago < time.Minute:
		return fmt.Sprintf("%2ds ago", int(math.Max(ago.Seconds(), 0)))
	case ago < time.Hour:
		return fmt.Sprintf("%2dm ago", int(ago.Minutes()))
	default:
		return at.Format("15:04:05")
	}
}

func renderStrengthBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	filled = min(max(filled, 0), width)

	fillSegment := lipgloss.NewStyle().Foreground(interpolateColor(percent, 0, 100)).Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", width-filled))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, lo, hi float64) lipgloss.Color {
	if hi == lo {
		return lipgloss.Color("255")
	}

	normalized := (value - lo) / (hi - lo)
	normalized = min(max(normalized, 0), 1)

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
