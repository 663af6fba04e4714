package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	statusadapter "github.com/bnema/clawsync/internal/adapters/render/status"
	"github.com/bnema/clawsync/internal/application"
	"github.com/bnema/clawsync/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const watchRefresh = time.Second

type snapshotMsg application.Snapshot

type clockTickMsg time.Time

type actionDoneMsg struct {
	err error
}

// watchActions is the slice of the store the dashboard drives.
type watchActions interface {
	Select(id domain.AgentID) error
	SetViewMode(ctx context.Context, mode domain.ViewMode) error
	SetTheme(ctx context.Context, theme domain.Theme) error
}

type watchModel struct {
	ctx      context.Context
	actions  watchActions
	snapshot application.Snapshot
	now      time.Time
	clock    func() time.Time
	err      error
	help     lipgloss.Style
	warning  lipgloss.Style
}

func newWatchModel(ctx context.Context, actions watchActions, initial application.Snapshot, clock func() time.Time) watchModel {
	return watchModel{
		ctx:      ctx,
		actions:  actions,
		snapshot: initial,
		now:      clock(),
		clock:    clock,
		help:     lipgloss.NewStyle().Faint(true),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) tick() tea.Cmd {
	clock := m.clock
	return tea.Tick(watchRefresh, func(time.Time) tea.Msg {
		return clockTickMsg(clock())
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		// Snapshots may arrive out of order from different publishers.
		if msg.Version >= m.snapshot.Version {
			m.snapshot = application.Snapshot(msg)
		}
		return m, nil
	case clockTickMsg:
		m.now = time.Time(msg)
		return m, m.tick()
	case actionDoneMsg:
		m.err = msg.err
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "j", "down", "tab":
		return m, m.selectAgent(1)
	case "k", "up", "shift+tab":
		return m, m.selectAgent(-1)
	case "v":
		next := domain.ViewMode3D
		if m.snapshot.Preferences.ViewMode == domain.ViewMode3D {
			next = domain.ViewMode2D
		}
		return m, m.run(func() error { return m.actions.SetViewMode(m.ctx, next) })
	case "t":
		return m, m.run(func() error { return m.actions.SetTheme(m.ctx, nextTheme(m.snapshot.Preferences.Theme)) })
	default:
		return m, nil
	}
}

func (m watchModel) run(action func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: action()}
	}
}

// selectAgent moves the selection by step through the roster, wrapping around.
func (m watchModel) selectAgent(step int) tea.Cmd {
	agents := m.snapshot.Agents
	if len(agents) == 0 {
		return nil
	}

	current := -1
	for i, agent := range agents {
		if agent.ID == m.snapshot.SelectedAgent {
			current = i
			break
		}
	}

	next := 0
	switch {
	case current >= 0:
		next = (current + step + len(agents)) % len(agents)
	case step < 0:
		next = len(agents) - 1
	}
	if current == next {
		return nil
	}

	id := agents[next].ID
	return m.run(func() error { return m.actions.Select(id) })
}

func nextTheme(theme domain.Theme) domain.Theme {
	switch theme {
	case domain.ThemeSystem:
		return domain.ThemeLight
	case domain.ThemeLight:
		return domain.ThemeDark
	default:
		return domain.ThemeSystem
	}
}

func (m watchModel) View() string {
	view := statusadapter.View(m.snapshot, statusadapter.RenderOptions{
		Now:                 m.now,
		HeartbeatStaleAfter: heartbeatStaleAfter,
	})

	prefs := m.snapshot.Preferences
	footer := m.help.Render(fmt.Sprintf(
		"j/k select  v view (%s)  t theme (%s)  q quit",
		prefs.ViewMode, prefs.Theme,
	))
	if m.err != nil {
		footer = lipgloss.JoinVertical(lipgloss.Left, m.warning.Render(m.err.Error()), footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left, view, "", footer)
}

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live fleet dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sess, err := app.openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			p := tea.NewProgram(
				newWatchModel(ctx, sess.store, sess.store.Snapshot(), app.now),
				tea.WithContext(ctx),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen(),
			)

			unsubscribe := sess.store.Subscribe(func(snapshot application.Snapshot) {
				p.Send(snapshotMsg(snapshot))
			})
			defer unsubscribe()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := sess.prefs.Watch(ctx, func(domain.Preferences) {
					if err := sess.store.LoadPreferences(ctx); err != nil {
						app.logger.Warn("reload preferences", zap.Error(err))
					}
				})
				if err != nil {
					app.logger.Warn("preferences watch stopped", zap.Error(err))
				}
			}()
			defer wg.Wait()
			defer cancel()

			_, err = p.Run()
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("run dashboard: %w", err)
			}
			return nil
		},
	}
}
