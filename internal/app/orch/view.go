package orch

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/dkeye/mentor-avatar/internal/core"
	"github.com/dkeye/mentor-avatar/internal/domain"
)

var (
	avatarStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))
	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// ConsoleView prints transcript and status lines to a terminal.
type ConsoleView struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleView(out io.Writer) *ConsoleView {
	return &ConsoleView{out: out}
}

func (v *ConsoleView) Render(ev core.UIEvent) {
	line := formatEvent(ev)
	if line == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, line)
}

func formatEvent(ev core.UIEvent) string {
	switch ev.Type {
	case "message":
		switch ev.Role {
		case domain.RoleAvatar:
			return avatarStyle.Render("Dr Drewery:") + " " + ev.Text
		case domain.RoleUser:
			return userStyle.Render("You:") + " " + ev.Text
		default:
			return systemStyle.Render("* " + ev.Text)
		}
	case "status":
		return statusStyle.Render("[" + string(ev.Status) + "]")
	case "speaking":
		if ev.Speaking != nil && *ev.Speaking {
			return statusStyle.Render("[speaking]")
		}
		return ""
	case "error":
		return errorStyle.Render("error: " + ev.Error)
	}
	return ""
}

// Views fans one event out to several views.
type Views []core.View

func (vs Views) Render(ev core.UIEvent) {
	for _, v := range vs {
		if v != nil {
			v.Render(ev)
		}
	}
}
