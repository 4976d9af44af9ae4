package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF3621"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headingStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	roleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Border(lipgloss.NormalBorder(), true, false, false, false)
)
