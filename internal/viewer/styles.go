package viewer

import "github.com/charmbracelet/lipgloss"

var (
	canvasStyle = lipgloss.NewStyle().Padding(0, 1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(panelWidth)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true)
	offStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	logStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  ← / h    - Previous timestep        ║
║  → / l    - Next timestep            ║
║  < / >    - Step selected layer only ║
║  1 2 3 4  - Toggle layers            ║
║  x / X    - Tilt camera              ║
║  y / Y    - Orbit camera             ║
║  + / -    - Zoom                     ║
║  s        - Save screenshot          ║
║  c        - Save camera position     ║
║  f        - Focus on visible layers  ║
║  ?        - Toggle this help         ║
║  q        - Quit                     ║
╚══════════════════════════════════════╝
`
