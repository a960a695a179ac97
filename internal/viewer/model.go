// Package viewer is the interactive terminal shell around the scene: canvas,
// time slider, layer toggles and log panel.
package viewer

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/render"
	"github.com/san-kum/atmovis/internal/scene"
	"github.com/san-kum/atmovis/internal/session"
)

const (
	width      = 80
	height     = 24
	panelWidth = 46
	logLines   = 6

	orbitStep = 5.0
	zoomStep  = 1.2
)

// Options configure a viewer Model.
type Options struct {
	Set        *scene.ActorSet
	Composer   *scene.Composer
	Session    *session.Session
	Panel      *Panel
	Log        logrus.FieldLogger
	Background color.RGBA
	// Screenshot size in pixels.
	ShotWidth, ShotHeight int
}

// Model is the bubbletea model of the viewer.
type Model struct {
	set        *scene.ActorSet
	composer   *scene.Composer
	visibility *scene.Visibility
	session    *session.Session
	panel      *Panel
	log        logrus.FieldLogger
	cam        *render.Camera
	bg         color.RGBA
	shotW      int
	shotH      int
	cols, rows int
	areas      [][]float64
	showHelp   bool
	// toggles binds the keys 1..4 to the per-layer visibility handlers.
	toggles  map[string]toggle
	selected scene.LayerID
	frame    *frameCache
}

type toggle struct {
	id     scene.LayerID
	handle func() (bool, error)
}

// frameCache keeps the last terminal rendering. It is reused while the
// camera, the render set and the window size are unchanged.
type frameCache struct {
	valid      bool
	cam        render.Camera
	version    uint64
	cols, rows int
	out        string
}

func NewModel(o Options) Model {
	if o.ShotWidth <= 0 || o.ShotHeight <= 0 {
		o.ShotWidth, o.ShotHeight = 1280, 720
	}
	if o.Panel == nil {
		o.Panel = NewPanel(logLines)
	}
	m := Model{
		set:        o.Set,
		composer:   o.Composer,
		visibility: scene.NewVisibility(o.Composer),
		session:    o.Session,
		panel:      o.Panel,
		log:        o.Log,
		cam:        render.NewCamera(o.Session.Camera),
		bg:         o.Background,
		shotW:      o.ShotWidth,
		shotH:      o.ShotHeight,
		cols:       width,
		rows:       height,
		toggles:    make(map[string]toggle),
		selected:   scene.Folder1,
		frame:      &frameCache{},
	}
	for i, id := range scene.Layers {
		if h := m.visibility.Handler(id); h != nil {
			m.toggles[string(rune('1'+i))] = toggle{id: id, handle: h}
		}
	}
	for _, id := range []scene.LayerID{scene.Folder1, scene.Folder2} {
		s := o.Composer.Series(id)
		if s == nil || s.Len() < 2 {
			continue
		}
		area := make([]float64, s.Len())
		for i, a := range s.Actors {
			area[i] = a.Mesh.Area()
		}
		m.areas = append(m.areas, area)
	}
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// Update handles one input event synchronously.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = max(10, msg.Width-panelWidth-4)
		m.rows = max(5, msg.Height-1)
	case tea.KeyMsg:
		switch k := msg.String(); k {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			m.screenshot()
		case "c":
			m.saveCamera()
		case "left", "h":
			m.step(-1)
		case "right", "l":
			m.step(1)
		case "1", "2", "3", "4":
			m.toggle(k)
		case "<", ",":
			m.stepSelected(-1)
		case ">", ".":
			m.stepSelected(1)
		case "f":
			m.focus()
		case "x":
			m.cam.Elevation(orbitStep)
		case "X":
			m.cam.Elevation(-orbitStep)
		case "y":
			m.cam.Azimuth(orbitStep)
		case "Y":
			m.cam.Azimuth(-orbitStep)
		case "+", "=":
			m.cam.Dolly(zoomStep)
		case "-", "_":
			m.cam.Dolly(1 / zoomStep)
		case "?":
			m.showHelp = !m.showHelp
		}
	}
	return m, nil
}

// step moves the time slider by delta, clamped to the shared range.
func (m *Model) step(delta int) {
	n, ok := m.composer.TimeRange()
	if !ok {
		m.log.Warn("no timesteps loaded, time control disabled")
		return
	}
	next := min(max(m.composer.Time()+delta, 0), n-1)
	if next == m.composer.Time() {
		return
	}
	if err := m.composer.SetTime(next); err != nil {
		m.log.WithError(err).Error("time change failed")
		return
	}
	m.log.Infof("Displaying time %d", next)
}

// toggle runs the visibility handler bound to key k. Data layers become the
// selection for single-series stepping.
func (m *Model) toggle(k string) {
	t, ok := m.toggles[k]
	if !ok {
		return
	}
	on, err := t.handle()
	if err != nil {
		m.log.WithError(err).Error("toggle failed")
		return
	}
	if t.id != scene.Map {
		m.selected = t.id
	}
	m.log.WithField("layer", t.id.String()).Debugf("visible=%t", on)
}

// stepSelected moves only the selected layer through its own timesteps.
func (m *Model) stepSelected(delta int) {
	id := m.selected
	s := m.composer.Series(id)
	if s == nil || s.Len() == 0 {
		m.log.Warnf("%s has no timesteps", id)
		return
	}
	cur := m.composer.Index(id)
	next := min(max(cur+delta, 0), s.Len()-1)
	if next == cur {
		return
	}
	if err := m.composer.SetSeriesTime(id, next); err != nil {
		m.log.WithError(err).Error("time change failed")
		return
	}
	m.log.Infof("Displaying time %d for %s", next, id)
}

// focus centres the camera on the bounding box of the rendered actors.
func (m *Model) focus() {
	lo, hi, ok := render.Bounds(m.set.Actors())
	if !ok {
		m.log.Warn("nothing visible to focus on")
		return
	}
	m.cam.Focus(r3.Scale(0.5, r3.Add(lo, hi)))
	m.log.Info("Camera focused on visible layers")
}

func (m *Model) screenshot() {
	path, err := m.session.Screenshot(func(path string) error {
		return render.Screenshot(path, m.set.Actors(), m.cam, m.shotW, m.shotH, m.bg)
	})
	if err != nil {
		m.log.WithError(err).Error("export failed")
		return
	}
	m.log.Infof("Exported %s", filepath.Base(path))
}

func (m *Model) saveCamera() {
	if err := m.session.SaveCamera(m.cam.State()); err != nil {
		m.log.WithError(err).Error("camera save failed")
		return
	}
	m.log.Info("Camera position saved")
}

func slider(idx, n, width int) string {
	if n <= 1 {
		return "[" + strings.Repeat("=", width) + "]"
	}
	pos := idx * (width - 1) / (n - 1)
	return "[" + strings.Repeat("=", pos) + "|" + strings.Repeat("-", width-1-pos) + "]"
}

// View renders the canvas and the side panel.
func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas())

	var s strings.Builder
	s.WriteString(headerStyle.Render("ATMOVIS") + "\n")
	if n, ok := m.composer.TimeRange(); ok {
		t := m.composer.Time()
		s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%s %d/%d", slider(t, n, 20), t, n-1)) + "\n")
		if a := m.composer.Active(scene.Folder1); a != nil {
			s.WriteString(labelStyle.Render("File") + valueStyle.Render(filepath.Base(a.Name)) + "\n")
		}
	} else {
		s.WriteString(labelStyle.Render("Time") + offStyle.Render("no timesteps") + "\n")
	}
	s.WriteString("\nLAYERS\n")
	for i, id := range scene.Layers {
		if m.composer.Series(id) == nil {
			continue
		}
		mark := offStyle.Render("[ ]")
		if m.visibility.Visible(id) {
			mark = onStyle.Render("[x]")
		}
		cursor := " "
		if id == m.selected {
			cursor = ">"
		}
		s.WriteString(fmt.Sprintf("%s%d %s %s\n", cursor, i+1, mark, id))
	}
	if len(m.areas) > 0 {
		chart := asciigraph.PlotMany(m.areas, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Isosurface area"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString("\nLOG\n")
	for _, line := range m.panel.Last(logLines) {
		s.WriteString(logStyle.Render(truncate(line, panelWidth-4)) + "\n")
	}
	s.WriteString(helpStyle.Render("←→:Time <>:Layer time 1-4:Layers\nS:Shot C:Camera F:Focus xXyY:Orbit\n+-:Zoom ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

// canvas renders the scene into the terminal canvas, reusing the previous
// result while nothing that affects it has changed.
func (m Model) canvas() string {
	f := m.frame
	if f.valid && f.cam == *m.cam && f.version == m.set.Version() && f.cols == m.cols && f.rows == m.rows {
		return f.out
	}
	out := render.Terminal(m.set.Actors(), m.cam, m.cols, m.rows, m.bg).String()
	*f = frameCache{valid: true, cam: *m.cam, version: m.set.Version(), cols: m.cols, rows: m.rows, out: out}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run hosts the model on the alternate screen. The logger's own output is
// silenced for the duration; the panel hook keeps receiving entries.
func Run(m Model, log *logrus.Logger) error {
	out := log.Out
	log.SetOutput(io.Discard)
	defer log.SetOutput(out)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
