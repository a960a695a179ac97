package viewer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/camera"
	"github.com/san-kum/atmovis/internal/mesh"
	"github.com/san-kum/atmovis/internal/scene"
	"github.com/san-kum/atmovis/internal/session"
)

type fixture struct {
	model    Model
	set      *scene.ActorSet
	composer *scene.Composer
	panel    *Panel
	session  *session.Session
	dir      string
}

func quad(name string, size float64) *mesh.Actor {
	return mesh.NewActor(name, mesh.Plane(size, size, 2, 2))
}

func newFixture(t *testing.T, steps int) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	panel := NewPanel(20)
	log.AddHook(panel)

	var series []*scene.Series
	for _, id := range []scene.LayerID{scene.Folder1, scene.Folder2, scene.Pressure} {
		s := &scene.Series{ID: id}
		for i := 0; i < steps; i++ {
			s.Actors = append(s.Actors, quad(id.String(), float64(100+10*i)))
		}
		series = append(series, s)
	}
	series = append(series, scene.StaticSeries(scene.Map, quad("map", 400)))

	dir := t.TempDir()
	set := scene.NewActorSet()
	composer := scene.NewComposer(set, log, series...)
	sess := session.New(dir, "", nil)
	m := NewModel(Options{
		Set:       set,
		Composer:  composer,
		Session:   sess,
		Panel:     panel,
		Log:       log,
		ShotWidth: 32, ShotHeight: 24,
	})
	return &fixture{model: m, set: set, composer: composer, panel: panel, session: sess, dir: dir}
}

func (f *fixture) press(keys ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = f.model.Update(k)
		f.model = next.(Model)
	}
	return cmd
}

func key(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestTimeSlider(t *testing.T) {
	f := newFixture(t, 3)
	f.press(key("l"))
	assert.Equal(t, 1, f.composer.Time())
	assert.Contains(t, f.panel.Lines(), "Displaying time 1")

	f.press(tea.KeyMsg{Type: tea.KeyRight}, key("l"), key("l"))
	assert.Equal(t, 2, f.composer.Time(), "clamped at n-1")

	f.press(tea.KeyMsg{Type: tea.KeyLeft}, key("h"), key("h"))
	assert.Equal(t, 0, f.composer.Time())
	assert.Equal(t, "Displaying time 0", f.panel.Last(1)[0])
}

func TestTimeControlDisabled(t *testing.T) {
	f := newFixture(t, 0)
	f.press(key("l"))
	assert.Equal(t, 0, f.composer.Time())
	assert.Contains(t, f.panel.Last(1)[0], "time control disabled")
	assert.Contains(t, f.model.View(), "no timesteps")
}

func TestLayerToggles(t *testing.T) {
	f := newFixture(t, 2)
	require.Equal(t, 4, f.set.Len())

	f.press(key("2"))
	assert.False(t, f.composer.Visible(scene.Folder2))
	assert.True(t, f.composer.Visible(scene.Folder1))
	assert.Equal(t, 3, f.set.Len())

	f.press(key("4"))
	assert.False(t, f.composer.Visible(scene.Map))
	f.press(key("2"), key("4"))
	assert.Equal(t, 4, f.set.Len())
}

func TestStepSelectedLayer(t *testing.T) {
	f := newFixture(t, 3)
	f.press(key(">"))
	assert.Equal(t, 1, f.composer.Index(scene.Folder1))
	assert.Equal(t, 0, f.composer.Index(scene.Folder2))
	assert.Equal(t, "Displaying time 1 for Folder 1", f.panel.Last(1)[0])

	// a data layer toggle selects it, the map toggle does not
	f.press(key("2"), key("2"), key("4"), key(">"), key(">"), key(">"))
	assert.Equal(t, 2, f.composer.Index(scene.Folder2), "clamped to the series length")
	assert.Equal(t, 0, f.composer.Time())
	assert.True(t, f.set.Contains(f.composer.Series(scene.Folder2).Actors[2]))

	f.press(key("<"))
	assert.Equal(t, 1, f.composer.Index(scene.Folder2))
	assert.Contains(t, f.model.View(), ">2")
}

func TestFocusKey(t *testing.T) {
	f := newFixture(t, 1)
	dir, dist := f.model.cam.Direction(), f.model.cam.Distance()
	f.press(key("f"))

	// the 400 x 400 map plane encloses every other actor
	assert.InDelta(t, 200, f.model.cam.FocalPoint.X, 1e-9)
	assert.InDelta(t, 200, f.model.cam.FocalPoint.Y, 1e-9)
	assert.InDelta(t, dist, f.model.cam.Distance(), 1e-6)
	assert.InDelta(t, 1, r3.Dot(dir, f.model.cam.Direction()), 1e-9)
	assert.Equal(t, "Camera focused on visible layers", f.panel.Last(1)[0])
}

func TestCanvasReusedUntilSceneChanges(t *testing.T) {
	f := newFixture(t, 2)
	first := f.model.canvas()
	require.True(t, f.model.frame.valid)
	version := f.model.frame.version
	assert.Equal(t, first, f.model.canvas())
	assert.Equal(t, version, f.model.frame.version)

	f.press(key("4"))
	f.model.canvas()
	assert.NotEqual(t, version, f.model.frame.version)

	f.press(key("y"))
	f.model.canvas()
	assert.Equal(t, *f.model.cam, f.model.frame.cam)

	f.press(tea.WindowSizeMsg{Width: 100, Height: 20})
	f.model.canvas()
	assert.Equal(t, 50, f.model.frame.cols)
}

func TestScreenshotKey(t *testing.T) {
	f := newFixture(t, 2)
	f.press(key("s"), key("s"))
	assert.FileExists(t, filepath.Join(f.dir, "Screenshot00000.png"))
	assert.FileExists(t, filepath.Join(f.dir, "Screenshot00001.png"))
	assert.Equal(t, []string{"Exported Screenshot00000.png", "Exported Screenshot00001.png"}, f.panel.Last(2))
}

func TestScreenshotFailureKeepsCounter(t *testing.T) {
	f := newFixture(t, 2)
	f.session.Dir = filepath.Join(f.dir, "missing")
	f.press(key("s"))
	assert.Equal(t, 0, f.session.Screenshots())
	assert.Contains(t, f.panel.Last(1)[0], "ERROR export failed")

	require.NoError(t, os.Mkdir(f.session.Dir, 0755))
	f.press(key("s"))
	assert.FileExists(t, filepath.Join(f.session.Dir, "Screenshot00000.png"))
}

func TestCameraKeys(t *testing.T) {
	f := newFixture(t, 1)
	start := f.model.cam.Distance()
	f.press(key("+"))
	assert.Less(t, f.model.cam.Distance(), start)
	f.press(key("y"), key("x"), key("c"))

	assert.Equal(t, "Camera position saved", f.panel.Last(1)[0])
	saved, err := camera.Load(f.session.CameraPath)
	require.NoError(t, err)
	assert.Equal(t, f.model.cam.State().Position, saved.Position)
	assert.NotEqual(t, camera.Default().Position, saved.Position)
}

func TestQuitAndHelp(t *testing.T) {
	f := newFixture(t, 1)
	f.press(key("?"))
	assert.Contains(t, f.model.View(), "KEYBOARD SHORTCUTS")

	cmd := f.press(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewListsLayers(t *testing.T) {
	f := newFixture(t, 3)
	f.press(tea.WindowSizeMsg{Width: 120, Height: 30})
	assert.Equal(t, 70, f.model.cols)
	assert.Equal(t, 29, f.model.rows)
	v := f.model.View()
	for _, id := range scene.Layers {
		assert.Contains(t, v, id.String())
	}
	assert.Contains(t, v, "Isosurface area")
}

func TestPanelKeepsTail(t *testing.T) {
	p := NewPanel(2)
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.AddHook(p)
	log.Info("a")
	log.Debug("hidden")
	log.Warn("b")
	log.WithError(assert.AnError).Error("c")
	assert.Equal(t, []string{"WARNING b", "ERROR c: " + assert.AnError.Error()}, p.Lines())
}
