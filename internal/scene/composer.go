package scene

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/atmovis/internal/mesh"
)

type layerState struct {
	series  *Series
	index   int
	visible bool
}

func (l *layerState) active() *mesh.Actor {
	if l.series.Len() == 0 {
		return nil
	}
	return l.series.Actors[l.index]
}

// Composer keeps one active actor per layer in the render set and a time
// index shared by the data series.
//
// The shared range is [0, n-1] where n is the length of the shortest
// non-empty data series. Empty series are inert, and when every data series
// is empty the time control is disabled.
type Composer struct {
	renderer Renderer
	layers   map[LayerID]*layerState
	order    []LayerID
	time     int
	steps    int
	log      logrus.FieldLogger
}

// NewComposer registers the series, all visible at time 0, and adds their
// active actors to r.
func NewComposer(r Renderer, log logrus.FieldLogger, series ...*Series) *Composer {
	c := &Composer{renderer: r, layers: make(map[LayerID]*layerState), log: log}
	lengths := logrus.Fields{}
	mismatch := false
	for _, s := range series {
		c.layers[s.ID] = &layerState{series: s, visible: true}
		c.order = append(c.order, s.ID)
		if s.Static {
			continue
		}
		lengths[s.ID.String()] = s.Len()
		if s.Len() == 0 {
			log.WithField("layer", s.ID.String()).Warn("series is empty")
			continue
		}
		if c.steps != 0 && s.Len() != c.steps {
			mismatch = true
		}
		if c.steps == 0 || s.Len() < c.steps {
			c.steps = s.Len()
		}
	}
	switch {
	case c.steps == 0:
		log.Warn("no timesteps loaded, time control disabled")
	case mismatch:
		log.WithFields(lengths).Warnf("series lengths differ, time range limited to %d", c.steps)
	}
	for _, id := range c.order {
		if a := c.layers[id].active(); a != nil {
			r.AddActor(a)
		}
	}
	return c
}

// TimeRange returns the number of shared timesteps; ok is false when the
// time control is disabled.
func (c *Composer) TimeRange() (n int, ok bool) {
	return c.steps, c.steps > 0
}

func (c *Composer) Time() int { return c.time }

func (c *Composer) checkTime(index int) error {
	if c.steps == 0 {
		return ErrNoTimesteps
	}
	if index < 0 || index >= c.steps {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, c.steps-1)
	}
	return nil
}

// SetTime moves every data series to index. Visible series swap their
// active actor; hidden series only advance their index.
func (c *Composer) SetTime(index int) error {
	if err := c.checkTime(index); err != nil {
		return err
	}
	c.time = index
	for _, id := range c.order {
		l := c.layers[id]
		if l.series.Static || l.series.Len() == 0 {
			continue
		}
		c.swap(l, index)
	}
	return nil
}

// SetSeriesTime moves a single series, bounded by its own length.
func (c *Composer) SetSeriesTime(id LayerID, index int) error {
	l, ok := c.layers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLayer, id)
	}
	if l.series.Static {
		return nil
	}
	if l.series.Len() == 0 {
		return ErrNoTimesteps
	}
	if index < 0 || index >= l.series.Len() {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, l.series.Len()-1)
	}
	c.swap(l, index)
	return nil
}

func (c *Composer) swap(l *layerState, index int) {
	if l.visible {
		c.renderer.RemoveActor(l.active())
	}
	l.index = index
	if l.visible {
		c.renderer.AddActor(l.active())
	}
}

// SetVisible adds or removes the layer's active actor. Setting the current
// state again changes nothing.
func (c *Composer) SetVisible(id LayerID, visible bool) error {
	l, ok := c.layers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLayer, id)
	}
	if l.visible == visible {
		return nil
	}
	l.visible = visible
	a := l.active()
	if a == nil {
		return nil
	}
	if visible {
		c.renderer.AddActor(a)
	} else {
		c.renderer.RemoveActor(a)
	}
	return nil
}

func (c *Composer) Visible(id LayerID) bool {
	l, ok := c.layers[id]
	return ok && l.visible
}

// Index returns the active index of one series.
func (c *Composer) Index(id LayerID) int {
	if l, ok := c.layers[id]; ok {
		return l.index
	}
	return 0
}

// Active returns the layer's active actor, or nil for an empty series.
func (c *Composer) Active(id LayerID) *mesh.Actor {
	if l, ok := c.layers[id]; ok {
		return l.active()
	}
	return nil
}

func (c *Composer) Series(id LayerID) *Series {
	if l, ok := c.layers[id]; ok {
		return l.series
	}
	return nil
}

// LayerIDs returns the registered layers in registration order.
func (c *Composer) LayerIDs() []LayerID { return c.order }
