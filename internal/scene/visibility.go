package scene

import "fmt"

// Visibility holds one flag per layer and forwards changes to the composer.
// Flags are independent: toggling one layer never touches another's flag or
// time index.
type Visibility struct {
	composer *Composer
	flags    map[LayerID]bool
	handlers map[LayerID]func() (bool, error)
}

// NewVisibility starts with every registered layer visible.
func NewVisibility(c *Composer) *Visibility {
	v := &Visibility{
		composer: c,
		flags:    make(map[LayerID]bool),
		handlers: make(map[LayerID]func() (bool, error)),
	}
	for _, id := range c.LayerIDs() {
		id := id
		v.flags[id] = c.Visible(id)
		v.handlers[id] = func() (bool, error) { return v.Toggle(id) }
	}
	return v
}

// Toggle flips the flag of layer id and returns its new state.
func (v *Visibility) Toggle(id LayerID) (bool, error) {
	on, ok := v.flags[id]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownLayer, id)
	}
	on = !on
	if err := v.composer.SetVisible(id, on); err != nil {
		return !on, err
	}
	v.flags[id] = on
	return on, nil
}

func (v *Visibility) Visible(id LayerID) bool { return v.flags[id] }

// Handler returns the toggle bound to layer id, or nil for an unregistered
// layer.
func (v *Visibility) Handler(id LayerID) func() (bool, error) { return v.handlers[id] }
