package armature

import (
	"fmt"
	"sort"
)

type modeKey struct {
	arm  string
	mode Mode
}

// Scene links armatures by name and owns the mode-switch service. At most
// one armature is outside object mode at a time.
type Scene struct {
	name    string
	arms    []*Armature
	refused map[modeKey]bool
	props   map[string]float64
}

// NewScene creates an empty scene.
func NewScene(name string) *Scene {
	return &Scene{
		name:    name,
		refused: make(map[modeKey]bool),
		props:   make(map[string]float64),
	}
}

// Name returns the scene name.
func (s *Scene) Name() string { return s.name }

// Add links a into the scene. Names are unique per scene.
func (s *Scene) Add(a *Armature) error {
	if a == nil || a.name == "" {
		return ErrEmptyName
	}
	if s.Armature(a.name) != nil {
		return fmt.Errorf("%w: %s", ErrArmatureExists, a.name)
	}
	a.mode = ModeObject
	s.arms = append(s.arms, a)
	return nil
}

// Armature returns the linked armature with the given name, or nil.
func (s *Scene) Armature(name string) *Armature {
	for _, a := range s.arms {
		if a.name == name {
			return a
		}
	}
	return nil
}

// Armatures returns the linked armatures in link order.
func (s *Scene) Armatures() []*Armature {
	out := make([]*Armature, len(s.arms))
	copy(out, s.arms)
	return out
}

func (s *Scene) linked(a *Armature) bool {
	for _, x := range s.arms {
		if x == a {
			return true
		}
	}
	return false
}

// Refuse makes every future switch of a into mode fail. It models locked
// or linked library rigs.
func (s *Scene) Refuse(a *Armature, mode Mode) {
	s.refused[modeKey{a.name, mode}] = true
}

// Allow undoes Refuse.
func (s *Scene) Allow(a *Armature, mode Mode) {
	delete(s.refused, modeKey{a.name, mode})
}

// SetMode switches a into mode. Requesting the current mode succeeds
// without side effects. Entering edit or pose mode returns every other
// armature to object mode first.
func (s *Scene) SetMode(a *Armature, mode Mode) error {
	if a == nil || !s.linked(a) {
		return ErrNotInScene
	}
	if s.refused[modeKey{a.name, mode}] {
		return fmt.Errorf("%w: %s to %s", ErrModeRefused, a.name, mode)
	}
	if a.mode == mode {
		return nil
	}
	if mode != ModeObject {
		for _, other := range s.arms {
			if other != a {
				other.mode = ModeObject
			}
		}
	}
	a.mode = mode
	return nil
}

// Mode returns the current mode of a.
func (s *Scene) Mode(a *Armature) Mode { return a.mode }

// Active returns the armature outside object mode, or nil.
func (s *Scene) Active() *Armature {
	for _, a := range s.arms {
		if a.mode != ModeObject {
			return a
		}
	}
	return nil
}

// SetProp sets a scene custom property. path is the property path as seen
// from the scene, e.g. rig_props.hand_ik_l.
func (s *Scene) SetProp(path string, v float64) {
	s.props[path] = v
}

// Prop returns a scene custom property.
func (s *Scene) Prop(path string) (float64, bool) {
	v, ok := s.props[path]
	return v, ok
}

// PropNames returns the scene property paths, sorted.
func (s *Scene) PropNames() []string {
	out := make([]string, 0, len(s.props))
	for k := range s.props {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
