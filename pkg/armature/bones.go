package armature

import "fmt"

// Bones is the runtime bone-metadata view. It can be read in any mode;
// layer and selection changes need object or pose mode.
type Bones struct {
	a *Armature
}

// Bones returns the data view.
func (a *Armature) Bones() Bones { return Bones{a: a} }

// Get returns the bone with the exact name.
func (v Bones) Get(name string) (*Bone, bool) {
	return v.a.lookup(name)
}

// Contains reports whether a bone with the exact name exists.
func (v Bones) Contains(name string) bool {
	_, ok := v.a.lookup(name)
	return ok
}

// All returns every bone in storage order (creation order).
func (v Bones) All() []*Bone {
	out := make([]*Bone, len(v.a.bones))
	copy(out, v.a.bones)
	return out
}

// Names returns every bone name in storage order.
func (v Bones) Names() []string {
	out := make([]string, len(v.a.bones))
	for i, b := range v.a.bones {
		out[i] = b.name
	}
	return out
}

// Parent returns the parent of b, or nil for a root.
func (v Bones) Parent(b *Bone) *Bone {
	return v.a.parentOf(b)
}

// Children returns the direct children of b in storage order.
func (v Bones) Children(b *Bone) []*Bone {
	return v.a.children(b)
}

// Roots returns the bones without parent in storage order.
func (v Bones) Roots() []*Bone {
	var out []*Bone
	for _, b := range v.a.bones {
		if b.parent == NoBone {
			out = append(out, b)
		}
	}
	return out
}

func (v Bones) check(b *Bone) error {
	if v.a.mode == ModeEdit {
		return fmt.Errorf("%w: %s is in EDIT mode", ErrWrongMode, v.a.name)
	}
	if !v.a.owns(b) {
		return fmt.Errorf("%w: %s", ErrForeignBone, v.a.name)
	}
	return nil
}

// SetLayers replaces the data/pose layer set.
func (v Bones) SetLayers(b *Bone, l Layers) error {
	if err := v.check(b); err != nil {
		return err
	}
	b.layers = l
	return nil
}

// Select sets the selection state.
func (v Bones) Select(b *Bone, selected bool) error {
	if err := v.check(b); err != nil {
		return err
	}
	b.selected = selected
	return nil
}
