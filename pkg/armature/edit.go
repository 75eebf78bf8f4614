package armature

import (
	"fmt"

	"github.com/Faultbox/rigbridge/pkg/math"
)

// EditBones is the edit-time view of an armature. It is only populated
// while the armature is in edit mode; every mutation requires edit mode.
type EditBones struct {
	a *Armature
}

// EditBones returns the edit-time view.
func (a *Armature) EditBones() EditBones { return EditBones{a: a} }

func (e EditBones) check() error {
	if e.a.mode != ModeEdit {
		return fmt.Errorf("%w: %s is in %s mode, need EDIT", ErrWrongMode, e.a.name, e.a.mode)
	}
	return nil
}

func (e EditBones) checkBone(b *Bone) error {
	if err := e.check(); err != nil {
		return err
	}
	if !e.a.owns(b) {
		return fmt.Errorf("%w: %s", ErrForeignBone, e.a.name)
	}
	return nil
}

// Get returns the edit bone with the exact name. Outside edit mode the
// view is empty.
func (e EditBones) Get(name string) (*Bone, bool) {
	if e.a.mode != ModeEdit {
		return nil, false
	}
	return e.a.lookup(name)
}

// Contains reports whether an edit bone with the exact name exists.
func (e EditBones) Contains(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// All returns the edit bones in storage order.
func (e EditBones) All() []*Bone {
	if e.a.mode != ModeEdit {
		return nil
	}
	out := make([]*Bone, len(e.a.bones))
	copy(out, e.a.bones)
	return out
}

// New creates a bone. When the name is taken the host picks name.001,
// name.002, ... so callers must read the final name back from the bone.
func (e EditBones) New(name string) (*Bone, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	return e.a.addBone(name), nil
}

// Rename changes the bone name. It fails if another bone already has it.
func (e EditBones) Rename(b *Bone, name string) error {
	if err := e.checkBone(b); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName
	}
	if name == b.name {
		return nil
	}
	if _, taken := e.a.index[name]; taken {
		return fmt.Errorf("%w: %s in %s", ErrBoneExists, name, e.a.name)
	}
	delete(e.a.index, b.name)
	b.name = name
	e.a.index[name] = b.id
	e.a.poses[b.id].name = name
	return nil
}

// SetParent links b under parent. A nil parent makes b a root.
func (e EditBones) SetParent(b, parent *Bone) error {
	if err := e.checkBone(b); err != nil {
		return err
	}
	if parent == nil {
		b.parent = NoBone
		b.flags.Connect = false
		return nil
	}
	if !e.a.owns(parent) {
		return fmt.Errorf("%w: parent %s", ErrForeignBone, parent.name)
	}
	for p := parent; p != nil; p = e.a.parentOf(p) {
		if p.id == b.id {
			return fmt.Errorf("%w: %s under %s", ErrParentCycle, b.name, parent.name)
		}
	}
	b.parent = parent.id
	return nil
}

// SetHead moves the head.
func (e EditBones) SetHead(b *Bone, head math.Vec3) error {
	if err := e.checkBone(b); err != nil {
		return err
	}
	b.head = head
	return nil
}

// SetTail moves the tail.
func (e EditBones) SetTail(b *Bone, tail math.Vec3) error {
	if err := e.checkBone(b); err != nil {
		return err
	}
	b.tail = tail
	return nil
}

// SetRoll sets the roll angle in radians.
func (e EditBones) SetRoll(b *Bone, roll float32) error {
	if err := e.checkBone(b); err != nil {
		return err
	}
	b.roll = roll
	return nil
}

// SetRadii sets the head and tail envelope radii.
func (e EditBones) SetRadii(b *Bone, head, tail float32) error {
	if err := e.checkBone(b); err != nil {
		return err
	}
	b.headRadius = head
	b.tailRadius = tail
	return nil
}

// SetLayers replaces the edit-bone layer set.
func (e EditBones) SetLayers(b *Bone, l Layers) error {
	if err := e.checkBone(b); err != nil {
		return err
	}
	b.editLayers = l
	return nil
}

// SetFlags replaces the edit-time flags.
func (e EditBones) SetFlags(b *Bone, f Flags) error {
	if err := e.checkBone(b); err != nil {
		return err
	}
	b.flags = f
	return nil
}

// Children returns the direct children of b in storage order.
func (e EditBones) Children(b *Bone) []*Bone {
	if e.a.mode != ModeEdit {
		return nil
	}
	return e.a.children(b)
}

// Parent returns the parent of b, or nil for a root.
func (e EditBones) Parent(b *Bone) *Bone {
	if e.a.mode != ModeEdit {
		return nil
	}
	return e.a.parentOf(b)
}

func (a *Armature) parentOf(b *Bone) *Bone {
	if b == nil || b.parent == NoBone {
		return nil
	}
	return a.bones[b.parent]
}

func (a *Armature) children(b *Bone) []*Bone {
	var out []*Bone
	for _, c := range a.bones {
		if c.parent == b.id {
			out = append(out, c)
		}
	}
	return out
}
