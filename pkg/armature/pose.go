package armature

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/rigbridge/pkg/math"
)

// Property is a custom float property on a pose bone.
type Property struct {
	Value       float64
	Default     float64
	Min         float64
	Max         float64
	Overridable bool
}

// PoseBone is the runtime representation of a bone: its animated transform,
// custom properties and constraint stack.
type PoseBone struct {
	id   BoneID
	name string

	Location math.Vec3
	Rotation math.Vec3 // Euler XYZ, radians
	Scale    math.Vec3

	LockLocation  [3]bool
	LockRotation  [3]bool
	LockRotationW bool
	LockScale     [3]bool

	group       string
	props       map[string]*Property
	constraints []*Constraint
}

func newPoseBone(id BoneID, name string) *PoseBone {
	return &PoseBone{
		id:    id,
		name:  name,
		Scale: math.Vec3{X: 1, Y: 1, Z: 1},
		props: make(map[string]*Property),
	}
}

// ID returns the index of the underlying bone.
func (pb *PoseBone) ID() BoneID { return pb.id }

// Name returns the bone name.
func (pb *PoseBone) Name() string { return pb.name }

// Group returns the bone group name, empty if none.
func (pb *PoseBone) Group() string { return pb.group }

// Prop returns a custom property.
func (pb *PoseBone) Prop(name string) (*Property, bool) {
	p, ok := pb.props[name]
	return p, ok
}

// PropNames returns the custom property names.
func (pb *PoseBone) PropNames() []string {
	out := make([]string, 0, len(pb.props))
	for name := range pb.props {
		out = append(out, name)
	}
	return out
}

// Constraints returns the constraint stack in evaluation order.
func (pb *PoseBone) Constraints() []*Constraint {
	out := make([]*Constraint, len(pb.constraints))
	copy(out, pb.constraints)
	return out
}

// Constraint returns the constraint with the given name.
func (pb *PoseBone) Constraint(name string) (*Constraint, bool) {
	for _, c := range pb.constraints {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ResetTransform clears location, rotation and scale to rest.
func (pb *PoseBone) ResetTransform() {
	pb.Location = math.Vec3{}
	pb.Rotation = math.Vec3{}
	pb.Scale = math.Vec3{X: 1, Y: 1, Z: 1}
}

// Unlock clears every transform lock.
func (pb *PoseBone) Unlock() {
	pb.LockLocation = [3]bool{}
	pb.LockRotation = [3]bool{}
	pb.LockRotationW = false
	pb.LockScale = [3]bool{}
}

// Pose is the pose-bone view of an armature.
type Pose struct {
	a *Armature
}

// Pose returns the pose view.
func (a *Armature) Pose() Pose { return Pose{a: a} }

// Get returns the pose bone with the exact name.
func (p Pose) Get(name string) (*PoseBone, bool) {
	id, ok := p.a.index[name]
	if !ok {
		return nil, false
	}
	return p.a.poses[id], true
}

// Contains reports whether a pose bone with the exact name exists.
func (p Pose) Contains(name string) bool {
	_, ok := p.a.index[name]
	return ok
}

// All returns every pose bone in storage order.
func (p Pose) All() []*PoseBone {
	out := make([]*PoseBone, len(p.a.poses))
	copy(out, p.a.poses)
	return out
}

func (p Pose) check(pb *PoseBone) error {
	if p.a.mode == ModeEdit {
		return fmt.Errorf("%w: %s is in EDIT mode", ErrWrongMode, p.a.name)
	}
	if pb == nil || int(pb.id) >= len(p.a.poses) || p.a.poses[pb.id] != pb {
		return fmt.Errorf("%w: pose bone not in %s", ErrForeignBone, p.a.name)
	}
	return nil
}

// SetProp creates or replaces a custom property. The value is clamped to
// [min, max].
func (p Pose) SetProp(pb *PoseBone, name string, value, min, max float64, overridable bool) error {
	if err := p.check(pb); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName
	}
	if min > max {
		return fmt.Errorf("%w: property %s has min %v > max %v", ErrInvalidPath, name, min, max)
	}
	pb.props[name] = &Property{
		Value:       clamp(value, min, max),
		Default:     value,
		Min:         min,
		Max:         max,
		Overridable: overridable,
	}
	return nil
}

// SetGroup assigns a bone group that must already exist.
func (p Pose) SetGroup(pb *PoseBone, group string) error {
	if err := p.check(pb); err != nil {
		return err
	}
	if group != "" && !p.a.hasGroup(group) {
		return fmt.Errorf("%w: bone group %s", ErrBoneNotFound, group)
	}
	pb.group = group
	return nil
}

// AddConstraint appends a constraint of the given type with host defaults
// and returns it. Names are unique per pose bone.
func (p Pose) AddConstraint(pb *PoseBone, typ ConstraintType) (*Constraint, error) {
	if err := p.check(pb); err != nil {
		return nil, err
	}
	base, ok := constraintNames[typ]
	if !ok {
		return nil, fmt.Errorf("%w: unknown constraint type %q", ErrInvalidDriver, typ)
	}
	name := base
	for i := 1; ; i++ {
		if _, taken := pb.Constraint(name); !taken {
			break
		}
		name = fmt.Sprintf("%s.%03d", base, i)
	}
	c := newConstraint(typ, name)
	c.Handle = uuid.Must(uuid.NewV7())
	pb.constraints = append(pb.constraints, c)
	return c, nil
}

// RemoveConstraint removes c from the stack. Drivers on it are removed too.
func (p Pose) RemoveConstraint(pb *PoseBone, c *Constraint) error {
	if err := p.check(pb); err != nil {
		return err
	}
	for i, existing := range pb.constraints {
		if existing == c {
			pb.constraints = append(pb.constraints[:i], pb.constraints[i+1:]...)
			p.a.AnimationData().removeOwnedBy(ConstraintPath(pb.name, c.Name))
			return nil
		}
	}
	return fmt.Errorf("%w: constraint %s on %s", ErrBoneNotFound, c.Name, pb.name)
}

// ClearConstraints removes every constraint from pb and returns how many
// were removed.
func (p Pose) ClearConstraints(pb *PoseBone) (int, error) {
	if err := p.check(pb); err != nil {
		return 0, err
	}
	removed := pb.Constraints()
	for _, c := range removed {
		if err := p.RemoveConstraint(pb, c); err != nil {
			return 0, err
		}
	}
	return len(removed), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
