// Package armature is an in-memory skeleton host: armatures with edit, data
// and pose views over a single bone arena, per-armature interaction modes,
// pose constraints, drivers and a scene that evaluates them.
package armature

import (
	"fmt"
	"math/bits"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"

	"github.com/Faultbox/rigbridge/pkg/math"
)

// MaxLayers is the number of bone layers an armature has.
const MaxLayers = 32

// Mode is the interaction mode of an armature.
type Mode int

const (
	ModeObject Mode = iota
	ModeEdit
	ModePose
)

// String returns the host name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeObject:
		return "OBJECT"
	case ModeEdit:
		return "EDIT"
	case ModePose:
		return "POSE"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// BoneID is the stable index of a bone inside its armature. It survives
// renames.
type BoneID int

// NoBone is the parent of a root bone.
const NoBone BoneID = -1

// Layers is a set of up to 32 layer memberships.
type Layers uint32

// OnlyLayer returns a set containing just layer i.
func OnlyLayer(i int) (Layers, error) {
	if i < 0 || i >= MaxLayers {
		return 0, fmt.Errorf("%w: %d", ErrLayerRange, i)
	}
	return Layers(1) << uint(i), nil
}

// Has reports whether layer i is set.
func (l Layers) Has(i int) bool {
	if i < 0 || i >= MaxLayers {
		return false
	}
	return l&(1<<uint(i)) != 0
}

// With returns l with layer i switched on or off.
func (l Layers) With(i int, on bool) Layers {
	if i < 0 || i >= MaxLayers {
		return l
	}
	if on {
		return l | 1<<uint(i)
	}
	return l &^ (1 << uint(i))
}

// Count returns the number of layers set.
func (l Layers) Count() int {
	return bits.OnesCount32(uint32(l))
}

// Flags are the edit-time behaviour switches of a bone.
type Flags struct {
	Connect         bool
	LocalLocation   bool
	InheritRotation bool
	Deform          bool
}

// DefaultFlags are the flags of a newly created bone.
func DefaultFlags() Flags {
	return Flags{InheritRotation: true, Deform: true}
}

// Bone is one bone record. Edit-time geometry is changed through
// EditBones, data layers through Bones, pose state through Pose.
type Bone struct {
	id         BoneID
	arm        uuid.UUID
	name       string
	parent     BoneID
	head       math.Vec3
	tail       math.Vec3
	roll       float32
	headRadius float32
	tailRadius float32
	editLayers Layers
	layers     Layers
	flags      Flags
	selected   bool
}

// ID returns the stable index of the bone.
func (b *Bone) ID() BoneID { return b.id }

// Name returns the current bone name.
func (b *Bone) Name() string { return b.name }

// ParentID returns the parent index or NoBone.
func (b *Bone) ParentID() BoneID { return b.parent }

// Head returns the head position in armature space.
func (b *Bone) Head() math.Vec3 { return b.head }

// Tail returns the tail position in armature space.
func (b *Bone) Tail() math.Vec3 { return b.tail }

// Roll returns the roll angle in radians.
func (b *Bone) Roll() float32 { return b.roll }

// HeadRadius returns the envelope radius at the head.
func (b *Bone) HeadRadius() float32 { return b.headRadius }

// TailRadius returns the envelope radius at the tail.
func (b *Bone) TailRadius() float32 { return b.tailRadius }

// EditLayers returns the layer set of the edit-bone representation.
func (b *Bone) EditLayers() Layers { return b.editLayers }

// Layers returns the layer set of the data/pose representation.
func (b *Bone) Layers() Layers { return b.layers }

// Flags returns the edit-time flags.
func (b *Bone) Flags() Flags { return b.flags }

// Selected reports the selection state.
func (b *Bone) Selected() bool { return b.selected }

// Length returns the head to tail distance.
func (b *Bone) Length() float32 { return b.head.Distance(b.tail) }

// Matrix returns the rest matrix of the bone in armature space.
func (b *Bone) Matrix() math.Mat4 { return math.BoneMatrix(b.head, b.tail, b.roll) }

// Armature is a skeleton object: an ordered, uniquely named bone collection
// with a world transform, pose bones and animation drivers.
type Armature struct {
	uid     uuid.UUID
	name    string
	world   math.Mat4
	mode    Mode
	bones   []*Bone
	poses   []*PoseBone
	index   map[string]BoneID
	groups  []string
	drivers []*Driver
}

// New creates an empty armature at unit scale.
func New(name string) *Armature {
	return &Armature{
		uid:   uuid.Must(uuid.NewV7()),
		name:  name,
		world: math.Identity(),
		index: make(map[string]BoneID),
	}
}

// Name returns the object name.
func (a *Armature) Name() string { return a.name }

// World returns the object world matrix.
func (a *Armature) World() math.Mat4 { return a.world }

// SetWorld replaces the object world matrix.
func (a *Armature) SetWorld(m math.Mat4) { a.world = m }

// Mode returns the current interaction mode.
func (a *Armature) Mode() Mode { return a.mode }

// Len returns the number of bones.
func (a *Armature) Len() int { return len(a.bones) }

// Bone returns the bone with the given index.
func (a *Armature) Bone(id BoneID) (*Bone, bool) {
	if id < 0 || int(id) >= len(a.bones) {
		return nil, false
	}
	return a.bones[id], true
}

// owns reports whether b belongs to this armature.
func (a *Armature) owns(b *Bone) bool {
	return b != nil && b.arm == a.uid && int(b.id) < len(a.bones) && a.bones[b.id] == b
}

// lookup finds a bone by exact name.
func (a *Armature) lookup(name string) (*Bone, bool) {
	id, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return a.bones[id], true
}

// uniqueName returns name, or name.NNN if name is taken.
func (a *Armature) uniqueName(name string) string {
	if _, taken := a.index[name]; !taken {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", name, i)
		if _, taken := a.index[candidate]; !taken {
			return candidate
		}
	}
}

// addBone appends a bone record with its pose bone.
func (a *Armature) addBone(name string) *Bone {
	name = a.uniqueName(name)
	id := BoneID(len(a.bones))
	b := &Bone{
		id:         id,
		arm:        a.uid,
		name:       name,
		parent:     NoBone,
		tail:       math.Vec3{Z: 1},
		headRadius: 0.1,
		tailRadius: 0.05,
		editLayers: 1,
		layers:     1,
		flags:      DefaultFlags(),
	}
	a.bones = append(a.bones, b)
	a.poses = append(a.poses, newPoseBone(id, name))
	a.index[name] = id
	return b
}

// Groups returns the bone group names.
func (a *Armature) Groups() []string {
	out := make([]string, len(a.groups))
	copy(out, a.groups)
	return out
}

// AddGroup registers a bone group. Adding an existing group is a no-op.
func (a *Armature) AddGroup(name string) {
	for _, g := range a.groups {
		if g == name {
			return
		}
	}
	a.groups = append(a.groups, name)
}

// hasGroup reports whether a bone group exists.
func (a *Armature) hasGroup(name string) bool {
	for _, g := range a.groups {
		if g == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the armature under a new name. The copy is
// not linked to any scene and starts in object mode.
func (a *Armature) Clone(name string) (*Armature, error) {
	c := New(name)
	c.world = a.world
	c.groups = append(c.groups, a.groups...)

	if err := deepcopy.Copy(&c.bones, &a.bones); err != nil {
		return nil, fmt.Errorf("copying bones of %s: %w", a.name, err)
	}
	if err := deepcopy.Copy(&c.poses, &a.poses); err != nil {
		return nil, fmt.Errorf("copying pose of %s: %w", a.name, err)
	}
	if err := deepcopy.Copy(&c.drivers, &a.drivers); err != nil {
		return nil, fmt.Errorf("copying drivers of %s: %w", a.name, err)
	}

	for _, b := range c.bones {
		b.arm = c.uid
		c.index[b.name] = b.id
	}
	for _, pb := range c.poses {
		for _, con := range pb.constraints {
			con.Handle = uuid.Must(uuid.NewV7())
			if con.Target == a.name {
				con.Target = name
			}
		}
	}
	for _, d := range c.drivers {
		d.Handle = uuid.Must(uuid.NewV7())
		for _, v := range d.Variables {
			if v.ID == a.name {
				v.ID = name
			}
		}
	}
	return c, nil
}
