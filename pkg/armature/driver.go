package armature

import (
	"fmt"

	"github.com/google/uuid"
)

// DriverType is how a driver combines its variables.
type DriverType string

const (
	DriverSum      DriverType = "SUM"
	DriverScripted DriverType = "SCRIPTED"
	DriverAverage  DriverType = "AVERAGE"
	DriverMin      DriverType = "MIN"
	DriverMax      DriverType = "MAX"
)

// VariableType is the kind of value a driver variable reads.
type VariableType string

const (
	VarSingleProp VariableType = "SINGLE_PROP"
	VarTransforms VariableType = "TRANSFORMS"
)

// IDType is the kind of data-block a variable target points at.
type IDType string

const (
	IDObject IDType = "OBJECT"
	IDScene  IDType = "SCENE"
)

// TransformType is the transform channel a TRANSFORMS variable reads.
type TransformType string

const (
	LocX   TransformType = "LOC_X"
	LocY   TransformType = "LOC_Y"
	LocZ   TransformType = "LOC_Z"
	RotX   TransformType = "ROT_X"
	RotY   TransformType = "ROT_Y"
	RotZ   TransformType = "ROT_Z"
	ScaleX TransformType = "SCALE_X"
	ScaleY TransformType = "SCALE_Y"
	ScaleZ TransformType = "SCALE_Z"
)

// channelOf maps a transform type to its pose vector field and axis.
func (t TransformType) channelOf() (field string, axis int, ok bool) {
	switch t {
	case LocX, LocY, LocZ:
		field = "location"
	case RotX, RotY, RotZ:
		field = "rotation_euler"
	case ScaleX, ScaleY, ScaleZ:
		field = "scale"
	default:
		return "", 0, false
	}
	return field, int(t[len(t)-1] - 'X'), true
}

// TransformSpace is the space a TRANSFORMS variable reads in.
type TransformSpace string

const (
	VarWorldSpace     TransformSpace = "WORLD_SPACE"
	VarTransformSpace TransformSpace = "TRANSFORM_SPACE"
	VarLocalSpace     TransformSpace = "LOCAL_SPACE"
)

// RotationAuto lets the host pick the rotation order of the target bone.
const RotationAuto = "AUTO"

// Variable is one named input of a driver. SINGLE_PROP variables read
// DataPath on the ID; TRANSFORMS variables read a channel of BoneTarget.
type Variable struct {
	Name string
	Type VariableType

	IDType   IDType
	ID       string
	DataPath string

	BoneTarget     string
	TransformType  TransformType
	TransformSpace TransformSpace
	RotationMode   string
}

// Driver computes one animatable scalar from its variables.
type Driver struct {
	Handle     uuid.UUID
	Owner      string
	Property   string
	Index      int
	Type       DriverType
	Expression string
	Variables  []*Variable
}

// Path returns the full data path the driver writes.
func (d *Driver) Path() string {
	return JoinPath(d.Owner, d.Property)
}

// NewVariable appends an empty SINGLE_PROP variable and returns it.
func (d *Driver) NewVariable() *Variable {
	v := &Variable{Type: VarSingleProp, IDType: IDObject}
	d.Variables = append(d.Variables, v)
	return v
}

// AnimationData holds the drivers of one armature.
type AnimationData struct {
	a *Armature
}

// AnimationData returns the driver collection.
func (a *Armature) AnimationData() AnimationData { return AnimationData{a: a} }

// Add creates a driver on owner/property. index selects a vector component
// (-1 for scalars). The path must resolve to an animatable scalar. A driver
// already on the same channel is replaced.
func (ad AnimationData) Add(owner, property string, index int) (*Driver, error) {
	if ad.a.mode == ModeEdit {
		return nil, fmt.Errorf("%w: %s is in EDIT mode", ErrWrongMode, ad.a.name)
	}
	path := JoinPath(owner, property)
	if _, err := ad.a.channel(path, index); err != nil {
		return nil, err
	}
	if existing, ok := ad.Find(path, index); ok {
		ad.Remove(existing)
	}
	d := &Driver{
		Handle:   uuid.Must(uuid.NewV7()),
		Owner:    owner,
		Property: property,
		Index:    index,
		Type:     DriverScripted,
	}
	ad.a.drivers = append(ad.a.drivers, d)
	return d, nil
}

// All returns the drivers in creation order.
func (ad AnimationData) All() []*Driver {
	out := make([]*Driver, len(ad.a.drivers))
	copy(out, ad.a.drivers)
	return out
}

// Len returns the number of drivers.
func (ad AnimationData) Len() int { return len(ad.a.drivers) }

// Find returns the driver writing path/index.
func (ad AnimationData) Find(path string, index int) (*Driver, bool) {
	for _, d := range ad.a.drivers {
		if d.Path() == path && d.Index == index {
			return d, true
		}
	}
	return nil, false
}

// Remove deletes d. Removing an unknown driver is a no-op.
func (ad AnimationData) Remove(d *Driver) bool {
	for i, existing := range ad.a.drivers {
		if existing == d {
			ad.a.drivers = append(ad.a.drivers[:i], ad.a.drivers[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every driver and returns how many there were.
func (ad AnimationData) Clear() int {
	n := len(ad.a.drivers)
	ad.a.drivers = nil
	return n
}

// removeOwnedBy drops drivers whose owner struct is owner.
func (ad AnimationData) removeOwnedBy(owner string) {
	kept := ad.a.drivers[:0]
	for _, d := range ad.a.drivers {
		if d.Owner != owner {
			kept = append(kept, d)
		}
	}
	ad.a.drivers = kept
}
