package armature

import (
	"fmt"

	"github.com/google/uuid"
)

// ConstraintType is the kind of a pose constraint.
type ConstraintType string

const (
	CopyTransforms ConstraintType = "COPY_TRANSFORMS"
	CopyRotation   ConstraintType = "COPY_ROTATION"
	CopyLocation   ConstraintType = "COPY_LOCATION"
	DampedTrack    ConstraintType = "DAMPED_TRACK"
	LimitDistance  ConstraintType = "LIMIT_DISTANCE"
)

// constraintNames are the default display names per type.
var constraintNames = map[ConstraintType]string{
	CopyTransforms: "Copy Transforms",
	CopyRotation:   "Copy Rotation",
	CopyLocation:   "Copy Location",
	DampedTrack:    "Damped Track",
	LimitDistance:  "Limit Distance",
}

// Space is the coordinate space a constraint reads its target in or writes
// its owner in.
type Space string

const (
	SpaceWorld           Space = "WORLD"
	SpacePose            Space = "POSE"
	SpaceLocalWithParent Space = "LOCAL_WITH_PARENT"
	SpaceLocal           Space = "LOCAL"
	// SpaceLocalOwnerOrient is only valid for the target side.
	SpaceLocalOwnerOrient Space = "LOCAL_OWNER_ORIENT"
)

// MixMode is how a constraint combines with the owner transform.
type MixMode string

const (
	MixReplace MixMode = "REPLACE"
	MixAdd     MixMode = "ADD"
	MixBefore  MixMode = "BEFORE"
	MixAfter   MixMode = "AFTER"
)

// TrackAxis is the owner axis a tracking constraint points at the target.
type TrackAxis string

const (
	TrackX    TrackAxis = "TRACK_X"
	TrackY    TrackAxis = "TRACK_Y"
	TrackZ    TrackAxis = "TRACK_Z"
	TrackNegX TrackAxis = "TRACK_NEGATIVE_X"
	TrackNegY TrackAxis = "TRACK_NEGATIVE_Y"
	TrackNegZ TrackAxis = "TRACK_NEGATIVE_Z"
)

// LimitMode is how a limit-distance constraint treats its sphere.
type LimitMode string

const (
	LimitInside    LimitMode = "LIMITDIST_INSIDE"
	LimitOutside   LimitMode = "LIMITDIST_OUTSIDE"
	LimitOnSurface LimitMode = "LIMITDIST_ONSURFACE"
)

// Constraint is one entry of a pose bone's constraint stack. Target names
// an armature in the same scene, Subtarget a bone in it.
type Constraint struct {
	Handle    uuid.UUID
	Name      string
	Type      ConstraintType
	Target    string
	Subtarget string

	TargetSpace Space
	OwnerSpace  Space
	Influence   float32

	HeadTail float32
	MixMode  MixMode

	UseX, UseY, UseZ          bool
	InvertX, InvertY, InvertZ bool

	TrackAxis TrackAxis
	Distance  float32
	LimitMode LimitMode
}

func newConstraint(typ ConstraintType, name string) *Constraint {
	c := &Constraint{
		Name:        name,
		Type:        typ,
		TargetSpace: SpaceWorld,
		OwnerSpace:  SpaceWorld,
		Influence:   1,
		MixMode:     MixReplace,
	}
	switch typ {
	case CopyRotation, CopyLocation:
		c.UseX, c.UseY, c.UseZ = true, true, true
	case DampedTrack:
		c.TrackAxis = TrackY
	case LimitDistance:
		c.LimitMode = LimitInside
	}
	return c
}

// SetInfluence sets the influence, rejecting values outside [0, 1].
func (c *Constraint) SetInfluence(v float32) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %v", ErrInfluenceRange, v)
	}
	c.Influence = v
	return nil
}

// SetSpaces sets target and owner spaces. The owner side rejects
// SpaceLocalOwnerOrient.
func (c *Constraint) SetSpaces(target, owner Space) error {
	if !validSpace(target) {
		return fmt.Errorf("%w: target %q", ErrInvalidSpace, target)
	}
	if owner == SpaceLocalOwnerOrient || !validSpace(owner) {
		return fmt.Errorf("%w: owner %q", ErrInvalidSpace, owner)
	}
	c.TargetSpace = target
	c.OwnerSpace = owner
	return nil
}

func validSpace(s Space) bool {
	switch s {
	case SpaceWorld, SpacePose, SpaceLocalWithParent, SpaceLocal, SpaceLocalOwnerOrient:
		return true
	}
	return false
}

// ConstraintPath returns the data path of a constraint on a pose bone.
func ConstraintPath(bone, constraint string) string {
	return PoseBonePath(bone) + ".constraints" + Key(constraint)
}

// PoseBonePath returns the data path of a pose bone.
func PoseBonePath(bone string) string {
	return "pose.bones" + Key(bone)
}
