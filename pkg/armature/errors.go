package armature

import "errors"

// Host errors. Callers match them with errors.Is.
var (
	ErrEmptyName       = errors.New("empty name")
	ErrBoneNotFound    = errors.New("bone not found")
	ErrBoneExists      = errors.New("bone name already exists")
	ErrForeignBone     = errors.New("bone belongs to another armature")
	ErrParentCycle     = errors.New("parent would create a cycle")
	ErrWrongMode       = errors.New("armature is not in the required mode")
	ErrModeRefused     = errors.New("mode switch refused")
	ErrNotInScene      = errors.New("armature is not linked to the scene")
	ErrArmatureExists  = errors.New("armature name already exists in scene")
	ErrLayerRange      = errors.New("layer index out of range")
	ErrInvalidSpace    = errors.New("invalid space for this side of the constraint")
	ErrInfluenceRange  = errors.New("influence must be within [0, 1]")
	ErrInvalidPath     = errors.New("invalid data path")
	ErrNotAnimatable   = errors.New("data path does not resolve to an animatable scalar")
	ErrDriverCycle     = errors.New("driver dependency cycle")
	ErrInvalidDriver   = errors.New("invalid driver")
	ErrUnknownVariable = errors.New("driver variable target not found")
)
