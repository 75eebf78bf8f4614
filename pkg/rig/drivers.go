package rig

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/rigbridge/pkg/armature"
)

// Limb names a Rigify control group that carries IK/FK style properties.
type Limb string

const (
	LimbLeftLeg  Limb = "LEFT_LEG"
	LimbRightLeg Limb = "RIGHT_LEG"
	LimbLeftArm  Limb = "LEFT_ARM"
	LimbRightArm Limb = "RIGHT_ARM"
	LimbTorso    Limb = "TORSO"
	LimbJaw      Limb = "JAW"
	LimbEyes     Limb = "EYES"
)

// limbBones are the Rigify pose bones holding each limb's properties.
var limbBones = map[Limb]string{
	LimbLeftLeg:  "thigh_parent.L",
	LimbRightLeg: "thigh_parent.R",
	LimbLeftArm:  "upper_arm_parent.L",
	LimbRightArm: "upper_arm_parent.R",
	LimbTorso:    "torso",
	LimbJaw:      "jaw_master",
	LimbEyes:     "eyes",
}

// PoseBonePropertyPath returns the data path of a custom property on a pose
// bone: pose.bones["<bone>"]["<prop>"].
func PoseBonePropertyPath(bone, prop string) string {
	return armature.PoseBonePath(bone) + armature.Key(prop)
}

// RigifyLimbPropertyPath returns the data path of prop on the control bone
// of limb, or "" for an unknown limb.
func RigifyLimbPropertyPath(limb Limb, prop string) string {
	bone, ok := limbBones[limb]
	if !ok {
		return ""
	}
	return PoseBonePropertyPath(bone, prop)
}

// MakeDriver adds a driver on owner/property of a. owner is the data path
// of the owning struct ("" for the object itself), index the vector
// component or -1. SCRIPTED drivers need an expression; other types ignore
// it.
func MakeDriver(s *Session, a *armature.Armature, owner, property string, index int, typ armature.DriverType, expression string) (*armature.Driver, error) {
	const op = "make driver"
	switch typ {
	case armature.DriverSum, armature.DriverAverage, armature.DriverMin, armature.DriverMax:
		expression = ""
	case armature.DriverScripted:
		if strings.TrimSpace(expression) == "" {
			return nil, s.fail(op, KindInvalidInput, rigName(a), owner, fmt.Errorf("%w: scripted driver without expression", armature.ErrInvalidDriver))
		}
	default:
		return nil, s.fail(op, KindInvalidInput, rigName(a), owner, fmt.Errorf("%w: type %q", armature.ErrInvalidDriver, typ))
	}
	ctx, err := s.Object(a)
	if err != nil {
		return nil, err
	}
	d, err := ctx.Armature().AnimationData().Add(owner, property, index)
	if err != nil {
		return nil, s.fail(op, KindHostRejected, a.Name(), armature.JoinPath(owner, property), err)
	}
	d.Type = typ
	d.Expression = expression
	return d, nil
}

// AddSinglePropVar adds a variable reading path on the data-block id.
func AddSinglePropVar(d *armature.Driver, name string, idType armature.IDType, id, path string) *armature.Variable {
	v := d.NewVariable()
	v.Name = name
	v.Type = armature.VarSingleProp
	v.IDType = idType
	v.ID = id
	v.DataPath = path
	return v
}

// AddTransformVar adds a variable reading one transform channel of bone on
// the armature id. The rotation order is picked by the host.
func AddTransformVar(d *armature.Driver, name, id, bone string, channel armature.TransformType, space armature.TransformSpace) *armature.Variable {
	v := d.NewVariable()
	v.Name = name
	v.Type = armature.VarTransforms
	v.IDType = armature.IDObject
	v.ID = id
	v.BoneTarget = bone
	v.TransformType = channel
	v.TransformSpace = space
	v.RotationMode = armature.RotationAuto
	return v
}

// AddPoseBoneCustomProperty creates an overridable custom property in
// [0, 1] on a pose bone.
func AddPoseBoneCustomProperty(s *Session, a *armature.Armature, bone, prop string, value float64) error {
	const op = "add custom property"
	ctx, err := s.Object(a)
	if err != nil {
		return err
	}
	pb, ok := ctx.Pose().Get(bone)
	if !ok {
		return s.fail(op, KindNotFound, a.Name(), bone, nil)
	}
	if err := ctx.Pose().SetProp(pb, prop, value, 0, 1, true); err != nil {
		return s.failHost(op, a.Name(), bone, err)
	}
	return nil
}

// AddConstraintInfluenceDriver drives the influence of every constraint of
// type typ on bone from the property at dataPath on the same rig. With an
// expression the driver is SCRIPTED, otherwise SUM.
func AddConstraintInfluenceDriver(s *Session, a *armature.Armature, bone, dataPath, variable string, typ armature.ConstraintType, expression string) ([]*armature.Driver, error) {
	const op = "add influence driver"
	ctx, err := s.Object(a)
	if err != nil {
		return nil, err
	}
	pb, ok := ctx.Pose().Get(bone)
	if !ok {
		return nil, s.fail(op, KindNotFound, a.Name(), bone, nil)
	}
	driverType := armature.DriverSum
	if expression != "" {
		driverType = armature.DriverScripted
	}

	var drivers []*armature.Driver
	for _, c := range pb.Constraints() {
		if c.Type != typ {
			continue
		}
		d, err := MakeDriver(s, a, armature.ConstraintPath(bone, c.Name), "influence", -1, driverType, expression)
		if err != nil {
			return drivers, err
		}
		AddSinglePropVar(d, variable, armature.IDObject, a.Name(), dataPath)
		drivers = append(drivers, d)
	}
	if len(drivers) == 0 {
		s.Log.Warn("no constraint to drive",
			zap.String("rig", a.Name()), zap.String("bone", bone), zap.String("type", string(typ)))
	}
	return drivers, nil
}

// AddBonePropDriver drives dataPath[index] of a pose bone from the scene
// property sceneProp.
func AddBonePropDriver(s *Session, a *armature.Armature, bone, dataPath string, index int, sceneProp, variable string) (*armature.Driver, error) {
	const op = "add bone property driver"
	ctx, err := s.Object(a)
	if err != nil {
		return nil, err
	}
	if !ctx.Pose().Contains(bone) {
		return nil, s.fail(op, KindNotFound, a.Name(), bone, nil)
	}
	d, err := MakeDriver(s, a, armature.PoseBonePath(bone), dataPath, index, armature.DriverSum, "")
	if err != nil {
		return nil, err
	}
	AddSinglePropVar(d, variable, armature.IDScene, s.Host.Name(), sceneProp)
	return d, nil
}

// ClearDrivers removes every driver of a and returns how many there were.
func ClearDrivers(s *Session, a *armature.Armature) (int, error) {
	ctx, err := s.Object(a)
	if err != nil {
		return 0, err
	}
	n := ctx.Armature().AnimationData().Clear()
	s.Log.Debug("drivers cleared", zap.String("rig", a.Name()), zap.Int("count", n))
	return n, nil
}
