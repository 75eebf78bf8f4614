// Package rig retargets character skeletons: it resolves bone names across
// naming conventions, transplants bone subtrees between armatures, wires
// pose constraints and drivers, and finds accessory bones that a bone
// mapping table does not cover.
//
// Every operation runs inside a Session. Mutations go through an
// EditContext, which is the only place a mode switch is requested.
package rig

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rigbridge/pkg/armature"
)

// Host is the part of the application the core depends on: the mode-switch
// service and armature lookup. *armature.Scene implements it.
type Host interface {
	Name() string
	Armature(name string) *armature.Armature
	SetMode(a *armature.Armature, mode armature.Mode) error
}

// Session binds a host, a log sink and the name resolver used for
// prefix-aware lookups.
type Session struct {
	Host     Host
	Log      *zap.Logger
	Resolver Resolver
}

// NewSession returns a session using DefaultResolver. A nil logger
// discards output.
func NewSession(host Host, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{Host: host, Log: log, Resolver: DefaultResolver()}
}

// fail logs err at error level and returns it as an *Error.
func (s *Session) fail(op string, kind Kind, rig, bone string, err error) error {
	e := &Error{Kind: kind, Op: op, Rig: rig, Bone: bone, Err: err}
	s.Log.Error(e.Error(),
		zap.String("op", op),
		zap.Stringer("kind", kind),
		zap.String("rig", rig),
		zap.String("bone", bone),
	)
	return e
}

// failHost classifies a host error before logging it.
func (s *Session) failHost(op, rig, bone string, err error) error {
	return s.fail(op, hostKind(err), rig, bone, err)
}

// Rig looks up an armature by name.
func (s *Session) Rig(name string) (*armature.Armature, error) {
	if a := s.Host.Armature(name); a != nil {
		return a, nil
	}
	return nil, s.fail("rig", KindNotFound, name, "", nil)
}

// EditContext proves that one armature was switched into a mode. Values
// are only built by Session.Edit, Session.Object and Session.Pose.
type EditContext struct {
	arm  *armature.Armature
	mode armature.Mode
}

// Edit switches a into edit mode.
func (s *Session) Edit(a *armature.Armature) (EditContext, error) {
	return s.acquire("edit", a, armature.ModeEdit)
}

// Object switches a into object mode, where data layers, pose bones,
// constraints and drivers can be changed.
func (s *Session) Object(a *armature.Armature) (EditContext, error) {
	return s.acquire("object", a, armature.ModeObject)
}

// Pose switches a into pose mode.
func (s *Session) Pose(a *armature.Armature) (EditContext, error) {
	return s.acquire("pose", a, armature.ModePose)
}

func (s *Session) acquire(op string, a *armature.Armature, mode armature.Mode) (EditContext, error) {
	if a == nil {
		return EditContext{}, s.fail(op, KindNotFound, "", "", nil)
	}
	if err := s.Host.SetMode(a, mode); err != nil {
		return EditContext{}, s.fail(op, KindModeUnavailable, a.Name(), "", err)
	}
	s.Log.Debug("mode switched", zap.String("rig", a.Name()), zap.Stringer("mode", mode))
	return EditContext{arm: a, mode: mode}, nil
}

// Armature returns the armature the context was acquired for.
func (c EditContext) Armature() *armature.Armature { return c.arm }

// Mode returns the acquired mode.
func (c EditContext) Mode() armature.Mode { return c.mode }

// Valid reports whether the armature is still in the acquired mode. A later
// switch on another armature can end the context.
func (c EditContext) Valid() bool {
	return c.arm != nil && c.arm.Mode() == c.mode
}

// EditBones returns the edit view of the context armature.
func (c EditContext) EditBones() armature.EditBones { return c.arm.EditBones() }

// Bones returns the data view of the context armature.
func (c EditContext) Bones() armature.Bones { return c.arm.Bones() }

// Pose returns the pose view of the context armature.
func (c EditContext) Pose() armature.Pose { return c.arm.Pose() }
