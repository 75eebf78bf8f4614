package rig

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rigbridge/pkg/armature"
)

// Target is the bone a constraint follows.
type Target struct {
	Rig  *armature.Armature
	Bone string
}

type constraintOptions struct {
	influence float32
	space     armature.Space
}

// Option adjusts a constraint before it is attached.
type Option func(*constraintOptions)

// WithInfluence sets the constraint influence. The default is 1.
func WithInfluence(f float32) Option {
	return func(o *constraintOptions) { o.influence = f }
}

// WithSpace sets the target and owner space. The default is world space.
func WithSpace(space armature.Space) Option {
	return func(o *constraintOptions) { o.space = space }
}

func buildOptions(opts []Option) constraintOptions {
	o := constraintOptions{influence: 1, space: armature.SpaceWorld}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ownerSpace maps the target-only local-owner-orient space to local.
func ownerSpace(space armature.Space) armature.Space {
	if space == armature.SpaceLocalOwnerOrient {
		return armature.SpaceLocal
	}
	return space
}

// attach resolves the owner pose bone and the target, creates a constraint
// of typ and lets configure fill in the kind specific fields. On any
// failure the half built constraint is removed again.
func attach(s *Session, op string, owner *armature.Armature, bone string, typ armature.ConstraintType, target Target,
	configure func(c *armature.Constraint) error) (*armature.Constraint, error) {
	if owner == nil {
		return nil, s.fail(op, KindNotFound, "", bone, nil)
	}
	if target.Rig == nil {
		return nil, s.fail(op, KindNotFound, owner.Name(), target.Bone, nil)
	}
	ctx, err := s.Object(owner)
	if err != nil {
		return nil, err
	}
	pb, ok := FindPoseBone(owner, bone)
	if !ok {
		return nil, s.fail(op, KindNotFound, owner.Name(), bone, nil)
	}
	if !target.Rig.Bones().Contains(target.Bone) {
		return nil, s.fail(op, KindNotFound, target.Rig.Name(), target.Bone, nil)
	}

	c, err := ctx.Pose().AddConstraint(pb, typ)
	if err != nil {
		return nil, s.fail(op, KindHostRejected, owner.Name(), bone, err)
	}
	c.Target = target.Rig.Name()
	c.Subtarget = target.Bone
	if err := configure(c); err != nil {
		if rmErr := ctx.Pose().RemoveConstraint(pb, c); rmErr != nil {
			s.Log.Warn("removing rejected constraint", zap.Error(rmErr))
		}
		return nil, s.fail(op, KindHostRejected, owner.Name(), bone, err)
	}
	s.Log.Debug("constraint added",
		zap.String("rig", owner.Name()),
		zap.String("bone", bone),
		zap.String("constraint", c.Name),
		zap.String("target", target.Rig.Name()+":"+target.Bone),
	)
	return c, nil
}

// AddCopyTransforms makes bone copy the full transform of target.
func AddCopyTransforms(s *Session, owner *armature.Armature, bone string, target Target, opts ...Option) (*armature.Constraint, error) {
	o := buildOptions(opts)
	return attach(s, "add copy transforms", owner, bone, armature.CopyTransforms, target, func(c *armature.Constraint) error {
		c.HeadTail = 0
		c.MixMode = armature.MixReplace
		if err := c.SetSpaces(o.space, o.space); err != nil {
			return err
		}
		return c.SetInfluence(o.influence)
	})
}

// AddCopyRotation makes bone copy the rotation of target on all axes.
func AddCopyRotation(s *Session, owner *armature.Armature, bone string, target Target, opts ...Option) (*armature.Constraint, error) {
	o := buildOptions(opts)
	return attach(s, "add copy rotation", owner, bone, armature.CopyRotation, target, func(c *armature.Constraint) error {
		setAllAxes(c)
		c.MixMode = armature.MixReplace
		if err := c.SetSpaces(o.space, ownerSpace(o.space)); err != nil {
			return err
		}
		return c.SetInfluence(o.influence)
	})
}

// AddCopyLocation makes bone copy the location of target on all axes.
func AddCopyLocation(s *Session, owner *armature.Armature, bone string, target Target, opts ...Option) (*armature.Constraint, error) {
	o := buildOptions(opts)
	return attach(s, "add copy location", owner, bone, armature.CopyLocation, target, func(c *armature.Constraint) error {
		setAllAxes(c)
		c.MixMode = armature.MixReplace
		if err := c.SetSpaces(o.space, ownerSpace(o.space)); err != nil {
			return err
		}
		return c.SetInfluence(o.influence)
	})
}

func setAllAxes(c *armature.Constraint) {
	c.UseX, c.UseY, c.UseZ = true, true, true
	c.InvertX, c.InvertY, c.InvertZ = false, false, false
}

// AddDampedTrack points the Y axis of bone at targetBone on the same rig.
// Spaces are not used by this constraint.
func AddDampedTrack(s *Session, a *armature.Armature, bone, targetBone string, opts ...Option) (*armature.Constraint, error) {
	o := buildOptions(opts)
	return attach(s, "add damped track", a, bone, armature.DampedTrack, Target{Rig: a, Bone: targetBone}, func(c *armature.Constraint) error {
		c.HeadTail = 0
		c.TrackAxis = armature.TrackY
		return c.SetInfluence(o.influence)
	})
}

// AddLimitDistance keeps bone on the surface of a sphere of distance
// around target.
func AddLimitDistance(s *Session, owner *armature.Armature, bone string, target Target, distance float32, opts ...Option) (*armature.Constraint, error) {
	o := buildOptions(opts)
	return attach(s, "add limit distance", owner, bone, armature.LimitDistance, target, func(c *armature.Constraint) error {
		c.Distance = distance
		c.LimitMode = armature.LimitOnSurface
		if err := c.SetSpaces(o.space, o.space); err != nil {
			return err
		}
		return c.SetInfluence(o.influence)
	})
}

// ClearConstraints removes every constraint from bone and returns how many
// were removed.
func ClearConstraints(s *Session, a *armature.Armature, bone string) (int, error) {
	const op = "clear constraints"
	if bone == "" {
		return 0, s.fail(op, KindInvalidInput, rigName(a), bone, armature.ErrEmptyName)
	}
	ctx, err := s.Object(a)
	if err != nil {
		return 0, err
	}
	pb, ok := ctx.Pose().Get(bone)
	if !ok {
		return 0, s.fail(op, KindNotFound, a.Name(), bone, nil)
	}
	n, err := ctx.Pose().ClearConstraints(pb)
	if err != nil {
		return 0, s.failHost(op, a.Name(), bone, err)
	}
	return n, nil
}
