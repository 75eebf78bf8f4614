package rig

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/rigbridge/pkg/armature"
	"github.com/Faultbox/rigbridge/pkg/math"
)

// BoneDef is one bone of a subtree definition. Head and Tail are in world
// space. DestName is filled in once the bone exists on the destination.
type BoneDef struct {
	Name       string
	Parent     string
	Head       math.Vec3
	Tail       math.Vec3
	HeadRadius float32
	TailRadius float32
	Roll       float32
	DestName   string
}

// SubtreeDefs returns the pre-order definition of the subtree rooted at
// root. Only bones with a parent are recorded, so a root bone of the
// armature yields an empty definition.
func SubtreeDefs(a *armature.Armature, root *armature.Bone) []BoneDef {
	if root == nil {
		return nil
	}
	return appendSubtree(nil, a, a.World(), root)
}

func appendSubtree(defs []BoneDef, a *armature.Armature, world math.Mat4, b *armature.Bone) []BoneDef {
	bones := a.Bones()
	parent := bones.Parent(b)
	if parent == nil {
		return defs
	}
	defs = append(defs, BoneDef{
		Name:       b.Name(),
		Parent:     parent.Name(),
		Head:       world.TransformVec3(b.Head()),
		Tail:       world.TransformVec3(b.Tail()),
		HeadRadius: b.HeadRadius(),
		TailRadius: b.TailRadius(),
		Roll:       b.Roll(),
	})
	for _, child := range bones.Children(b) {
		defs = appendSubtree(defs, a, world, child)
	}
	return defs
}

// CopySubtree copies the subtree under srcName from src into dst. The copy
// of srcName is named dstName and parented to dstParent (if given); every
// copied bone is placed on layer alone, in both the edit and the data
// representation. Bones keep their world position: heads and tails are
// mapped through the inverse of the destination world matrix. The returned
// definitions carry the final destination names. A failure part way leaves
// already created bones in place.
func CopySubtree(s *Session, src, dst *armature.Armature, srcName, dstName, dstParent string, layer int) ([]BoneDef, error) {
	const op = "copy subtree"
	if src == nil || dst == nil {
		return nil, s.fail(op, KindNotFound, rigName(src, dst), srcName, nil)
	}
	layers, err := armature.OnlyLayer(layer)
	if err != nil {
		return nil, s.fail(op, KindInvalidInput, dst.Name(), dstName, err)
	}

	srcCtx, err := s.Edit(src)
	if err != nil {
		return nil, err
	}
	root, ok := FindEditBone(srcCtx.Armature(), srcName)
	if !ok {
		return nil, s.fail(op, KindNotFound, src.Name(), srcName, nil)
	}
	defs := SubtreeDefs(src, root)
	if len(defs) == 0 {
		s.Log.Warn("bone has no parent, nothing to copy",
			zap.String("rig", src.Name()), zap.String("bone", srcName))
		return defs, nil
	}

	ctx, err := s.Edit(dst)
	if err != nil {
		return nil, err
	}
	eb := ctx.EditBones()

	var parent *armature.Bone
	if dstParent != "" {
		if parent, ok = FindEditBone(dst, dstParent); !ok {
			return nil, s.fail(op, KindNotFound, dst.Name(), dstParent, nil)
		}
	}

	toLocal := dst.World().Inverse()
	created := make(map[string]*armature.Bone, len(defs))
	for i := range defs {
		def := &defs[i]
		name := def.Name
		if name == srcName {
			name = dstName
		}
		if eb.Contains(name) {
			s.Log.Warn("destination bone already exists",
				zap.String("rig", dst.Name()), zap.String("bone", name))
		}
		b, err := eb.New(name)
		if err != nil {
			return nil, s.failHost(op, dst.Name(), name, err)
		}
		err = multierr.Combine(
			eb.SetHead(b, toLocal.TransformVec3(def.Head)),
			eb.SetTail(b, toLocal.TransformVec3(def.Tail)),
			eb.SetRadii(b, def.HeadRadius, def.TailRadius),
			eb.SetRoll(b, def.Roll),
			eb.SetLayers(b, layers),
		)
		if err != nil {
			return nil, s.failHost(op, dst.Name(), b.Name(), err)
		}
		def.DestName = b.Name()
		created[def.Name] = b
	}

	// link after creation so children listed before a renamed parent
	// still find it
	for _, def := range defs {
		b := created[def.Name]
		p, ok := created[def.Parent]
		if !ok {
			p, ok = FindEditBone(dst, def.Parent)
		}
		if def.Name == srcName && parent != nil {
			p, ok = parent, true
		}
		if !ok {
			continue
		}
		if err := eb.SetParent(b, p); err != nil {
			return nil, s.failHost(op, dst.Name(), b.Name(), err)
		}
	}

	objCtx, err := s.Object(dst)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		b, ok := objCtx.Bones().Get(def.DestName)
		if !ok {
			return nil, s.fail(op, KindNotFound, dst.Name(), def.DestName, nil)
		}
		if err := objCtx.Bones().SetLayers(b, layers); err != nil {
			return nil, s.failHost(op, dst.Name(), def.DestName, err)
		}
	}

	s.Log.Info("copied bone subtree",
		zap.String("src", src.Name()),
		zap.String("dst", dst.Name()),
		zap.String("bone", srcName),
		zap.Int("count", len(defs)),
	)
	return defs, nil
}

// CopyRLEditBone copies one bone, found with the session resolver, from
// src into dst keeping its world position. The tail is pulled along the
// bone direction: tail = head + (tail - head) * scale.
func CopyRLEditBone(s *Session, src, dst *armature.Armature, srcName, dstName, dstParent string, scale float32) (*armature.Bone, error) {
	const op = "copy bone"
	if src == nil || dst == nil {
		return nil, s.fail(op, KindNotFound, rigName(src, dst), srcName, nil)
	}
	srcCtx, err := s.Edit(src)
	if err != nil {
		return nil, err
	}
	sb, ok := s.Resolver.ResolveEditBone(srcCtx.Armature(), srcName)
	if !ok {
		return nil, s.fail(op, KindNotFound, src.Name(), srcName, nil)
	}
	toDst := dst.World().Inverse().Mul(src.World())
	head := toDst.TransformVec3(sb.Head())
	tail := toDst.TransformVec3(sb.Tail())
	roll := sb.Roll()

	ctx, err := s.Edit(dst)
	if err != nil {
		return nil, err
	}
	return newScaledBone(s, op, ctx, dstName, dstParent, head, tail, roll, scale)
}

// CopyEditBone copies srcName to a new bone dstName on the same armature,
// scaling the tail along the bone direction.
func CopyEditBone(s *Session, a *armature.Armature, srcName, dstName, parent string, scale float32) (*armature.Bone, error) {
	const op = "copy bone"
	ctx, err := s.Edit(a)
	if err != nil {
		return nil, err
	}
	sb, ok := FindEditBone(a, srcName)
	if !ok {
		return nil, s.fail(op, KindNotFound, a.Name(), srcName, nil)
	}
	return newScaledBone(s, op, ctx, dstName, parent, sb.Head(), sb.Tail(), sb.Roll(), scale)
}

func newScaledBone(s *Session, op string, ctx EditContext, name, parentName string, head, tail math.Vec3, roll, scale float32) (*armature.Bone, error) {
	a := ctx.Armature()
	eb := ctx.EditBones()
	if name == "" {
		return nil, s.fail(op, KindInvalidInput, a.Name(), name, armature.ErrEmptyName)
	}
	if eb.Contains(name) {
		s.Log.Warn("destination bone already exists", zap.String("rig", a.Name()), zap.String("bone", name))
		return nil, s.fail(op, KindNameCollision, a.Name(), name, nil)
	}
	var parent *armature.Bone
	if parentName != "" {
		var ok bool
		if parent, ok = FindEditBone(a, parentName); !ok {
			return nil, s.fail(op, KindNotFound, a.Name(), parentName, fmt.Errorf("parent of %s", name))
		}
	}

	b, err := eb.New(name)
	if err != nil {
		return nil, s.failHost(op, a.Name(), name, err)
	}
	err = multierr.Combine(
		eb.SetHead(b, head),
		eb.SetTail(b, head.Add(tail.Sub(head).Scale(scale))),
		eb.SetRoll(b, roll),
	)
	if err == nil && parent != nil {
		err = eb.SetParent(b, parent)
	}
	if err != nil {
		return nil, s.failHost(op, a.Name(), name, err)
	}
	return b, nil
}

func rigName(as ...*armature.Armature) string {
	for _, a := range as {
		if a != nil {
			return a.Name()
		}
	}
	return ""
}
