package rig

import (
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/rigbridge/pkg/armature"
	"github.com/Faultbox/rigbridge/pkg/math"
)

// newBoneLength is the tail offset of bones created by NewEditBone.
const newBoneLength = 0.05

// RenameBone renames from to to. If to is taken the bone keeps its name.
func RenameBone(s *Session, a *armature.Armature, from, to string) error {
	const op = "rename bone"
	ctx, err := s.Edit(a)
	if err != nil {
		return err
	}
	b, ok := FindEditBone(a, from)
	if !ok {
		return s.fail(op, KindNotFound, a.Name(), from, nil)
	}
	if ctx.EditBones().Contains(to) && to != from {
		return s.fail(op, KindNameCollision, a.Name(), from, armature.ErrBoneExists)
	}
	if err := ctx.EditBones().Rename(b, to); err != nil {
		return s.failHost(op, a.Name(), from, err)
	}
	return nil
}

// NewEditBone creates a short bone at the origin pointing up Z, optionally
// parented.
func NewEditBone(s *Session, a *armature.Armature, name, parent string) (*armature.Bone, error) {
	const op = "new bone"
	ctx, err := s.Edit(a)
	if err != nil {
		return nil, err
	}
	return newScaledBone(s, op, ctx, name, parent, math.Vec3Zero, math.Vec3{Z: newBoneLength}, 0, 1)
}

// ReparentEditBone sets the parent of bone. The bone must exist in the data
// view, the parent is matched exactly.
func ReparentEditBone(s *Session, a *armature.Armature, bone, parent string) (*armature.Bone, error) {
	const op = "reparent bone"
	ctx, err := s.Edit(a)
	if err != nil {
		return nil, err
	}
	b, ok := ctx.EditBones().Get(bone)
	if !ok {
		return nil, s.fail(op, KindNotFound, a.Name(), bone, nil)
	}
	if parent == "" {
		return nil, s.fail(op, KindInvalidInput, a.Name(), bone, armature.ErrEmptyName)
	}
	p, ok := FindEditBone(a, parent)
	if !ok {
		return nil, s.fail(op, KindNotFound, a.Name(), parent, nil)
	}
	if err := ctx.EditBones().SetParent(b, p); err != nil {
		return nil, s.failHost(op, a.Name(), bone, err)
	}
	return b, nil
}

// SetEditBoneFlags sets connect, local location and inherit rotation from
// the letters C, L and R in flags, and the deform switch.
func SetEditBoneFlags(s *Session, ctx EditContext, b *armature.Bone, flags string, deform bool) error {
	const op = "set bone flags"
	a := ctx.Armature()
	if b == nil {
		return s.fail(op, KindNotFound, rigName(a), "", nil)
	}
	if !ctx.Valid() {
		return s.fail(op, KindModeUnavailable, rigName(a), b.Name(), nil)
	}
	f := armature.Flags{
		Connect:         strings.Contains(flags, "C"),
		LocalLocation:   strings.Contains(flags, "L"),
		InheritRotation: strings.Contains(flags, "R"),
		Deform:          deform,
	}
	if err := ctx.EditBones().SetFlags(b, f); err != nil {
		return s.failHost(op, rigName(a), b.Name(), err)
	}
	return nil
}

// SetBoneLayer places bone on layer alone, in both the edit and the data
// representation.
func SetBoneLayer(s *Session, a *armature.Armature, bone string, layer int) error {
	ctx, err := s.Edit(a)
	if err != nil {
		return err
	}
	if err := SetEditBoneLayer(s, ctx, bone, layer); err != nil {
		return err
	}
	if ctx, err = s.Object(a); err != nil {
		return err
	}
	return SetPoseBoneLayer(s, ctx, bone, layer)
}

// SetEditBoneLayer places the edit bone on layer alone.
func SetEditBoneLayer(s *Session, ctx EditContext, bone string, layer int) error {
	const op = "set edit bone layer"
	a := ctx.Armature()
	l, err := armature.OnlyLayer(layer)
	if err != nil {
		return s.fail(op, KindInvalidInput, a.Name(), bone, err)
	}
	b, ok := ctx.EditBones().Get(bone)
	if !ok {
		return s.fail(op, KindNotFound, a.Name(), bone, nil)
	}
	if err := ctx.EditBones().SetLayers(b, l); err != nil {
		return s.failHost(op, a.Name(), bone, err)
	}
	return nil
}

// SetPoseBoneLayer places the data bone on layer alone.
func SetPoseBoneLayer(s *Session, ctx EditContext, bone string, layer int) error {
	const op = "set bone layer"
	a := ctx.Armature()
	l, err := armature.OnlyLayer(layer)
	if err != nil {
		return s.fail(op, KindInvalidInput, a.Name(), bone, err)
	}
	b, ok := ctx.Bones().Get(bone)
	if !ok {
		return s.fail(op, KindNotFound, a.Name(), bone, nil)
	}
	if err := ctx.Bones().SetLayers(b, l); err != nil {
		return s.failHost(op, a.Name(), bone, err)
	}
	return nil
}

// CopyPosition moves bone to the average placement of copyBones, each
// shifted by offset along its own direction. Names that do not exist are
// skipped; if none exist the bone is left alone and KindInvalidInput is
// returned.
func CopyPosition(s *Session, a *armature.Armature, bone string, copyBones []string, offset float32) (*armature.Bone, error) {
	const op = "copy position"
	ctx, err := s.Edit(a)
	if err != nil {
		return nil, err
	}
	eb := ctx.EditBones()
	b, ok := eb.Get(bone)
	if !ok {
		return nil, s.fail(op, KindNotFound, a.Name(), bone, nil)
	}

	var head, tail math.Vec3
	n := 0
	for _, name := range copyBones {
		c, ok := eb.Get(name)
		if !ok {
			continue
		}
		dir := c.Tail().Sub(c.Head()).Normalize().Scale(offset)
		head = head.Add(c.Head().Add(dir))
		tail = tail.Add(c.Tail().Add(dir))
		n++
	}
	if n == 0 {
		return nil, s.fail(op, KindInvalidInput, a.Name(), bone, armature.ErrBoneNotFound)
	}
	err = multierr.Combine(
		eb.SetHead(b, head.Div(float32(n))),
		eb.SetTail(b, tail.Div(float32(n))),
	)
	if err != nil {
		return nil, s.failHost(op, a.Name(), bone, err)
	}
	return b, nil
}

// SetBoneGroup assigns an existing bone group to a pose bone.
func SetBoneGroup(s *Session, a *armature.Armature, bone, group string) error {
	const op = "set bone group"
	ctx, err := s.Object(a)
	if err != nil {
		return err
	}
	pb, ok := ctx.Pose().Get(bone)
	if !ok {
		return s.fail(op, KindNotFound, a.Name(), bone, nil)
	}
	if err := ctx.Pose().SetGroup(pb, group); err != nil {
		return s.failHost(op, a.Name(), bone, err)
	}
	return nil
}

// DistanceBetween returns the distance between the heads of x and y.
func DistanceBetween(s *Session, a *armature.Armature, x, y string) (float32, error) {
	const op = "distance"
	ctx, err := s.Edit(a)
	if err != nil {
		return 0, err
	}
	bx, okx := ctx.EditBones().Get(x)
	by, oky := ctx.EditBones().Get(y)
	switch {
	case !okx:
		return 0, s.fail(op, KindNotFound, a.Name(), x, nil)
	case !oky:
		return 0, s.fail(op, KindNotFound, a.Name(), y, nil)
	}
	return by.Head().Sub(bx.Head()).Length(), nil
}

// Roll derives the roll of b from its rest orientation.
func Roll(b *armature.Bone) float32 {
	return math.QuatFromMat4(b.Matrix()).TwistY()
}

// ClearPose selects every bone, clears the transform locks and resets each
// pose bone to rest. The armature is left in object mode.
func ClearPose(s *Session, a *armature.Armature) error {
	const op = "clear pose"
	ctx, err := s.Pose(a)
	if err != nil {
		return err
	}
	for _, b := range ctx.Bones().All() {
		if err := ctx.Bones().Select(b, true); err != nil {
			return s.failHost(op, a.Name(), b.Name(), err)
		}
	}
	for _, pb := range ctx.Pose().All() {
		pb.Unlock()
		pb.ResetTransform()
	}
	_, err = s.Object(a)
	return err
}

// ResetRootBone points the first bone down -Y with its Z axis up, if its
// name contains "root". The armature is left in object mode.
func ResetRootBone(s *Session, a *armature.Armature) error {
	const op = "reset root bone"
	ctx, err := s.Edit(a)
	if err != nil {
		return err
	}
	root, ok := a.Bone(0)
	if ok && strings.Contains(strings.ToLower(root.Name()), "root") {
		head := root.Head()
		tail := head.Add(math.Vec3{Y: -1}.Scale(root.Length()))
		eb := ctx.EditBones()
		err := eb.SetTail(root, tail)
		if roll, aligned := math.AlignRoll(head, tail, math.Vec3{Z: 1}); err == nil && aligned {
			err = eb.SetRoll(root, roll)
		}
		if err != nil {
			return s.failHost(op, a.Name(), root.Name(), err)
		}
		s.Log.Debug("root bone reset", zap.String("rig", a.Name()), zap.String("bone", root.Name()))
	}
	_, err = s.Object(a)
	return err
}

// BoneNameFromDataPath extracts the bone name from a path starting with
// pose.bones["name"].
func BoneNameFromDataPath(path string) (string, bool) {
	segs, err := armature.ParsePath(path)
	if err != nil || len(segs) < 3 {
		return "", false
	}
	if segs[0].Kind != armature.SegField || segs[0].Name != "pose" ||
		segs[1].Kind != armature.SegField || segs[1].Name != "bones" ||
		segs[2].Kind != armature.SegKey {
		return "", false
	}
	return segs[2].Name, true
}
