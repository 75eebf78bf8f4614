package armature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rigbridge/pkg/math"
)

// newTestScene links an armature with a small chain root -> spine -> head
// plus a second root hair.
func newTestScene(t *testing.T) (*Scene, *Armature) {
	t.Helper()
	s := NewScene("Scene")
	a := New("Rig")
	require.NoError(t, s.Add(a))
	require.NoError(t, s.SetMode(a, ModeEdit))

	eb := a.EditBones()
	var prev *Bone
	for i, name := range []string{"root", "spine", "head"} {
		b, err := eb.New(name)
		require.NoError(t, err)
		require.NoError(t, eb.SetHead(b, math.Vec3{Z: float32(i)}))
		require.NoError(t, eb.SetTail(b, math.Vec3{Z: float32(i + 1)}))
		if prev != nil {
			require.NoError(t, eb.SetParent(b, prev))
		}
		prev = b
	}
	_, err := eb.New("hair")
	require.NoError(t, err)
	require.NoError(t, s.SetMode(a, ModeObject))
	return s, a
}

func TestEditBonesRequireEditMode(t *testing.T) {
	s, a := newTestScene(t)

	_, ok := a.EditBones().Get("root")
	assert.False(t, ok, "edit view is empty outside edit mode")
	assert.Empty(t, a.EditBones().All())

	_, err := a.EditBones().New("x")
	assert.ErrorIs(t, err, ErrWrongMode)

	require.NoError(t, s.SetMode(a, ModeEdit))
	b, ok := a.EditBones().Get("root")
	require.True(t, ok)
	assert.Equal(t, BoneID(0), b.ID())
}

func TestNewBoneUniqueName(t *testing.T) {
	s, a := newTestScene(t)
	require.NoError(t, s.SetMode(a, ModeEdit))

	b, err := a.EditBones().New("spine")
	require.NoError(t, err)
	assert.Equal(t, "spine.001", b.Name())

	b2, err := a.EditBones().New("spine")
	require.NoError(t, err)
	assert.Equal(t, "spine.002", b2.Name())

	_, err = a.EditBones().New("")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestRename(t *testing.T) {
	s, a := newTestScene(t)
	require.NoError(t, s.SetMode(a, ModeEdit))
	eb := a.EditBones()
	spine, _ := eb.Get("spine")

	err := eb.Rename(spine, "head")
	assert.ErrorIs(t, err, ErrBoneExists)
	assert.Equal(t, "spine", spine.Name())

	require.NoError(t, eb.Rename(spine, "chest"))
	assert.Equal(t, "chest", spine.Name())
	assert.False(t, eb.Contains("spine"))
	got, ok := eb.Get("chest")
	require.True(t, ok)
	assert.Same(t, spine, got)

	pb, ok := a.Pose().Get("chest")
	require.True(t, ok)
	assert.Equal(t, spine.ID(), pb.ID())

	// the id is stable across renames
	head, _ := eb.Get("head")
	assert.Equal(t, spine.ID(), head.ParentID())
}

func TestSetParent(t *testing.T) {
	s, a := newTestScene(t)
	require.NoError(t, s.SetMode(a, ModeEdit))
	eb := a.EditBones()
	root, _ := eb.Get("root")
	head, _ := eb.Get("head")

	assert.ErrorIs(t, eb.SetParent(root, head), ErrParentCycle)
	assert.ErrorIs(t, eb.SetParent(root, root), ErrParentCycle)

	other := New("Other")
	require.NoError(t, s.Add(other))
	require.NoError(t, s.SetMode(other, ModeEdit))
	foreign, err := other.EditBones().New("x")
	require.NoError(t, err)
	require.NoError(t, s.SetMode(a, ModeEdit))
	assert.ErrorIs(t, eb.SetParent(root, foreign), ErrForeignBone)

	require.NoError(t, eb.SetParent(head, nil))
	assert.Equal(t, NoBone, head.ParentID())
	assert.Len(t, a.Bones().Roots(), 3)
}

func TestBonesViewAndLayers(t *testing.T) {
	_, a := newTestScene(t)
	bones := a.Bones()

	assert.Equal(t, []string{"root", "spine", "head", "hair"}, bones.Names())
	spine, ok := bones.Get("spine")
	require.True(t, ok)
	assert.Equal(t, "root", bones.Parent(spine).Name())
	require.Len(t, bones.Children(spine), 1)
	assert.Equal(t, "head", bones.Children(spine)[0].Name())

	l, err := OnlyLayer(5)
	require.NoError(t, err)
	require.NoError(t, bones.SetLayers(spine, l))
	assert.True(t, spine.Layers().Has(5))
	assert.Equal(t, 1, spine.Layers().Count())
	assert.True(t, spine.EditLayers().Has(0), "edit layers are independent")

	_, err = OnlyLayer(32)
	assert.ErrorIs(t, err, ErrLayerRange)
	assert.Equal(t, Layers(0b101), Layers(1).With(2, true))
	assert.Equal(t, Layers(1), Layers(0b101).With(2, false))
}

func TestSceneModes(t *testing.T) {
	s, a := newTestScene(t)
	b := New("Target")
	require.NoError(t, s.Add(b))
	assert.ErrorIs(t, s.Add(New("Target")), ErrArmatureExists)

	require.NoError(t, s.SetMode(a, ModeEdit))
	require.NoError(t, s.SetMode(a, ModeEdit), "redundant switch succeeds")
	assert.Same(t, a, s.Active())

	require.NoError(t, s.SetMode(b, ModePose))
	assert.Equal(t, ModeObject, a.Mode())
	assert.Equal(t, ModePose, s.Mode(b))

	s.Refuse(a, ModeEdit)
	assert.ErrorIs(t, s.SetMode(a, ModeEdit), ErrModeRefused)
	s.Allow(a, ModeEdit)
	assert.NoError(t, s.SetMode(a, ModeEdit))

	assert.ErrorIs(t, s.SetMode(New("Loose"), ModeEdit), ErrNotInScene)
}

func TestConstraints(t *testing.T) {
	_, a := newTestScene(t)
	pose := a.Pose()
	pb, ok := pose.Get("spine")
	require.True(t, ok)

	c1, err := pose.AddConstraint(pb, CopyTransforms)
	require.NoError(t, err)
	c2, err := pose.AddConstraint(pb, CopyTransforms)
	require.NoError(t, err)
	assert.Equal(t, "Copy Transforms", c1.Name)
	assert.Equal(t, "Copy Transforms.001", c2.Name)
	assert.NotEqual(t, c1.Handle, c2.Handle)
	assert.Equal(t, float32(1), c1.Influence)
	assert.Equal(t, SpaceWorld, c1.OwnerSpace)

	assert.ErrorIs(t, c1.SetInfluence(1.5), ErrInfluenceRange)
	assert.ErrorIs(t, c1.SetSpaces(SpaceLocal, SpaceLocalOwnerOrient), ErrInvalidSpace)
	require.NoError(t, c1.SetSpaces(SpaceLocalOwnerOrient, SpaceLocal))

	n, err := pose.ClearConstraints(pb)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, pb.Constraints())
}

func TestConstraintsRejectedInEditMode(t *testing.T) {
	s, a := newTestScene(t)
	pb, _ := a.Pose().Get("spine")
	require.NoError(t, s.SetMode(a, ModeEdit))
	_, err := a.Pose().AddConstraint(pb, CopyRotation)
	assert.ErrorIs(t, err, ErrWrongMode)
}

func TestParsePath(t *testing.T) {
	segs, err := ParsePath(`pose.bones["hand.L"].constraints["Copy Rotation"].influence`)
	require.NoError(t, err)
	require.Len(t, segs, 6)
	assert.Equal(t, Segment{Kind: SegKey, Name: "hand.L"}, segs[2])
	assert.Equal(t, Segment{Kind: SegField, Name: "influence"}, segs[5])

	segs, err = ParsePath(`pose.bones["a"].location[2]`)
	require.NoError(t, err)
	assert.Equal(t, Segment{Kind: SegIndex, Index: 2}, segs[len(segs)-1])

	for _, bad := range []string{"", ".a", "a.", "a..b", `a["x`, "a[x]", "[0]", "a b"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestDriverChannels(t *testing.T) {
	_, a := newTestScene(t)
	pb, _ := a.Pose().Get("spine")
	require.NoError(t, a.Pose().SetProp(pb, "ik", 0.25, 0, 1, true))
	con, err := a.Pose().AddConstraint(pb, CopyRotation)
	require.NoError(t, err)

	ad := a.AnimationData()
	_, err = ad.Add(PoseBonePath("spine"), `["missing"]`, -1)
	assert.ErrorIs(t, err, ErrNotAnimatable)
	_, err = ad.Add(PoseBonePath("spine"), "location", -1)
	assert.ErrorIs(t, err, ErrNotAnimatable)

	d1, err := ad.Add(ConstraintPath("spine", con.Name), "influence", -1)
	require.NoError(t, err)
	d2, err := ad.Add(ConstraintPath("spine", con.Name), "influence", -1)
	require.NoError(t, err)
	assert.Equal(t, 1, ad.Len(), "second driver replaces the first")
	_, found := ad.Find(d1.Path(), -1)
	assert.True(t, found)
	assert.Same(t, d2, ad.All()[0])

	v, err := a.ScalarAt(`pose.bones["spine"]["ik"]`, -1)
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	require.NoError(t, a.SetScalarAt(`pose.bones["spine"].location[1]`, -1, 3))
	assert.Equal(t, float32(3), pb.Location.Y)

	require.NoError(t, a.SetScalarAt(d2.Path(), -1, 7))
	assert.Equal(t, float32(1), con.Influence, "influence clamps to [0, 1]")

	_, err = a.Pose().ClearConstraints(pb)
	require.NoError(t, err)
	assert.Equal(t, 0, ad.Len(), "drivers on removed constraints are dropped")
}

func TestEvaluateDrivers(t *testing.T) {
	s, a := newTestScene(t)
	pose := a.Pose()
	ctrl, _ := pose.Get("root")
	spine, _ := pose.Get("spine")
	require.NoError(t, pose.SetProp(ctrl, "fk", 0.5, 0, 1, true))
	con, err := pose.AddConstraint(spine, CopyRotation)
	require.NoError(t, err)
	s.SetProp("rig_props.blend", 0.2)

	ad := a.AnimationData()

	// created before its input driver so ordering matters
	inf, err := ad.Add(ConstraintPath("spine", con.Name), "influence", -1)
	require.NoError(t, err)
	inf.Type = DriverScripted
	inf.Expression = "1 - fk"
	v := inf.NewVariable()
	v.Name, v.ID, v.DataPath = "fk", "Rig", `pose.bones["root"]["fk"]`

	fk, err := ad.Add(PoseBonePath("root"), `["fk"]`, -1)
	require.NoError(t, err)
	fk.Type = DriverSum
	sv := fk.NewVariable()
	sv.Name, sv.IDType, sv.ID, sv.DataPath = "blend", IDScene, "Scene", "rig_props.blend"

	loc, err := ad.Add(PoseBonePath("head"), "location", 2)
	require.NoError(t, err)
	loc.Type = DriverScripted
	loc.Expression = "max(x, 0.1) * 2"
	tv := loc.NewVariable()
	tv.Name, tv.Type, tv.ID, tv.BoneTarget = "x", VarTransforms, "Rig", "spine"
	tv.TransformType, tv.TransformSpace, tv.RotationMode = LocY, VarLocalSpace, RotationAuto
	spine.Location.Y = 0.75

	require.NoError(t, s.EvaluateDrivers())
	assert.InDelta(t, 0.2, ctrl.props["fk"].Value, 1e-9)
	assert.InDelta(t, 0.8, con.Influence, 1e-6)
	head, _ := pose.Get("head")
	assert.InDelta(t, 1.5, head.Location.Z, 1e-6)
}

func TestEvaluateDriversReportsCycles(t *testing.T) {
	s, a := newTestScene(t)
	pose := a.Pose()
	root, _ := pose.Get("root")
	require.NoError(t, pose.SetProp(root, "a", 0, 0, 1, false))
	require.NoError(t, pose.SetProp(root, "b", 0, 0, 1, false))

	ad := a.AnimationData()
	da, err := ad.Add(PoseBonePath("root"), `["a"]`, -1)
	require.NoError(t, err)
	da.Type = DriverSum
	va := da.NewVariable()
	va.Name, va.ID, va.DataPath = "b", "Rig", `pose.bones["root"]["b"]`

	db, err := ad.Add(PoseBonePath("root"), `["b"]`, -1)
	require.NoError(t, err)
	db.Type = DriverSum
	vb := db.NewVariable()
	vb.Name, vb.ID, vb.DataPath = "a", "Rig", `pose.bones["root"]["a"]`

	err = s.EvaluateDrivers()
	assert.ErrorIs(t, err, ErrDriverCycle)
}

func TestEvaluateScriptedErrors(t *testing.T) {
	s, a := newTestScene(t)
	root, _ := a.Pose().Get("root")
	require.NoError(t, a.Pose().SetProp(root, "p", 0, 0, 1, false))
	d, err := a.AnimationData().Add(PoseBonePath("root"), `["p"]`, -1)
	require.NoError(t, err)

	_, err = s.Evaluate(d)
	assert.ErrorIs(t, err, ErrInvalidDriver, "empty expression")

	d.Expression = "missing + 1"
	_, err = s.Evaluate(d)
	assert.ErrorIs(t, err, ErrInvalidDriver)

	d.Expression = "abs(-0.5) > 0.25"
	got, err := s.Evaluate(d)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestClone(t *testing.T) {
	_, a := newTestScene(t)
	pb, _ := a.Pose().Get("spine")
	require.NoError(t, a.Pose().SetProp(pb, "ik", 1, 0, 1, true))
	con, err := a.Pose().AddConstraint(pb, DampedTrack)
	require.NoError(t, err)
	con.Target, con.Subtarget = "Rig", "head"

	c, err := a.Clone("Rig.001")
	require.NoError(t, err)
	assert.Equal(t, a.Bones().Names(), c.Bones().Names())

	cspine, ok := c.Bones().Get("spine")
	require.True(t, ok)
	orig, _ := a.Bones().Get("spine")
	assert.NotSame(t, orig, cspine)
	assert.Equal(t, orig.Head(), cspine.Head())
	assert.Equal(t, "root", c.Bones().Parent(cspine).Name())

	cpb, _ := c.Pose().Get("spine")
	ccon, ok := cpb.Constraint(con.Name)
	require.True(t, ok)
	assert.Equal(t, "Rig.001", ccon.Target)
	assert.NotEqual(t, con.Handle, ccon.Handle)

	cprop, ok := cpb.Prop("ik")
	require.True(t, ok)
	cprop.Value = 0
	prop, _ := pb.Prop("ik")
	assert.Equal(t, 1.0, prop.Value, "clone does not share properties")
}
