package rig

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/rigbridge/pkg/armature"
	"github.com/Faultbox/rigbridge/pkg/math"
)

type testBone struct {
	name   string
	parent string
	head   math.Vec3
	tail   math.Vec3
	roll   float32
}

// newTestSession returns a session over an empty scene whose log is
// captured from debug level up.
func newTestSession(t *testing.T) (*Session, *armature.Scene, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	scene := armature.NewScene("Scene")
	return NewSession(scene, zap.New(core)), scene, logs
}

// buildRig links a new armature with the given bones. Parents must be
// listed before their children.
func buildRig(t *testing.T, scene *armature.Scene, name string, world math.Mat4, bones []testBone) *armature.Armature {
	t.Helper()
	a := armature.New(name)
	a.SetWorld(world)
	require.NoError(t, scene.Add(a))
	require.NoError(t, scene.SetMode(a, armature.ModeEdit))
	eb := a.EditBones()
	for _, tb := range bones {
		b, err := eb.New(tb.name)
		require.NoError(t, err)
		require.Equal(t, tb.name, b.Name())
		require.NoError(t, eb.SetHead(b, tb.head))
		require.NoError(t, eb.SetTail(b, tb.tail))
		require.NoError(t, eb.SetRoll(b, tb.roll))
		if tb.parent != "" {
			p, ok := eb.Get(tb.parent)
			require.True(t, ok, "parent %s of %s", tb.parent, tb.name)
			require.NoError(t, eb.SetParent(b, p))
		}
	}
	require.NoError(t, scene.SetMode(a, armature.ModeObject))
	return a
}

// errorCount returns the number of error level entries logged so far.
func errorCount(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.ErrorLevel).Len()
}

func vec(x, y, z float32) math.Vec3 { return math.Vec3{X: x, Y: y, Z: z} }

// ccRig is a Character Creator style rig at centimetre scale.
func ccRig(t *testing.T, scene *armature.Scene) *armature.Armature {
	return buildRig(t, scene, "CC3", math.UniformScale(0.01), []testBone{
		{name: "CC_Base_Hip", head: vec(0, 0, 100), tail: vec(0, 0, 110)},
		{name: "CC_Base_Spine", parent: "CC_Base_Hip", head: vec(0, 0, 110), tail: vec(0, 0, 130)},
		{name: "CC_Base_Head", parent: "CC_Base_Spine", head: vec(0, 0, 150), tail: vec(0, 0, 170), roll: 0.25},
		{name: "Hair", parent: "CC_Base_Head", head: vec(0, 5, 170), tail: vec(0, 5, 180)},
		{name: "HairTip", parent: "Hair", head: vec(0, 5, 180), tail: vec(0, 5, 190)},
		{name: "HairSide", parent: "Hair", head: vec(3, 5, 180), tail: vec(3, 5, 185)},
	})
}

// metaRig is a unit scale destination rig.
func metaRig(t *testing.T, scene *armature.Scene) *armature.Armature {
	return buildRig(t, scene, "Meta", math.Identity(), []testBone{
		{name: "root", head: vec(0, 0, 0), tail: vec(0, 0, 0.5)},
		{name: "spine", parent: "root", head: vec(0, 0, 1.1), tail: vec(0, 0, 1.3)},
		{name: "head", parent: "spine", head: vec(0, 0, 1.5), tail: vec(0, 0, 1.7)},
	})
}
