package rig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rigbridge/pkg/armature"
	"github.com/Faultbox/rigbridge/pkg/math"
)

func TestSameIgnoresOnePrefix(t *testing.T) {
	r := DefaultResolver()
	for _, name := range []string{"RL_Head", "CC_Base_Head", "RL_L_Hand", "CC_Base_R_Foot", "RL_"} {
		assert.True(t, r.Same(name, r.Strip(name)), name)
		assert.True(t, r.Same(r.Strip(name), name), name)
	}

	assert.True(t, r.Same("RL_Head", "CC_Base_Head"))
	assert.False(t, r.Same("Head", "Neck"))
	// only one prefix is removed per side
	assert.False(t, r.Same("RL_CC_Base_Head", "Head"))
	assert.Equal(t, "CC_Base_Head", r.Strip("RL_CC_Base_Head"))
}

func TestCandidates(t *testing.T) {
	r := DefaultResolver()
	tests := []struct {
		name string
		want []string
	}{
		{"", nil},
		{"Head", []string{"Head"}},
		{"CC_Base_Head", []string{"CC_Base_Head", "Head"}},
		{"RL_Head", []string{"RL_Head", "Head"}},
		{"CC_Base_RL_Head", []string{"CC_Base_RL_Head", "RL_Head", "Head"}},
		// lookup order is CC_Base_ then RL_
		{"RL_CC_Base_Head", []string{"RL_CC_Base_Head", "CC_Base_Head"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Candidates(tt.name), tt.name)
	}
}

func TestResolveExactWins(t *testing.T) {
	_, scene, _ := newTestSession(t)
	a := buildRig(t, scene, "Rig", math.Identity(), []testBone{
		{name: "CC_Base_Head", tail: vec(0, 0, 1)},
		{name: "Head", tail: vec(0, 0, 1)},
		{name: "Neck", tail: vec(0, 0, 1)},
	})
	r := DefaultResolver()

	b, ok := r.ResolveBone(a, "CC_Base_Head")
	require.True(t, ok)
	assert.Equal(t, "CC_Base_Head", b.Name())

	b, ok = r.ResolveBone(a, "CC_Base_Neck")
	require.True(t, ok)
	assert.Equal(t, "Neck", b.Name())

	pb, ok := r.ResolvePoseBone(a, "RL_Neck")
	require.True(t, ok)
	assert.Equal(t, "Neck", pb.Name())

	_, ok = r.ResolveBone(a, "RL_Spine")
	assert.False(t, ok)
	_, ok = r.ResolveBone(a, "")
	assert.False(t, ok)

	_, ok = r.ResolveEditBone(a, "Head")
	assert.False(t, ok, "edit bones are only visible in edit mode")
	require.NoError(t, scene.SetMode(a, armature.ModeEdit))
	eb, ok := r.ResolveEditBone(a, "CC_Base_Neck")
	require.True(t, ok)
	assert.Equal(t, "Neck", eb.Name())
}

func TestFindDoesNotStrip(t *testing.T) {
	_, scene, _ := newTestSession(t)
	a := buildRig(t, scene, "Rig", math.Identity(), []testBone{
		{name: "Head", tail: vec(0, 0, 1)},
		{name: "Neck", tail: vec(0, 0, 1)},
	})

	_, ok := FindBone(a, "CC_Base_Head")
	assert.False(t, ok)

	b, ok := FindBone(a, "Spine", "Neck", "Head")
	require.True(t, ok)
	assert.Equal(t, "Neck", b.Name())

	pb, ok := FindPoseBone(a, "", "Head")
	require.True(t, ok)
	assert.Equal(t, "Head", pb.Name())

	_, ok = FindBone(a)
	assert.False(t, ok)
}

func TestErrorKinds(t *testing.T) {
	err := error(&Error{Kind: KindNameCollision, Op: "rename bone", Rig: "Rig", Bone: "spine", Err: armature.ErrBoneExists})

	assert.Equal(t, KindNameCollision, KindOf(err))
	assert.True(t, IsKind(err, KindNameCollision))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(nil, KindNotFound))
	assert.True(t, errors.Is(err, &Error{Kind: KindNameCollision}))
	assert.ErrorIs(t, err, armature.ErrBoneExists)
	assert.Equal(t, "rename bone: name collision (rig Rig, bone spine): bone name already exists", err.Error())

	assert.Equal(t, KindModeUnavailable, hostKind(armature.ErrModeRefused))
	assert.Equal(t, KindHostRejected, hostKind(armature.ErrInfluenceRange))
}
