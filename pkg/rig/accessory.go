package rig

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rigbridge/pkg/armature"
)

// Mapping pairs a source rig concept with the destination bone that covers
// it.
type Mapping struct {
	Source string
	Dest   string
}

// MappingTable is an ordered, read-only bone mapping.
type MappingTable []Mapping

// MappingContains reports whether any destination of table names bone,
// ignoring convention prefixes.
func MappingContains(r Resolver, table MappingTable, bone string) bool {
	for _, m := range table {
		if r.Same(m.Dest, bone) {
			return true
		}
	}
	return false
}

// AccessoryRoot returns the highest bone on the path from b up to the
// armature root that is not mapped while its parent is. It returns nil if
// b is mapped, or if no mapped bone sits above the unmapped part.
func AccessoryRoot(r Resolver, table MappingTable, a *armature.Armature, b *armature.Bone) *armature.Bone {
	if b == nil || MappingContains(r, table, b.Name()) {
		return nil
	}
	bones := a.Bones()
	var root *armature.Bone
	for cur := b; ; {
		parent := bones.Parent(cur)
		if parent == nil {
			return root
		}
		mapped := MappingContains(r, table, parent.Name())
		if mapped && !MappingContains(r, table, cur.Name()) {
			root = cur
		}
		cur = parent
	}
}

// FindAccessoryBones returns the roots of the unmapped parts of a, in bone
// storage order. A bone below an already recorded root is not recorded.
func FindAccessoryBones(s *Session, table MappingTable, a *armature.Armature) []string {
	if a == nil {
		return nil
	}
	bones := a.Bones()
	var roots []string
	recorded := make(map[string]bool)
	for _, b := range bones.All() {
		name := b.Name()
		if MappingContains(s.Resolver, table, name) || recorded[name] {
			continue
		}
		if ancestorIn(bones, b, recorded) {
			continue
		}
		s.Log.Info("accessory bone", zap.String("rig", a.Name()), zap.String("bone", name))
		recorded[name] = true
		roots = append(roots, name)
	}
	return roots
}

// ancestorIn reports whether any ancestor of b has its exact name in set.
func ancestorIn(bones armature.Bones, b *armature.Bone, set map[string]bool) bool {
	for p := bones.Parent(b); p != nil; p = bones.Parent(p) {
		if set[p.Name()] {
			return true
		}
	}
	return false
}
