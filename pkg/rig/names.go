package rig

import (
	"strings"

	"github.com/Faultbox/rigbridge/pkg/armature"
)

// Name prefixes used by Character Creator and iClone exports.
const (
	PrefixCCBase = "CC_Base_"
	PrefixRL     = "RL_"
)

// Resolver matches bone names across naming conventions. It is a pure
// value: lookups go through the store passed in.
type Resolver struct {
	// Lookup prefixes are stripped in order and cumulatively when a
	// lookup by exact name fails.
	Lookup []string
	// Equality prefixes: at most one, the first that matches, is
	// stripped from each side before comparing.
	Equality []string
}

// DefaultResolver strips CC_Base_ then RL_ on lookup and RL_ or CC_Base_
// for equality.
func DefaultResolver() Resolver {
	return Resolver{
		Lookup:   []string{PrefixCCBase, PrefixRL},
		Equality: []string{PrefixRL, PrefixCCBase},
	}
}

// Strip removes the first matching equality prefix from name.
func (r Resolver) Strip(name string) string {
	for _, p := range r.Equality {
		if strings.HasPrefix(name, p) {
			return name[len(p):]
		}
	}
	return name
}

// Same reports whether a and b name the same bone once a convention
// prefix is removed from each.
func (r Resolver) Same(a, b string) bool {
	return r.Strip(a) == r.Strip(b)
}

// Candidates returns the names a lookup tries, in order: the name itself,
// then the name after each matching lookup prefix was stripped. An empty
// name has no candidates.
func (r Resolver) Candidates(name string) []string {
	if name == "" {
		return nil
	}
	out := []string{name}
	for _, p := range r.Lookup {
		if strings.HasPrefix(name, p) {
			name = name[len(p):]
			out = append(out, name)
		}
	}
	return out
}

func resolve[T any](candidates []string, get func(string) (T, bool)) (T, bool) {
	for _, name := range candidates {
		if v, ok := get(name); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// ResolveEditBone finds an edit bone by name, retrying without convention
// prefixes. The armature must be in edit mode.
func (r Resolver) ResolveEditBone(a *armature.Armature, name string) (*armature.Bone, bool) {
	return resolve(r.Candidates(name), a.EditBones().Get)
}

// ResolveBone finds a data bone by name, retrying without convention
// prefixes.
func (r Resolver) ResolveBone(a *armature.Armature, name string) (*armature.Bone, bool) {
	return resolve(r.Candidates(name), a.Bones().Get)
}

// ResolvePoseBone finds a pose bone by name, retrying without convention
// prefixes.
func (r Resolver) ResolvePoseBone(a *armature.Armature, name string) (*armature.PoseBone, bool) {
	return resolve(r.Candidates(name), a.Pose().Get)
}

func nonEmpty(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// FindEditBone returns the first edit bone matching one of names exactly.
func FindEditBone(a *armature.Armature, names ...string) (*armature.Bone, bool) {
	return resolve(nonEmpty(names), a.EditBones().Get)
}

// FindBone returns the first data bone matching one of names exactly.
func FindBone(a *armature.Armature, names ...string) (*armature.Bone, bool) {
	return resolve(nonEmpty(names), a.Bones().Get)
}

// FindPoseBone returns the first pose bone matching one of names exactly.
func FindPoseBone(a *armature.Armature, names ...string) (*armature.PoseBone, bool) {
	return resolve(nonEmpty(names), a.Pose().Get)
}
