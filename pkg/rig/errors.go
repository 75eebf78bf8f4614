package rig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/rigbridge/pkg/armature"
)

// Kind classifies a failed rig operation.
type Kind int

const (
	// KindNotFound: a requested rig, bone or parent is absent.
	KindNotFound Kind = iota + 1
	// KindNameCollision: the destination name already exists.
	KindNameCollision
	// KindModeUnavailable: the host refused a required mode switch.
	KindModeUnavailable
	// KindHostRejected: the host refused to create or configure a
	// constraint or driver.
	KindHostRejected
	// KindInvalidInput: the arguments cannot describe a valid operation,
	// e.g. an empty copy set or a layer outside 0..31.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindNameCollision:
		return "name collision"
	case KindModeUnavailable:
		return "mode unavailable"
	case KindHostRejected:
		return "host rejected"
	case KindInvalidInput:
		return "invalid input"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is returned by every failing operation in this package.
type Error struct {
	Kind Kind
	Op   string
	Rig  string
	Bone string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Rig != "" {
		fmt.Fprintf(&b, " (rig %s", e.Rig)
		if e.Bone != "" {
			fmt.Fprintf(&b, ", bone %s", e.Bone)
		}
		b.WriteString(")")
	} else if e.Bone != "" {
		fmt.Fprintf(&b, " (bone %s)", e.Bone)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, &rig.Error{Kind: rig.KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// hostKind maps a host error onto the taxonomy.
func hostKind(err error) Kind {
	switch {
	case errors.Is(err, armature.ErrBoneNotFound), errors.Is(err, armature.ErrNotInScene):
		return KindNotFound
	case errors.Is(err, armature.ErrBoneExists), errors.Is(err, armature.ErrArmatureExists):
		return KindNameCollision
	case errors.Is(err, armature.ErrModeRefused), errors.Is(err, armature.ErrWrongMode):
		return KindModeUnavailable
	case errors.Is(err, armature.ErrLayerRange), errors.Is(err, armature.ErrEmptyName):
		return KindInvalidInput
	default:
		return KindHostRejected
	}
}
