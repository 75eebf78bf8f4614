package armature

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/rigbridge/pkg/math"
)

// SegmentKind tells how a data path segment addresses its parent.
type SegmentKind int

const (
	SegField SegmentKind = iota // .name
	SegKey                      // ["name"]
	SegIndex                    // [0]
)

// Segment is one step of a data path.
type Segment struct {
	Kind  SegmentKind
	Name  string
	Index int
}

// ParsePath splits a data path such as
// pose.bones["hand.L"].constraints["Copy Rotation"].influence into segments.
func ParsePath(path string) ([]Segment, error) {
	var segs []Segment
	i := 0
	expectField := true
	for i < len(path) {
		switch c := path[i]; {
		case c == '.':
			if expectField {
				return nil, fmt.Errorf("%w: unexpected '.' at %d in %q", ErrInvalidPath, i, path)
			}
			i++
			expectField = true
		case c == '[':
			if expectField && len(segs) > 0 {
				return nil, fmt.Errorf("%w: unexpected '[' at %d in %q", ErrInvalidPath, i, path)
			}
			end, seg, err := parseBracket(path, i)
			if err != nil {
				return nil, err
			}
			if len(segs) == 0 && seg.Kind == SegIndex {
				return nil, fmt.Errorf("%w: path %q starts with an index", ErrInvalidPath, path)
			}
			segs = append(segs, seg)
			i = end
			expectField = false
		case isIdentStart(c):
			if !expectField {
				return nil, fmt.Errorf("%w: missing '.' before %d in %q", ErrInvalidPath, i, path)
			}
			j := i + 1
			for j < len(path) && isIdentPart(path[j]) {
				j++
			}
			segs = append(segs, Segment{Kind: SegField, Name: path[i:j]})
			i = j
			expectField = false
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d in %q", ErrInvalidPath, c, i, path)
		}
	}
	if len(segs) == 0 || expectField {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return segs, nil
}

// parseBracket reads a ["key"] or [index] segment starting at path[i].
func parseBracket(path string, i int) (int, Segment, error) {
	if i+1 < len(path) && path[i+1] == '"' {
		// find the closing quote, skipping escapes
		j := i + 2
		for j < len(path) && path[j] != '"' {
			if path[j] == '\\' {
				j++
			}
			j++
		}
		if j+1 >= len(path) || path[j+1] != ']' {
			return 0, Segment{}, fmt.Errorf("%w: unterminated key in %q", ErrInvalidPath, path)
		}
		key, err := strconv.Unquote(path[i+1 : j+1])
		if err != nil {
			return 0, Segment{}, fmt.Errorf("%w: bad key in %q: %v", ErrInvalidPath, path, err)
		}
		return j + 2, Segment{Kind: SegKey, Name: key}, nil
	}
	end := strings.IndexByte(path[i:], ']')
	if end < 0 {
		return 0, Segment{}, fmt.Errorf("%w: unterminated index in %q", ErrInvalidPath, path)
	}
	n, err := strconv.Atoi(path[i+1 : i+end])
	if err != nil || n < 0 {
		return 0, Segment{}, fmt.Errorf("%w: bad index in %q", ErrInvalidPath, path)
	}
	return i + end + 1, Segment{Kind: SegIndex, Index: n}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// Key returns the ["name"] segment for a key. Quotes and backslashes in
// name are escaped the way ParsePath reads them back.
func Key(name string) string {
	return "[" + strconv.Quote(name) + "]"
}

// JoinPath appends a property to the path of its owning struct.
func JoinPath(owner, property string) string {
	switch {
	case owner == "":
		return property
	case strings.HasPrefix(property, "["):
		return owner + property
	default:
		return owner + "." + property
	}
}

// channel reads and writes one animatable scalar.
type channel struct {
	get func() float64
	set func(float64)
}

// vectorFields are the pose-bone transform vectors.
var vectorFields = map[string]bool{
	"location":       true,
	"rotation_euler": true,
	"scale":          true,
}

// channel resolves path (plus an optional array index, -1 for none) to an
// animatable scalar of this armature.
func (a *Armature) channel(path string, index int) (channel, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return channel{}, err
	}
	if last := segs[len(segs)-1]; last.Kind == SegIndex {
		if index >= 0 {
			return channel{}, fmt.Errorf("%w: %q has an index and index %d", ErrInvalidPath, path, index)
		}
		index = last.Index
		segs = segs[:len(segs)-1]
	}

	if len(segs) < 3 || !isField(segs[0], "pose") || !isField(segs[1], "bones") || segs[2].Kind != SegKey {
		return channel{}, fmt.Errorf("%w: %q", ErrNotAnimatable, path)
	}
	pb, ok := a.Pose().Get(segs[2].Name)
	if !ok {
		return channel{}, fmt.Errorf("%w: %q: pose bone %s", ErrNotAnimatable, path, segs[2].Name)
	}
	rest := segs[3:]

	switch {
	case len(rest) == 1 && rest[0].Kind == SegKey && index < 0:
		prop, ok := pb.props[rest[0].Name]
		if !ok {
			return channel{}, fmt.Errorf("%w: %q: no property %s", ErrNotAnimatable, path, rest[0].Name)
		}
		return channel{
			get: func() float64 { return prop.Value },
			set: func(v float64) { prop.Value = clamp(v, prop.Min, prop.Max) },
		}, nil

	case len(rest) == 1 && rest[0].Kind == SegField && vectorFields[rest[0].Name]:
		if index < 0 || index > 2 {
			return channel{}, fmt.Errorf("%w: %q needs an index 0..2", ErrNotAnimatable, path)
		}
		vec := poseVector(pb, rest[0].Name)
		i := index
		return channel{
			get: func() float64 { return float64(vec.Component(i)) },
			set: func(v float64) { *vec = vec.WithComponent(i, float32(v)) },
		}, nil

	case len(rest) == 3 && isField(rest[0], "constraints") && rest[1].Kind == SegKey && rest[2].Kind == SegField && index < 0:
		con, ok := pb.Constraint(rest[1].Name)
		if !ok {
			return channel{}, fmt.Errorf("%w: %q: no constraint %s", ErrNotAnimatable, path, rest[1].Name)
		}
		return constraintChannel(con, rest[2].Name, path)
	}
	return channel{}, fmt.Errorf("%w: %q", ErrNotAnimatable, path)
}

func constraintChannel(con *Constraint, field, path string) (channel, error) {
	var f *float32
	lo, hi := float32(-1e30), float32(1e30)
	switch field {
	case "influence":
		f, lo, hi = &con.Influence, 0, 1
	case "head_tail":
		f, lo, hi = &con.HeadTail, 0, 1
	case "distance":
		f, lo = &con.Distance, 0
	default:
		return channel{}, fmt.Errorf("%w: %q", ErrNotAnimatable, path)
	}
	return channel{
		get: func() float64 { return float64(*f) },
		set: func(v float64) { *f = float32(clamp(v, float64(lo), float64(hi))) },
	}, nil
}

func poseVector(pb *PoseBone, field string) *math.Vec3 {
	switch field {
	case "location":
		return &pb.Location
	case "rotation_euler":
		return &pb.Rotation
	default:
		return &pb.Scale
	}
}

func isField(s Segment, name string) bool {
	return s.Kind == SegField && s.Name == name
}

// ScalarAt reads the animatable scalar at path. index selects a vector
// component; pass -1 for plain scalars.
func (a *Armature) ScalarAt(path string, index int) (float64, error) {
	ch, err := a.channel(path, index)
	if err != nil {
		return 0, err
	}
	return ch.get(), nil
}

// SetScalarAt writes the animatable scalar at path, clamping to the range
// the target allows.
func (a *Armature) SetScalarAt(path string, index int, v float64) error {
	ch, err := a.channel(path, index)
	if err != nil {
		return err
	}
	ch.set(v)
	return nil
}
