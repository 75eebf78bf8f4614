// Package rigfile reads and writes armatures and bone mapping tables as YAML
// documents.
package rigfile

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/rigbridge/pkg/armature"
	"github.com/Faultbox/rigbridge/pkg/math"
)

// Document is one armature on disk. Bones may be listed in any order;
// parents are linked after every bone exists.
type Document struct {
	Name   string       `yaml:"name"`
	World  []float32    `yaml:"world,flow,omitempty"` // 16 values, column-major; empty means identity
	Groups []string     `yaml:"groups,omitempty"`
	Bones  []BoneRecord `yaml:"bones"`
}

// BoneRecord is one bone in armature space.
type BoneRecord struct {
	Name       string     `yaml:"name"`
	Parent     string     `yaml:"parent,omitempty"`
	Head       [3]float32 `yaml:"head,flow"`
	Tail       [3]float32 `yaml:"tail,flow"`
	Roll       float32    `yaml:"roll,omitempty"`
	HeadRadius float32    `yaml:"head_radius,omitempty"`
	TailRadius float32    `yaml:"tail_radius,omitempty"`
	EditLayers []int      `yaml:"edit_layers,flow,omitempty"`
	Layers     []int      `yaml:"layers,flow,omitempty"`
	Flags      *Flags     `yaml:"flags,omitempty"` // absent means deform and inherit rotation
	Group      string     `yaml:"group,omitempty"`
}

// Flags mirror armature.Flags. Only the flags set to true need listing.
type Flags struct {
	Connect         bool `yaml:"connect,omitempty"`
	LocalLocation   bool `yaml:"local_location,omitempty"`
	InheritRotation bool `yaml:"inherit_rotation,omitempty"`
	Deform          bool `yaml:"deform,omitempty"`
}

func (r BoneRecord) flags() armature.Flags {
	if r.Flags == nil {
		return armature.DefaultFlags()
	}
	return armature.Flags(*r.Flags)
}

// Load reads and validates a rig document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rig document %s", path)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "rig document %s", path)
	}
	return doc, nil
}

// Decode parses and validates a rig document. Unknown keys are an error.
func Decode(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding")
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save writes doc to path, creating parent directories.
func Save(path string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "encoding rig document %s", doc.Name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing rig document %s", path)
	}
	return nil
}

// Validate reports every problem of doc at once.
func Validate(doc *Document) error {
	var err error
	if doc.Name == "" {
		err = multierr.Append(err, errors.New("armature name is empty"))
	}
	if n := len(doc.World); n != 0 && n != 16 {
		err = multierr.Append(err, errors.Errorf("world matrix has %d values, want 16", n))
	}

	groups := make(map[string]bool, len(doc.Groups))
	for _, g := range doc.Groups {
		groups[g] = true
	}
	parents := make(map[string]string, len(doc.Bones))
	for i, b := range doc.Bones {
		if b.Name == "" {
			err = multierr.Append(err, errors.Errorf("bone %d has no name", i))
			continue
		}
		if _, dup := parents[b.Name]; dup {
			err = multierr.Append(err, errors.Errorf("bone %s is listed twice", b.Name))
			continue
		}
		parents[b.Name] = b.Parent
		err = multierr.Append(err, validLayers(b.Name, "edit_layers", b.EditLayers))
		err = multierr.Append(err, validLayers(b.Name, "layers", b.Layers))
		if b.Group != "" && !groups[b.Group] {
			err = multierr.Append(err, errors.Errorf("bone %s: unknown group %s", b.Name, b.Group))
		}
	}

	for _, b := range doc.Bones {
		if b.Parent == "" {
			continue
		}
		if _, ok := parents[b.Parent]; !ok {
			err = multierr.Append(err, errors.Errorf("bone %s: unknown parent %s", b.Name, b.Parent))
			continue
		}
		// walk up at most len(parents) steps
		cur := b.Parent
		for steps := 0; cur != "" && steps <= len(parents); steps++ {
			if cur == b.Name {
				err = multierr.Append(err, errors.Errorf("bone %s is its own ancestor", b.Name))
				break
			}
			cur = parents[cur]
		}
	}
	return err
}

func validLayers(bone, field string, layers []int) error {
	var err error
	for _, l := range layers {
		if l < 0 || l >= armature.MaxLayers {
			err = multierr.Append(err, errors.Errorf("bone %s: %s index %d outside 0..%d", bone, field, l, armature.MaxLayers-1))
		}
	}
	return err
}

func layerSet(layers []int) armature.Layers {
	if len(layers) == 0 {
		return 1
	}
	var l armature.Layers
	for _, i := range layers {
		l = l.With(i, true)
	}
	return l
}

func layerList(l armature.Layers) []int {
	var out []int
	for i := 0; i < armature.MaxLayers; i++ {
		if l.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// ToArmature builds the armature described by doc and links it into scene.
// The armature is left in object mode.
func ToArmature(scene *armature.Scene, doc *Document) (*armature.Armature, error) {
	if err := Validate(doc); err != nil {
		return nil, errors.Wrapf(err, "rig document %s", doc.Name)
	}
	a := armature.New(doc.Name)
	if len(doc.World) == 16 {
		var m math.Mat4
		copy(m[:], doc.World)
		a.SetWorld(m)
	}
	for _, g := range doc.Groups {
		a.AddGroup(g)
	}
	if err := scene.Add(a); err != nil {
		return nil, errors.Wrapf(err, "linking %s", doc.Name)
	}
	if err := scene.SetMode(a, armature.ModeEdit); err != nil {
		return nil, errors.Wrapf(err, "editing %s", doc.Name)
	}

	eb := a.EditBones()
	created := make([]*armature.Bone, len(doc.Bones))
	for i, rec := range doc.Bones {
		b, err := eb.New(rec.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "creating bone %s", rec.Name)
		}
		headRadius, tailRadius := b.HeadRadius(), b.TailRadius()
		if rec.HeadRadius > 0 {
			headRadius = rec.HeadRadius
		}
		if rec.TailRadius > 0 {
			tailRadius = rec.TailRadius
		}
		err = multierr.Combine(
			eb.SetHead(b, math.Vec3FromArray(rec.Head)),
			eb.SetTail(b, math.Vec3FromArray(rec.Tail)),
			eb.SetRoll(b, rec.Roll),
			eb.SetRadii(b, headRadius, tailRadius),
			eb.SetLayers(b, layerSet(rec.EditLayers)),
			eb.SetFlags(b, rec.flags()),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "setting up bone %s", rec.Name)
		}
		created[i] = b
	}
	for i, rec := range doc.Bones {
		if rec.Parent == "" {
			continue
		}
		parent, _ := eb.Get(rec.Parent)
		if err := eb.SetParent(created[i], parent); err != nil {
			return nil, errors.Wrapf(err, "parenting %s", rec.Name)
		}
	}

	if err := scene.SetMode(a, armature.ModeObject); err != nil {
		return nil, errors.Wrapf(err, "leaving edit mode of %s", doc.Name)
	}
	bones, pose := a.Bones(), a.Pose()
	for i, rec := range doc.Bones {
		if err := bones.SetLayers(created[i], layerSet(rec.Layers)); err != nil {
			return nil, errors.Wrapf(err, "layers of %s", rec.Name)
		}
		if rec.Group == "" {
			continue
		}
		pb, _ := pose.Get(rec.Name)
		if err := pose.SetGroup(pb, rec.Group); err != nil {
			return nil, errors.Wrapf(err, "group of %s", rec.Name)
		}
	}
	return a, nil
}

// FromArmature captures the bones of a in storage order. It reads the data
// view, so it works in any mode.
func FromArmature(a *armature.Armature) *Document {
	world := a.World()
	doc := &Document{
		Name:   a.Name(),
		Groups: a.Groups(),
	}
	if world != math.Identity() {
		doc.World = append([]float32(nil), world[:]...)
	}

	bones, pose := a.Bones(), a.Pose()
	for _, b := range bones.All() {
		flags := Flags(b.Flags())
		rec := BoneRecord{
			Name:       b.Name(),
			Head:       b.Head().Array(),
			Tail:       b.Tail().Array(),
			Roll:       b.Roll(),
			HeadRadius: b.HeadRadius(),
			TailRadius: b.TailRadius(),
			EditLayers: layerList(b.EditLayers()),
			Layers:     layerList(b.Layers()),
			Flags:      &flags,
		}
		if p := bones.Parent(b); p != nil {
			rec.Parent = p.Name()
		}
		if pb, ok := pose.Get(b.Name()); ok {
			rec.Group = pb.Group()
		}
		doc.Bones = append(doc.Bones, rec)
	}
	return doc
}
