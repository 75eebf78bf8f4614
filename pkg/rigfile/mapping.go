package rigfile

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/rigbridge/pkg/rig"
)

// MappingFile is a bone mapping table on disk:
//
//	mappings:
//	  - {source: head, dest: CC_Base_Head}
type MappingFile struct {
	Mappings []MappingRecord `yaml:"mappings"`
}

// MappingRecord is one row of a mapping table. Source may be empty when
// only the destination coverage matters.
type MappingRecord struct {
	Source string `yaml:"source,omitempty"`
	Dest   string `yaml:"dest"`
}

// LoadMapping reads a mapping table. Rows keep their file order.
func LoadMapping(path string) (rig.MappingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mapping table %s", path)
	}
	table, err := DecodeMapping(data)
	if err != nil {
		return nil, errors.Wrapf(err, "mapping table %s", path)
	}
	return table, nil
}

// DecodeMapping parses a mapping table. Every row needs a destination.
func DecodeMapping(data []byte) (rig.MappingTable, error) {
	var f MappingFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decoding")
	}

	var err error
	table := make(rig.MappingTable, 0, len(f.Mappings))
	for i, m := range f.Mappings {
		if m.Dest == "" {
			err = multierr.Append(err, errors.Errorf("row %d (source %q) has no dest", i, m.Source))
			continue
		}
		table = append(table, rig.Mapping{Source: m.Source, Dest: m.Dest})
	}
	if err != nil {
		return nil, err
	}
	return table, nil
}

// SaveMapping writes table to path.
func SaveMapping(path string, table rig.MappingTable) error {
	f := MappingFile{Mappings: make([]MappingRecord, len(table))}
	for i, m := range table {
		f.Mappings[i] = MappingRecord{Source: m.Source, Dest: m.Dest}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encoding mapping table")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "writing mapping table %s", path)
}
