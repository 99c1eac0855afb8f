// Package modelio reads and writes calibrated SEIR models as YAML documents.
//
// A document looks like
//
//	model:
//	  r0: 2.2
//	  effectiveness: 0.3
//	  intervention_day: 60
//	  mean_incubation_time: 5.2
//	  mean_remove_time: 2.1
//	fitness: 1234.5
//	calibration: {...}
//
// Only the model section is required. Floats are written in their shortest
// round-trip form, so a loaded model is bit-for-bit equal to the dumped one.
package modelio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/epicast/pkg/config"
	"github.com/GoSim-25-26J-441/epicast/pkg/models"
)

const header = "# SEIR model calibrated against observed case counts\n"

// Document is the serialized form of a calibrated model
type Document struct {
	Model       models.Params
	Fitness     *float64
	Calibration *config.Calibration
}

// wire types keep the on-disk key set stable and let Unmarshal spot missing keys

type wireParams struct {
	R0                 *float64 `yaml:"r0"`
	Effectiveness      *float64 `yaml:"effectiveness"`
	InterventionDay    *int     `yaml:"intervention_day"`
	MeanIncubationTime *float64 `yaml:"mean_incubation_time"`
	MeanRemoveTime     *float64 `yaml:"mean_remove_time"`
}

type wireDocument struct {
	Model       *wireParams         `yaml:"model"`
	Fitness     *float64            `yaml:"fitness,omitempty"`
	Calibration *config.Calibration `yaml:"calibration,omitempty"`
}

// Marshal renders a document as YAML
func Marshal(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, &models.ConfigError{Reason: "nothing to serialize"}
	}
	p := doc.Model
	wire := wireDocument{
		Model: &wireParams{
			R0:                 &p.R0,
			Effectiveness:      &p.Effectiveness,
			InterventionDay:    &p.InterventionDay,
			MeanIncubationTime: &p.MeanIncubationTime,
			MeanRemoveTime:     &p.MeanRemoveTime,
		},
		Fitness:     doc.Fitness,
		Calibration: doc.Calibration,
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&wire); err != nil {
		return nil, &models.ConfigError{Reason: "failed to encode model", Err: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &models.ConfigError{Reason: "failed to encode model", Err: err}
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a document, rejecting unknown keys, missing parameters and invalid values
func Unmarshal(data []byte) (*Document, error) {
	var wire wireDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&wire); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &models.ConfigError{Reason: "empty model document"}
		}
		return nil, &models.ConfigError{Reason: "malformed model document", Err: err}
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &models.ConfigError{Reason: "malformed model document", Err: err}
	}
	if err := config.CheckIntegers(&node, reflect.TypeOf(wire)); err != nil {
		return nil, err
	}

	if wire.Model == nil {
		return nil, &models.ConfigError{Field: "model", Reason: "section is required"}
	}
	w := wire.Model
	for _, f := range []struct {
		name    string
		missing bool
	}{
		{"model.r0", w.R0 == nil},
		{"model.effectiveness", w.Effectiveness == nil},
		{"model.intervention_day", w.InterventionDay == nil},
		{"model.mean_incubation_time", w.MeanIncubationTime == nil},
		{"model.mean_remove_time", w.MeanRemoveTime == nil},
	} {
		if f.missing {
			return nil, &models.ConfigError{Field: f.name, Reason: "is required"}
		}
	}

	doc := &Document{
		Model: models.Params{
			R0:                 *w.R0,
			Effectiveness:      *w.Effectiveness,
			InterventionDay:    *w.InterventionDay,
			MeanIncubationTime: *w.MeanIncubationTime,
			MeanRemoveTime:     *w.MeanRemoveTime,
		},
		Fitness:     wire.Fitness,
		Calibration: wire.Calibration,
	}
	if err := doc.Model.Validate(); err != nil {
		return nil, &models.ConfigError{Field: "model", Err: err}
	}
	if doc.Calibration != nil {
		if err := config.Validate(doc.Calibration); err != nil {
			return nil, &models.ConfigError{Field: "calibration", Err: err}
		}
	}
	return doc, nil
}

// Dump writes a document to path, replacing any existing file atomically
func Dump(doc *Document, path string) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &models.IOError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return &models.IOError{Op: "chmod", Path: path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &models.IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &models.IOError{Op: "close", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &models.IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// Load reads a document from path
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.IOError{Op: "read", Path: path, Err: err}
	}
	return Unmarshal(data)
}
