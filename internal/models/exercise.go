package models

import (
	"bytes"
	"encoding/json"
)

// RawExerciseEntry is one record read from a section source file.
// Field names follow the on-disk format of uploaded section files.
type RawExerciseEntry struct {
	SectionLabel      string     `json:"seccion,omitempty" yaml:"seccion"`
	Topic             string     `json:"tema" yaml:"tema" validate:"required"`
	Statement         string     `json:"enunciado" yaml:"enunciado"`
	SupplementaryText string     `json:"ejercicio,omitempty" yaml:"ejercicio"`
	ExternalID        FlexString `json:"id,omitempty" yaml:"id"`
	SourceFileTag     string     `json:"-" yaml:"-"`
}

// Exercise is a processed exercise as served to clients
type Exercise struct {
	ID                int    `json:"id"`
	SectionID         int    `json:"sectionId"`
	Topic             string `json:"tema"`
	Statement         string `json:"enunciado"`
	SupplementaryText string `json:"ejercicio"`
	Order             int    `json:"order"`
}

// NewExercise is an exercise before the store assigns it an id
type NewExercise struct {
	SectionID         int
	Topic             string
	Statement         string
	SupplementaryText string
	Order             int
}

// FlexString accepts either a JSON string or a JSON number.
// Section files written by hand use both for exercise ids.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
