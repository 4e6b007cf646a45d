package detection

import (
	"encoding/json"
	"fmt"
)

// Record is the payload published once per frame. Field names are part of
// the wire contract with existing consumers.
type Record struct {
	Forma     string    `json:"forma"`
	Color     string    `json:"color,omitempty"`
	Posicion  *Position `json:"posicion,omitempty"`
	Calibrado bool      `json:"calibrado"`
}

// NewRecord builds the record for a detection.
func NewRecord(d Detection) Record {
	pos := d.Position
	return Record{
		Forma:     d.Shape.String(),
		Color:     d.Color.String(),
		Posicion:  &pos,
		Calibrado: d.Calibrated,
	}
}

// EmptyRecord builds the "no detection" record.
func EmptyRecord(calibrated bool) Record {
	return Record{Forma: NoneLabel, Calibrado: calibrated}
}

// Detected reports whether the record carries a shape.
func (r Record) Detected() bool {
	return r.Forma != "" && r.Forma != NoneLabel
}

// String renders the record the way the console client prints it.
func (r Record) String() string {
	if !r.Detected() || r.Posicion == nil {
		return "... waiting for object ..."
	}
	units := "px"
	if r.Calibrado {
		units = "mm"
	}
	return fmt.Sprintf("%s %s at [%g, %g] %s", r.Forma, r.Color, r.Posicion[0], r.Posicion[1], units)
}

// Marshal encodes the record as JSON.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// ParseRecord decodes a JSON payload.
func ParseRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if r.Forma == "" {
		return Record{}, fmt.Errorf("decode record: missing forma")
	}
	return r, nil
}
