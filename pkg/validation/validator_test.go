package validation

import (
	"strings"
	"testing"
)

type terminalDoc struct {
	MRID      string `yaml:"mrid" validate:"required,mrid"`
	Phases    string `yaml:"phases" validate:"required,phasecode"`
	Sequence  int    `yaml:"sequence" validate:"min=1"`
	Direction string `yaml:"direction" validate:"omitempty,direction"`
}

type equipmentDoc struct {
	MRID      string        `yaml:"mrid" validate:"required,mrid"`
	Kind      string        `yaml:"kind" validate:"required,equipmentkind"`
	Terminals []terminalDoc `yaml:"terminals" validate:"dive"`
}

func validEquipment() equipmentDoc {
	return equipmentDoc{
		MRID: "breaker-1",
		Kind: "Breaker",
		Terminals: []terminalDoc{
			{MRID: "breaker-1-t1", Phases: "ABC", Sequence: 1, Direction: "UPSTREAM"},
			{MRID: "breaker-1-t2", Phases: "ABCN", Sequence: 2},
		},
	}
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*equipmentDoc)
		wantErr string
	}{
		{"valid", func(*equipmentDoc) {}, ""},
		{"missing mrid", func(d *equipmentDoc) { d.MRID = "" }, "mrid: field is required"},
		{"bad mrid", func(d *equipmentDoc) { d.MRID = "breaker 1" }, "invalid characters"},
		{"unknown kind", func(d *equipmentDoc) { d.Kind = "Transformer" }, `unknown equipment kind "Transformer"`},
		{"unknown phases", func(d *equipmentDoc) { d.Terminals[0].Phases = "ABD" }, `unknown phase code "ABD"`},
		{"zero sequence", func(d *equipmentDoc) { d.Terminals[1].Sequence = 0 }, "sequence: must be at least 1"},
		{"unknown direction", func(d *equipmentDoc) { d.Terminals[0].Direction = "SIDEWAYS" }, `unknown feeder direction "SIDEWAYS"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validEquipment()
			tt.mutate(&doc)
			err := Struct(&doc)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestStruct_Nil(t *testing.T) {
	if err := Struct(nil); err == nil {
		t.Error("expected an error for nil")
	}
}

func TestValidateMRID(t *testing.T) {
	tests := []struct {
		mRID  string
		valid bool
	}{
		{"s-t1", true},
		{"feeder:north.1", true},
		{"", false},
		{"has space", false},
		{"slash/ed", false},
		{strings.Repeat("x", MaxMRIDLength), true},
		{strings.Repeat("x", MaxMRIDLength+1), false},
	}
	for _, tt := range tests {
		if err := ValidateMRID(tt.mRID); (err == nil) != tt.valid {
			t.Errorf("ValidateMRID(%q) = %v, want valid %v", tt.mRID, err, tt.valid)
		}
	}
}
