package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type extraction struct {
	Project string `validate:"required,notgeneric"`
	Start   string `validate:"required,hhmm"`
}

func TestNotGeneric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{value: "Apollo 17", valid: true},
		{value: "проект", valid: false},
		{value: "Project:", valid: false},
		{value: " N/A ", valid: false},
		{value: "задача по отчёту", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := Validate.Struct(extraction{Project: tt.value, Start: "10:30"})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{value: "10:30", valid: true},
		{value: "9:05", valid: true},
		{value: "00:00", valid: true},
		{value: "23:59", valid: true},
		{value: "24:00", valid: false},
		{value: "10:60", valid: false},
		{value: "10.30", valid: false},
		{value: "1030", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := Validate.Struct(extraction{Project: "Apollo", Start: tt.value})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "проект\tApollo\nработа", SanitizeText("  проект\tApollo\x00\nработа\x07 "))
	assert.Empty(t, SanitizeText(" \x01 "))
}
