package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMetadata(t *testing.T) {
	rec := Normalize(fullAnalysisMap())
	md := DeriveMetadata(rec)

	assert.Equal(t, 2, md.SceneCount)
	assert.Equal(t, 3, md.CharacterCount)
	assert.Equal(t, 1, md.LocationCount)
	assert.Equal(t, 125000.0, md.EstimatedBudget)
	assert.Equal(t, "High", md.BudgetCategory)
}

func TestDeriveMetadataDefaults(t *testing.T) {
	md := DeriveMetadata(EmptyRecord())

	assert.Equal(t, 0, md.SceneCount)
	assert.Equal(t, 0, md.CharacterCount)
	assert.Equal(t, 0, md.LocationCount)
	assert.Equal(t, 0.0, md.EstimatedBudget)
	assert.Equal(t, DefaultBudgetCategory, md.BudgetCategory)
}

func TestDeriveMetadataOddTypes(t *testing.T) {
	rec := CanonicalRecord{
		ScriptData: map[string]interface{}{
			"scenes":           "twelve",
			"total_characters": map[string]interface{}{"RIPLEY": true},
			"total_locations":  []interface{}{"A", "B"},
		},
		CostBreakdown: map[string]interface{}{
			"total_costs":     "lots",
			"budget_category": 7.0,
		},
	}

	md := DeriveMetadata(rec)
	assert.Equal(t, 0, md.SceneCount)
	assert.Equal(t, 0, md.CharacterCount)
	assert.Equal(t, 2, md.LocationCount)
	assert.Equal(t, 0.0, md.EstimatedBudget)
	assert.Equal(t, DefaultBudgetCategory, md.BudgetCategory)
}

func TestDeriveMetadataNumericForms(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want float64
	}{
		{"float64", 99.5, 99.5},
		{"int", 100, 100.0},
		{"int64", int64(250), 250.0},
		{"json number", json.Number("1234.5"), 1234.5},
		{"bad json number", json.Number("nope"), 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := EmptyRecord()
			rec.CostBreakdown["total_costs"] = tt.raw
			assert.Equal(t, tt.want, DeriveMetadata(rec).EstimatedBudget)
		})
	}
}
