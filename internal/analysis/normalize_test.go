package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapperPayload struct {
	m map[string]interface{}
}

func (p mapperPayload) AnalysisMap() map[string]interface{} {
	return p.m
}

func fullAnalysisMap() map[string]interface{} {
	return map[string]interface{}{
		"script_data": map[string]interface{}{
			"scenes":           []interface{}{map[string]interface{}{"number": 1.0}, map[string]interface{}{"number": 2.0}},
			"total_characters": []interface{}{"RIPLEY", "DALLAS", "ASH"},
			"total_locations":  []interface{}{"NOSTROMO BRIDGE"},
		},
		"cast_breakdown": map[string]interface{}{"leads": []interface{}{"RIPLEY"}},
		"cost_breakdown": map[string]interface{}{
			"total_costs":     125000.0,
			"budget_category": "High",
		},
		"location_breakdown": map[string]interface{}{"stages": 2.0},
		"props_breakdown":    map[string]interface{}{"hero_props": []interface{}{"flamethrower"}},
	}
}

func TestNormalizeShapeCoverage(t *testing.T) {
	canonical := fullAnalysisMap()
	want := Normalize(canonical)
	require.False(t, want.IsEmpty())

	tests := []struct {
		name string
		raw  interface{}
	}{
		{"canonical", fullAnalysisMap()},
		{"data wrapped", map[string]interface{}{"data": fullAnalysisMap()}},
		{"comprehensive wrapped", map[string]interface{}{"comprehensive_analysis": fullAnalysisMap()}},
		{"mapper object", mapperPayload{m: fullAnalysisMap()}},
		{"data wrapped mapper", map[string]interface{}{"data": mapperPayload{m: fullAnalysisMap()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, Normalize(tt.raw))
		})
	}
}

func TestNormalizePartialMap(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"script_data": map[string]interface{}{"scenes": []interface{}{}},
		"unrelated":   "ignored",
	})

	assert.Equal(t, map[string]interface{}{"scenes": []interface{}{}}, rec.ScriptData)
	assert.Empty(t, rec.CastBreakdown)
	assert.Empty(t, rec.CostBreakdown)
	assert.Empty(t, rec.LocationBreakdown)
	assert.Empty(t, rec.PropsBreakdown)
	assert.NotNil(t, rec.CostBreakdown)
}

func TestNormalizePrefersCanonicalOverWrappers(t *testing.T) {
	// A payload carrying all five keys is taken as-is even when a data key
	// is also present.
	raw := fullAnalysisMap()
	raw["data"] = map[string]interface{}{"script_data": map[string]interface{}{"scenes": []interface{}{1.0, 2.0, 3.0, 4.0}}}

	rec := Normalize(raw)
	md := DeriveMetadata(rec)
	assert.Equal(t, 2, md.SceneCount)
}

func TestNormalizeDegradation(t *testing.T) {
	for _, raw := range []interface{}{42, "not a map", nil, []interface{}{"a"}, 3.14} {
		rec := Normalize(raw)
		assert.True(t, rec.IsEmpty(), "payload %v should degrade to an empty record", raw)
		assert.NotNil(t, rec.ScriptData)
	}
}

func TestNormalizeNilMapperResult(t *testing.T) {
	rec := Normalize(mapperPayload{m: nil})
	assert.True(t, rec.IsEmpty())
}

func TestNormalizeNonMapSubDocument(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"script_data":        "corrupted",
		"cast_breakdown":     map[string]interface{}{"leads": []interface{}{}},
		"cost_breakdown":     42.0,
		"location_breakdown": map[string]interface{}{},
		"props_breakdown":    nil,
	})

	assert.Empty(t, rec.ScriptData)
	assert.NotNil(t, rec.ScriptData)
	assert.Equal(t, map[string]interface{}{"leads": []interface{}{}}, rec.CastBreakdown)
	assert.Empty(t, rec.PropsBreakdown)
}
