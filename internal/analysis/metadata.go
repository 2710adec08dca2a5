package analysis

import "encoding/json"

// DefaultBudgetCategory is used when the cost breakdown carries no
// budget_category of its own.
const DefaultBudgetCategory = "Medium"

// Metadata holds the rollup fields derived from a canonical record. They are
// denormalized onto the stored script row so lists and project rollups never
// have to traverse the JSON documents.
type Metadata struct {
	SceneCount      int
	CharacterCount  int
	LocationCount   int
	EstimatedBudget float64
	BudgetCategory  string
}

// DeriveMetadata computes summary metadata from a canonical record.
// Extraction is best-effort: counts come from the script_data sequences when
// they are sequences, the budget from cost_breakdown.total_costs when it is
// numeric, and anything absent or oddly typed falls back to zero values and
// DefaultBudgetCategory. CharacterCount counts list entries, not unique
// names; deduplication is the analyzer's job.
func DeriveMetadata(rec CanonicalRecord) Metadata {
	md := Metadata{BudgetCategory: DefaultBudgetCategory}

	md.SceneCount = sequenceLen(rec.ScriptData["scenes"])
	md.CharacterCount = sequenceLen(rec.ScriptData["total_characters"])
	md.LocationCount = sequenceLen(rec.ScriptData["total_locations"])

	if budget, ok := numeric(rec.CostBreakdown["total_costs"]); ok {
		md.EstimatedBudget = budget
	}
	if category, ok := rec.CostBreakdown["budget_category"].(string); ok {
		md.BudgetCategory = category
	}
	return md
}

func sequenceLen(v interface{}) int {
	if items, ok := v.([]interface{}); ok {
		return len(items)
	}
	return 0
}

func numeric(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
