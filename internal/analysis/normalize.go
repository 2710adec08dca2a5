// Package analysis reduces analyzer output, which arrives in several
// historical shapes, to the canonical five-breakdown record the store and
// the API assume.
package analysis

// CanonicalRecord is the normalized analysis shape. All five sub-documents
// are always non-nil; a sub-document missing from the payload comes back as
// an empty map.
type CanonicalRecord struct {
	ScriptData        map[string]interface{}
	CastBreakdown     map[string]interface{}
	CostBreakdown     map[string]interface{}
	LocationBreakdown map[string]interface{}
	PropsBreakdown    map[string]interface{}
}

// Mapper is the capability interface for payload types that can convert
// themselves to a plain analysis mapping. Any value implementing it is
// accepted by Normalize without type-name branching.
type Mapper interface {
	AnalysisMap() map[string]interface{}
}

const (
	keyScriptData        = "script_data"
	keyCastBreakdown     = "cast_breakdown"
	keyCostBreakdown     = "cost_breakdown"
	keyLocationBreakdown = "location_breakdown"
	keyPropsBreakdown    = "props_breakdown"
)

// Normalize reduces a raw analyzer payload to a CanonicalRecord. It accepts
// four shapes, tried in order: a mapping that already carries all five
// sub-document keys, a mapping wrapped under "data", a mapping wrapped under
// "comprehensive_analysis", and any other mapping, from which whichever
// sub-documents exist are pulled directly. Values implementing Mapper are
// converted first and then resolved the same way.
//
// Normalize never fails: payloads that are not mappings and expose no
// conversion, and sub-documents that are not mappings themselves, degrade to
// empty maps. A partially malformed payload still produces a persistable
// record.
func Normalize(raw interface{}) CanonicalRecord {
	m, ok := asMap(raw)
	if !ok {
		return EmptyRecord()
	}

	if hasAllSubDocuments(m) {
		return recordFrom(m)
	}
	if inner, ok := asMap(m["data"]); ok {
		return recordFrom(inner)
	}
	if inner, ok := asMap(m["comprehensive_analysis"]); ok {
		return recordFrom(inner)
	}
	return recordFrom(m)
}

// EmptyRecord returns a canonical record with five empty sub-documents.
func EmptyRecord() CanonicalRecord {
	return CanonicalRecord{
		ScriptData:        map[string]interface{}{},
		CastBreakdown:     map[string]interface{}{},
		CostBreakdown:     map[string]interface{}{},
		LocationBreakdown: map[string]interface{}{},
		PropsBreakdown:    map[string]interface{}{},
	}
}

// IsEmpty reports whether every sub-document is empty.
func (r CanonicalRecord) IsEmpty() bool {
	return len(r.ScriptData) == 0 && len(r.CastBreakdown) == 0 &&
		len(r.CostBreakdown) == 0 && len(r.LocationBreakdown) == 0 &&
		len(r.PropsBreakdown) == 0
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Mapper:
		if m := t.AnalysisMap(); m != nil {
			return m, true
		}
	}
	return nil, false
}

func hasAllSubDocuments(m map[string]interface{}) bool {
	for _, key := range []string{keyScriptData, keyCastBreakdown, keyCostBreakdown, keyLocationBreakdown, keyPropsBreakdown} {
		if _, ok := m[key]; !ok {
			return false
		}
	}
	return true
}

func recordFrom(m map[string]interface{}) CanonicalRecord {
	return CanonicalRecord{
		ScriptData:        subDocument(m, keyScriptData),
		CastBreakdown:     subDocument(m, keyCastBreakdown),
		CostBreakdown:     subDocument(m, keyCostBreakdown),
		LocationBreakdown: subDocument(m, keyLocationBreakdown),
		PropsBreakdown:    subDocument(m, keyPropsBreakdown),
	}
}

func subDocument(m map[string]interface{}, key string) map[string]interface{} {
	if doc, ok := m[key].(map[string]interface{}); ok && doc != nil {
		return doc
	}
	return map[string]interface{}{}
}
