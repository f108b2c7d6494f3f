package coverage

import (
	"strings"

	"github.com/sqltutor/sqltutor-be/internal/entity"
)

// Fixed SQL concept catalog. Coverage stats always iterate this full set,
// counting concepts with no evidence as score 0 / low confidence.
const (
	ConceptSelectBasics = "sql.select-basics"
	ConceptFiltering    = "sql.filtering"
	ConceptOrdering     = "sql.ordering"
	ConceptJoins        = "sql.joins"
	ConceptAggregation  = "sql.aggregation"
	ConceptSubqueries   = "sql.subqueries"
	ConceptNullHandling = "sql.null-handling"
	ConceptDataTypes    = "sql.data-types"
	ConceptGrouping     = "sql.grouping"
	ConceptSetOps       = "sql.set-operations"
)

// DefaultCatalog returns the fixed concept set in stable order.
func DefaultCatalog() []string {
	return []string{
		ConceptSelectBasics, ConceptFiltering, ConceptOrdering, ConceptJoins,
		ConceptAggregation, ConceptSubqueries, ConceptNullHandling,
		ConceptDataTypes, ConceptGrouping, ConceptSetOps,
	}
}

// DefaultSubtypeConcepts is the explicit errorSubtypeId -> concept table.
// Consulted before any pattern rule; the database seeder mirrors this table
// so deployments can extend it without a rebuild.
func DefaultSubtypeConcepts() map[string][]string {
	return map[string][]string{
		"incomplete-query":           {ConceptSelectBasics},
		"unknown-column":             {ConceptSelectBasics},
		"ambiguous-column":           {ConceptJoins},
		"missing-join-condition":     {ConceptJoins},
		"cartesian-product":          {ConceptJoins},
		"aggregate-without-group-by": {ConceptAggregation, ConceptGrouping},
		"having-without-group-by":    {ConceptGrouping},
		"subquery-returns-many":      {ConceptSubqueries},
		"null-comparison":            {ConceptNullHandling},
		"type-mismatch":              {ConceptDataTypes},
		"invalid-order-by":           {ConceptOrdering},
		"union-column-mismatch":      {ConceptSetOps},
	}
}

// patternRule maps a substring of the error subtype text to concepts.
// Order matters: first match wins.
type patternRule struct {
	needle   string
	concepts []string
}

var patternRules = []patternRule{
	{"join", []string{ConceptJoins}},
	{"ambiguous", []string{ConceptJoins}},
	{"group", []string{ConceptGrouping}},
	{"aggregate", []string{ConceptAggregation}},
	{"having", []string{ConceptGrouping}},
	{"subquery", []string{ConceptSubqueries}},
	{"nested", []string{ConceptSubqueries}},
	{"null", []string{ConceptNullHandling}},
	{"type", []string{ConceptDataTypes}},
	{"conversion", []string{ConceptDataTypes}},
	{"order", []string{ConceptOrdering}},
	{"sort", []string{ConceptOrdering}},
	{"union", []string{ConceptSetOps}},
	{"where", []string{ConceptFiltering}},
	{"filter", []string{ConceptFiltering}},
	{"syntax", []string{ConceptSelectBasics}},
	{"incomplete", []string{ConceptSelectBasics}},
}

// Mapper resolves events to concept ids.
type Mapper struct {
	catalog  []string
	subtypes map[string][]string
}

// NewMapper builds a Mapper. Nil or empty arguments fall back to the
// compiled-in catalog and subtype table.
func NewMapper(catalog []string, subtypes map[string][]string) *Mapper {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	if len(subtypes) == 0 {
		subtypes = DefaultSubtypeConcepts()
	}
	return &Mapper{catalog: catalog, subtypes: subtypes}
}

// Catalog returns the fixed concept set in stable order.
func (m *Mapper) Catalog() []string {
	out := make([]string, len(m.catalog))
	copy(out, m.catalog)
	return out
}

// MapToConcepts resolves the concepts an event is evidence for.
// Explicit conceptIds on the event win; otherwise the subtype table is
// consulted, then pattern rules over the subtype text.
func (m *Mapper) MapToConcepts(event *entity.InteractionEvent) []string {
	if len(event.ConceptIDs) > 0 {
		out := make([]string, len(event.ConceptIDs))
		copy(out, event.ConceptIDs)
		return out
	}
	if event.ErrorSubtypeID == "" {
		return nil
	}
	if concepts, ok := m.subtypes[event.ErrorSubtypeID]; ok {
		out := make([]string, len(concepts))
		copy(out, concepts)
		return out
	}

	// Unmapped subtype: fall back to pattern matching on its text.
	text := strings.ToLower(event.ErrorSubtypeID)
	for _, rule := range patternRules {
		if strings.Contains(text, rule.needle) {
			out := make([]string, len(rule.concepts))
			copy(out, rule.concepts)
			return out
		}
	}
	return nil
}
