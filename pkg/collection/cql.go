package collection

import "strings"

// CQL is a query in the storage modules' contextual query language.
type CQL string

// FieldIn renders `field==(v1 or v2 ...)`. Duplicate values are dropped, keeping first-seen order.
// With no values the clause is empty.
func FieldIn(field string, values ...string) CQL {
	seen := make(map[string]struct{}, len(values))
	distinct := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	if len(distinct) == 0 {
		return ""
	}
	return CQL(field + "==(" + strings.Join(distinct, " or ") + ")")
}

// Or joins the non-empty clauses with " or ".
func Or(clauses ...CQL) CQL {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, string(c))
		}
	}
	return CQL(strings.Join(parts, " or "))
}

func (q CQL) String() string {
	return string(q)
}
