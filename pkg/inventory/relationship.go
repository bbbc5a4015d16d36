package inventory

import (
	"slices"
	"strings"
)

// InstanceRelationship is a record of the instance-relationships collection:
// SuperInstanceID is the parent, SubInstanceID the child.
type InstanceRelationship struct {
	ID                         string `json:"id"`
	SuperInstanceID            string `json:"superInstanceId"`
	SubInstanceID              string `json:"subInstanceId"`
	InstanceRelationshipTypeID string `json:"instanceRelationshipTypeId"`
}

// RecordID returns the storage id.
func (r InstanceRelationship) RecordID() string {
	return r.ID
}

// Equivalent compares everything but the id.
func (r InstanceRelationship) Equivalent(other InstanceRelationship) bool {
	return r.SuperInstanceID == other.SuperInstanceID &&
		r.SubInstanceID == other.SubInstanceID &&
		r.InstanceRelationshipTypeID == other.InstanceRelationshipTypeID
}

// Identifier is a typed identifier (ISSN, OCLC number, ...) of a preceding or succeeding title.
type Identifier struct {
	Value            string `json:"value"`
	IdentifierTypeID string `json:"identifierTypeId"`
}

// PrecedingSucceedingTitle is a record of the preceding-succeeding-titles collection.
// PrecedingInstanceID precedes SucceedingInstanceID; one side may be empty for
// titles that only exist as descriptive text.
type PrecedingSucceedingTitle struct {
	ID                   string       `json:"id"`
	PrecedingInstanceID  string       `json:"precedingInstanceId,omitempty"`
	SucceedingInstanceID string       `json:"succeedingInstanceId,omitempty"`
	Title                string       `json:"title,omitempty"`
	HRID                 string       `json:"hrid,omitempty"`
	Identifiers          []Identifier `json:"identifiers,omitempty"`
}

// RecordID returns the storage id.
func (t PrecedingSucceedingTitle) RecordID() string {
	return t.ID
}

// Equivalent compares everything but the id. Identifier order does not matter.
func (t PrecedingSucceedingTitle) Equivalent(other PrecedingSucceedingTitle) bool {
	return t.PrecedingInstanceID == other.PrecedingInstanceID &&
		t.SucceedingInstanceID == other.SucceedingInstanceID &&
		t.Title == other.Title &&
		t.HRID == other.HRID &&
		sameIdentifiers(t.Identifiers, other.Identifiers)
}

func sameIdentifiers(a, b []Identifier) bool {
	if len(a) != len(b) {
		return false
	}
	return slices.Equal(sortedIdentifiers(a), sortedIdentifiers(b))
}

func sortedIdentifiers(ids []Identifier) []Identifier {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(x, y Identifier) int {
		if c := strings.Compare(x.IdentifierTypeID, y.IdentifierTypeID); c != 0 {
			return c
		}
		return strings.Compare(x.Value, y.Value)
	})
	return out
}
