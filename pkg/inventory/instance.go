// Package inventory holds the instance record and its relationship records as
// exchanged with the inventory storage modules.
package inventory

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// JSON keys of the relationship lists declared on an instance.
const (
	ParentInstancesKey  = "parentInstances"
	ChildInstancesKey   = "childInstances"
	PrecedingTitlesKey  = "precedingTitles"
	SucceedingTitlesKey = "succeedingTitles"
)

// Instance is the catalog record being updated. Only the fields this service
// reads are modelled; the remaining fields travel untouched in the raw request body.
type Instance struct {
	ID             string `json:"id" validate:"required"`
	HRID           string `json:"hrid,omitempty"`
	Source         string `json:"source" validate:"required"`
	Title          string `json:"title" validate:"required"`
	InstanceTypeID string `json:"instanceTypeId" validate:"required"`

	ParentInstances  []ParentInstance  `json:"parentInstances,omitempty" validate:"dive"`
	ChildInstances   []ChildInstance   `json:"childInstances,omitempty" validate:"dive"`
	PrecedingTitles  []PrecedingTitle  `json:"precedingTitles,omitempty" validate:"dive"`
	SucceedingTitles []SucceedingTitle `json:"succeedingTitles,omitempty" validate:"dive"`
}

// ParentInstance declares that the instance is a sub instance of SuperInstanceID.
type ParentInstance struct {
	ID                         string `json:"id,omitempty" validate:"omitempty,recordid"`
	SuperInstanceID            string `json:"superInstanceId" validate:"required"`
	InstanceRelationshipTypeID string `json:"instanceRelationshipTypeId" validate:"required"`
}

// ChildInstance declares that SubInstanceID is a sub instance of the instance.
type ChildInstance struct {
	ID                         string `json:"id,omitempty" validate:"omitempty,recordid"`
	SubInstanceID              string `json:"subInstanceId" validate:"required"`
	InstanceRelationshipTypeID string `json:"instanceRelationshipTypeId" validate:"required"`
}

// PrecedingTitle declares a title that precedes the instance. PrecedingInstanceID
// is empty for titles that are not connected to an instance in the catalog.
type PrecedingTitle struct {
	ID                  string       `json:"id,omitempty" validate:"omitempty,recordid"`
	PrecedingInstanceID string       `json:"precedingInstanceId,omitempty"`
	Title               string       `json:"title,omitempty"`
	HRID                string       `json:"hrid,omitempty"`
	Identifiers         []Identifier `json:"identifiers,omitempty"`
}

// SucceedingTitle declares a title that succeeds the instance.
type SucceedingTitle struct {
	ID                   string       `json:"id,omitempty" validate:"omitempty,recordid"`
	SucceedingInstanceID string       `json:"succeedingInstanceId,omitempty"`
	Title                string       `json:"title,omitempty"`
	HRID                 string       `json:"hrid,omitempty"`
	Identifiers          []Identifier `json:"identifiers,omitempty"`
}

// StorageRepresentation removes the relationship lists from a raw instance body.
// Instance storage does not accept them; they are persisted in their own collections.
func StorageRepresentation(raw []byte) ([]byte, error) {
	out := raw
	for _, key := range []string{ParentInstancesKey, ChildInstancesKey, PrecedingTitlesKey, SucceedingTitlesKey} {
		var err error
		out, err = sjson.DeleteBytes(out, key)
		if err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return out, nil
}
