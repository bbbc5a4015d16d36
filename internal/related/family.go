package related

import (
	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"
	"github.com/OFFIS-RIT/inventory-sync/pkg/inventory"
	"github.com/OFFIS-RIT/inventory-sync/pkg/reconcile"
)

// Family describes one kind of related record and the collection it lives in.
type Family[T reconcile.Record[T]] struct {
	// Name identifies the phase in logs and reports.
	Name string
	// Path is the collection path below the Okapi URL.
	Path string
	// ResultsKey is the array property of the collection's list response.
	ResultsKey string
	// Query selects every record in which one of ids appears on either end.
	Query func(ids ...string) collection.CQL
	// Desired builds the record set declared on an instance.
	// existing holds the ids of the stored records; generated ids avoid them.
	Desired func(inst inventory.Instance, newID IDGenerator, existing []string) reconcile.Set[T]
}

// InstanceRelationships are the parent/child links between instances.
var InstanceRelationships = Family[inventory.InstanceRelationship]{
	Name:       "instance-relationships",
	Path:       "/instance-storage/instance-relationships",
	ResultsKey: "instanceRelationships",
	Query: func(ids ...string) collection.CQL {
		return collection.Or(
			collection.FieldIn("subInstanceId", ids...),
			collection.FieldIn("superInstanceId", ids...),
		)
	},
	Desired: DesiredRelationships,
}

// PrecedingSucceedingTitles are the title succession links between instances.
var PrecedingSucceedingTitles = Family[inventory.PrecedingSucceedingTitle]{
	Name:       "preceding-succeeding-titles",
	Path:       "/preceding-succeeding-titles",
	ResultsKey: "precedingSucceedingTitles",
	Query: func(ids ...string) collection.CQL {
		return collection.Or(
			collection.FieldIn("succeedingInstanceId", ids...),
			collection.FieldIn("precedingInstanceId", ids...),
		)
	},
	Desired: DesiredTitles,
}
