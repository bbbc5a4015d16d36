package related

import (
	"github.com/OFFIS-RIT/inventory-sync/pkg/inventory"
	"github.com/OFFIS-RIT/inventory-sync/pkg/reconcile"
)

// IDGenerator returns a fresh, globally unique record id.
type IDGenerator func() string

// idPool hands out generated ids that are neither declared on the instance
// nor used by an existing record.
type idPool struct {
	newID IDGenerator
	taken map[string]struct{}
}

func newIDPool(newID IDGenerator, existing []string, declared ...string) *idPool {
	p := &idPool{newID: newID, taken: make(map[string]struct{}, len(existing)+len(declared))}
	for _, id := range existing {
		p.taken[id] = struct{}{}
	}
	for _, id := range declared {
		if id != "" {
			p.taken[id] = struct{}{}
		}
	}
	return p
}

// idFor returns declared when set, a fresh id otherwise.
func (p *idPool) idFor(declared string) string {
	if declared != "" {
		return declared
	}
	for {
		id := p.newID()
		if _, taken := p.taken[id]; !taken {
			p.taken[id] = struct{}{}
			return id
		}
	}
}

// DesiredRelationships builds the instance-relationship set declared by inst.
// Parents become super -> inst links, children inst -> sub links. Entries
// without an id get a generated one that collides with no declared id and
// none of the existing ids.
func DesiredRelationships(inst inventory.Instance, newID IDGenerator, existing []string) reconcile.Set[inventory.InstanceRelationship] {
	declared := make([]string, 0, len(inst.ParentInstances)+len(inst.ChildInstances))
	for _, parent := range inst.ParentInstances {
		declared = append(declared, parent.ID)
	}
	for _, child := range inst.ChildInstances {
		declared = append(declared, child.ID)
	}
	ids := newIDPool(newID, existing, declared...)

	set := make(reconcile.Set[inventory.InstanceRelationship], len(declared))
	for _, parent := range inst.ParentInstances {
		id := ids.idFor(parent.ID)
		set[id] = inventory.InstanceRelationship{
			ID:                         id,
			SuperInstanceID:            parent.SuperInstanceID,
			SubInstanceID:              inst.ID,
			InstanceRelationshipTypeID: parent.InstanceRelationshipTypeID,
		}
	}

	for _, child := range inst.ChildInstances {
		id := ids.idFor(child.ID)
		set[id] = inventory.InstanceRelationship{
			ID:                         id,
			SuperInstanceID:            inst.ID,
			SubInstanceID:              child.SubInstanceID,
			InstanceRelationshipTypeID: child.InstanceRelationshipTypeID,
		}
	}

	return set
}

// DesiredTitles builds the preceding/succeeding title set declared by inst.
// Preceding titles become preceding -> inst links, succeeding titles inst -> succeeding links.
func DesiredTitles(inst inventory.Instance, newID IDGenerator, existing []string) reconcile.Set[inventory.PrecedingSucceedingTitle] {
	declared := make([]string, 0, len(inst.PrecedingTitles)+len(inst.SucceedingTitles))
	for _, preceding := range inst.PrecedingTitles {
		declared = append(declared, preceding.ID)
	}
	for _, succeeding := range inst.SucceedingTitles {
		declared = append(declared, succeeding.ID)
	}
	ids := newIDPool(newID, existing, declared...)

	set := make(reconcile.Set[inventory.PrecedingSucceedingTitle], len(declared))
	for _, preceding := range inst.PrecedingTitles {
		id := ids.idFor(preceding.ID)
		set[id] = inventory.PrecedingSucceedingTitle{
			ID:                   id,
			PrecedingInstanceID:  preceding.PrecedingInstanceID,
			SucceedingInstanceID: inst.ID,
			Title:                preceding.Title,
			HRID:                 preceding.HRID,
			Identifiers:          preceding.Identifiers,
		}
	}

	for _, succeeding := range inst.SucceedingTitles {
		id := ids.idFor(succeeding.ID)
		set[id] = inventory.PrecedingSucceedingTitle{
			ID:                   id,
			PrecedingInstanceID:  inst.ID,
			SucceedingInstanceID: succeeding.SucceedingInstanceID,
			Title:                succeeding.Title,
			HRID:                 succeeding.HRID,
			Identifiers:          succeeding.Identifiers,
		}
	}

	return set
}
