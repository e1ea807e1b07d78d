package ecs

import "github.com/milk9111/surfacemotor/ecs/component"

// Query returns the live entities that have every listed component.
func (w *World) Query(kinds ...component.Kind) []Entity {
	if w == nil || len(kinds) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(kinds))
	for _, k := range kinds {
		if k == nil {
			return nil
		}
		s := w.store(k.ID(), false)
		if s == nil {
			return nil
		}
		sets = append(sets, s)
	}

	ids := append([]int(nil), sets[0].Entities()...)
	for _, s := range sets[1:] {
		filtered := ids[:0]
		for _, id := range ids {
			if s.Has(id) {
				filtered = append(filtered, id)
			}
		}
		ids = filtered
	}

	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := w.entities.entity(entityID(id)); ok {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first live entity with every listed component.
func (w *World) First(kinds ...component.Kind) (Entity, bool) {
	ents := w.Query(kinds...)
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}
