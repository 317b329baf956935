package domain

// ChangeSet is the outcome of comparing two consecutive snapshots.
type ChangeSet struct {
	// New holds channel ids absent from the previous snapshot.
	New map[string]struct{}
	// Changed holds channel ids whose signature differs from the
	// previous snapshot.
	Changed map[string]struct{}
	// Ended holds channel ids present previously but absent now.
	Ended map[string]struct{}
}

// DetectChanges compares current signatures against the previous
// cycle's. Pure: identical inputs always yield identical output.
func DetectChanges(current, previous map[string]string) ChangeSet {
	cs := ChangeSet{
		New:     make(map[string]struct{}),
		Changed: make(map[string]struct{}),
		Ended:   make(map[string]struct{}),
	}

	for id, sig := range current {
		prev, ok := previous[id]
		switch {
		case !ok:
			cs.New[id] = struct{}{}
		case prev != sig:
			cs.Changed[id] = struct{}{}
		}
	}

	for id := range previous {
		if _, ok := current[id]; !ok {
			cs.Ended[id] = struct{}{}
		}
	}

	return cs
}

// AllChanged returns the union of new and changed ids. These are the
// streams that need re-enrichment and re-embedding.
func (c ChangeSet) AllChanged() map[string]struct{} {
	all := make(map[string]struct{}, len(c.New)+len(c.Changed))
	for id := range c.New {
		all[id] = struct{}{}
	}
	for id := range c.Changed {
		all[id] = struct{}{}
	}
	return all
}

// HasChanges reports whether any stream is new or changed.
func (c ChangeSet) HasChanges() bool {
	return len(c.New) > 0 || len(c.Changed) > 0
}
