package slugs

import (
	"sort"

	"github.com/src-d/schedule-slugs/reporter"
)

// Collision is a slug shared by differently named entries of the same kind.
// Such entries would end up behind the same URL.
type Collision struct {
	Kind  Kind
	Slug  string
	Names []string
	IDs   []int64
}

type slugKey struct {
	kind Kind
	slug string
}

// Collisions groups the entries by kind and slug and returns the groups
// which mix different names, ordered by kind and slug. The same name listed
// twice is a duplicate, not a collision.
func (s Schedule) Collisions() []Collision {
	groups := map[slugKey][]*Entry{}
	s.ForEach(func(id int64, e *Entry) bool {
		if hasAlphanumeric(e.Slug) {
			key := slugKey{e.Kind, e.Slug}
			groups[key] = append(groups[key], e)
		}
		return false
	})

	var result []Collision
	for key, entries := range groups {
		names := make([]string, 0, len(entries))
		ids := make([]int64, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
			ids = append(ids, e.ID)
		}
		names = unique(names)
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		result = append(result, Collision{Kind: key.kind, Slug: key.slug, Names: names, IDs: ids})
		reporter.Increment("slug collisions")
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind < result[j].Kind
		}
		return result[i].Slug < result[j].Slug
	})
	return result
}
