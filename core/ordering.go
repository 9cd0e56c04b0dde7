package core

import (
	"sort"
	"strings"
)

type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrderings parses a comma separated list of fields; a leading "-" means descending.
func ParseOrderings(val string) []Ordering {
	var ords []Ordering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ords = append(ords, Ordering{Field: field, Ascending: !descending})
	}
	return ords
}

// OrderKeys maps an ordering field name to the sort key of an item.
type OrderKeys[T any] map[string]func(T) string

// Order stable-sorts items in place. Unknown fields are ignored.
func Order[T any](items []T, orderings []Ordering, keys OrderKeys[T]) {
	valid := make([]Ordering, 0, len(orderings))
	for _, ord := range orderings {
		if _, ok := keys[ord.Field]; ok {
			valid = append(valid, ord)
		}
	}
	if len(valid) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range valid {
			key := keys[ord.Field]
			a, b := key(items[i]), key(items[j])
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return false
	})
}
