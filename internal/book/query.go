package book

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gitlab.com/dirk.krummacker/contactbook-service/internal/model"
)

// Sort keys accepted by View. Any other key leaves the input order
// untouched.
const (
	SortByName  = "name"
	SortByDate  = "date"
	SortByGroup = "group"
)

// View is the query engine: a pure function from the collection and the
// query parameters to the ordered sequence the caller renders. The input
// slice is never mutated. Search is applied first, then the group filter,
// then the sort; the sort is stable, so ties keep their prior relative
// order. An empty result is simply an empty slice; callers that need to
// distinguish "no matches" from "no contacts at all" inspect the
// unfiltered collection size.
func View(contacts []model.Contact, search string, group string, sortBy string) []model.Contact {
	view := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if matchesSearch(c, search) && matchesGroup(c, group) {
			view = append(view, c)
		}
	}
	switch sortBy {
	case SortByName:
		col := collate.New(language.Und)
		sort.SliceStable(view, func(i, j int) bool {
			return col.CompareString(view[i].FullName(), view[j].FullName()) < 0
		})
	case SortByDate:
		sort.SliceStable(view, func(i, j int) bool {
			return addedAfter(view[i], view[j])
		})
	case SortByGroup:
		col := collate.New(language.Und)
		sort.SliceStable(view, func(i, j int) bool {
			return col.CompareString(view[i].Group, view[j].Group) < 0
		})
	}
	return view
}

// matchesSearch reports whether the contact matches the search query with
// a substring match on the full name, phone, email, or company. Name,
// email, and company match case-insensitively; phone numbers are not
// cased, so the raw string is compared. An empty query matches everything.
func matchesSearch(c model.Contact, query string) bool {
	if query == "" {
		return true
	}
	lower := strings.ToLower(query)
	return strings.Contains(strings.ToLower(c.FullName()), lower) ||
		strings.Contains(c.Phone, query) ||
		strings.Contains(strings.ToLower(c.Email), lower) ||
		strings.Contains(strings.ToLower(c.Company), lower)
}

// matchesGroup reports whether the contact belongs to the given group.
// The comparison is exact and case-sensitive; an empty filter matches
// everything.
func matchesGroup(c model.Contact, group string) bool {
	return group == "" || c.Group == group
}

// addedAfter reports whether a was added more recently than b, so the
// date sort puts the newest contact first. Both timestamps are parsed as
// RFC 3339; records imported with nonstandard timestamps fall back to a
// plain string comparison.
func addedAfter(a, b model.Contact) bool {
	ta, errA := time.Parse(time.RFC3339, a.DateAdded)
	tb, errB := time.Parse(time.RFC3339, b.DateAdded)
	if errA != nil || errB != nil {
		return a.DateAdded > b.DateAdded
	}
	return ta.After(tb)
}
