// Package selection narrows a list of property records for output.
package selection

import (
	"strings"

	"github.com/phobologic/docmeta/internal/docprops"
	"github.com/phobologic/docmeta/internal/model"
)

// Limit returns the first n records. If n is <= 0 or >= len(records), all
// records are returned.
func Limit(records []docprops.Record, n int) []docprops.Record {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[:n]
}

// FilterBySymbol returns the records whose name contains substr
// (case-insensitive), together with the records related to them: the
// members of a matched class and the class of a matched member.
//
// If no record name matches, slot names are searched instead and the
// owning class records are returned with their slots trimmed to the
// matching ones.
func FilterBySymbol(records []docprops.Record, substr string) []docprops.Record {
	lower := strings.ToLower(substr)

	matchedClasses := make(map[string]struct{})
	owners := make(map[string]struct{})
	matched := make([]bool, len(records))
	found := false
	for i := range records {
		r := &records[i]
		if !strings.Contains(strings.ToLower(r.Name), lower) {
			continue
		}
		matched[i] = true
		found = true
		if r.Kind == model.Class && r.Class == "" {
			matchedClasses[r.Name] = struct{}{}
		}
		if r.Class != "" {
			owners[r.Class] = struct{}{}
		}
	}

	if !found {
		return filterBySlot(records, lower)
	}

	var out []docprops.Record
	for i := range records {
		r := &records[i]
		isClass := r.Kind == model.Class && r.Class == ""
		_, isOwner := owners[r.Name]
		_, ownerMatched := matchedClasses[r.Class]
		if matched[i] || (isClass && isOwner) || (r.Class != "" && ownerMatched) {
			out = append(out, *r)
		}
	}
	return out
}

func filterBySlot(records []docprops.Record, lower string) []docprops.Record {
	var out []docprops.Record
	for i := range records {
		r := records[i]
		var slots []docprops.SlotRecord
		for _, s := range r.Slots {
			if strings.Contains(strings.ToLower(s.Name), lower) {
				slots = append(slots, s)
			}
		}
		if len(slots) == 0 {
			continue
		}
		r.Slots = slots
		out = append(out, r)
	}
	return out
}

// FilterByFile returns the records defined in files whose path contains
// substr (case-insensitive).
func FilterByFile(records []docprops.Record, substr string) []docprops.Record {
	lower := strings.ToLower(substr)

	var out []docprops.Record
	for i := range records {
		if strings.Contains(strings.ToLower(records[i].File), lower) {
			out = append(out, records[i])
		}
	}
	return out
}
