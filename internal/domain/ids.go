package domain

import mapset "github.com/deckarep/golang-set/v2"

// AddID appends id unless present. The order of existing ids is kept.
func AddID(ids []string, id string) ([]string, bool) {
	if mapset.NewThreadUnsafeSet(ids...).Contains(id) {
		return ids, false
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id), true
}

// RemoveID drops every occurrence of id.
func RemoveID(ids []string, id string) ([]string, bool) {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(out) != len(ids)
}

// MergeIDs appends the ids of extra missing from ids.
func MergeIDs(ids, extra []string) []string {
	seen := mapset.NewThreadUnsafeSet(ids...)
	out := append(make([]string, 0, len(ids)+len(extra)), ids...)
	for _, id := range extra {
		if seen.Add(id) {
			out = append(out, id)
		}
	}
	return out
}
