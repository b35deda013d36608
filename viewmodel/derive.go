package viewmodel

import (
	"sort"
	"strings"
	"time"

	"todoapp/model"
)

// dueDateFormats are tried in order when interpreting a stored due date.
// Date-only values compare by calendar date; full timestamps compare as is.
var dueDateFormats = []string{"2006-01-02", time.RFC3339}

// dueDateKey parses a stored due date. ok is false for the sentinel and for
// anything unparsable; those sort after every dated task.
func dueDateKey(s string) (time.Time, bool) {
	if s == "" || s == model.NoDueDate {
		return time.Time{}, false
	}
	for _, layout := range dueDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func lessByDueDate(a, b model.Task) bool {
	at, aok := dueDateKey(a.DueDate)
	bt, bok := dueDateKey(b.DueDate)
	if aok != bok {
		return aok
	}
	if !aok {
		return false
	}
	return at.Before(bt)
}

// Derive computes the displayed list from a task set and the transient UI
// state: due date ascending with undated tasks last, then the completion
// filter, then a case-insensitive substring search on the text. Pure; the
// same inputs always yield the same sequence.
func Derive(tasks []model.Task, filter, search string) []model.Task {
	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool { return lessByDueDate(sorted[i], sorted[j]) })

	needle := strings.ToLower(search)
	out := make([]model.Task, 0, len(sorted))
	for _, t := range sorted {
		switch filter {
		case model.FilterCompleted:
			if !t.Completed {
				continue
			}
		case model.FilterPending:
			if t.Completed {
				continue
			}
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Text), needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}
