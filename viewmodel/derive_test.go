package viewmodel

import (
	"testing"

	"todoapp/model"

	"github.com/stretchr/testify/assert"
)

func TestDerive_Deterministic(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Text: "Buy milk", DueDate: "2024-01-05"},
		{ID: "b", Text: "Walk dog", DueDate: model.NoDueDate, Completed: true},
		{ID: "c", Text: "Pay rent", DueDate: "2024-01-01"},
	}

	first := Derive(tasks, model.FilterAll, "")
	second := Derive(tasks, model.FilterAll, "")

	assert.Equal(t, first, second)
}

func TestDerive_SortsByDueDateSentinelLast(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", DueDate: "2024-01-05"},
		{ID: "b", DueDate: model.NoDueDate},
		{ID: "c", DueDate: "2024-01-01"},
	}

	got := Derive(tasks, model.FilterAll, "")

	assert.Equal(t, []string{"c", "a", "b"}, ids(got))

	// Arrival order must not matter.
	reversed := []model.Task{tasks[1], tasks[0], tasks[2]}
	assert.Equal(t, []string{"c", "a", "b"}, ids(Derive(reversed, model.FilterAll, "")))
}

func TestDerive_UnparsableDueDateSortsLast(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", DueDate: "next tuesday"},
		{ID: "b", DueDate: "2024-06-01"},
	}

	got := Derive(tasks, model.FilterAll, "")

	assert.Equal(t, []string{"b", "a"}, ids(got))
}

func TestDerive_Filter(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Completed: true, DueDate: model.NoDueDate},
		{ID: "b", Completed: false, DueDate: model.NoDueDate},
	}

	assert.Equal(t, []string{"b"}, ids(Derive(tasks, model.FilterPending, "")))
	assert.Equal(t, []string{"a"}, ids(Derive(tasks, model.FilterCompleted, "")))
	assert.Equal(t, []string{"a", "b"}, ids(Derive(tasks, model.FilterAll, "")))
}

func TestDerive_SearchCaseInsensitive(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Text: "Buy milk", DueDate: model.NoDueDate},
		{ID: "b", Text: "Walk dog", DueDate: model.NoDueDate},
	}

	assert.Equal(t, []string{"a"}, ids(Derive(tasks, model.FilterAll, "MILK")))
	assert.Equal(t, []string{"a", "b"}, ids(Derive(tasks, model.FilterAll, "")))
	assert.Empty(t, ids(Derive(tasks, model.FilterAll, "cat")))
}

func TestDerive_FullTimestampOrders(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", DueDate: "2024-03-01T18:00:00Z"},
		{ID: "b", DueDate: "2024-03-01T09:00:00Z"},
	}

	assert.Equal(t, []string{"b", "a"}, ids(Derive(tasks, model.FilterAll, "")))
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
