package model

import "time"

// NoDueDate is stored in place of an absent due date. It sorts after every
// dated task.
const NoDueDate = "No due date"

type Task struct {
	ID        string    `json:"id"`
	Owner     string    `json:"uid"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	DueDate   string    `json:"dueDate"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskFromDoc decodes one feed document from the todos collection. Missing
// or malformed fields fall back to zero values; an absent due date becomes
// the sentinel.
func TaskFromDoc(id string, data map[string]interface{}) Task {
	t := Task{ID: id, DueDate: NoDueDate}
	if v, ok := data["uid"].(string); ok {
		t.Owner = v
	}
	if v, ok := data["text"].(string); ok {
		t.Text = v
	}
	if v, ok := data["completed"].(bool); ok {
		t.Completed = v
	}
	if v, ok := data["dueDate"].(string); ok && v != "" {
		t.DueDate = v
	}
	if v, ok := data["createdAt"].(time.Time); ok {
		t.CreatedAt = v
	}
	return t
}
