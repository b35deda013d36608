package model

import "time"

// Comment is one record of a task's comments sub-collection. Comments are
// append-only; there is no edit or delete.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	Author    string    `json:"uid"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentFromDoc decodes one feed document from a comments sub-collection.
func CommentFromDoc(taskID, id string, data map[string]interface{}) Comment {
	c := Comment{ID: id, TaskID: taskID}
	if v, ok := data["uid"].(string); ok {
		c.Author = v
	}
	if v, ok := data["text"].(string); ok {
		c.Text = v
	}
	if v, ok := data["createdAt"].(time.Time); ok {
		c.CreatedAt = v
	}
	return c
}
