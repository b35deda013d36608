package model

// Filter values persisted in a user's settings document.
const (
	FilterAll       = "all"
	FilterCompleted = "completed"
	FilterPending   = "pending"
)

// ValidFilter reports whether s is one of the known filter values.
func ValidFilter(s string) bool {
	return s == FilterAll || s == FilterCompleted || s == FilterPending
}

// UserSettings is the per-user settings document. The document ID is the
// user ID, one document per user.
type UserSettings struct {
	Filter string `json:"filter"`
}

// SettingsFromDoc decodes a settings document. A missing or unknown filter
// value falls back to the default.
func SettingsFromDoc(data map[string]interface{}) UserSettings {
	s := UserSettings{Filter: FilterAll}
	if f, ok := data["filter"].(string); ok && ValidFilter(f) {
		s.Filter = f
	}
	return s
}
