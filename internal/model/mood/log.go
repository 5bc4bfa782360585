package mood

import "time"

// Log is a persisted journal entry: the submitted text plus the assessment
// the caller chose to keep, flattened for storage.
type Log struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MoodText  string    `json:"moodText"`
	Insight   string    `json:"insight"`
	MoodScore int       `json:"moodScore"`
	Emotions  []string  `json:"emotions"`
	Tips      []string  `json:"tips"`
	Closing   string    `json:"closing"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
