package mood

// Assessment is the canonical structured result of analyzing one free-text
// mood entry. Every field is guaranteed present and valid by the analysis
// service, even when the upstream model violates the requested schema.
type Assessment struct {
	Insight   string   `json:"insight"`
	MoodScore int      `json:"moodScore"`
	Emotions  []string `json:"emotions"`
	Tips      []string `json:"tips"`
	Closing   string   `json:"closing"`
}
