package mood

import (
	"encoding/json"
	"strings"

	model "github.com/mindhaven/backend/internal/model/mood"
)

// 字段修复使用的固定默认值。与其对不完整的模型输出报错，不如降级返回部分可用的结果。
var (
	defaultEmotions = []string{"thoughtful"}
	defaultTips     = []string{"Take a deep breath", "Practice mindfulness", "Reach out to a friend"}
)

const (
	defaultMoodScore = 5
	defaultClosing   = "We're here for you."
)

// extractJSONObject 在文本中定位第一个配平的 {...} 区间。模型经常把 JSON 包在
// 说明文字或代码块里，截断的响应则永远配不平。
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// repair turns whatever the model produced into a fully-populated assessment.
// Each field is validated independently and defaulted when missing or of the
// wrong type; the raw content itself becomes the insight when no JSON parses.
func repair(content string) *model.Assessment {
	parsed := map[string]any{}
	if span, ok := extractJSONObject(content); ok {
		if err := json.Unmarshal([]byte(span), &parsed); err != nil {
			parsed = map[string]any{}
		}
	}

	insight := stringField(parsed, "insight")
	if insight == "" {
		// 旧版本的提示词用 response 作为主文本键，存量模型偶尔仍会返回它。
		insight = stringField(parsed, "response")
	}
	if insight == "" {
		insight = strings.TrimSpace(content)
	}

	return &model.Assessment{
		Insight:   insight,
		MoodScore: scoreField(parsed, "moodScore"),
		Emotions:  listField(parsed, "emotions", defaultEmotions),
		Tips:      listField(parsed, "tips", defaultTips),
		Closing:   closingField(parsed),
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func scoreField(m map[string]any, key string) int {
	v, ok := m[key].(float64)
	if !ok {
		return defaultMoodScore
	}
	score := int(v)
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

func listField(m map[string]any, key string, fallback []string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return fallback
	}
	items := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func closingField(m map[string]any) string {
	if closing := stringField(m, "closing"); closing != "" {
		return closing
	}
	return defaultClosing
}
