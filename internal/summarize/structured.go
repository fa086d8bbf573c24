package summarize

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Structured is the parsed form of a model summary.
type Structured struct {
	Overview   string   `json:"overview"`
	MainTopics []string `json:"mainTopics"`
	KeyPoints  []string `json:"keyPoints"`
	Insights   string   `json:"insights"`
	Tags       []string `json:"tags"`
	// Plain is set when the model did not return JSON and the fields were
	// recovered from free text.
	Plain bool `json:"-"`
}

// stringList accepts a JSON array of strings or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*l = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s != "" {
		*l = []string{s}
	}
	return nil
}

// text accepts a JSON string or an array of strings, joined by spaces.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	*t = text(strings.Join(arr, " "))
	return nil
}

type wireSummary struct {
	Overview   text       `json:"overview"`
	MainTopics stringList `json:"mainTopics"`
	KeyPoints  stringList `json:"keyPoints"`
	Insights   text       `json:"insights"`
	Tags       stringList `json:"tags"`
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

// ParseStructured extracts a summary from model output. It prefers a fenced
// JSON block, then the outermost {...} object, and otherwise recovers what
// it can from plain text. It never fails.
func ParseStructured(raw string) Structured {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		if s, ok := decodeSummary(m[1]); ok {
			return s
		}
	}

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		if s, ok := decodeSummary(raw[start : end+1]); ok {
			return s
		}
	}

	return parsePlain(raw)
}

func decodeSummary(doc string) (Structured, bool) {
	var w wireSummary
	if err := json.Unmarshal([]byte(doc), &w); err != nil {
		return Structured{}, false
	}
	s := Structured{
		Overview:   strings.TrimSpace(string(w.Overview)),
		MainTopics: w.MainTopics,
		KeyPoints:  w.KeyPoints,
		Insights:   strings.TrimSpace(string(w.Insights)),
		Tags:       w.Tags,
	}
	if s.Overview == "" && len(s.KeyPoints) == 0 && len(s.MainTopics) == 0 && s.Insights == "" {
		return Structured{}, false
	}
	return s, true
}

var (
	bulletPrefix   = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
	headingPrefix  = regexp.MustCompile(`^#+\s*`)
	tagsLinePrefix = regexp.MustCompile(`(?i)^\**tags\**\s*:\s*`)
)

func parsePlain(raw string) Structured {
	s := Structured{Plain: true}
	var overview []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || headingPrefix.MatchString(line) {
			continue
		}
		if loc := tagsLinePrefix.FindStringIndex(line); loc != nil {
			for _, tag := range strings.Split(line[loc[1]:], ",") {
				if tag = strings.Trim(strings.TrimSpace(tag), "#"); tag != "" {
					s.Tags = append(s.Tags, tag)
				}
			}
			continue
		}
		if loc := bulletPrefix.FindStringIndex(line); loc != nil {
			s.KeyPoints = append(s.KeyPoints, strings.TrimSpace(line[loc[1]:]))
			continue
		}
		overview = append(overview, line)
	}

	s.Overview = strings.Join(overview, " ")
	return s
}
