package transcript

import (
	"bytes"
	"encoding/xml"
	"errors"
	"html"
	"io"
	"strconv"
	"strings"
)

// CaptionTrack is one language-specific subtitle stream offered by a video.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// SelectTrack picks the caption track for lang: exact match, then the first
// English variant, then the first track. tracks must be non-empty; callers
// report KindNoCaptions themselves when a video offers no tracks.
func SelectTrack(tracks []CaptionTrack, lang string) CaptionTrack {
	if lang == "" {
		lang = DefaultLanguage
	}

	for _, t := range tracks {
		if t.LanguageCode == lang {
			return t
		}
	}

	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}

	return tracks[0]
}

// Entry is a single timed caption line. Times are in seconds.
type Entry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	End      float64 `json:"end"`
}

// <text start="1.36" dur="1.68">...</text>
type legacyText struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

// <p t="1360" d="1680">...<s>word</s>...</p> (format 3, milliseconds)
type srv3Para struct {
	T     string `xml:"t,attr"`
	D     string `xml:"d,attr"`
	Text  string `xml:",chardata"`
	Words []struct {
		Text string `xml:",chardata"`
	} `xml:"s"`
}

// ParseCaptionXML parses a YouTube timedtext document in either the legacy
// <text> form or the format 3 <p> form into ordered entries.
func ParseCaptionXML(data []byte) ([]Entry, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var entries []Entry
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Internal("failed to parse caption document", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "text":
			var t legacyText
			if err := dec.DecodeElement(&t, &start); err != nil {
				return nil, Internal("failed to parse caption entry", err)
			}
			entries = append(entries, newEntry(t.Text, parseSeconds(t.Start), parseSeconds(t.Dur)))
		case "p":
			var p srv3Para
			if err := dec.DecodeElement(&p, &start); err != nil {
				return nil, Internal("failed to parse caption entry", err)
			}
			text := p.Text
			for _, w := range p.Words {
				text += w.Text
			}
			entries = append(entries, newEntry(text, parseMillis(p.T), parseMillis(p.D)))
		}
	}

	return entries, nil
}

func newEntry(raw string, start, dur float64) Entry {
	// Captions are frequently double-escaped (&amp;#39;).
	text := html.UnescapeString(raw)
	text = strings.Join(strings.Fields(text), " ")
	return Entry{Text: text, Start: start, Duration: dur, End: start + dur}
}

func parseSeconds(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseMillis(s string) float64 {
	return parseSeconds(s) / 1000
}

// JoinEntries joins entry texts with single spaces.
func JoinEntries(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Text != "" {
			parts = append(parts, e.Text)
		}
	}
	return strings.Join(parts, " ")
}

// TextFromCaptions parses a caption document and returns the canonical
// transcript. A document without any caption text is KindNotFound.
func TextFromCaptions(data []byte) (string, []Entry, error) {
	entries, err := ParseCaptionXML(data)
	if err != nil {
		return "", nil, err
	}
	text := JoinEntries(entries)
	if text == "" {
		return "", nil, NotFound("caption document contained no entries")
	}
	return text, entries, nil
}
