package transcript

import "encoding/json"

// ResponseKind tags the shape an upstream transcript response arrived in.
type ResponseKind int

const (
	ResponseEmpty ResponseKind = iota
	ResponseDirectText
	ResponseContentField
	ResponseTranscriptField
	ResponseJob
	ResponseDataField
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseDirectText:
		return "text"
	case ResponseContentField:
		return "content"
	case ResponseTranscriptField:
		return "transcript"
	case ResponseJob:
		return "job"
	case ResponseDataField:
		return "data.text"
	}
	return "empty"
}

// UpstreamResponse is a decoded third-party transcript response. For
// ResponseJob only JobID is set; for the other non-empty kinds only Text.
type UpstreamResponse struct {
	Kind  ResponseKind
	Text  string
	JobID string
}

// rawObject is a JSON object whose members are decoded on demand, so a
// member of an unexpected type only matters if it is actually read.
type rawObject map[string]json.RawMessage

// str returns the member key when it is a string, and "" otherwise.
func (o rawObject) str(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// object returns the member key when it is an object, and nil otherwise.
func (o rawObject) object(key string) rawObject {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

// DecodeUpstream decodes a raw provider response into its tagged form.
// Fields are considered in a fixed order and the first non-empty string
// wins: text, content, transcript, jobId, data.text. Members of any other
// type are skipped.
func DecodeUpstream(raw []byte) (UpstreamResponse, error) {
	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return UpstreamResponse{}, Internal("failed to decode transcript response", err)
	}

	if text := obj.str("text"); text != "" {
		return UpstreamResponse{Kind: ResponseDirectText, Text: text}, nil
	}
	if text := obj.str("content"); text != "" {
		return UpstreamResponse{Kind: ResponseContentField, Text: text}, nil
	}
	if text := obj.str("transcript"); text != "" {
		return UpstreamResponse{Kind: ResponseTranscriptField, Text: text}, nil
	}
	if id := obj.str("jobId"); id != "" {
		return UpstreamResponse{Kind: ResponseJob, JobID: id}, nil
	}
	if text := obj.object("data").str("text"); text != "" {
		return UpstreamResponse{Kind: ResponseDataField, Text: text}, nil
	}
	return UpstreamResponse{Kind: ResponseEmpty}, nil
}

// JobState is the lifecycle state reported for an asynchronous job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobActive    JobState = "active"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Terminal reports whether polling should stop.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobStatus is one poll result for an asynchronous transcript job.
type JobStatus struct {
	Status JobState
	Error  *JobError

	body rawObject
}

// Transcript returns the job's text from content, data.text, result.text
// or result.transcript, in that order. Non-string members are skipped.
func (s *JobStatus) Transcript() (string, bool) {
	result := s.body.object("result")
	for _, text := range []string{
		s.body.str("content"),
		s.body.object("data").str("text"),
		result.str("text"),
		result.str("transcript"),
	} {
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// DecodeJobStatus decodes a raw job status response.
func DecodeJobStatus(raw []byte) (*JobStatus, error) {
	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, Internal("failed to decode job status", err)
	}

	s := &JobStatus{Status: JobState(obj.str("status")), body: obj}
	if errRaw, ok := obj["error"]; ok && string(errRaw) != "null" {
		s.Error = decodeJobError(errRaw)
	}
	return s, nil
}

// JobError is the failure reason of a job. Providers send it either as a
// bare string or as an object with a message field.
type JobError struct {
	Message string
	Code    string
}

func decodeJobError(raw json.RawMessage) *JobError {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &JobError{Message: s}
	}

	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return &JobError{Message: string(raw)}
	}

	e := &JobError{Message: obj.str("message")}
	if e.Message == "" {
		e.Message = obj.str("error")
	}
	if code, ok := obj["code"]; ok {
		if c := obj.str("code"); c != "" {
			e.Code = c
		} else {
			e.Code = string(code)
		}
	}
	if e.Message == "" {
		e.Message = string(raw)
	}
	return e
}

func (e *JobError) String() string {
	if e == nil || e.Message == "" {
		return "unknown error"
	}
	return e.Message
}
