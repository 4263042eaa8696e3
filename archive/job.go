package archive

import (
	"encoding/json"
	"fmt"
)

/* Job represents a server-tracked archival task. The backend owns all job
 * state; the gateway only creates jobs and reads them back.
 */
type Job struct {
	ID                string `json:"id"`
	Status            Status `json:"status"`
	StatusDescription string `json:"status_description"`
	ResultFilename    string `json:"result_filename,omitempty"`
	ContentSize       int64  `json:"content_size,omitempty"`
}

/* Status follows the lifecycle: InProgress -> Archiving -> Complete/Failed.
 * Complete and Failed are terminal.
 */
type Status int

const (
	InProgress Status = iota + 1
	Archiving
	Complete
	Failed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Archiving:
		return "archiving"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string.
func NewStatus(str string) Status {
	switch str {
	case "in_progress":
		return InProgress
	case "archiving":
		return Archiving
	case "complete":
		return Complete
	case "failed":
		return Failed
	default:
		return Failed
	}
}

// Validate checks if the status is valid.
func (s Status) Validate() error {
	if s < InProgress || s > Failed {
		return fmt.Errorf("invalid job status: %d", s)
	}
	return nil
}

// IsFinal returns true if the status is a terminal state.
func (s Status) IsFinal() bool {
	return s == Complete || s == Failed
}

// MarshalJSON encodes the status as its wire string.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the status from its wire string.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("decoding job status: %w", err)
	}
	*s = NewStatus(str)
	return nil
}

/* ObjectType selects what kind of collection an archive is built from. */
type ObjectType int

const (
	Sequence ObjectType = iota + 1
	Author
	Translator
)

// String returns the string representation of the object type.
func (o ObjectType) String() string {
	switch o {
	case Sequence:
		return "sequence"
	case Author:
		return "author"
	case Translator:
		return "translator"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the object type as its wire string.
func (o ObjectType) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}
