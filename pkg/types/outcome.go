package types

import (
	"encoding/json"
	"fmt"
)

// Outcome is the result of evaluating one file at any nesting depth.
// It is a value: construct it once and do not mutate it.
type Outcome struct {
	// DisplayPath joins ancestor archive names with the current entry name
	// (e.g. "outer.zip -> inner.xlsx") so a nested finding is traceable.
	DisplayPath string

	// Flagged means treat the file as a threat and reject it.
	Flagged bool

	// Status is the terminal classification.
	Status Status

	// Size is the byte size of the file as reported by the filesystem at
	// the top of this evaluation.
	Size int64

	// Extension is the normalized extension used for routing.
	Extension string

	// Details is a human-readable diagnostic. Never used for control flow.
	Details string

	// Cause is the underlying parser or I/O failure, when one exists.
	// A clean outcome or a pure policy violation has no cause.
	Cause error
}

// JoinDisplayPath builds the ancestor-chain display path for a file name.
func JoinDisplayPath(ancestor, name string) string {
	if ancestor == "" {
		return name
	}
	return ancestor + " -> " + name
}

// String renders the outcome the way the CLI summarizes a single file.
func (o Outcome) String() string {
	if o.Flagged {
		return fmt.Sprintf("%s: FLAGGED %s (%s)", o.DisplayPath, o.Status, o.Details)
	}
	return fmt.Sprintf("%s: %s", o.DisplayPath, o.Status)
}

// outcomeJSON mirrors Outcome with the cause flattened to a string.
type outcomeJSON struct {
	DisplayPath string `json:"display_path"`
	Flagged     bool   `json:"flagged"`
	Status      Status `json:"status"`
	Size        int64  `json:"size"`
	Extension   string `json:"extension,omitempty"`
	Details     string `json:"details,omitempty"`
	Cause       string `json:"cause,omitempty"`
}

// MarshalJSON flattens Cause into its message.
func (o Outcome) MarshalJSON() ([]byte, error) {
	j := outcomeJSON{
		DisplayPath: o.DisplayPath,
		Flagged:     o.Flagged,
		Status:      o.Status,
		Size:        o.Size,
		Extension:   o.Extension,
		Details:     o.Details,
	}
	if o.Cause != nil {
		j.Cause = o.Cause.Error()
	}
	return json.Marshal(j)
}

// UnmarshalJSON restores an outcome; a non-empty cause becomes an opaque error.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var j outcomeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*o = Outcome{
		DisplayPath: j.DisplayPath,
		Flagged:     j.Flagged,
		Status:      j.Status,
		Size:        j.Size,
		Extension:   j.Extension,
		Details:     j.Details,
	}
	if j.Cause != "" {
		o.Cause = fmt.Errorf("%s", j.Cause)
	}
	return nil
}
