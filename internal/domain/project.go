package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProjectRecord is one extracted SES listing. An email can carry several
// listings; (MessageID, ProjectIndex) identifies one of them, with
// ProjectIndex starting at 1.
type ProjectRecord struct {
	MessageID      string    `json:"message_id"`
	ProjectIndex   int       `json:"project_index"`
	ReceivedAt     time.Time `json:"received_at"`
	Subject        string    `json:"subject"`
	SenderEmail    string    `json:"sender_email"`
	Description    string    `json:"project_description"`
	RequiredSkills []string  `json:"required_skills"`
	OptionalSkills []string  `json:"optional_skills"`
	Location       string    `json:"location"`
	UnitPrice      string    `json:"unit_price"`

	// UnitPriceNorm is the simplified monthly price ("60万", "60-80万"),
	// empty when the raw price was hourly/daily or unparseable.
	UnitPriceNorm string `json:"unit_price_norm"`
}

// Key returns the store identity of the record.
func (r ProjectRecord) Key() string {
	return fmt.Sprintf("%s#%d", r.MessageID, r.ProjectIndex)
}

// JoinSkills renders a skills slice for flat sinks (spreadsheet columns,
// text DB columns). Inside the pipeline skills are always []string.
func JoinSkills(skills []string) string {
	return strings.Join(skills, ", ")
}

// SplitSkills turns a legacy comma-joined skills string back into a slice,
// trimming each element and dropping empties. Safe on already-empty input.
func SplitSkills(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
