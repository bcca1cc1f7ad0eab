package extract

import (
	"regexp"
	"strings"

	"ses-engine/internal/price"
)

// previewLimit bounds the description of the whole-body record produced
// when an email has no recognizable listing sections.
const previewLimit = 200

var (
	salaryLabelRe   = regexp.MustCompile(`\[ *給与 *\] *(.+)`)
	locationLabelRe = regexp.MustCompile(`\[ *場所 *\] *(.+)`)
)

// ParseSections is the rule-based fallback extractor used when the
// generative call is unavailable or its output fails validation.
//
// Listings in SES solicitation emails start with a "▼" or "◆" marker line;
// the text after the marker is the listing title and everything up to the
// next marker is its content block. Salary and location are pulled out of
// "[ 給与 ]" / "[ 場所 ]" label lines; the salary goes through
// price.Simplify. A body with no markers at all still yields one record
// carrying a truncated preview of the body, so callers always have
// something to persist.
func ParseSections(body string) []Listing {
	type section struct {
		title   string
		content []string
	}

	var sections []section
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if r := strings.TrimPrefix(trimmed, "▼"); r != trimmed {
			sections = append(sections, section{title: strings.TrimSpace(r)})
			continue
		}
		if r := strings.TrimPrefix(trimmed, "◆"); r != trimmed {
			sections = append(sections, section{title: strings.TrimSpace(r)})
			continue
		}
		if len(sections) > 0 {
			last := &sections[len(sections)-1]
			last.content = append(last.content, line)
		}
	}

	if len(sections) == 0 {
		return []Listing{{Description: preview(body)}}
	}

	out := make([]Listing, 0, len(sections))
	for _, sec := range sections {
		l := Listing{Description: sec.title}
		block := strings.Join(sec.content, "\n")
		if m := salaryLabelRe.FindStringSubmatch(block); m != nil {
			l.UnitPrice = price.Simplify(m[1])
		}
		if m := locationLabelRe.FindStringSubmatch(block); m != nil {
			l.Location = strings.TrimSpace(m[1])
		}
		out = append(out, l)
	}
	return out
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLimit {
		return body
	}
	return string(r[:previewLimit]) + "..."
}
