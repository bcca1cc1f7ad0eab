package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults, cleans up lists, and reports what is
// wrong or suspicious with the result.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Email.SearchSubjectAny = trimList(out.Email.SearchSubjectAny)

	// ---- Defaults ----

	if out.App.Port == 0 {
		out.App.Port = 38475
	}
	if out.Polling.IntervalSeconds == 0 {
		out.Polling.IntervalSeconds = 300
	}
	if out.Polling.MaxEmails == 0 {
		out.Polling.MaxEmails = 50
	}
	if out.Polling.LookbackDays == 0 {
		out.Polling.LookbackDays = 90
	}
	if out.Email.Mailbox == "" {
		out.Email.Mailbox = "INBOX"
	}
	if out.Email.IMAPPort == 0 {
		out.Email.IMAPPort = 993
	}
	if out.Gemini.MaxRetries == 0 {
		out.Gemini.MaxRetries = 5
	}
	if out.Gemini.RetryBaseSeconds == 0 {
		out.Gemini.RetryBaseSeconds = 13
	}
	if out.Gemini.RequestsPerSecond == 0 {
		out.Gemini.RequestsPerSecond = 1
	}
	if out.Gemini.Concurrency == 0 {
		out.Gemini.Concurrency = 2
	}
	if out.Dedup.Threshold == 0 {
		out.Dedup.Threshold = 0.75
	}
	if out.Dedup.DescriptionWeight == 0 && out.Dedup.SkillsWeight == 0 && out.Dedup.PriceWeight == 0 {
		out.Dedup.DescriptionWeight = 0.5
		out.Dedup.SkillsWeight = 0.3
		out.Dedup.PriceWeight = 0.2
	}
	if out.Dedup.WindowDays == 0 {
		out.Dedup.WindowDays = 30
	}
	if out.Dedup.MaxBatch == 0 {
		out.Dedup.MaxBatch = 1000
	}

	// ---- Validation rules ----

	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Polling.IntervalSeconds < 0 {
		res.addErr("polling.interval_seconds must be > 0")
	} else if out.Polling.IntervalSeconds < 30 {
		res.addWarn("polling.interval_seconds is very low (%d) and may hit IMAP rate limits.", out.Polling.IntervalSeconds)
	}
	if out.Polling.MaxEmails < 0 {
		res.addErr("polling.max_emails must be > 0")
	}
	if out.Polling.LookbackDays < 0 {
		res.addErr("polling.lookback_days must be > 0")
	}

	// password not required here; it lives in the keychain
	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if len(out.Email.SearchSubjectAny) == 0 {
			res.addWarn("email.search_subject_any is empty; every unseen email will be processed.")
		}
	}

	if out.Gemini.RequestsPerSecond < 0 {
		res.addErr("gemini.requests_per_second must be > 0")
	}
	if out.Gemini.Concurrency < 0 {
		res.addErr("gemini.concurrency must be > 0")
	}

	if out.Dedup.Threshold < 0 || out.Dedup.Threshold > 1 {
		res.addErr("dedup.threshold must be in 0..1")
	}
	weightSum := out.Dedup.DescriptionWeight + out.Dedup.SkillsWeight + out.Dedup.PriceWeight
	if weightSum <= 0 {
		res.addErr("dedup weights must sum to a positive value")
	} else if weightSum < 0.99 || weightSum > 1.01 {
		res.addWarn("dedup weights sum to %.2f, not 1; scores will not be comparable to the threshold as intended.", weightSum)
	}

	return out, res
}
