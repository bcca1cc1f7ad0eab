// Package pipeline runs one fetch-extract-store pass over the mailbox:
// unseen emails in, validated project records out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emersion/go-imap/v2"
	"golang.org/x/sync/errgroup"

	"ses-engine/internal/config"
	"ses-engine/internal/domain"
	"ses-engine/internal/events"
	"ses-engine/internal/extract"
	"ses-engine/internal/mail"
	"ses-engine/internal/price"
	"ses-engine/internal/store"
)

// TextGenerator is the LLM call the pipeline depends on. Satisfied by
// gemini.Client; tests plug in a stub.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Counts is the per-run report.
type Counts struct {
	Fetched   int `json:"fetched"`
	Skipped   int `json:"skipped"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Added     int `json:"added"`
}

type Runner struct {
	DB *store.DB

	// CfgVal stores config.Config, shared with the HTTP config handler.
	// Every run loads a fresh snapshot so a saved config takes effect on
	// the next run without a restart.
	CfgVal *atomic.Value

	// NewGen builds the model client for one run from that run's config.
	NewGen func(config.Config) (TextGenerator, error)

	// Password resolves the IMAP password for the account in the given
	// config. It comes from the keychain, not from config.
	Password func(config.Config) (string, error)

	// Hub is optional; when set the runner publishes progress events.
	Hub *events.Hub
}

func (r *Runner) config() config.Config {
	return r.CfgVal.Load().(config.Config)
}

// RunOnce fetches unseen emails and extracts project records from each.
// Emails the model cannot handle fall back to the rule-based section
// parser and are counted as Failed, but their records are still stored.
func (r *Runner) RunOnce(ctx context.Context) (Counts, error) {
	var counts Counts

	cfg := r.config()
	if !cfg.Email.Enabled {
		return counts, nil
	}
	if r.DB == nil {
		return counts, errors.New("db is nil")
	}
	if cfg.Email.IMAPHost == "" || cfg.Email.Username == "" {
		return counts, errors.New("email enabled but missing imap_host/username")
	}
	if r.Password == nil {
		return counts, errors.New("no IMAP password source configured")
	}
	password, err := r.Password(cfg)
	if err != nil {
		return counts, err
	}

	var gen TextGenerator
	if r.NewGen != nil {
		gen, err = r.NewGen(cfg)
		if err != nil {
			return counts, err
		}
	}

	addr := cfg.Email.IMAPHost
	if !strings.Contains(addr, ":") {
		addr = fmt.Sprintf("%s:%d", addr, cfg.Email.IMAPPort)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	c, err := mail.DialAndLogin(ctx, addr, cfg.Email.Username, password, mail.TLSConfig(cfg.Email.IMAPHost))
	if err != nil {
		return counts, err
	}
	defer mail.LogoutAndClose(c)

	if err := mail.SelectMailbox(c, cfg.Email.Mailbox); err != nil {
		return counts, err
	}

	since := time.Now().AddDate(0, 0, -cfg.Polling.LookbackDays)
	msgs, err := mail.FetchUnseen(ctx, c, since, cfg.Polling.MaxEmails)
	if err != nil {
		return counts, err
	}
	counts.Fetched = len(msgs)
	if len(msgs) == 0 {
		return counts, nil
	}

	var mu sync.Mutex
	processed := make([]imap.UID, 0, len(msgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Gemini.Concurrency, 1))

	for _, m := range msgs {
		g.Go(func() error {
			outcome := r.processOne(gctx, cfg, gen, m)

			mu.Lock()
			defer mu.Unlock()
			processed = append(processed, m.UID)
			switch outcome.kind {
			case emailSkipped:
				counts.Skipped++
			case emailProcessed:
				counts.Processed++
			case emailFailed:
				counts.Failed++
			}
			counts.Added += outcome.added
			return nil
		})
	}
	_ = g.Wait()

	if len(processed) > 0 {
		if err := mail.MarkSeen(c, processed); err != nil {
			return counts, fmt.Errorf("mark seen: %w", err)
		}
	}

	return counts, nil
}

const (
	emailSkipped = iota
	emailProcessed
	emailFailed
)

type emailOutcome struct {
	kind  int
	added int
}

func (r *Runner) processOne(ctx context.Context, cfg config.Config, gen TextGenerator, m mail.Message) emailOutcome {
	parsed := mail.ParseMessage(m.Raw, m.Subject)
	if parsed.MessageID == "" {
		// Some senders omit Message-ID; synthesize a stable one.
		parsed.MessageID = fmt.Sprintf("<uid-%d@%s>", m.UID, cfg.Email.IMAPHost)
	}

	if len(cfg.Email.SearchSubjectAny) > 0 && !containsAnyCI(parsed.Subject, cfg.Email.SearchSubjectAny) {
		return emailOutcome{kind: emailSkipped}
	}

	receivedAt := m.Date
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	added, err := store.SaveRawEmail(ctx, r.DB.Pool, store.RawEmail{
		MessageID:   parsed.MessageID,
		ReceivedAt:  receivedAt,
		SenderEmail: m.From,
		Subject:     parsed.Subject,
		Body:        parsed.Body,
	})
	if err != nil {
		log.Printf("[pipeline] save raw %s: %v", parsed.MessageID, err)
		return emailOutcome{kind: emailFailed}
	}
	if !added {
		// Already ingested in an earlier run.
		return emailOutcome{kind: emailSkipped}
	}

	listings, genErr := extractListings(ctx, gen, cfg.Gemini.Prompt, parsed.Body)
	kind := emailProcessed
	if genErr != nil {
		log.Printf("[pipeline] extraction failed for %s, using section fallback: %v", parsed.MessageID, genErr)
		listings = extract.ParseSections(parsed.Body)
		kind = emailFailed
		r.publish(events.TypeEmailFailed, map[string]string{"message_id": parsed.MessageID})
	}

	inserted := 0
	for i, l := range listings {
		rec := recordFromListing(l, parsed, m.From, receivedAt, i+1, len(listings))
		ok, err := store.InsertProjectIfNew(ctx, r.DB.Pool, rec)
		if err != nil {
			log.Printf("[pipeline] insert %s: %v", rec.Key(), err)
			continue
		}
		if ok {
			inserted++
			r.publish(events.TypeProjectAdded, rec)
		}
	}
	return emailOutcome{kind: kind, added: inserted}
}

// extractListings asks the model and validates its output.
func extractListings(ctx context.Context, gen TextGenerator, promptTmpl, body string) ([]extract.Listing, error) {
	if gen == nil {
		return nil, errors.New("no text generator configured")
	}
	output, err := gen.Generate(ctx, extract.BuildPrompt(promptTmpl, body))
	if err != nil {
		return nil, err
	}
	return extract.ExtractMany(output)
}

// recordFromListing builds the stored record. Emails carrying several
// listings get the subject decorated with the listing number so each row
// is distinguishable in flat views.
func recordFromListing(l extract.Listing, parsed mail.Parsed, from string, receivedAt time.Time, index, total int) domain.ProjectRecord {
	subject := parsed.Subject
	if total > 1 {
		subject = fmt.Sprintf("%s(案件%d)", subject, index)
	}
	return domain.ProjectRecord{
		MessageID:      parsed.MessageID,
		ProjectIndex:   index,
		ReceivedAt:     receivedAt,
		Subject:        subject,
		SenderEmail:    from,
		Description:    l.Description,
		RequiredSkills: l.RequiredSkills,
		OptionalSkills: l.OptionalSkills,
		Location:       l.Location,
		UnitPrice:      l.UnitPrice,
		UnitPriceNorm:  price.Simplify(l.UnitPrice),
	}
}

func (r *Runner) publish(typ string, data any) {
	if r.Hub == nil {
		return
	}
	r.Hub.Publish(events.MakeEvent("", typ, data))
}

func containsAnyCI(s string, terms []string) bool {
	ls := strings.ToLower(s)
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if strings.Contains(ls, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
