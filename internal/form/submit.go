// internal/form/submit.go
//
// Public submission pipeline.
//
// Context
// -------
// Submit is the one call behind POST /api/submit/{slug} and the rendered
// HTML form.  The steps run in a fixed order so the cheap rejections come
// first:
//
//	rate limit → lookup → accepting? → token → spam → schema → sanitize
//	  → store → actions
//
// Field errors come back as *schema.ValidationError.  Everything else is
// one of the sentinels in errors.go or a wrapped store failure.
//
// Notes
// -----
// • The schema covers every field, visible or not.  A required field
//   hidden by a condition still blocks the submission.
// • Honeypot and bot hits are accepted silently and never stored, so a
//   bot sees the same response a person does.
// • The CSRF token is only checked when present.  JSON clients do not
//   carry one.
// • Oxford commas, two spaces after periods.
package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/logger"
	"github.com/yanizio/adept-forms/internal/metrics"
	"github.com/yanizio/adept-forms/internal/sanitize"
	"github.com/yanizio/adept-forms/internal/schema"
	"github.com/yanizio/adept-forms/internal/store"
	"github.com/yanizio/adept-forms/internal/visibility"
)

// Reserved payload keys written by the renderer.
const (
	KeyCSRF     = "_csrf"
	KeyRenderTS = "_ts"
	KeyHoneypot = "_hp"
)

// Client describes who is submitting.
type Client struct {
	IP  string
	Bot bool
}

// Receipt is what the respondent sees after an accepted submission.
type Receipt struct {
	SubmissionID string `json:"submissionId,omitempty"`
	Message      string `json:"message"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
}

type published struct {
	form   store.Form
	fields []field.Definition
}

// loadPublic fetches a form and its fields by slug.  Concurrent lookups of
// one slug share a single store round trip.
func (s *Service) loadPublic(ctx context.Context, slug string) (published, error) {
	v, err, _ := s.sfg.Do(slug, func() (any, error) {
		f, err := s.store.GetFormBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		fields, err := s.store.GetFields(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		return published{form: f, fields: fields}, nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return published{}, ErrNotFound
	}
	if err != nil {
		return published{}, fmt.Errorf("load form %q: %w", slug, err)
	}
	p := v.(published)
	return published{form: p.form, fields: cloneAll(p.fields)}, nil
}

func cloneAll(in []field.Definition) []field.Definition {
	out := make([]field.Definition, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}

// PublicForm returns a published form and its fields.  Drafts are reported
// as ErrNotFound.
func (s *Service) PublicForm(ctx context.Context, slug string) (store.Form, []field.Definition, error) {
	p, err := s.loadPublic(ctx, slug)
	if err != nil {
		return store.Form{}, nil, err
	}
	if p.form.Status != store.StatusPublished {
		return store.Form{}, nil, ErrNotFound
	}
	return p.form, p.fields, nil
}

// Visible returns the ids of the fields shown for values.
func (s *Service) Visible(ctx context.Context, slug string, values map[string]any) ([]string, error) {
	_, fields, err := s.PublicForm(ctx, slug)
	if err != nil {
		return nil, err
	}
	return visibility.VisibleIDs(fields, visibility.Values(values)), nil
}

// Submit validates and stores one submission.
func (s *Service) Submit(ctx context.Context, slug string, payload map[string]any, c Client) (Receipt, error) {
	log := logger.FromContext(ctx)

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, c.IP)
		if err != nil {
			log.Warnw("rate limiter error", "ip", c.IP, "err", err)
		}
		if !ok {
			metrics.SubmissionsTotal.WithLabelValues("rate_limited").Inc()
			return Receipt{}, ErrRateLimited
		}
	}

	p, err := s.loadPublic(ctx, slug)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		}
		return Receipt{}, err
	}
	f := p.form
	if f.Status != store.StatusPublished || len(p.fields) == 0 {
		metrics.SubmissionsTotal.WithLabelValues("closed").Inc()
		return Receipt{}, ErrNotAccepting
	}

	if tok, ok := payload[KeyCSRF].(string); ok && s.csrf != nil && !s.csrf.Verify(tok) {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		return Receipt{}, ErrBadToken
	}

	if reason := s.spam(f.Settings, payload, c); reason != "" {
		metrics.SubmissionsTotal.WithLabelValues("spam").Inc()
		log.Infow("submission discarded", "form", f.ID, "ip", c.IP, "reason", reason)
		return receipt(f, ""), nil
	}

	clean, err := schema.Compile(p.fields).Validate(payload)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		return Receipt{}, err
	}

	sub, err := s.store.CreateSubmission(ctx, f.ID, sanitize.Values(clean))
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return Receipt{}, fmt.Errorf("store submission: %w", err)
	}

	s.runActions(ctx, f, sub)
	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	log.Infow("submission accepted", "form", f.ID, "submission", sub.ID)
	return receipt(f, sub.ID), nil
}

// spam names the first spam signal in the request, or returns "".
func (s *Service) spam(st store.Settings, payload map[string]any, c Client) string {
	if st.BlockBots && c.Bot {
		return "bot user agent"
	}
	if !st.EnableHoneypot {
		return ""
	}
	if hp, ok := payload[KeyHoneypot].(string); ok && hp != "" {
		return "honeypot filled"
	}
	if ts, ok := renderTime(payload[KeyRenderTS]); ok && s.now().Sub(ts) < s.minFill {
		return "filled too fast"
	}
	return ""
}

// renderTime reads the renderer's microsecond timestamp, sent as a string
// by HTML forms and as a number by scripts.
func renderTime(v any) (time.Time, bool) {
	var us int64
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		us = n
	case float64:
		us = int64(x)
	default:
		return time.Time{}, false
	}
	return time.UnixMicro(us), true
}

func receipt(f store.Form, id string) Receipt {
	return Receipt{SubmissionID: id, Message: f.Settings.ThankYou(), RedirectURL: f.Settings.RedirectURL}
}
