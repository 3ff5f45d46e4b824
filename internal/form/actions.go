// internal/form/actions.go
//
// Post-submit actions.
//
// Context
// -------
// After a submission is stored, runActions fires whatever the form's
// settings ask for.  Today that is the webhook: the payload is queued on the
// message dispatcher so the HTTP response does not wait on a third party.
// Failures are logged and never surface to the respondent.
//
// Notes
// -----
// • Delivery is best-effort.  A full queue drops the job.
// • Oxford commas, two spaces after periods.
package form

import (
	"context"
	"time"

	"github.com/yanizio/adept-forms/internal/logger"
	msg "github.com/yanizio/adept-forms/internal/message"
	"github.com/yanizio/adept-forms/internal/store"
)

// Queue accepts webhook jobs.  *message.Dispatcher satisfies it.
type Queue interface {
	Enqueue(job msg.Webhook) bool
}

// WebhookPayload is the JSON body POSTed to a form's webhook URL.
type WebhookPayload struct {
	Event        string         `json:"event"`
	FormID       string         `json:"formId"`
	FormTitle    string         `json:"formTitle"`
	SubmissionID string         `json:"submissionId"`
	SubmittedAt  time.Time      `json:"submittedAt"`
	Data         map[string]any `json:"data"`
}

func (s *Service) runActions(ctx context.Context, f store.Form, sub store.Submission) {
	st := f.Settings
	if !st.WebhookEnabled || st.WebhookURL == "" || s.hooks == nil {
		return
	}
	ok := s.hooks.Enqueue(msg.Webhook{
		URL:    st.WebhookURL,
		FormID: f.ID,
		Payload: WebhookPayload{
			Event:        "submission.created",
			FormID:       f.ID,
			FormTitle:    f.Title,
			SubmissionID: sub.ID,
			SubmittedAt:  sub.SubmittedAt,
			Data:         sub.Data,
		},
	})
	if !ok {
		logger.FromContext(ctx).Warnw("webhook dropped", "form", f.ID, "submission", sub.ID)
	}
}
