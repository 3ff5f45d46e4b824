// internal/message/message.go
//
// Outbound webhook queue.
//
// Context
//   After a submission is stored, a form with `webhookEnabled` posts the
//   submission to its configured URL.  Delivery must never hold up the
//   submitter's response, so Enqueue only places a job on a bounded
//   channel; a small worker pool performs the HTTP POST.
//
//   Delivery is best effort.  A failed POST is logged and counted, never
//   retried.  When the queue is full the job is dropped the same way.
//
// Workflow
//   •  NewDispatcher(workers, queue, timeout) starts the pool.
//   •  Enqueue(job) → false when full or closed.
//   •  Close() stops accepting jobs and waits for in-flight deliveries.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/adept-forms/internal/metrics"
)

// Webhook is one delivery job.
type Webhook struct {
	URL     string
	FormID  string
	Payload any
}

// Dispatcher runs webhook deliveries on a fixed pool.
type Dispatcher struct {
	client *http.Client
	jobs   chan Webhook

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines reading a queue of depth queue.
func NewDispatcher(workers, queue int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queue < 1 {
		queue = 64
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	d := &Dispatcher{
		client: &http.Client{Timeout: timeout},
		jobs:   make(chan Webhook, queue),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Enqueue schedules job.  It reports false when the queue is full or the
// dispatcher is closed.
func (d *Dispatcher) Enqueue(job Webhook) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.jobs <- job:
		return true
	default:
		metrics.WebhookDeliveriesTotal.WithLabelValues("dropped").Inc()
		zap.S().Warnw("webhook queue full, dropping", "form", job.FormID, "url", job.URL)
		return false
	}
}

// Close drains the queue and waits for workers to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		if err := d.deliver(context.Background(), job); err != nil {
			metrics.WebhookDeliveriesTotal.WithLabelValues("error").Inc()
			zap.S().Errorw("webhook delivery failed", "form", job.FormID, "url", job.URL, "err", err)
			continue
		}
		metrics.WebhookDeliveriesTotal.WithLabelValues("ok").Inc()
	}
}

// deliver POSTs job.Payload as JSON.  Any non-2xx status is an error.
func (d *Dispatcher) deliver(ctx context.Context, job Webhook) error {
	body, err := json.Marshal(job.Payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "adept-forms-webhook/1")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %s", resp.Status)
	}
	return nil
}
