// Package alerts notifies on-call staff about negative feedback.
package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"feedback-backend/internal/metrics"
	"feedback-backend/internal/models"

	"github.com/labstack/echo/v4"
)

const defaultSendTimeout = 15 * time.Second

// Notifier delivers an alert over one channel
type Notifier interface {
	Name() string
	// Configured is false when credentials or recipients are missing
	Configured() bool
	Send(ctx context.Context, subject, body string) error
}

// Dispatcher fans an alert out to every configured notifier in the
// background. Delivery is best effort: a single attempt per channel, with
// failures logged and never returned to the caller.
type Dispatcher struct {
	notifiers   []Notifier
	timeout     time.Duration
	logger      echo.Logger
	reportError func(error)
	wg          sync.WaitGroup
}

func NewDispatcher(logger echo.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   defaultSendTimeout,
		logger:    logger,
	}
}

// WithErrorReporter sets a hook that receives every delivery failure,
// e.g. to forward them to Sentry
func (d *Dispatcher) WithErrorReporter(fn func(error)) *Dispatcher {
	d.reportError = fn
	return d
}

// Configured lists the names of channels that will receive alerts
func (d *Dispatcher) Configured() []string {
	var names []string
	for _, n := range d.notifiers {
		if n.Configured() {
			names = append(names, n.Name())
		}
	}
	return names
}

// Dispatch formats fb and sends it asynchronously. It returns immediately.
func (d *Dispatcher) Dispatch(fb *models.Feedback) {
	if fb == nil {
		return
	}

	var active []Notifier
	for _, n := range d.notifiers {
		if n.Configured() {
			active = append(active, n)
		} else {
			d.logger.Infof("Alert channel %s not configured, skipping alert for feedback %s", n.Name(), fb.ID)
		}
	}
	if len(active) == 0 {
		return
	}

	// Format before handing off so the goroutine never touches fb
	subject := FormatSubject(fb)
	body := FormatMessage(fb)
	feedbackID := fb.ID

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.fail(fmt.Errorf("alert dispatch panicked for feedback %s: %v", feedbackID, r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		for _, n := range active {
			if err := n.Send(ctx, subject, body); err != nil {
				metrics.Alerts.WithLabelValues(n.Name(), "error").Inc()
				d.fail(fmt.Errorf("sending %s alert for feedback %s: %w", n.Name(), feedbackID, err))
				continue
			}
			metrics.Alerts.WithLabelValues(n.Name(), "sent").Inc()
			d.logger.Infof("Alert sent via %s for feedback %s", n.Name(), feedbackID)
		}
	}()
}

// Wait blocks until every in-flight dispatch has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) fail(err error) {
	d.logger.Errorf("%v", err)
	if d.reportError != nil {
		d.reportError(err)
	}
}
