package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

// DispatcherOptions selects dry-run and the spacing between sends.
type DispatcherOptions struct {
	DryRun      bool
	MinInterval time.Duration
}

// Dispatcher validates, paces and transmits messages one at a time.
type Dispatcher struct {
	mailer      ports.Mailer
	dryRun      bool
	minInterval time.Duration
	logger      *slog.Logger

	lastSend time.Time
	now      func() time.Time
	wait     func(ctx context.Context, d time.Duration) error
}

// NewDispatcher wires the mailer. A nil mailer forces dry-run.
func NewDispatcher(mailer ports.Mailer, opts DispatcherOptions, logger *slog.Logger) *Dispatcher {
	if opts.MinInterval < 0 {
		opts.MinInterval = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		mailer:      mailer,
		dryRun:      opts.DryRun || mailer == nil,
		minInterval: opts.MinInterval,
		logger:      logger,
		now:         time.Now,
		wait:        sleepContext,
	}
}

// DryRun reports whether sends are only simulated.
func (d *Dispatcher) DryRun() bool {
	return d.dryRun
}

// Send never returns an error; every failure is logged and reported as false.
func (d *Dispatcher) Send(ctx context.Context, to, subject, body, from string) bool {
	if !validFields(to, subject, body, from) {
		d.logger.Warn("invalid email fields, not sending", "to", to, "from", from, "subject", subject)
		return false
	}

	if err := d.pace(ctx); err != nil {
		d.logger.Warn("send interrupted", "to", to, "error", err)
		return false
	}

	if d.dryRun {
		d.logger.Info("dry run: email not sent", "to", to, "subject", subject)
		return true
	}

	err := d.mailer.Deliver(ctx, domain.Message{From: from, To: to, Subject: subject, Body: body})
	if err != nil {
		d.logger.Error("send failed", "to", to, "error", err)
		return false
	}

	d.logger.Info("email sent", "to", to)
	return true
}

// pace blocks until minInterval has passed since the previous attempt.
func (d *Dispatcher) pace(ctx context.Context) error {
	if !d.lastSend.IsZero() {
		if remaining := d.minInterval - d.now().Sub(d.lastSend); remaining > 0 {
			if err := d.wait(ctx, remaining); err != nil {
				return err
			}
		}
	}
	d.lastSend = d.now()
	return nil
}

func validFields(to, subject, body, from string) bool {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return false
	}
	return ValidAddress(to) && ValidAddress(from)
}

// ValidAddress is a shallow syntax check: something@domain.tld.
func ValidAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(addr[at+1:], ".")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
