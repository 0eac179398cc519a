package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrRateLimited is returned when the client exceeded the submission limit.
	ErrRateLimited = errors.New("contact: rate limited")
	// ErrDelivery wraps sink failures.
	ErrDelivery = errors.New("contact: delivery failed")

	errSimulatedFailure = errors.New("simulated failure")
)

// Submission is the sanitized payload handed to a Sink.
type Submission struct {
	ID         string    `json:"id"`
	Lang       string    `json:"lang"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	Consent    bool      `json:"consent"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Sink delivers a validated submission.
type Sink interface {
	Deliver(ctx context.Context, s Submission) error
}

// Result describes the outcome of Submit.
type Result struct {
	Status Status
	Errors map[string]string
	ID     string
	Trail  []Status
}

// Options configures a Service.
type Options struct {
	Sink           Sink
	Limiter        Limiter
	Translator     Translator
	RequireConsent bool
	Logger         *zap.Logger
	Now            func() time.Time
}

// Service validates, rate limits and delivers contact submissions.
type Service struct {
	sink           Sink
	limiter        Limiter
	tr             Translator
	requireConsent bool
	policy         *bluemonday.Policy
	logger         *zap.Logger
	now            func() time.Time
}

// NewService builds a Service. A nil Sink delivers through a zero-delay SimulatedSink.
func NewService(opts Options) *Service {
	s := &Service{
		sink:           opts.Sink,
		limiter:        opts.Limiter,
		tr:             opts.Translator,
		requireConsent: opts.RequireConsent,
		policy:         bluemonday.StrictPolicy(),
		logger:         opts.Logger,
		now:            opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.sink == nil {
		s.sink = &SimulatedSink{Logger: s.logger}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RequireConsent reports whether the consent checkbox is mandatory.
func (s *Service) RequireConsent() bool { return s.requireConsent }

// Submit runs one submission attempt for the client identified by clientKey.
// Validation failures are reported in Result.Errors with a nil error.
func (s *Service) Submit(ctx context.Context, lang, clientKey string, f Form) (Result, error) {
	t := trail{StatusIdle}

	if s.limiter != nil && clientKey != "" {
		ok, err := s.limiter.Allow(ctx, clientKey)
		if err != nil {
			// fail open: a broken limiter must not block customers
			s.logger.Warn("contact: rate limiter unavailable", zap.Error(err))
		} else if !ok {
			return Result{Status: t.current(), Trail: t}, ErrRateLimited
		}
	}

	t.move(StatusValidating)
	f = s.clean(f)
	if errs := Validate(f, lang, s.requireConsent, s.tr); len(errs) > 0 {
		t.move(StatusInvalid)
		return Result{Status: t.current(), Errors: errs, Trail: t}, nil
	}

	t.move(StatusSubmitting)
	sub := Submission{
		ID:         ulid.Make().String(),
		Lang:       lang,
		Name:       f.Name,
		Phone:      f.Phone,
		Email:      f.Email,
		Message:    f.Message,
		Consent:    f.Consent,
		ReceivedAt: s.now().UTC(),
	}
	if err := s.sink.Deliver(ctx, sub); err != nil {
		t.move(StatusFailure)
		s.logger.Error("contact: delivery failed", zap.String("submission_id", sub.ID), zap.Error(err))
		return Result{Status: t.current(), ID: sub.ID, Trail: t}, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	t.move(StatusSuccess)
	s.logger.Info("contact: submission delivered", zap.String("submission_id", sub.ID), zap.String("lang", lang))
	return Result{Status: t.current(), ID: sub.ID, Trail: t}, nil
}

// clean strips markup from every text field. The strict policy escapes what it
// keeps, so the result is unescaped back to plain text for the outbox.
func (s *Service) clean(f Form) Form {
	text := func(v string) string {
		return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
	}
	f.Name = text(f.Name)
	f.Phone = text(f.Phone)
	f.Email = text(f.Email)
	f.Message = text(f.Message)
	return f
}

// SimulatedSink stands in for a real backend: it waits Delay, then succeeds unless Fail is set.
type SimulatedSink struct {
	Delay  time.Duration
	Fail   bool
	Logger *zap.Logger
}

// Deliver implements Sink.
func (s *SimulatedSink) Deliver(ctx context.Context, sub Submission) error {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if s.Fail {
		return errSimulatedFailure
	}
	if s.Logger != nil {
		s.Logger.Debug("contact: simulated delivery", zap.String("submission_id", sub.ID))
	}
	return nil
}

const defaultOutboxCap = 1000

// RedisSink appends submissions as JSON to a capped Redis list for later processing.
type RedisSink struct {
	client *redis.Client
	key    string
	cap    int64
}

// NewRedisSink builds a RedisSink writing to key.
func NewRedisSink(client *redis.Client, key string) *RedisSink {
	if key == "" {
		key = "lmstudio:contact:outbox"
	}
	return &RedisSink{client: client, key: key, cap: defaultOutboxCap}
}

// Deliver implements Sink.
func (s *RedisSink) Deliver(ctx context.Context, sub Submission) error {
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, b)
		pipe.LTrim(ctx, s.key, 0, s.cap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis outbox: %w", err)
	}
	return nil
}
