package injector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/encoder"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/logging"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/monitoring"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/script"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHostRejected wraps the error of a payload the host refused to run
var ErrHostRejected = errors.New("host rejected payload")

// Transport carries a payload into the page
type Transport interface {
	Deliver(ctx context.Context, code string) error
}

// Outcome records what happened to one script
type Outcome struct {
	Script string
	// Encoded is false when the script was delivered verbatim
	Encoded   bool
	Delivered bool
	Bytes     int
	Err       error
}

// Report summarizes one Inject call
type Report struct {
	ID       string
	Outcomes []Outcome
	Duration time.Duration
}

// Delivered counts the scripts the host accepted
func (r *Report) Delivered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Delivered {
			n++
		}
	}
	return n
}

// Injector encodes scripts and hands the payloads to a Transport
type Injector struct {
	encoder *encoder.Encoder
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// Option configures an Injector
type Option func(*Injector)

// WithEncoder sets the encoder used for scripts that are not yet encoded
func WithEncoder(e *encoder.Encoder) Option {
	return func(i *Injector) { i.encoder = e }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(i *Injector) {
		if l != nil {
			i.logger = l.Named("injector")
		}
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(m *monitoring.Metrics) Option {
	return func(i *Injector) { i.metrics = m }
}

// New creates an Injector
func New(opts ...Option) *Injector {
	i := &Injector{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	if i.encoder == nil {
		i.encoder = encoder.New(encoder.WithLogger(i.logger), encoder.WithMetrics(i.metrics))
	}
	return i
}

// Payload returns the code to deliver for s and whether it was encoded
func (i *Injector) Payload(s *script.Script) (string, bool) {
	if payload, ok := i.encoder.Encode(s); ok {
		return payload, true
	}
	return s.Code, false
}

// Inject delivers scripts in order. It stops at the first rejection and
// returns the report so far with an error wrapping ErrHostRejected.
func (i *Injector) Inject(ctx context.Context, t Transport, scripts ...*script.Script) (*Report, error) {
	start := time.Now()
	report := &Report{
		ID:       uuid.New().String(),
		Outcomes: make([]Outcome, 0, len(scripts)),
	}
	log := i.logger.ForInjection(report.ID)

	for _, s := range scripts {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}

		payload, encoded := i.Payload(s)
		outcome := Outcome{
			Script:  s.Label(),
			Encoded: encoded,
			Bytes:   len(payload),
		}

		if err := t.Deliver(ctx, payload); err != nil {
			outcome.Err = err
			report.Outcomes = append(report.Outcomes, outcome)
			report.Duration = time.Since(start)
			i.metrics.RecordInjection(monitoring.OutcomeRejected)
			log.Warn("host rejected script",
				logging.Script(outcome.Script),
				logging.Encoded(encoded),
				zap.Error(err),
			)
			return report, fmt.Errorf("%w: %s: %w", ErrHostRejected, outcome.Script, err)
		}

		outcome.Delivered = true
		report.Outcomes = append(report.Outcomes, outcome)
		i.metrics.RecordInjection(monitoring.OutcomeDelivered)
		log.Debug("script delivered",
			logging.Script(outcome.Script),
			logging.Encoded(encoded),
			logging.Bytes(outcome.Bytes),
		)
	}

	report.Duration = time.Since(start)
	log.Info("injection complete", zap.Int("scripts", len(scripts)), logging.Elapsed(report.Duration))
	return report, nil
}
