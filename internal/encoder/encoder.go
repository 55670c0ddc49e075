package encoder

import (
	"math/rand/v2"
	"sync"

	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/logging"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/monitoring"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/script"
	"go.uber.org/zap"
)

// Result describes one encoding
type Result struct {
	Payload string
	// Token is the backtick substitution token, empty unless StageObfuscate ran
	Token   string
	Stages  []Stage
	Shimmed []string
	Stubbed []string
}

// Applied reports whether stage changed the payload
func (r *Result) Applied(stage Stage) bool {
	for _, s := range r.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Encoder turns scripts into injectable payloads
type Encoder struct {
	mu      sync.Mutex
	rng     *rand.Rand
	shims   map[string]Shim
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// Option configures an Encoder
type Option func(*Encoder)

// WithRand draws substitution tokens from r instead of the global source
func WithRand(r *rand.Rand) Option {
	return func(e *Encoder) { e.rng = r }
}

// WithShims replaces the capability table
func WithShims(shims map[string]Shim) Option {
	return func(e *Encoder) { e.shims = shims }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l.Named("encoder")
		}
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Encoder) { e.metrics = m }
}

// New creates an Encoder backed by the built-in capability table
func New(opts ...Option) *Encoder {
	e := &Encoder{
		shims:  shimTable,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEncoder = New()

// Encode encodes s with the default Encoder
func Encode(s *script.Script) (string, bool) {
	return defaultEncoder.Encode(s)
}

// Encode returns the injectable payload for s. It returns false when s is
// already encoded, in which case s.Code must be delivered unchanged.
func (e *Encoder) Encode(s *script.Script) (string, bool) {
	res, ok := e.EncodeDetailed(s)
	if !ok {
		return "", false
	}
	return res.Payload, true
}

// EncodeDetailed is Encode with a record of what each stage did
func (e *Encoder) EncodeDetailed(s *script.Script) (*Result, bool) {
	log := e.logger.ForScript(s.Label())
	if s.Encoded {
		log.Debug("script already encoded, skipping")
		e.metrics.RecordEncode(monitoring.ResultSkipped, 0)
		return nil, false
	}

	res := &Result{}
	code := s.Code

	obfuscated := needsObfuscation(code)
	if obfuscated {
		res.Token = e.newToken(code)
		code = obfuscate(code, res.Token)
		res.Stages = append(res.Stages, StageObfuscate)
	}

	if s.RunAt != script.RunAtStart {
		code = wrapLifecycle(code, s.RunAt)
		res.Stages = append(res.Stages, StageLifecycle)
	}

	if requires := s.Requires(); len(requires) > 0 {
		code = wrapImports(code, requires)
		res.Stages = append(res.Stages, StageImports)
	}

	code = e.applyGrants(code, s.Grants(), res)
	if len(res.Shimmed)+len(res.Stubbed) > 0 {
		res.Stages = append(res.Stages, StageGrants)
	}

	if obfuscated {
		code = decoderSource(res.Token) + code
		res.Stages = append(res.Stages, StageDecoder)
	}

	res.Payload = code
	e.record(res)
	log.Debug("script encoded",
		zap.String("run_at", s.RunAt.String()),
		logging.Stages(res.Stages),
		zap.Strings("stubbed", res.Stubbed),
		logging.Bytes(len(code)),
	)
	return res, true
}

// applyGrants prepends one definition per distinct grant, so the last grant ends
// up first in the payload
func (e *Encoder) applyGrants(code string, grants []string, res *Result) string {
	seen := make(map[string]struct{}, len(grants))
	for _, name := range grants {
		// Applied once per distinct name rather than once per entry: a second
		// const binding of the same name is a SyntaxError in the page.
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if shim, ok := e.shims[name]; ok {
			code = shim.Source + code
			res.Shimmed = append(res.Shimmed, name)
			continue
		}
		code = stubSource(name) + code
		res.Stubbed = append(res.Stubbed, name)
	}
	return code
}

func (e *Encoder) record(res *Result) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordEncode(monitoring.ResultEncoded, len(res.Payload))
	for _, stage := range res.Stages {
		e.metrics.RecordStage(string(stage))
	}
	for range res.Shimmed {
		e.metrics.RecordGrant(monitoring.GrantShim)
	}
	for range res.Stubbed {
		e.metrics.RecordGrant(monitoring.GrantStub)
	}
}
