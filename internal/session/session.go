package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielpatrickdp/imitate/internal/frame"
	"github.com/danielpatrickdp/imitate/internal/registry"
	"github.com/danielpatrickdp/imitate/internal/statetree"
)

// #region config

// Config bounds working memory and the learning threshold.
type Config struct {
	ScopeSize       int  // how many steps back an alias stays usable
	ArchiveSize     int  // entries retained per index
	MinObservations int  // observations required before a learned statement is trusted
	Generalize      bool // try abstractly related states before perturbing
}

// DefaultConfig returns the standard bounds: scope 4, archive 10, threshold 2.
func DefaultConfig() Config {
	return Config{ScopeSize: 4, ArchiveSize: 10, MinObservations: 2}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ScopeSize <= 0 {
		c.ScopeSize = d.ScopeSize
	}
	if c.ArchiveSize <= 0 {
		c.ArchiveSize = d.ArchiveSize
	}
	if c.MinObservations <= 0 {
		c.MinObservations = d.MinObservations
	}
	return c
}

// Options collects a session's collaborators.
type Options struct {
	Registry    *registry.Registry
	Feedback    Feedback
	Persistence Persistence // nil disables learning
	Frames      frame.Provider
	Rand        Rand // nil seeds math/rand from the clock
	Config      Config
}

// #endregion config

// #region session

// Session executes statements against working memory, scores side effects
// through Feedback, and asks Persistence what to do next when imitating.
// A Session is not safe for concurrent use.
type Session struct {
	id          string
	cfg         Config
	registry    *registry.Registry
	feedback    Feedback
	persistence Persistence
	frames      frame.Provider
	rand        Rand

	memory  *Memory
	parser  *Parser
	tree    *statetree.Tree
	perturb int
}

// New creates a session whose current frame starts as initial.
func New(initial frame.Frame, opts Options) *Session {
	cfg := opts.Config.withDefaults()
	reg := opts.Registry
	if reg == nil {
		reg = registry.New(nil)
	}
	fb := opts.Feedback
	if fb == nil {
		fb = FixedFeedback{}
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	mem := NewMemory(initial, cfg.ScopeSize, cfg.ArchiveSize)
	return &Session{
		id:          uuid.New().String(),
		cfg:         cfg,
		registry:    reg,
		feedback:    fb,
		persistence: opts.Persistence,
		frames:      opts.Frames,
		rand:        rng,
		memory:      mem,
		parser:      NewParser(reg, mem),
		tree:        statetree.New(),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

// Memory exposes working memory.
func (s *Session) Memory() *Memory { return s.memory }

// Registry returns the function registry.
func (s *Session) Registry() *registry.Registry { return s.registry }

// CurrentStep returns the number of committed non-sequence steps.
func (s *Session) CurrentStep() int { return s.memory.CurrentStep() }

// Current returns the current frame.
func (s *Session) Current() frame.Frame { return s.memory.Current() }

// #endregion session

// #region steps

// ImitatedStep runs an explicit statement. Validation errors are returned
// and leave working memory untouched. ok=false means the statement produced
// no result, which is a soft failure.
func (s *Session) ImitatedStep(ctx context.Context, text string) (frame.Frame, bool, error) {
	return s.run(ctx, text, "imitated")
}

// ImitatorStep chooses the next statement itself, from learned feedback when
// enough has been observed for the current state and by perturbation
// otherwise, then runs it as an explicit step.
func (s *Session) ImitatorStep(ctx context.Context) (frame.Frame, bool, error) {
	text, err := s.NextStatement(ctx)
	if err != nil {
		stepTotal.WithLabelValues("imitator", outcomeError).Inc()
		return nil, false, err
	}
	return s.run(ctx, text, "imitator")
}

func (s *Session) run(ctx context.Context, text, mode string) (frame.Frame, bool, error) {
	ctx, span := tracer.Start(ctx, "session.Step",
		trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.String("step.mode", mode),
			attribute.Int("step.index", s.memory.CurrentStep()),
			attribute.String("step.statement", text),
		),
	)
	defer span.End()

	st, err := s.prepare(ctx, text, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		stepTotal.WithLabelValues(mode, outcomeError).Inc()
		return nil, false, err
	}
	result, ok, outcome := s.step(ctx, st, 0)
	stepTotal.WithLabelValues(mode, outcome).Inc()
	span.SetAttributes(
		attribute.String("step.serialization", st.Serialization()),
		attribute.String("step.outcome", outcome),
	)
	span.SetStatus(codes.Ok, "")
	return result, ok, nil
}

// Prepare parses, validates and evaluates text without committing it.
// Side effects and sequences run as part of evaluation.
func (s *Session) Prepare(ctx context.Context, text string) (*Statement, error) {
	return s.prepare(ctx, text, 0)
}

// Commit applies the commit/fail protocol to a statement returned by
// Prepare. Each prepared statement should be committed at most once.
func (s *Session) Commit(ctx context.Context, st *Statement) (frame.Frame, bool, error) {
	if !st.Evaluated() {
		return nil, false, fmt.Errorf("commit %s: statement was not prepared", st.Function)
	}
	result, ok, outcome := s.step(ctx, st, 0)
	stepTotal.WithLabelValues("prepared", outcome).Inc()
	return result, ok, nil
}

func (s *Session) prepare(ctx context.Context, text string, depth int) (*Statement, error) {
	st, err := s.parser.parse(text, depth)
	if err != nil {
		return nil, err
	}
	if err := s.evaluate(ctx, st, depth); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Session) evaluate(ctx context.Context, st *Statement, depth int) error {
	if st.evaluated {
		return nil
	}
	entry, ok := s.registry.Lookup(st.Function)
	if !ok {
		return fmt.Errorf("%w `%s'", ErrUnknownFunction, st.Function)
	}

	var (
		result frame.Frame
		has    bool
	)
	switch entry.Kind {
	case registry.KindSequence:
		var err error
		result, has, err = s.runSequence(ctx, st.Function, depth)
		if err != nil {
			return err
		}
	default:
		args := make([]frame.Frame, len(st.Args))
		for i, arg := range st.Args {
			f, found := s.memory.Frame(arg)
			if !found {
				return fmt.Errorf("%w `%s' in %s", ErrUnresolvedSymbol, arg, st.Function)
			}
			args[i] = f
		}
		result, has = entry.Fn(args)
	}
	st.finalize(result, has)
	return nil
}

// step applies the commit/fail protocol to an evaluated statement and
// reports the outcome label.
func (s *Session) step(ctx context.Context, st *Statement, depth int) (frame.Frame, bool, string) {
	result, ok := st.Result()
	if !ok {
		s.memory.LogFailure(st, s.feedback.Failed())
		return nil, false, outcomeNoResult
	}

	if !s.registry.IsPure(st.Function) {
		previous := s.memory.current.Copy()
		score := s.feedback.Score(previous, result)
		if s.persistence != nil {
			if err := s.persistence.UpdateWith(ctx, s, st, score); err != nil {
				log.Printf("[SESSION] %s: feedback update failed: %v", s.id, err)
			}
		}
		s.memory.current = result
		return result, true, outcomeSideEffect
	}

	s.memory.addStep(st, result, depth)
	return result, true, outcomeCommit
}

// Reward credits an externally supplied score to the entries in scope,
// as if a side effect had produced it without a trigger.
func (s *Session) Reward(ctx context.Context, score int) error {
	if s.persistence == nil {
		return nil
	}
	if err := s.persistence.Update(ctx, s, score); err != nil {
		return fmt.Errorf("reward: %w", err)
	}
	return nil
}

// #endregion steps

// #region sequences

// runSequence executes a named sequence in a private namespace one level
// below depth. Any statement without a result fails the whole sequence.
// On success the declared components are wrapped, in order, into a fresh
// base frame. The namespace is purged either way.
func (s *Session) runSequence(ctx context.Context, name string, depth int) (frame.Frame, bool, error) {
	src := s.registry.Sequences()
	if src == nil {
		return nil, false, nil
	}
	seq, found := src.ForName(name)
	if !found {
		return nil, false, nil
	}
	inner := depth + 1
	sequenceDepth.Observe(float64(inner))
	defer s.memory.purge(inner)

	for _, script := range seq.Scripts {
		st, err := s.prepare(ctx, script, inner)
		if err != nil {
			return nil, false, fmt.Errorf("sequence %s: %w", name, err)
		}
		if _, ok, _ := s.step(ctx, st, inner); !ok {
			return nil, false, nil
		}
	}

	if s.frames == nil {
		log.Printf("[SESSION] %s: sequence %s has no frame provider", s.id, name)
		return nil, false, nil
	}
	components := make([]frame.Frame, 0, len(seq.Components))
	for _, c := range seq.Components {
		f, ok := s.memory.Frame(namespaced(c, inner))
		if !ok {
			return nil, false, fmt.Errorf("sequence %s: %w `%s'", name, ErrUnresolvedSymbol, c)
		}
		components = append(components, f)
	}
	base := s.frames.NewFrame()
	base.Wrap(components)
	return base, true, nil
}

// #endregion sequences

// #region imitate

// NextStatement returns the statement the imitator would run now.
func (s *Session) NextStatement(ctx context.Context) (string, error) {
	if s.persistence != nil {
		state := s.SerializeCurrentState()
		best, found, err := s.persistence.BestFor(ctx, state, s.cfg.MinObservations)
		if err != nil {
			log.Printf("[SESSION] %s: best for %q failed: %v", s.id, state, err)
			found = false
		}
		if found {
			choiceTotal.WithLabelValues(sourceLearned).Inc()
			return s.assignIfPure(best), nil
		}
		if s.cfg.Generalize {
			for _, related := range s.RelatedStates() {
				best, found, err := s.persistence.BestFor(ctx, related, s.cfg.MinObservations)
				if err != nil {
					log.Printf("[SESSION] %s: best for %q failed: %v", s.id, related, err)
					continue
				}
				if found {
					choiceTotal.WithLabelValues(sourceGeneralized).Inc()
					return s.assignIfPure(best), nil
				}
			}
		}
	}
	choiceTotal.WithLabelValues(sourcePerturbed).Inc()
	return s.Perturb()
}

// assignIfPure gives a learned pure statement a synthetic alias so it can
// be committed.
func (s *Session) assignIfPure(text string) string {
	syn, err := parseSyntax(text)
	if err != nil || syn.alias != "" || !s.registry.IsPure(syn.function) {
		return text
	}
	return s.nextAlias() + " = " + text
}

func (s *Session) nextAlias() string {
	alias := fmt.Sprintf("__%d", s.perturb)
	s.perturb++
	return alias
}

// Perturb synthesizes a random statement: a uniformly chosen registry entry
// applied to aliases drawn from the most recent in-scope entries.
func (s *Session) Perturb() (string, error) {
	entries := s.registry.Entries()
	if len(entries) == 0 {
		return "", ErrNoApplicableFunctions
	}
	e := entries[s.rand.Intn(len(entries))]

	var b strings.Builder
	if e.Kind != registry.KindSideEffect {
		b.WriteString(s.nextAlias())
		b.WriteString(" = ")
	}
	b.WriteString(e.Name)
	candidates := s.memory.RecentAliases(s.cfg.ScopeSize)
	for range e.Arity {
		arg := Text
		if len(candidates) > 0 {
			arg = candidates[s.rand.Intn(len(candidates))]
		}
		b.WriteString(" ")
		b.WriteString(arg)
	}
	b.WriteString(";")
	return b.String(), nil
}

// #endregion imitate

// #region state

// SerializeCurrentState returns the abstraction-tree key for the dependency
// set of the most recent entry.
func (s *Session) SerializeCurrentState() string {
	recent := s.memory.MostRecent()
	if recent == nil {
		return statetree.RootKey
	}
	return s.tree.Serialize(s.tree.Find(recent.Statement.DependsOn()))
}

// RelatedStates returns the keys of states abstractly related to the
// current one. Candidates for substitution are the serializations of
// entries that have fallen out of scope.
func (s *Session) RelatedStates() []string {
	recent := s.memory.MostRecent()
	if recent == nil {
		return nil
	}
	var candidates []string
	for _, e := range s.memory.Entries() {
		if !s.memory.InScope(e.Alias()) {
			candidates = append(candidates, e.Statement.Serialization())
		}
	}
	ids := s.tree.AbstractlyRelated(recent.Statement.DependsOn(), candidates)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = s.tree.Serialize(id)
	}
	return out
}

// SerializePrevious delegates to working memory.
func (s *Session) SerializePrevious(alias string) string {
	return s.memory.SerializePrevious(alias)
}

// Display renders the most recent entries of working memory.
func (s *Session) Display() string { return s.memory.Display() }

// #endregion state

// IsValidation reports whether err is a parse or validation error.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrSyntax, ErrMissingFunction, ErrUnknownFunction, ErrPureWithoutAlias,
		ErrUnknownArgument, ErrOutOfScopeArgument, ErrArityMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
