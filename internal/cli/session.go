package cli

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/axiom/internal/alloc"
	"github.com/roach88/axiom/internal/audit"
	"github.com/roach88/axiom/internal/logging"
	"github.com/roach88/axiom/internal/metrics"
	"github.com/roach88/axiom/internal/seed"
	"github.com/roach88/axiom/internal/space"
	"github.com/roach88/axiom/internal/wrapper"
)

// session is one command's Space, Wrapper and metrics, built from the
// loaded configuration.
type session struct {
	space   *space.Space
	wrapper *wrapper.Wrapper
	metrics *metrics.Recorder
	report  *seed.Report
	log     *zap.Logger
}

// newSession builds an empty session. The chain is observed by a fresh
// metrics Recorder. extra options are applied to the Wrapper last.
func newSession(opts *RootOptions, cmd *cobra.Command, extra ...wrapper.Option) (*session, error) {
	if err := opts.setup(cmd); err != nil {
		return nil, err
	}

	rec := metrics.NewRecorder()
	chainOpts := []audit.Option{audit.WithObserver(rec)}
	spaceOpts := []space.Option{space.WithLogger(logging.Component(opts.Logger, "space"))}
	if opts.Clock != nil {
		chainOpts = append(chainOpts, audit.WithClock(opts.Clock))
		spaceOpts = append(spaceOpts, space.WithClock(opts.Clock))
	}
	sp := space.New(append(spaceOpts, space.WithChain(audit.NewChain(chainOpts...)))...)

	wrapperOpts := []wrapper.Option{
		wrapper.WithSettings(opts.Config.WrapperSettings()),
		wrapper.WithLogger(logging.Component(opts.Logger, "wrapper")),
	}
	if opts.IDs != nil {
		wrapperOpts = append(wrapperOpts, wrapper.WithIDGenerator(opts.IDs))
	}
	wrapperOpts = append(wrapperOpts, extra...)

	return &session{
		space:   sp,
		wrapper: wrapper.New(sp, wrapperOpts...),
		metrics: rec,
		log:     opts.Logger,
	}, nil
}

// load applies a seed document to the session's Space.
func (s *session) load(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	loader := seed.NewLoader(alloc.New(), s.space, seed.WithLogger(logging.Component(s.log, "seed")))
	report, err := loader.LoadFile(path)
	if err != nil {
		return err
	}
	s.report = report
	return nil
}

// openSession builds a session and loads the seed at path. Load failures
// are reported in the command's output format.
func openSession(opts *RootOptions, cmd *cobra.Command, path string, extra ...wrapper.Option) (*session, error) {
	s, err := newSession(opts, cmd, extra...)
	if err != nil {
		return nil, err
	}
	f := opts.formatter(cmd)
	if err := s.load(path); err != nil {
		if os.IsNotExist(err) {
			return nil, f.Fail(ExitCommandError, "failed to open seed", errors.Wrap(errPathNotFound, path))
		}
		return nil, f.Fail(ExitCommandError, "failed to load seed", err)
	}
	f.VerboseLog("loaded %s: %d nodes, %d relations, %d forks",
		path, s.report.Created(), s.report.Relations, len(s.report.Forks))
	return s, nil
}

// lookup returns the first node labeled label (case-insensitive), or a
// stored node whose code is label.
func (s *session) lookup(label string) (*space.Node, error) {
	label = strings.TrimSpace(label)
	if n, ok := s.space.Get(label); ok {
		return n, nil
	}
	matches := s.space.FindByLabel(label, false)
	if len(matches) == 0 {
		return nil, errors.Wrapf(wrapper.ErrNoSuchLabel, "%q", label)
	}
	return matches[0], nil
}
