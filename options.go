package zonemeter

import (
	"io"
	"log/slog"
	"time"
)

// Observer receives the outcome of every run, e.g. to record metrics.
type Observer interface {
	Observe(outcome Outcome, elapsed time.Duration)
}

// Options holds configuration for the Engine.
type Options struct {
	logger         *slog.Logger
	layout         SourceLayout
	normalizerOpts []NormalizerOption
	resolverOpts   []ResolverOption
	locatorOpts    []LocatorOption
	builderOpts    []BuilderOption
	writerOpts     []WriterOption
	observers      []Observer
}

func defaultOptions() *Options {
	return &Options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		layout: DefaultSourceLayout(),
	}
}

// Option configures the Engine.
type Option func(*Options)

// WithLogger sets the logger for run diagnostics (default: discard).
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSourceLayout sets the header and data rows of source sheets (default: header row 4, data from row 5, date in column A).
func WithSourceLayout(l SourceLayout) Option {
	return func(o *Options) { o.layout = l }
}

// WithNormalizerOptions configures cell value normalization, e.g. the day-count range.
func WithNormalizerOptions(opts ...NormalizerOption) Option {
	return func(o *Options) { o.normalizerOpts = append(o.normalizerOpts, opts...) }
}

// WithResolverOptions configures header resolution.
func WithResolverOptions(opts ...ResolverOption) Option {
	return func(o *Options) { o.resolverOpts = append(o.resolverOpts, opts...) }
}

// WithLocatorOptions configures block title detection.
func WithLocatorOptions(opts ...LocatorOption) Option {
	return func(o *Options) { o.locatorOpts = append(o.locatorOpts, opts...) }
}

// WithBuilderOptions configures block content, e.g. the metric rows.
func WithBuilderOptions(opts ...BuilderOption) Option {
	return func(o *Options) { o.builderOpts = append(o.builderOpts, opts...) }
}

// WithWriterOptions configures block insertion.
func WithWriterOptions(opts ...WriterOption) Option {
	return func(o *Options) { o.writerOpts = append(o.writerOpts, opts...) }
}

// WithObserver adds an observer notified after every run.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}
