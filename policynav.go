// Package policynav provides a top-level convenience entry point for creating
// a policy question-answering pipeline with minimal boilerplate.
//
// Usage:
//
//	import "github.com/policynav/policynav"
//
//	nav, err := policynav.New()
//	nav, err := policynav.New(policynav.WithLogger(logger))
//	nav, err := policynav.New(
//	    policynav.WithPolicyAPI(frClient),
//	    policynav.WithCaseLawAPI(clClient),
//	)
//
// The zero-option form builds a fully in-process pipeline: hash embedder,
// in-memory vector store, no government APIs, no notifications. Every
// collaborator can be swapped via options. For the full HTTP service use
// cmd/policynav instead.
package policynav

import (
	"go.uber.org/zap"

	"github.com/policynav/policynav/config"
	"github.com/policynav/policynav/navigator"
	"github.com/policynav/policynav/notify"
	"github.com/policynav/policynav/rag"
)

// Option configures the pipeline created by [New].
type Option func(*options)

type options struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     rag.VectorStore
	embedder  rag.Embedder
	policyAPI navigator.PolicyAPI
	caseAPI   navigator.CaseLawAPI
	notifier  notify.Notifier
}

// WithConfig supplies a full configuration. Pipeline limits, chunking and
// embedding dimensions are taken from it. Defaults to [config.DefaultConfig].
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithVectorStore sets a pre-built vector store (e.g. a Chroma-backed one).
// Defaults to an in-memory store.
func WithVectorStore(store rag.VectorStore) Option {
	return func(o *options) { o.store = store }
}

// WithEmbedder sets a pre-built embedder. Defaults to the local hash embedder.
func WithEmbedder(embedder rag.Embedder) Option {
	return func(o *options) { o.embedder = embedder }
}

// WithPolicyAPI attaches a policy-status client (e.g. federalregister.Client).
// Without it, policy-status queries degrade to retrieval-only answers.
func WithPolicyAPI(api navigator.PolicyAPI) Option {
	return func(o *options) { o.policyAPI = api }
}

// WithCaseLawAPI attaches a case-law search client (e.g. courtlistener.Client).
// Without it, case-law queries degrade to retrieval-only answers.
func WithCaseLawAPI(api navigator.CaseLawAPI) Option {
	return func(o *options) { o.caseAPI = api }
}

// WithNotifier attaches a notifier for compliance checklists
// (e.g. notify.SlackNotifier). Without it, checklist delivery is skipped.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// New creates a [navigator.Navigator] with minimal configuration.
// All collaborators default to in-process implementations, so the
// zero-option form needs no network, database, or credentials.
func New(opts ...Option) (*navigator.Navigator, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.cfg == nil {
		o.cfg = config.DefaultConfig()
	}

	embedder := o.embedder
	if embedder == nil {
		embedder = rag.NewHashEmbedder(o.cfg.Embedding.Dimension)
	}
	store := o.store
	if store == nil {
		store = rag.NewInMemoryVectorStore(o.logger)
	}
	chunker := rag.NewChunkerFromConfig(o.cfg, o.logger)
	index := rag.NewIndex(embedder, store, chunker, o.logger)

	deps := navigator.Deps{
		PolicyAPI:   o.policyAPI,
		CaseLawAPI:  o.caseAPI,
		Synthesizer: navigator.NewTemplateSynthesizer(o.logger),
	}
	if o.notifier != nil {
		deps.Checklist = notify.NewActionAgent(o.notifier, nil, notify.SlackConfig{}, o.logger)
	}

	return navigator.New(navigator.Config{
		TopK:         o.cfg.Pipeline.TopK,
		CaseLawLimit: o.cfg.Pipeline.CaseLawLimit,
		MaxHistory:   o.cfg.Pipeline.MaxHistory,
	}, index, deps, o.logger)
}
