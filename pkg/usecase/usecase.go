package usecase

import (
	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/service/chat"
	"github.com/scribe-lab/grimoire/pkg/service/graph"
)

// SourceFactory builds a content source bound to one caller credential.
// The credential is request-scoped, so sources are constructed per
// operation rather than held by UseCases.
type SourceFactory func(credential string) (interfaces.Source, error)

// IngestConfig holds the tunables of an ingestion run
type IngestConfig struct {
	ChunkSize         int
	ChunkOverlap      int
	MaxAttachmentSize int64
	EnableAttachments bool
}

// DefaultIngestConfig mirrors the service defaults: 1000-character chunks
// with 200-character overlap and a 30MB attachment ceiling.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		ChunkSize:         1000,
		ChunkOverlap:      200,
		MaxAttachmentSize: 30 * 1024 * 1024,
		EnableAttachments: true,
	}
}

type UseCases struct {
	repo      interfaces.Repository
	index     interfaces.Index
	embedder  interfaces.Embedder
	analyzer  interfaces.Analyzer
	archive   interfaces.Archive
	chat      *chat.Service
	newSource SourceFactory
	config    IngestConfig
}

type Option func(*UseCases)

func WithAnalyzer(analyzer interfaces.Analyzer) Option {
	return func(uc *UseCases) {
		uc.analyzer = analyzer
	}
}

func WithArchive(archive interfaces.Archive) Option {
	return func(uc *UseCases) {
		uc.archive = archive
	}
}

func WithChatService(svc *chat.Service) Option {
	return func(uc *UseCases) {
		uc.chat = svc
	}
}

func WithSourceFactory(factory SourceFactory) Option {
	return func(uc *UseCases) {
		uc.newSource = factory
	}
}

func WithIngestConfig(cfg IngestConfig) Option {
	return func(uc *UseCases) {
		uc.config = cfg
	}
}

func New(repo interfaces.Repository, index interfaces.Index, embedder interfaces.Embedder, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		index:    index,
		embedder: embedder,
		config:   DefaultIngestConfig(),
		newSource: func(credential string) (interfaces.Source, error) {
			return graph.New(credential)
		},
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
