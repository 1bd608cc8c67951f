package resolve

import (
	"log/slog"

	"github.com/willowgs/viciharvest/internal/config"
	"github.com/willowgs/viciharvest/internal/model"
)

// Resolver resolves an index page to its ordered chapter list.
type Resolver struct {
	curated *config.Curated
	logger  *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger for resolution debug output.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver backed by the given curated table.
func NewResolver(curated *config.Curated, opts ...ResolverOption) *Resolver {
	r := &Resolver{curated: curated}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Resolve returns the chapter set for an index page. The curated table
// is consulted first; its lists are definitive regardless of what the
// page markup contains. Otherwise chapters are pattern-extracted from
// the raw markup. An empty set means resolution failed.
func (r *Resolver) Resolve(title, rawContent string) model.ChapterSet {
	if chapters, ok := r.curated.Chapters(title); ok {
		r.logger.Debug("resolved from curated table",
			"work", title,
			"chapters", len(chapters),
		)
		return model.ChapterSet{
			Work:   title,
			Titles: chapters,
			Source: model.ChapterSourceCurated,
		}
	}

	targets := ExtractChapterTargets(rawContent)
	r.logger.Debug("resolved by pattern extraction",
		"work", title,
		"chapters", len(targets),
	)
	return model.ChapterSet{
		Work:   title,
		Titles: targets,
		Source: model.ChapterSourcePattern,
	}
}
