package retrieval

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/async"
	"github.com/jgirmay/concept-explainer/internal/common/metrics"
	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/pkg/config"
)

// Encyclopedia resolves a keyword to a single article summary.
type Encyclopedia interface {
	Lookup(ctx context.Context, keyword string) (Source, bool)
}

// Retriever runs the encyclopedia-then-web fallback chain.
type Retriever struct {
	encyclopedia  Encyclopedia
	web           WebSearcher
	searchTimeout time.Duration
	log           *zap.Logger
	metrics       *metrics.Metrics
}

// NewRetriever wires the lookup chain. A nil web searcher means the web
// search provider is unavailable.
func NewRetriever(enc Encyclopedia, web WebSearcher, searchTimeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Retriever {
	return &Retriever{
		encyclopedia:  enc,
		web:           web,
		searchTimeout: searchTimeout,
		log:           log.Named("retrieval"),
		metrics:       m,
	}
}

// NewFromConfig builds the Wikipedia and DuckDuckGo clients.
func NewFromConfig(cfg config.RetrievalConfig, log *zap.Logger, m *metrics.Metrics) *Retriever {
	wiki := NewWikipediaClient(
		cfg.WikipediaRESTURL,
		cfg.WikipediaAPIURL,
		cfg.UserAgent,
		&http.Client{Timeout: cfg.HTTPTimeout},
		log,
	)

	var web WebSearcher
	if cfg.WebSearchEnabled {
		web = NewDuckDuckGoClient(cfg.SearchURL, cfg.UserAgent, &http.Client{Timeout: cfg.SearchTimeout})
	}

	return NewRetriever(wiki, web, cfg.SearchTimeout, log, m)
}

// Search tries the first MaxKeywordAttempts keywords in order and stops at
// the first keyword that yields a source. It never fails; no match is an
// empty result.
func (r *Retriever) Search(ctx context.Context, keywords []string) []Source {
	ctx, span := tracing.Start(ctx, "retrieval.search")
	defer span.End()

	if len(keywords) > MaxKeywordAttempts {
		keywords = keywords[:MaxKeywordAttempts]
	}

	sources := make([]Source, 0, MaxSources)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}

		if src, ok := r.lookupEncyclopedia(ctx, kw); ok {
			sources = append(sources, src)
			break
		}
		if src, ok := r.searchWeb(ctx, kw); ok {
			sources = append(sources, src)
			break
		}
	}

	if len(sources) > MaxSources {
		sources = sources[:MaxSources]
	}
	span.SetAttributes(attribute.Int("sources", len(sources)))
	return sources
}

func (r *Retriever) lookupEncyclopedia(ctx context.Context, kw string) (Source, bool) {
	if r.encyclopedia == nil {
		return Source{}, false
	}
	src, ok := r.encyclopedia.Lookup(ctx, kw)
	r.metrics.ObserveRetrieval("wikipedia", ok)
	if ok {
		r.log.Info("encyclopedia source found", zap.String("keyword", kw), zap.String("title", src.Title))
	} else {
		r.log.Info("no encyclopedia result", zap.String("keyword", kw))
	}
	return src, ok
}

// searchWeb runs the web search behind a bounded wait so a slow provider
// cannot hold the request past searchTimeout.
func (r *Retriever) searchWeb(ctx context.Context, kw string) (Source, bool) {
	if r.web == nil {
		return Source{}, false
	}

	query := kw + " educational explanation learning"
	results, err := async.Run(ctx, r.searchTimeout, func(ctx context.Context) ([]SearchResult, error) {
		return r.web.Search(ctx, query)
	})
	if err != nil {
		r.metrics.ObserveRetrieval("duckduckgo", false)
		r.log.Warn("web search failed", zap.String("keyword", kw), zap.Error(err))
		return Source{}, false
	}

	src, ok := firstEducational(results)
	r.metrics.ObserveRetrieval("duckduckgo", ok)
	if ok {
		r.log.Info("educational web source found", zap.String("keyword", kw), zap.String("url", src.URL))
	} else {
		r.log.Info("no educational web result", zap.String("keyword", kw), zap.Int("results", len(results)))
	}
	return src, ok
}
