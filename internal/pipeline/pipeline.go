// Package pipeline coordinates one analysis request end to end: parse the
// repository URL, consult the cache, fetch the bounded context bundle,
// dispatch it to the LLM, and write the result back through the cache.
// Failures are never cached and never retried here; retry policy, if any,
// belongs to the transport clients.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/repojudge/repojudge/internal/cache"
	"github.com/repojudge/repojudge/internal/llm"
	"github.com/repojudge/repojudge/internal/models"
)

// ErrMissingAPIKey is returned before any outbound call when the request
// carries no LLM API key. Client configuration error, not an upstream one.
var ErrMissingAPIKey = errors.New("missing Gemini API key")

// Fetcher produces the bounded context bundle for one repository.
type Fetcher interface {
	FetchContext(ctx context.Context, owner, repo string) (*models.ContextBundle, error)
}

// FetcherFactory builds a Fetcher bound to the caller's auth token. The
// token is resolved by the HTTP edge; this layer only threads it through.
type FetcherFactory func(authToken string) Fetcher

// Dispatcher is the LLM-facing side of the pipeline.
type Dispatcher interface {
	GenerateReadme(ctx context.Context, req llm.Request) (string, error)
	AnalyzeRepo(ctx context.Context, req llm.Request) (*models.AnalysisResult, error)
	ChatWithRepo(ctx context.Context, req llm.Request, history []models.ChatTurn, message string) (string, error)
}

// Pipeline is the request orchestrator. Stateless between requests; the
// cache store is the only shared collaborator, and it is treated as
// atomic get/set with last-writer-wins semantics.
type Pipeline struct {
	store      cache.Store
	newFetcher FetcherFactory
	dispatcher Dispatcher
	ttl        time.Duration
}

func New(store cache.Store, newFetcher FetcherFactory, dispatcher Dispatcher, ttl time.Duration) *Pipeline {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Pipeline{store: store, newFetcher: newFetcher, dispatcher: dispatcher, ttl: ttl}
}

// Request carries one operation's inputs as resolved by the HTTP edge.
type Request struct {
	RepoURL      string
	Language     string
	Model        string
	ForceRefresh bool
	AuthToken    string // GitHub token, may be empty
	APIKey       string // LLM key, required

	// Chat only.
	Message string
	History []models.ChatTurn
}

func (r *Request) defaults() {
	if r.Language == "" {
		r.Language = "en"
	}
	if r.Model == "" {
		r.Model = "flash"
	}
}

// ReadmeResult is the outcome of a generate operation.
type ReadmeResult struct {
	Readme string
	Cached bool
}

// AnalysisOutcome is the outcome of an analyze operation.
type AnalysisOutcome struct {
	Analysis *models.AnalysisResult
	Cached   bool
}

// Report is the outcome of the combined generate+analyze operation.
type Report struct {
	Readme   string
	Analysis *models.AnalysisResult
	Cached   bool // true only when both halves were served from cache
}

func readmeKey(ref models.RepositoryRef, language string) string {
	return fmt.Sprintf("readme:%s:%s:%s", ref.Owner, ref.Repo, language)
}

func analysisKey(ref models.RepositoryRef, language, model string) string {
	return fmt.Sprintf("analysis:%s:%s:%s:%s", ref.Owner, ref.Repo, language, model)
}

// GenerateReadme runs the README pipeline for one request.
func (p *Pipeline) GenerateReadme(ctx context.Context, req Request) (*ReadmeResult, error) {
	req.defaults()
	ref, err := p.precheck(req)
	if err != nil {
		return nil, err
	}

	key := readmeKey(ref, req.Language)
	if !req.ForceRefresh {
		if raw, ok := p.store.Get(ctx, key); ok {
			var readme string
			if err := json.Unmarshal(raw, &readme); err == nil {
				logger.Infof("Cache hit: README for %s", ref.FullName())
				return &ReadmeResult{Readme: readme, Cached: true}, nil
			}
			logger.Warnf("Discarding unreadable cache entry %s", key)
		}
	}

	loader := p.newLoader(req.AuthToken, ref)
	readme, err := p.generate(ctx, req, ref, loader)
	if err != nil {
		return nil, err
	}

	p.store.Set(ctx, key, readme, p.ttl)
	return &ReadmeResult{Readme: readme}, nil
}

// Analyze runs the analysis pipeline for one request.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*AnalysisOutcome, error) {
	req.defaults()
	ref, err := p.precheck(req)
	if err != nil {
		return nil, err
	}

	key := analysisKey(ref, req.Language, req.Model)
	if !req.ForceRefresh {
		if raw, ok := p.store.Get(ctx, key); ok {
			var analysis models.AnalysisResult
			if err := json.Unmarshal(raw, &analysis); err == nil {
				logger.Infof("Cache hit: analysis for %s", ref.FullName())
				return &AnalysisOutcome{Analysis: &analysis, Cached: true}, nil
			}
			logger.Warnf("Discarding unreadable cache entry %s", key)
		}
	}

	loader := p.newLoader(req.AuthToken, ref)
	analysis, err := p.analyze(ctx, req, ref, loader)
	if err != nil {
		return nil, err
	}

	p.store.Set(ctx, key, analysis, p.ttl)
	return &AnalysisOutcome{Analysis: analysis}, nil
}

// Chat answers one chat turn. Not cached: the history makes keys unbounded
// and replies are conversational, not idempotent artifacts.
func (p *Pipeline) Chat(ctx context.Context, req Request) (string, error) {
	req.defaults()
	ref, err := p.precheck(req)
	if err != nil {
		return "", err
	}

	bundle, err := p.newLoader(req.AuthToken, ref).load(ctx)
	if err != nil {
		return "", err
	}

	reply, err := p.dispatcher.ChatWithRepo(ctx, llm.Request{
		RepoName: ref.FullName(),
		Bundle:   bundle,
		Language: req.Language,
		Model:    req.Model,
		APIKey:   req.APIKey,
	}, req.History, req.Message)
	if err != nil {
		logger.Errorf("Chat for %s failed: %v", ref.FullName(), err)
		return "", err
	}
	return reply, nil
}

// GenerateReport runs the README and analysis pipelines as two independent
// halves joined at the end. Both consult their own cache entries; on a
// double miss the repository is fetched exactly once through a memoized
// loader scoped to this request.
func (p *Pipeline) GenerateReport(ctx context.Context, req Request) (*Report, error) {
	req.defaults()
	ref, err := p.precheck(req)
	if err != nil {
		return nil, err
	}

	loader := p.newLoader(req.AuthToken, ref)
	report := &Report{}
	var readmeCached, analysisCached bool

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		key := readmeKey(ref, req.Language)
		if !req.ForceRefresh {
			if raw, ok := p.store.Get(gCtx, key); ok {
				var readme string
				if err := json.Unmarshal(raw, &readme); err == nil {
					report.Readme = readme
					readmeCached = true
					return nil
				}
			}
		}
		readme, err := p.generate(gCtx, req, ref, loader)
		if err != nil {
			return err
		}
		p.store.Set(gCtx, key, readme, p.ttl)
		report.Readme = readme
		return nil
	})

	g.Go(func() error {
		key := analysisKey(ref, req.Language, req.Model)
		if !req.ForceRefresh {
			if raw, ok := p.store.Get(gCtx, key); ok {
				var analysis models.AnalysisResult
				if err := json.Unmarshal(raw, &analysis); err == nil {
					report.Analysis = &analysis
					analysisCached = true
					return nil
				}
			}
		}
		analysis, err := p.analyze(gCtx, req, ref, loader)
		if err != nil {
			return err
		}
		p.store.Set(gCtx, key, analysis, p.ttl)
		report.Analysis = analysis
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Cached = readmeCached && analysisCached
	return report, nil
}

func (p *Pipeline) precheck(req Request) (models.RepositoryRef, error) {
	if req.APIKey == "" {
		return models.RepositoryRef{}, ErrMissingAPIKey
	}
	return ParseRepoURL(req.RepoURL)
}

func (p *Pipeline) generate(ctx context.Context, req Request, ref models.RepositoryRef, loader *contextLoader) (string, error) {
	bundle, err := loader.load(ctx)
	if err != nil {
		return "", err
	}

	logger.Infof("Generating README for %s", ref.FullName())
	readme, err := p.dispatcher.GenerateReadme(ctx, llm.Request{
		RepoName: ref.Repo,
		Bundle:   bundle,
		Language: req.Language,
		Model:    req.Model,
		APIKey:   req.APIKey,
	})
	if err != nil {
		logger.Errorf("README generation for %s failed: %v", ref.FullName(), err)
		return "", err
	}
	return readme, nil
}

func (p *Pipeline) analyze(ctx context.Context, req Request, ref models.RepositoryRef, loader *contextLoader) (*models.AnalysisResult, error) {
	bundle, err := loader.load(ctx)
	if err != nil {
		return nil, err
	}

	logger.Infof("Analyzing %s", ref.FullName())
	return p.dispatcher.AnalyzeRepo(ctx, llm.Request{
		RepoName: ref.Repo,
		Bundle:   bundle,
		Language: req.Language,
		Model:    req.Model,
		APIKey:   req.APIKey,
	})
}

// contextLoader memoizes one repository fetch within a single request, so
// the parallel generate and analyze halves share a bundle without any
// cross-request state.
type contextLoader struct {
	fetch  func(ctx context.Context) (*models.ContextBundle, error)
	once   sync.Once
	bundle *models.ContextBundle
	err    error
}

func (p *Pipeline) newLoader(authToken string, ref models.RepositoryRef) *contextLoader {
	fetcher := p.newFetcher(authToken)
	return &contextLoader{
		fetch: func(ctx context.Context) (*models.ContextBundle, error) {
			logger.Infof("Fetching structure and content for %s", ref.FullName())
			return fetcher.FetchContext(ctx, ref.Owner, ref.Repo)
		},
	}
}

func (l *contextLoader) load(ctx context.Context) (*models.ContextBundle, error) {
	l.once.Do(func() {
		l.bundle, l.err = l.fetch(ctx)
	})
	return l.bundle, l.err
}
