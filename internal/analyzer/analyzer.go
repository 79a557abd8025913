// internal/analyzer/analyzer.go
package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github-trending-tracker/internal/model"
	"github-trending-tracker/internal/store"
)

const (
	// stalenessWindow is the age beyond which an analysis is due for refresh.
	stalenessWindow = 7 * 24 * time.Hour

	defaultBatchLimit = 5
	betweenRepoPause  = time.Second
)

// ContentFetcher extracts the analysis input for a repository.
type ContentFetcher interface {
	FetchRepoContent(ctx context.Context, owner, name string) (model.RepoContent, error)
}

// LLM turns repository content into a structured analysis.
type LLM interface {
	Analyze(ctx context.Context, content model.RepoContent) (model.AnalysisResult, error)
	Model() string
}

// Analyzer runs the analysis batch job.
type Analyzer struct {
	store   store.Store
	content ContentFetcher
	llm     LLM
	logger  *slog.Logger
	pause   time.Duration
	now     func() time.Time
}

// New creates an Analyzer.
func New(st store.Store, content ContentFetcher, llm LLM, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		store:   st,
		content: content,
		llm:     llm,
		logger:  logger,
		pause:   betweenRepoPause,
		now:     time.Now,
	}
}

// BatchResult reports one batch run.
type BatchResult struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// RunBatch analyzes up to limit repositories with no analysis or one older
// than the staleness window, sequentially with a pause between repositories.
// Per-repository failures are counted and logged; the batch always returns
// counts.
func (a *Analyzer) RunBatch(ctx context.Context, limit int) BatchResult {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	staleBefore := a.now().Add(-stalenessWindow)

	candidates, err := a.store.ListAnalysisCandidates(ctx, staleBefore, limit)
	if err != nil {
		a.logger.Error("Failed to select analysis candidates", "error", err)
		return BatchResult{}
	}
	a.logger.Info("Analysis batch starting", "candidates", len(candidates))

	result := BatchResult{Total: len(candidates)}
	for i, candidate := range candidates {
		if err := a.analyzeOne(ctx, candidate); err != nil {
			result.Failed++
			a.logger.Error("Analysis failed", "repo", candidate.FullName, "error", err)
		} else {
			result.Success++
			a.logger.Info("Analysis stored", "repo", candidate.FullName)
		}

		// Rate limit: pause between repositories, not after the last.
		if i < len(candidates)-1 {
			select {
			case <-time.After(a.pause):
			case <-ctx.Done():
				a.logger.Warn("Analysis batch interrupted", "reason", ctx.Err())
				return result
			}
		}
	}
	return result
}

func (a *Analyzer) analyzeOne(ctx context.Context, candidate store.AnalysisCandidate) error {
	content, err := a.content.FetchRepoContent(ctx, candidate.Owner, candidate.Name)
	if err != nil {
		return err
	}

	result, err := a.llm.Analyze(ctx, content)
	if err != nil {
		return err
	}

	return a.store.ReplaceAnalysis(ctx, model.Analysis{
		RepoID:          candidate.RepoID,
		SummaryKo:       result.SummaryKo,
		SummaryEn:       result.SummaryEn,
		TechStack:       jsonList(result.TechStack),
		Category:        result.Category,
		UseCases:        jsonList(result.UseCases),
		SimilarProjects: jsonList(result.SimilarProjects),
		Highlights:      jsonList(result.Highlights),
		Difficulty:      result.Difficulty,
		ModelVersion:    a.llm.Model(),
		AnalyzedAt:      a.now(),
	})
}

func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}
