// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-trending-tracker/internal/analyzer"
	"github-trending-tracker/internal/collector"
	apperrors "github-trending-tracker/internal/errors"
	"github-trending-tracker/internal/model"
	"github-trending-tracker/internal/store"
)

// TrendingCollector runs the collection pipeline for one period.
type TrendingCollector interface {
	Collect(ctx context.Context, period model.Period) (collector.Result, error)
}

// BatchAnalyzer runs the analysis batch job.
type BatchAnalyzer interface {
	RunBatch(ctx context.Context, limit int) analyzer.BatchResult
}

// NotificationSender fans a daily listing out to webhook subscribers.
type NotificationSender interface {
	Send(ctx context.Context, repos []model.TrendingEntry, date string)
}

// Config carries the handler's shared secrets and rendering settings.
type Config struct {
	// CronSecret guards the trigger endpoints; empty disables the check.
	CronSecret string
	// AdminPassword guards webhook management; empty disables the check.
	AdminPassword string
	// AppURL is the public base URL used in the RSS feed.
	AppURL       string
	AnalyzeLimit int
}

// Handler is the container for API dependencies.
type Handler struct {
	db        store.Store
	collector TrendingCollector
	analyzer  BatchAnalyzer
	notifier  NotificationSender
	cfg       Config
	logger    *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(db store.Store, col TrendingCollector, an BatchAnalyzer, not NotificationSender, cfg Config, logger *slog.Logger) http.Handler {
	h := &Handler{
		db:        db,
		collector: col,
		analyzer:  an,
		notifier:  not,
		cfg:       cfg,
		logger:    logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Get("/feed/rss.xml", h.rssFeed)

	r.Route("/api", func(r chi.Router) {
		r.Get("/trending", h.getTrending)
		r.Get("/repo/{owner}/{name}", h.getRepoDetail)

		r.Post("/cron/collect", h.cronCollect)
		r.Post("/cron/analyze", h.cronAnalyze)

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", h.createSubscription)
			r.Get("/", h.listSubscriptions)
			r.Patch("/", h.toggleSubscription)
			r.Delete("/{id}", h.deleteSubscription)
		})
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Database unreachable")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// cronAuthorized checks the trigger endpoints' bearer secret. An absent
// configured secret disables the check.
func (h *Handler) cronAuthorized(r *http.Request) bool {
	if h.cfg.CronSecret == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+h.cfg.CronSecret
}

// adminAuthorized checks the shared-secret admin header. An absent configured
// password disables the check.
func (h *Handler) adminAuthorized(r *http.Request) bool {
	if h.cfg.AdminPassword == "" {
		return true
	}
	return r.Header.Get("X-Admin-Password") == h.cfg.AdminPassword
}

type periodResult struct {
	Count  int    `json:"count"`
	Source string `json:"source"`
}

// cronCollect runs the collection pipeline for every period. Periods are
// independent: one failing does not stop the others. A successful daily
// collection triggers the webhook fan-out.
// POST /api/cron/collect
func (h *Handler) cronCollect(w http.ResponseWriter, r *http.Request) {
	if !h.cronAuthorized(r) {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	results := map[string]periodResult{}
	failures := map[string]string{}
	date := time.Now().Format("2006-01-02")

	for _, period := range model.AllPeriods {
		result, err := h.collector.Collect(r.Context(), period)
		if err != nil {
			h.logger.Error("Collection failed", "period", period, "error", err)
			failures[string(period)] = err.Error()
			continue
		}
		results[string(period)] = periodResult{Count: result.Count, Source: result.Source}
		date = result.Date

		if period == model.PeriodDaily && len(result.Entries) > 0 {
			h.notifier.Send(r.Context(), result.Entries, result.Date)
		}
	}

	if len(results) == 0 {
		respondWithJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"errors":  failures,
		})
		return
	}

	resp := map[string]any{"success": true, "date": date, "results": results}
	if len(failures) > 0 {
		resp["errors"] = failures
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// cronAnalyze runs the analysis batch job.
// POST /api/cron/analyze
func (h *Handler) cronAnalyze(w http.ResponseWriter, r *http.Request) {
	if !h.cronAuthorized(r) {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondWithJSON(w, http.StatusOK, h.analyzer.RunBatch(r.Context(), h.cfg.AnalyzeLimit))
}

// getTrending returns listing rows for a period, optionally narrowed by date
// and language. No data yields an empty list, not an error.
// GET /api/trending?period=daily&date=2026-01-02&language=Go
func (h *Handler) getTrending(w http.ResponseWriter, r *http.Request) {
	period := model.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = model.PeriodDaily
	}
	if !period.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid 'period' parameter. Must be daily, weekly or monthly.")
		return
	}

	rows, err := h.db.ListTrending(r.Context(), store.TrendingQuery{
		Period:   period,
		Date:     r.URL.Query().Get("date"),
		Language: r.URL.Query().Get("language"),
		Limit:    50,
	})
	if err != nil {
		h.logger.Error("Failed to list trending", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, rows)
}

// analysisDetail is the API shape of an analysis with list fields decoded.
type analysisDetail struct {
	model.Analysis
	TechStack       []string `json:"techStack"`
	UseCases        []string `json:"useCases"`
	SimilarProjects []string `json:"similarProjects"`
	Highlights      []string `json:"highlights"`
}

// getRepoDetail returns a repository with its latest analysis, recent
// snapshots and star history.
// GET /api/repo/{owner}/{name}
func (h *Handler) getRepoDetail(w http.ResponseWriter, r *http.Request) {
	fullName := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	repo, err := h.db.GetRepositoryByFullName(r.Context(), fullName)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return
		}
		h.logger.Error("Failed to get repository", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	analysis, err := h.db.GetLatestAnalysis(r.Context(), repo.ID)
	if err != nil {
		h.logger.Error("Failed to get analysis", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	snapshots, err := h.db.ListSnapshots(r.Context(), repo.ID, 30)
	if err != nil {
		h.logger.Error("Failed to list snapshots", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	history, err := h.db.ListStarHistory(r.Context(), repo.ID, 90)
	if err != nil {
		h.logger.Error("Failed to list star history", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var detail *analysisDetail
	if analysis != nil {
		detail = &analysisDetail{
			Analysis:        *analysis,
			TechStack:       decodeList(analysis.TechStack),
			UseCases:        decodeList(analysis.UseCases),
			SimilarProjects: decodeList(analysis.SimilarProjects),
			Highlights:      decodeList(analysis.Highlights),
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"repo":        repo,
		"analysis":    detail,
		"snapshots":   snapshots,
		"starHistory": history,
	})
}

// rssFeed renders the trending listing as RSS 2.0.
// GET /feed/rss.xml?period=daily&language=Go
func (h *Handler) rssFeed(w http.ResponseWriter, r *http.Request) {
	period := model.Period(r.URL.Query().Get("period"))
	if !period.Valid() {
		period = model.PeriodDaily
	}

	rows, err := h.db.ListTrending(r.Context(), store.TrendingQuery{
		Period:   period,
		Language: r.URL.Query().Get("language"),
		Limit:    50,
	})
	if err != nil {
		h.logger.Error("Failed to render RSS feed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(renderRSS(rows, h.cfg.AppURL)))
}

type createSubscriptionRequest struct {
	URL      string          `json:"url"`
	Platform string          `json:"platform"`
	Filters  json.RawMessage `json:"filters"`
}

// createSubscription registers a webhook subscription. Creation is open but
// new subscriptions start inactive pending approval.
// POST /api/webhooks
func (h *Handler) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.URL == "" || req.Platform == "" {
		respondWithError(w, http.StatusBadRequest, "url and platform are required")
		return
	}

	var filters *string
	if len(req.Filters) > 0 && string(req.Filters) != "null" {
		s := string(req.Filters)
		filters = &s
	}

	sub, err := h.db.CreateSubscription(r.Context(), store.CreateSubscriptionParams{
		URL:       req.URL,
		Platform:  req.Platform,
		Filters:   filters,
		CreatedAt: time.Now(),
	})
	if err != nil {
		h.logger.Error("Failed to create subscription", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusCreated, sub)
}

// listSubscriptions returns all subscriptions.
// GET /api/webhooks
func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	if !h.adminAuthorized(r) {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	subs, err := h.db.ListSubscriptions(r.Context())
	if err != nil {
		h.logger.Error("Failed to list subscriptions", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, subs)
}

type toggleSubscriptionRequest struct {
	ID       int64 `json:"id"`
	IsActive *bool `json:"isActive"`
}

// toggleSubscription enables or disables a subscription.
// PATCH /api/webhooks
func (h *Handler) toggleSubscription(w http.ResponseWriter, r *http.Request) {
	if !h.adminAuthorized(r) {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req toggleSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ID == 0 || req.IsActive == nil {
		respondWithError(w, http.StatusBadRequest, "id and isActive are required")
		return
	}

	sub, err := h.db.SetSubscriptionActive(r.Context(), req.ID, *req.IsActive)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Subscription not found")
			return
		}
		h.logger.Error("Failed to toggle subscription", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, sub)
}

// deleteSubscription removes a subscription.
// DELETE /api/webhooks/{id}
func (h *Handler) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	if !h.adminAuthorized(r) {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid subscription id")
		return
	}
	if err := h.db.DeleteSubscription(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete subscription", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodeList(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	return out
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
