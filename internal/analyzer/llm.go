// internal/analyzer/llm.go
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	apperrors "github-trending-tracker/internal/errors"
	"github-trending-tracker/internal/model"
)

const (
	anthropicVersion = "2023-06-01"
	maxTokens        = 4096
	promptTreeMax    = 80

	systemPrompt = "You are a GitHub repository analyzer. Always respond with valid JSON only, no markdown fencing."
)

var fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// LLMClient calls the Anthropic Messages API to analyze a repository.
type LLMClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewLLMClient creates an LLMClient. Model names the completion model and is
// also recorded on stored analyses.
func NewLLMClient(apiKey, baseURL, model string, logger *slog.Logger) *LLMClient {
	return &LLMClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}
}

// Model returns the configured model name.
func (c *LLMClient) Model() string { return c.model }

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Analyze sends the analysis prompt and decodes the structured result.
func (c *LLMClient) Analyze(ctx context.Context, content model.RepoContent) (model.AnalysisResult, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: buildPrompt(content)}},
	})
	if err != nil {
		return model.AnalysisResult{}, err
	}

	url := c.baseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.AnalysisResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.AnalysisResult{}, &apperrors.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	var mr messagesResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("decode messages response: %w", err)
	}

	var text strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return parseAnalysisResponse(text.String())
}

// parseAnalysisResponse tries an ordered list of extraction strategies: the
// raw text as JSON, a fenced code block, then the outermost brace-delimited
// span. Exhaustion yields *errors.ParseError.
func parseAnalysisResponse(text string) (model.AnalysisResult, error) {
	candidates := []string{text}
	if m := fencedRe.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			candidates = append(candidates, text[start:end+1])
		}
	}

	for _, candidate := range candidates {
		var result model.AnalysisResult
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
	}
	return model.AnalysisResult{}, &apperrors.ParseError{Reason: "no JSON object found in response"}
}

// buildPrompt renders the repository facts into the analysis prompt.
func buildPrompt(content model.RepoContent) string {
	info := content.Info

	var b strings.Builder
	b.WriteString("Analyze this GitHub repository and provide a structured analysis.\n\n")
	b.WriteString("## Repository\n")
	fmt.Fprintf(&b, "- Name: %s\n", info.FullName)
	fmt.Fprintf(&b, "- Description: %s\n", strValue(info.Description))
	fmt.Fprintf(&b, "- Stars: %d | Forks: %d\n", info.Stars, info.Forks)
	fmt.Fprintf(&b, "- Primary Language: %s\n", strValue(info.Language))
	fmt.Fprintf(&b, "- Topics: %s\n", listValue(info.Topics))
	fmt.Fprintf(&b, "- License: %s\n", strValue(info.License))

	b.WriteString("\n## Languages\n")
	if breakdown := languageBreakdown(content.Languages); breakdown != "" {
		b.WriteString(breakdown + "\n")
	} else {
		b.WriteString("N/A\n")
	}

	b.WriteString("\n## File Structure (top files)\n")
	if len(content.FileTree) > 0 {
		tree := content.FileTree
		if len(tree) > promptTreeMax {
			tree = tree[:promptTreeMax]
		}
		b.WriteString(strings.Join(tree, "\n") + "\n")
	} else {
		b.WriteString("N/A\n")
	}

	if deps := manifestDeps(content.Manifest); deps != "" {
		b.WriteString("\n## Dependencies\n" + deps + "\n")
	}
	if content.Readme != "" {
		b.WriteString("\n## README\n" + content.Readme + "\n")
	}

	b.WriteString(`
Respond with ONLY a JSON object (no markdown fencing) in this exact format:
{
  "summary_ko": "한국어 요약 (2-3문장, 이 프로젝트가 무엇이고 왜 유용한지)",
  "summary_en": "English summary (2-3 sentences, what this project is and why it's useful)",
  "tech_stack": ["technology1", "technology2"],
  "category": "one of: AI/ML, Web Framework, DevOps/Infra, Developer Tool, Library, Database, Security, Mobile, Data/Analytics, Other",
  "use_cases": ["use case 1", "use case 2"],
  "similar_projects": ["similar project 1"],
  "highlights": ["notable feature 1", "notable feature 2"],
  "difficulty": "beginner | intermediate | advanced"
}`)
	return b.String()
}

// languageBreakdown renders per-language byte counts as percentages, largest
// first.
func languageBreakdown(languages map[string]int64) string {
	if len(languages) == 0 {
		return ""
	}
	var total int64
	for _, bytes := range languages {
		total += bytes
	}
	if total == 0 {
		total = 1
	}

	type langShare struct {
		name  string
		bytes int64
	}
	shares := make([]langShare, 0, len(languages))
	for name, bytes := range languages {
		shares = append(shares, langShare{name, bytes})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].bytes > shares[j].bytes })

	parts := make([]string, len(shares))
	for i, s := range shares {
		parts[i] = fmt.Sprintf("%s: %.1f%%", s.name, float64(s.bytes)/float64(total)*100)
	}
	return strings.Join(parts, ", ")
}

// manifestDeps collects dependency names from a package manifest.
func manifestDeps(manifest map[string]any) string {
	if manifest == nil {
		return ""
	}
	names := []string{}
	for _, key := range []string{"dependencies", "devDependencies"} {
		deps, ok := manifest[key].(map[string]any)
		if !ok {
			continue
		}
		for name := range deps {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func strValue(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func listValue(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, ", ")
}
