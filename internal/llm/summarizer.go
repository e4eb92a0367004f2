// Package llm generates article summaries through OpenAI-compatible chat
// completion APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"KeywordDigest/internal/config"
	"KeywordDigest/internal/domain"
	"KeywordDigest/internal/ports"
)

const (
	bodyExcerptLimit    = 9000
	fallbackPreviewSize = 400
)

const systemPrompt = `당신은 한국 부동산/공공분양 정보를 정리하는 리서치 어시스턴트다.
과장하지 말고, 기사 본문에 근거한 사실 위주로 요약하라.
불확실하거나 출처가 애매한 내용은 명확하게 '확인 필요'로 표시하라.`

// Summarizer implements ports.Summarizer backed by OpenAI-compatible APIs.
type Summarizer struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer builds a client from configuration.
func NewSummarizer(cfg config.OpenAIConfig, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Summarize asks the model for a structured Korean summary of one article.
// Transport and API failures, as well as empty model output, degrade to a
// labeled fallback summary built from the best available excerpt; the article
// always stays in the digest.
func (s *Summarizer) Summarize(ctx context.Context, coreKeyword string, article domain.ScoredArticle) domain.SummaryResult {
	content, err := s.complete(ctx, buildUserPrompt(coreKeyword, article))
	if err != nil {
		s.warn("summarization failed", "url", article.CanonicalURL, "error", err)
		return fallbackResult(article, domain.SummaryAPIError)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		s.warn("summarization returned empty output", "url", article.CanonicalURL)
		return fallbackResult(article, domain.SummaryEmptyOutput)
	}

	return domain.SummaryResult{Text: content, Success: true, Reason: domain.SummaryOK}
}

func (s *Summarizer) complete(ctx context.Context, userPrompt string) (string, error) {
	if s.apiKey == "" || s.endpoint == "" || s.model == "" {
		return "", fmt.Errorf("summarizer misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       s.model,
		"temperature": 0.2,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}

	return parsed.Choices[0].Message.Content, nil
}

func buildUserPrompt(coreKeyword string, article domain.ScoredArticle) string {
	bodyExcerpt := truncateRunes(article.ExtractedText, bodyExcerptLimit)
	if bodyExcerpt == "" {
		bodyExcerpt = "본문 추출 실패"
	}

	return strings.TrimSpace(fmt.Sprintf(`[핵심 키워드]
%s

[문서 제목]
%s

[문서 스니펫]
%s

[문서 본문 발췌]
%s

[요청 형식]
1) 핵심 요약: 4~6문장
2) 분양/청약 포인트: 최대 3개
3) 확인 필요 사항: 없으면 '없음'
4) 수신자 액션 제안: 1~2문장
모든 응답은 한국어로 작성.`,
		coreKeyword,
		article.Result.Title,
		article.Result.Snippet,
		bodyExcerpt,
	))
}

// fallbackResult builds a clearly labeled summary from the best available
// excerpt so a failed generation still carries something useful.
func fallbackResult(article domain.ScoredArticle, reason domain.SummaryReason) domain.SummaryResult {
	fallback := truncateRunes(strings.TrimSpace(article.ExtractedText), fallbackPreviewSize)
	if fallback == "" {
		fallback = strings.TrimSpace(article.Result.Snippet)
	}
	if fallback == "" {
		fallback = "본문 추출 실패로 링크 확인이 필요합니다."
	}

	return domain.SummaryResult{
		Text:    "요약 생성 실패. 원문 확인 필요.\n핵심 발췌: " + fallback,
		Success: false,
		Reason:  reason,
	}
}

func (s *Summarizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
