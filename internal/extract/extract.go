// Package extract drives the model calls of the pipeline: it builds prompts,
// caches responses, recovers JSON from noisy replies and classifies failures
// into the error kinds reports carry.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/yashsmehta/auto-apply/internal/cache"
	"github.com/yashsmehta/auto-apply/internal/jsonx"
	"github.com/yashsmehta/auto-apply/internal/metrics"
	"github.com/yashsmehta/auto-apply/models"
	"github.com/yashsmehta/auto-apply/provider"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// cacheOperation is the operation kind under which model responses are keyed.
const cacheOperation = "generate"

// Stats counts the model traffic handled by a service.
type Stats struct {
	TotalCalls      int64 `json:"total_calls"`
	SuccessfulCalls int64 `json:"successful_calls"`
	FailedCalls     int64 `json:"failed_calls"`
	CacheHits       int64 `json:"cache_hits"`
	TotalTimeMS     int64 `json:"total_processing_ms"`
	AverageTimeMS   int64 `json:"average_processing_ms"`
}

// Service wraps an LLM provider with response caching, usage stats and typed
// errors. A nil cache disables caching; calls always go to the provider.
type Service struct {
	provider provider.Provider
	cache    *cache.Cache
	timeout  time.Duration
	logger   *log.Logger

	mu    sync.Mutex
	stats Stats
}

// NewService builds an extraction service around p.
func NewService(p provider.Provider, c *cache.Cache, timeout time.Duration, logger *log.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[EXTRACT] ", log.LstdFlags)
	}
	return &Service{provider: p, cache: c, timeout: timeout, logger: logger}
}

// Stats returns a snapshot of usage counters with the average filled in.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	if st.TotalCalls > 0 {
		st.AverageTimeMS = st.TotalTimeMS / st.TotalCalls
	}
	return st
}

// Extraction is the outcome of an extraction step whose payload is a JSON
// object: the recovered value (or raw fallback), call diagnostics and an
// optional parse warning.
type Extraction struct {
	Payload   models.StagePayload
	Warning   string
	ElapsedMS int64
	FromCache bool
}

// ListExtraction is the outcome of an extraction step whose payload must be
// a list. Items is never nil.
type ListExtraction struct {
	Items     []interface{}
	Warning   string
	ElapsedMS int64
	FromCache bool
}

// ExtractProgramInfo reads an info page and returns the structured program
// description. When JSON recovery fails the raw model text is kept as the
// payload and a warning is returned instead of an error.
func (s *Service) ExtractProgramInfo(ctx context.Context, page string) (Extraction, error) {
	gen, err := s.generate(ctx, InfoExtractionPrompt(page))
	if err != nil {
		return Extraction{ElapsedMS: gen.ElapsedMS}, err
	}
	out := Extraction{ElapsedMS: gen.ElapsedMS, FromCache: gen.FromCache}
	value, perr := jsonx.Extract(gen.Response)
	if perr != nil {
		s.logger.Printf("info extraction produced no parseable JSON, keeping raw response (%d bytes)", len(gen.Response))
		out.Payload = models.RawPayload(gen.Response)
		out.Warning = perr.Error()
		return out, nil
	}
	out.Payload = models.StructuredPayload(value)
	return out, nil
}

// ExtractQuestions reads a form page and returns the list of questions. A
// non-list payload is unwrapped through a "questions" key when present and
// defaults to an empty list otherwise; recovery failure yields an empty list
// plus a warning.
func (s *Service) ExtractQuestions(ctx context.Context, page string) (ListExtraction, error) {
	gen, err := s.generate(ctx, QuestionExtractionPrompt(page))
	if err != nil {
		return ListExtraction{Items: []interface{}{}, ElapsedMS: gen.ElapsedMS}, err
	}
	out := ListExtraction{Items: []interface{}{}, ElapsedMS: gen.ElapsedMS, FromCache: gen.FromCache}
	value, perr := jsonx.Extract(gen.Response)
	if perr != nil {
		s.logger.Printf("question extraction produced no parseable JSON, continuing with empty list")
		out.Warning = perr.Error()
		return out, nil
	}
	out.Items = NormalizeList(value, "questions")
	return out, nil
}

// GenerateAnswers drafts an answer for every question. The info payload and
// question list are embedded in full. Same unwrap/default policy as
// ExtractQuestions, keyed on "answers".
func (s *Service) GenerateAnswers(ctx context.Context, info models.StagePayload, questions []interface{}, applicantContext string) (ListExtraction, error) {
	prompt, err := AnswerGenerationPrompt(info.Value(), questions, applicantContext)
	if err != nil {
		return ListExtraction{Items: []interface{}{}},
			models.NewStageError(models.ErrorKindUnexpected, "", fmt.Sprintf("Unexpected error building prompt: %v", err), 0, err)
	}
	gen, err := s.generate(ctx, prompt)
	if err != nil {
		return ListExtraction{Items: []interface{}{}, ElapsedMS: gen.ElapsedMS}, err
	}
	out := ListExtraction{Items: []interface{}{}, ElapsedMS: gen.ElapsedMS, FromCache: gen.FromCache}
	value, perr := jsonx.Extract(gen.Response)
	if perr != nil {
		s.logger.Printf("answer generation produced no parseable JSON, continuing with empty list")
		out.Warning = perr.Error()
		return out, nil
	}
	out.Items = NormalizeList(value, "answers")
	return out, nil
}

// NormalizeList coerces a recovered JSON value into the list a step expects:
// lists pass through, objects are unwrapped through key when it holds a list,
// and everything else collapses to an empty list so a malformed shape never
// propagates downstream.
func NormalizeList(v interface{}, key string) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		return t
	case map[string]interface{}:
		if inner, ok := t[key]; ok {
			if list, ok := inner.([]interface{}); ok {
				return list
			}
		}
	}
	return []interface{}{}
}

// generation is one raw model exchange.
type generation struct {
	Response  string
	ElapsedMS int64
	FromCache bool
}

// generate runs one cached model call: cache lookup, provider call, cache
// store. Failures come back as stage errors with the kind already classified;
// the caller attributes the stage.
func (s *Service) generate(ctx context.Context, prompt string) (generation, error) {
	start := time.Now()
	s.track(func(st *Stats) { st.TotalCalls++ })

	if s.cache != nil {
		if v, ok := s.cache.Get(prompt, cacheOperation); ok {
			if resp, ok := v.(string); ok {
				elapsed := time.Since(start)
				s.track(func(st *Stats) {
					st.CacheHits++
					st.SuccessfulCalls++
					st.TotalTimeMS += int64(elapsed / time.Millisecond)
				})
				metrics.CacheEvents.WithLabelValues("hit").Inc()
				metrics.LLMCalls.WithLabelValues("cache_hit").Inc()
				return generation{Response: resp, ElapsedMS: int64(elapsed / time.Millisecond), FromCache: true}, nil
			}
		}
		metrics.CacheEvents.WithLabelValues("miss").Inc()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Generate(ctx, prompt)
	elapsed := time.Since(start)
	elapsedMS := int64(elapsed / time.Millisecond)

	if err != nil {
		s.track(func(st *Stats) {
			st.FailedCalls++
			st.TotalTimeMS += elapsedMS
		})
		metrics.LLMCalls.WithLabelValues("failure").Inc()
		if isTimeout(err) {
			return generation{ElapsedMS: elapsedMS}, models.NewStageError(
				models.ErrorKindTimeout, "",
				fmt.Sprintf("Model call timed out after %s", s.timeout),
				elapsed, err)
		}
		return generation{ElapsedMS: elapsedMS}, models.NewStageError(
			models.ErrorKindUnexpected, "",
			fmt.Sprintf("Unexpected error calling model: %v", err),
			elapsed, err)
	}

	resp = strings.TrimSpace(resp)
	if resp == "" {
		s.track(func(st *Stats) {
			st.FailedCalls++
			st.TotalTimeMS += elapsedMS
		})
		metrics.LLMCalls.WithLabelValues("failure").Inc()
		return generation{ElapsedMS: elapsedMS}, models.NewStageError(
			models.ErrorKindEmptyResponse, "",
			"Empty response from model",
			elapsed, nil)
	}

	s.track(func(st *Stats) {
		st.SuccessfulCalls++
		st.TotalTimeMS += elapsedMS
	})
	metrics.LLMCalls.WithLabelValues("success").Inc()

	if s.cache != nil {
		s.cache.Set(prompt, cacheOperation, resp)
		metrics.CacheEvents.WithLabelValues("store").Inc()
	}
	return generation{Response: resp, ElapsedMS: elapsedMS}, nil
}

func (s *Service) track(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
