// Package llm invokes a language model provider and returns its answer as a
// decoded JSON object.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/tradesnap/tradesnap/internal/inference"
	"github.com/tradesnap/tradesnap/internal/prompts"
	"github.com/tradesnap/tradesnap/internal/schema"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// ErrMalformedResponse is returned when the model answer holds no JSON object.
var ErrMalformedResponse = errors.New("model response is not a JSON object")

// Request is one structured-output call.
type Request struct {
	Prompt                 string
	FileURLs               []string
	AddContextFromInternet bool
	Schema                 *genai.Schema
	Operation              string
	UserID                 string
}

// FromPrompt builds the request for a prepared prompt.
func FromPrompt(p prompts.Prompt, userID string) Request {
	return Request{
		Prompt:                 p.Text,
		FileURLs:               p.FileURLs,
		AddContextFromInternet: p.AddContextFromInternet,
		Schema:                 p.Schema,
		Operation:              string(p.Kind),
		UserID:                 userID,
	}
}

// Invoker runs a request and returns the decoded response object.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (map[string]any, error)
}

// File is an attachment resolved from a file URL.
type File struct {
	Data        []byte
	ContentType string
}

// Call is what a provider receives: the request plus its resolved files.
type Call struct {
	Request
	Files []File
}

// Completion is the raw text answer of a provider.
type Completion struct {
	Text     string
	Model    string
	Usage    inference.Usage
	Attempts int
}

// Provider talks to a single model vendor.
type Provider interface {
	Name() string
	Complete(ctx context.Context, call Call) (Completion, error)
}

// FileSource resolves file URLs issued by the upload store.
type FileSource interface {
	Open(ctx context.Context, fileURL string) ([]byte, string, error)
}

// Recorder receives per-call metrics.
type Recorder interface {
	LLMCall(provider, operation string, latency time.Duration, err error)
}

// Options tune a Service. Zero values disable the optional parts.
type Options struct {
	RequestsPerMinute int
	ValidateResponses bool
	Files             FileSource
	InferenceLogger   *inference.Logger
	Metrics           Recorder
}

// Service wraps a Provider with rate limiting, attachment loading, call
// logging and JSON decoding. It implements Invoker.
type Service struct {
	provider  Provider
	limiter   *rate.Limiter
	files     FileSource
	inference *inference.Logger
	metrics   Recorder
	validate  bool
	logger    *slog.Logger
}

// NewService creates an Invoker backed by provider.
func NewService(provider Provider, opts Options, logger *slog.Logger) *Service {
	s := &Service{
		provider:  provider,
		files:     opts.Files,
		inference: opts.InferenceLogger,
		metrics:   opts.Metrics,
		validate:  opts.ValidateResponses,
		logger:    logger,
	}
	if opts.RequestsPerMinute > 0 {
		burst := opts.RequestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), burst)
	}
	return s
}

// Provider returns the name of the wrapped provider.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// Invoke implements Invoker.
func (s *Service) Invoke(ctx context.Context, req Request) (map[string]any, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for %s rate limit: %w", s.provider.Name(), err)
		}
	}

	files, err := s.loadFiles(ctx, req.FileURLs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	completion, err := s.provider.Complete(ctx, Call{Request: req, Files: files})
	latency := time.Since(start)

	s.record(ctx, req, completion, latency, err)

	if err != nil {
		return nil, fmt.Errorf("%s %s call failed: %w", s.provider.Name(), req.Operation, err)
	}

	result, err := DecodeObject(completion.Text)
	if err != nil {
		s.logger.Error("failed to decode model response",
			"provider", s.provider.Name(),
			"operation", req.Operation,
			"response_length", len(completion.Text),
			"error", err)
		return nil, err
	}

	if s.validate && req.Schema != nil {
		s.check(req, result)
	}

	return result, nil
}

func (s *Service) loadFiles(ctx context.Context, urls []string) ([]File, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	if s.files == nil {
		return nil, fmt.Errorf("no file source configured for %d attachment(s)", len(urls))
	}

	files := make([]File, 0, len(urls))
	for _, u := range urls {
		data, contentType, err := s.files.Open(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("open attachment %s: %w", u, err)
		}
		files = append(files, File{Data: data, ContentType: contentType})
	}
	return files, nil
}

func (s *Service) record(ctx context.Context, req Request, c Completion, latency time.Duration, err error) {
	s.logger.Info("llm call complete",
		"provider", s.provider.Name(),
		"operation", req.Operation,
		"attempts", c.Attempts,
		"duration_ms", latency.Milliseconds(),
		"success", err == nil)

	if s.metrics != nil {
		s.metrics.LLMCall(s.provider.Name(), req.Operation, latency, err)
	}

	if s.inference != nil {
		s.inference.Log(ctx, inference.Call{
			Provider:  s.provider.Name(),
			Model:     c.Model,
			Operation: req.Operation,
			UserID:    req.UserID,
			Usage:     c.Usage,
			Latency:   latency,
			Err:       err,
			Metadata: map[string]interface{}{
				"attempts":         c.Attempts,
				"file_count":       len(req.FileURLs),
				"internet_context": req.AddContextFromInternet,
			},
		})
	}
}

// check logs schema violations. The normalizer tolerates partial answers,
// so a mismatch is a warning rather than a failure.
func (s *Service) check(req Request, result map[string]any) {
	v, err := schema.NewValidator(req.Schema)
	if err != nil {
		s.logger.Warn("response schema unusable", "operation", req.Operation, "error", err)
		return
	}
	if err := v.Validate(result); err != nil {
		s.logger.Warn("model response does not match schema",
			"provider", s.provider.Name(),
			"operation", req.Operation,
			"error", err)
	}
}
