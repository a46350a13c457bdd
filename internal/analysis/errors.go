package analysis

import (
	"errors"
	"fmt"

	"github.com/tradesnap/tradesnap/internal/llm"
	"github.com/tradesnap/tradesnap/internal/prompts"
)

// NetworkError reports a failed call to the upload store, the language
// model or the analysis store. Message is safe to show to users; Detail
// carries the underlying error text.
type NetworkError struct {
	Operation prompts.Kind
	Message   string
	Detail    string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Detail)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func networkError(kind prompts.Kind, err error) *NetworkError {
	return &NetworkError{
		Operation: kind,
		Message:   failureMessage(kind, err),
		Detail:    err.Error(),
		Err:       err,
	}
}

func failureMessage(kind prompts.Kind, err error) string {
	switch kind {
	case prompts.KindChart:
		if errors.Is(err, llm.ErrMalformedResponse) {
			return "Chart analysis failed. The AI service couldn't process the image. Please ensure the image contains a valid trading chart."
		}
		return fmt.Sprintf("Chart analysis failed. %s. Please try uploading a clearer chart image with visible price data and technical indicators.", err)
	case prompts.KindValueScreening:
		return "Failed to fetch market data. Please try again."
	case prompts.KindTopMovers:
		return "Failed to load top movers. Please try again."
	case prompts.KindNewsSignals:
		return "Failed to load news signals. Please try again."
	default:
		return "Analysis failed. Please try again."
	}
}
