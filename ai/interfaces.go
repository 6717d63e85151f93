package ai

import "context"

// Extractor sends a record title to a text-extraction service and returns
// the decoded structured items.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract asks the provider to extract fitment items from title using model.
	// An empty model selects the provider's configured default.
	//
	// A nil error means the provider call completed; Items may still be empty
	// (safety block, empty output, unparseable output). A non-nil error means
	// the call itself failed (rate limited, transport error, error status,
	// malformed response shape).
	Extract(ctx context.Context, title, model string) (*Extraction, error)

	// Close releases resources held by the extractor.
	Close() error
}

// Extraction is the successful outcome of one provider call.
type Extraction struct {
	// Items are the decoded JSON values. Never nil on success.
	Items []any

	// InputTokens is the prompt token count reported by the provider.
	InputTokens int

	// OutputTokens is the generated token count reported by the provider.
	OutputTokens int

	// Finish is why generation stopped.
	Finish FinishReason
}

// FinishReason describes why the provider stopped generating.
type FinishReason int

const (
	// FinishUnspecified means the provider did not report a reason.
	FinishUnspecified FinishReason = iota
	// FinishStop is a normal stop.
	FinishStop
	// FinishLength means output was cut off by the token limit.
	FinishLength
	// FinishBlocked means output was withheld by a safety or policy filter.
	FinishBlocked
	// FinishOther is any other provider-specific reason.
	FinishOther
)

// String returns a lowercase name for the finish reason.
func (f FinishReason) String() string {
	switch f {
	case FinishStop:
		return "stop"
	case FinishLength:
		return "length"
	case FinishBlocked:
		return "blocked"
	case FinishOther:
		return "other"
	default:
		return "unspecified"
	}
}
