// Package mock provides a test double for ai.Extractor.
//
// The mock lets scheduler and service tests run without a provider and with
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Default behavior: one item per title
//	extractor := mock.NewMockExtractor()
//
//	// Custom behavior injection
//	extractor := mock.NewMockExtractor().
//	    WithExtractFunc(func(ctx context.Context, title, model string) (*ai.Extraction, error) {
//	        return nil, ai.ErrRateLimited
//	    })
//
//	// Check call counts
//	count := extractor.CallCount()
//
// MockExtractor is safe for concurrent use, since the scheduler calls it from
// many workers at once.
package mock
