// Package mocks provides centralized mock implementations for testing.
//
// Each mock has function fields for custom behavior, default return values
// and mutex-guarded call tracking:
//
//	gen := &mocks.MockGenerator{
//	    GenerateFlashcardsFn: func(ctx context.Context, text string) (domain.FlashcardBatch, error) {
//	        return nil, generation.ErrServiceUnavailable
//	    },
//	}
//	...
//	assert.Equal(t, 1, gen.GenerateFlashcardsCalls.Count)
//
// When adding a new mock, create a file named after the interface being
// mocked and follow the same layout.
package mocks
