package llm

import (
	"context"
)

// Oracle is the text-completion capability the engine treats as a black box.
// Implementations must be safe to retry with the same prompt; failures
// surface as an error or as empty/garbage text, which callers handle through
// their own parse-and-validate paths.
type Oracle interface {
	Ask(ctx context.Context, prompt string) (string, error)
}
