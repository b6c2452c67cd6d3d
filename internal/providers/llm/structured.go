package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// CallOptions tunes a Structured call.
type CallOptions struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// OnAttempt, when set, observes every attempt (1-based) with the raw
	// oracle output and the parse/validation error, nil on success. It must
	// not panic; failures inside it are the observer's problem.
	OnAttempt func(attempt int, raw string, err error)
}

// Structured asks the oracle for JSON matching T and retries with the
// specific error appended to the prompt verbatim, closing the correction
// loop. Markdown fences are stripped and a repair pass is applied before the
// decode. validate may be nil. Returns the parsed value and the number of
// attempts spent.
func Structured[T any](ctx context.Context, o Oracle, prompt string, opts CallOptions, validate func(*T) error) (*T, int, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		attempts = attempt + 1
		raw, err := o.Ask(ctx, prompt)
		if err == nil {
			var v T
			err = DecodeJSON(raw, &v)
			if err == nil && validate != nil {
				err = validate(&v)
			}
			if opts.OnAttempt != nil {
				opts.OnAttempt(attempts, raw, err)
			}
			if err == nil {
				return &v, attempts, nil
			}
		} else if opts.OnAttempt != nil {
			opts.OnAttempt(attempts, "", err)
		}
		lastErr = err
		prompt += fmt.Sprintf("\n\nERROR: Previous response was invalid JSON or violated schema. Fix this error: %v", err)
	}
	return nil, attempts, fmt.Errorf("max retries reached: %w", lastErr)
}

// DecodeJSON strips fences, applies a repair pass when the first decode
// fails, and unmarshals into v.
func DecodeJSON(raw string, v any) error {
	text := StripFences(raw)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		fixed, rerr := jsonrepair.JSONRepair(text)
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return nil
}

// StripFences removes a surrounding markdown code fence, if present.
func StripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	// drop possible language hint, e.g. json
	if idx := strings.IndexByte(t, '\n'); idx != -1 {
		t = t[idx+1:]
	}
	if j := strings.LastIndex(t, "```"); j != -1 {
		t = t[:j]
	}
	return strings.TrimSpace(t)
}
