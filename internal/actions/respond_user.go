package actions

import (
	"context"
)

// RespondUserAction passes a message through for the user. Always succeeds.
// Inputs:
// - message: string
// Output: {"message": string}
type RespondUserAction struct{}

func (r *RespondUserAction) Name() string { return "respond_user" }

func (r *RespondUserAction) Execute(ctx context.Context, input map[string]any) Result {
	return success(map[string]any{"message": getString(input, "message")})
}
