package modelfusion

import (
	"context"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/executor"
)

// StreamText starts a streamed generation for prompt. Fragments are pulled
// from the provider as the caller consumes them:
//
//	stream, err := modelfusion.StreamText(ctx, model, prompt)
//	if err != nil {
//		return err
//	}
//	for fragment, err := range stream.All() {
//		if err != nil {
//			return err
//		}
//		fmt.Print(fragment)
//	}
func StreamText[P, D, S any](ctx context.Context, model api.TextStreamingModel[P, D, S], prompt P, options ...Option) (*executor.TextStream[D], error) {
	return executor.Stream(ctx, model, prompt, options...)
}
