package main

import (
	"context"
	"os"

	"tmplc/internal/buildpipeline"
	"tmplc/internal/driver"
	"tmplc/internal/ui"
)

type compileOutcome struct {
	result *driver.Result
	err    error
}

// runCompileWithUI compiles req while the progress UI consumes its events.
func runCompileWithUI(ctx context.Context, title string, req *driver.Request) (*driver.Result, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan compileOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := driver.Compile(ctx, &reqCopy)
		close(events)
		outcomeCh <- compileOutcome{result: res, err: err}
	}()

	final := buildpipeline.StageLower
	if req.OutDir != "" {
		final = buildpipeline.StageWrite
	}
	uiErr := ui.Run(os.Stderr, title, req.Files, events, final)
	if uiErr != nil {
		// UI упал: дочитываем события, чтобы компиляция не встала
		for range events {
		}
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
