package graph

import "context"

// Reporter receives a notification after each node completes.
type Reporter interface {
	OnStep(ctx context.Context, jobID, stepName string, stepIndex, totalSteps int)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, jobID, stepName string, stepIndex, totalSteps int)

func (f ReporterFunc) OnStep(ctx context.Context, jobID, stepName string, stepIndex, totalSteps int) {
	f(ctx, jobID, stepName, stepIndex, totalSteps)
}
