package queue

import "context"

type jobContextKey struct{}

// ContextWithJob returns a copy of ctx carrying the job being processed
func ContextWithJob(ctx context.Context, job Job) context.Context {
	return context.WithValue(ctx, jobContextKey{}, job)
}

// JobFromContext returns the job stored by ContextWithJob
func JobFromContext(ctx context.Context) (Job, bool) {
	job, ok := ctx.Value(jobContextKey{}).(Job)
	return job, ok && job != nil
}
