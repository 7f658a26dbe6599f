// Package workflow runs queued jobs through the pipeline graphs.
//
// A Runner executes one job: it decodes the stored Request, seeds and
// streams the matching graph, forwards step progress to the job row and
// stores the typed outcome. Runs of the full pipeline checkpoint into the
// job store, so a job reclaimed after a crash resumes from its last completed
// step instead of starting over.
//
// The Manager wraps a Runner in the daemon loop. It claims queued jobs up to
// the configured concurrency, reclaims jobs whose heartbeat went stale,
// cancels runs whose job row was deleted or cancelled, removes run artifacts
// unless keep_temp_files is set, and publishes ntfy notifications.
package workflow
