// Command reelsmith runs the video pipelines in the foreground, queues jobs
// for the reelsmithd daemon and inspects the job store both share.
//
// Foreground commands (run, analyze, prompt) compile a graph in-process and
// stream node completions to the terminal. Queue commands (submit, jobs)
// read and write the SQLite job store directly, so they work whether or not
// the daemon is running.
package main
