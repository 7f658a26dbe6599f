// Package cleanup removes run artifacts from the work directory.
//
// RemoveArtifacts deletes the files a finished run tracked in temp_files and
// prunes the job directory once it is empty. CleanStale sweeps job
// directories left behind by crashed or abandoned runs.
package cleanup
