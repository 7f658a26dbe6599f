package logging

import "strings"

// FormatSubject builds the job/node subject string used in console output.
// Job IDs are shortened to their first eight characters.
func FormatSubject(jobID, node string) string {
	jobID = strings.TrimSpace(jobID)
	node = strings.TrimSpace(node)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	switch {
	case jobID != "" && node != "":
		return "Job " + jobID + " (" + node + ")"
	case jobID != "":
		return "Job " + jobID
	default:
		return node
	}
}
