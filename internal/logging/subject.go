package logging

import "strings"

// FormatSubject builds the job/stage subject string used in console output.
func FormatSubject(jobID, stage string) string {
	jobID = strings.TrimSpace(jobID)
	stage = strings.TrimSpace(stage)
	switch {
	case jobID != "" && stage != "":
		return "Job " + jobID + " · " + stage
	case jobID != "":
		return "Job " + jobID
	default:
		return stage
	}
}
