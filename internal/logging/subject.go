package logging

import "strings"

// FormatSubject builds the screen/artifact subject string used in console output.
func FormatSubject(screenID, artifact string) string {
	screenID = strings.TrimSpace(screenID)
	artifact = strings.TrimSpace(artifact)
	switch {
	case screenID != "" && artifact != "":
		return "Screen " + screenID + " (" + artifact + ")"
	case screenID != "":
		return "Screen " + screenID
	case artifact != "":
		return artifact
	}
	return ""
}
