package intent

import "regexp"

type redFlagPattern struct {
	pattern *regexp.Regexp
	message string
}

var redFlagPatterns = []redFlagPattern{
	{
		pattern: regexp.MustCompile(`(?i)\b(chest pain|pressure in chest|tightness in chest)\b`),
		message: "Chest pain can be an emergency.",
	},
	{
		pattern: regexp.MustCompile(`(?i)\b(trouble breathing|shortness of breath)\b`),
		message: "Trouble breathing can be an emergency.",
	},
	{
		pattern: regexp.MustCompile(`(?i)\b(face droop|slurred speech|weakness on one side|stroke)\b`),
		message: "Possible stroke symptoms can be an emergency.",
	},
}

// DetectRedFlags returns a safety message when the text describes a possible
// emergency, and ok=false otherwise. Red-flag screening runs before any
// routing so escalations never reach scheduling.
func DetectRedFlags(text string) (string, bool) {
	for _, rf := range redFlagPatterns {
		if rf.pattern.MatchString(text) {
			return rf.message, true
		}
	}
	return "", false
}
