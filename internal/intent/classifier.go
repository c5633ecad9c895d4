// Package intent maps free-text patient concerns to care categories and
// screens them for emergency red flags. Both classifiers are deterministic
// keyword matchers with no external calls and no state.
package intent

import "regexp"

// Confidence grades how well a message matched a rule.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Intent is the routing recommendation produced from a patient message.
type Intent struct {
	VisitReasonCode         string     `json:"visit_reason_code"`
	VisitReasonLabel        string     `json:"visit_reason_label"`
	RecommendedProviderType string     `json:"recommended_provider_type"`
	Confidence              Confidence `json:"confidence"`
}

type intentRule struct {
	pattern *regexp.Regexp
	intent  Intent
}

var intentRules = []intentRule{
	{
		pattern: regexp.MustCompile(`(?i)\b(sore throat|strep|cough|fever|flu|cold|sinus|ear pain)\b`),
		intent: Intent{
			VisitReasonCode:         "URTI_SORE_THROAT",
			VisitReasonLabel:        "upper respiratory symptoms",
			RecommendedProviderType: "urgent_care",
			Confidence:              ConfidenceHigh,
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)\b(rash|hives|eczema|acne|skin|mole)\b`),
		intent: Intent{
			VisitReasonCode:         "DERM_RASH",
			VisitReasonLabel:        "skin concern",
			RecommendedProviderType: "dermatology",
			Confidence:              ConfidenceHigh,
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)\b(knee|shoulder|ankle|wrist|sprain|fracture|bone|joint|back pain)\b`),
		intent: Intent{
			VisitReasonCode:         "MSK_PAIN",
			VisitReasonLabel:        "musculoskeletal pain/injury",
			RecommendedProviderType: "orthopedics",
			Confidence:              ConfidenceMedium,
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)\b(checkup|physical|annual|wellness|establish care|new patient)\b`),
		intent: Intent{
			VisitReasonCode:         "PCP_ROUTINE",
			VisitReasonLabel:        "routine primary care",
			RecommendedProviderType: "primary_care",
			Confidence:              ConfidenceHigh,
		},
	},
}

// genericIntent is the fallback when nothing matched.
var genericIntent = Intent{
	VisitReasonCode:         "GENERIC_TRIAGE",
	VisitReasonLabel:        "a health concern",
	RecommendedProviderType: "primary_care",
	Confidence:              ConfidenceLow,
}

// MapIntent classifies a patient message. First matching rule wins; an
// unmatched message routes to primary care with low confidence.
func MapIntent(message string) Intent {
	for _, rule := range intentRules {
		if rule.pattern.MatchString(message) {
			return rule.intent
		}
	}
	return genericIntent
}

// FollowUpQuestions returns clarifying prompts for low-confidence matches.
func FollowUpQuestions(confidence Confidence) []string {
	if confidence != ConfidenceLow {
		return []string{}
	}
	return []string{
		"What symptom or concern is most important today?",
		"Is this urgent (today/soon) or routine?",
		"Do you prefer in-person or virtual?",
	}
}
