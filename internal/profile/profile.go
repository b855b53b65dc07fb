// Package profile recommends an execution profile for a step. Projects
// extend the built-in detection rules through config; the executor is free
// to ignore the recommendation, which is why it lives in the pointer
// artifact rather than the instruction payload.
package profile

import (
	"strings"

	"github.com/mwhitby/nextstep/internal/repo"
)

// DefaultProfile is recommended when no rule matches.
const DefaultProfile = "standard"

// Rule maps a detection keyword to a profile. Match is a case-insensitive
// substring probe against the step filename and body.
type Rule struct {
	Match   string `yaml:"match"`
	Profile string `yaml:"profile"`
	Reason  string `yaml:"reason,omitempty"`
}

// Recommendation names the suggested profile and why it was chosen.
type Recommendation struct {
	Profile string
	Reason  string
}

// defaultRules apply when the project config declares none. Project rules
// replace these entirely rather than merging, so a project can opt out of
// a built-in detection by overriding the set.
var defaultRules = []Rule{
	{Match: "migration", Profile: "careful", Reason: "schema or data migrations get the conservative profile"},
	{Match: "manual test", Profile: "interactive", Reason: "steps with manual test notes need an operator nearby"},
}

// Recommend evaluates rules in order against the step's filename and body
// and returns the first match. With no rules configured the built-in set
// applies; with no match at all the default profile is recommended.
func Recommend(step repo.Step, body []byte, rules []Rule) Recommendation {
	if len(rules) == 0 {
		rules = defaultRules
	}
	haystack := strings.ToLower(step.Filename + "\n" + string(body))
	for _, rule := range rules {
		match := strings.ToLower(strings.TrimSpace(rule.Match))
		if match == "" || rule.Profile == "" {
			continue
		}
		if strings.Contains(haystack, match) {
			reason := rule.Reason
			if reason == "" {
				reason = "matched detection rule " + rule.Match
			}
			return Recommendation{Profile: rule.Profile, Reason: reason}
		}
	}
	return Recommendation{Profile: DefaultProfile, Reason: "no detection rule matched"}
}
