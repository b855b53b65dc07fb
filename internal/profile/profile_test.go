package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwhitby/nextstep/internal/repo"
	"github.com/mwhitby/nextstep/internal/stepid"
)

func fixtureStep(filename string) repo.Step {
	return repo.Step{ID: stepid.MustParse(filename), Filename: filename}
}

func TestRecommendDefaultWhenNothingMatches(t *testing.T) {
	rec := Recommend(fixtureStep("P1_01.1_setup.md"), []byte("wire the config loader"), nil)
	assert.Equal(t, DefaultProfile, rec.Profile)
}

func TestRecommendBuiltInMigrationRule(t *testing.T) {
	rec := Recommend(fixtureStep("P1_02.1_users_migration.md"), []byte("alter table users"), nil)
	assert.Equal(t, "careful", rec.Profile)
	assert.NotEmpty(t, rec.Reason)
}

func TestRecommendMatchesBodyText(t *testing.T) {
	rec := Recommend(fixtureStep("P1_02.2_verify.md"), []byte("run the manual test checklist"), nil)
	assert.Equal(t, "interactive", rec.Profile)
}

func TestRecommendProjectRulesReplaceDefaults(t *testing.T) {
	rules := []Rule{{Match: "deploy", Profile: "fast", Reason: "deploys are scripted"}}

	rec := Recommend(fixtureStep("P3_01.1_deploy.md"), nil, rules)
	assert.Equal(t, "fast", rec.Profile)
	assert.Equal(t, "deploys are scripted", rec.Reason)

	// The built-in migration rule is gone once a project declares rules.
	rec = Recommend(fixtureStep("P3_01.2_migration.md"), nil, rules)
	assert.Equal(t, DefaultProfile, rec.Profile)
}

func TestRecommendFirstRuleWins(t *testing.T) {
	rules := []Rule{
		{Match: "deploy", Profile: "fast"},
		{Match: "deploy", Profile: "careful"},
	}
	rec := Recommend(fixtureStep("P3_01.1_deploy.md"), nil, rules)
	assert.Equal(t, "fast", rec.Profile)
}

func TestRecommendSkipsBlankRules(t *testing.T) {
	rules := []Rule{
		{Match: "", Profile: "broken"},
		{Match: "deploy", Profile: ""},
		{Match: "deploy", Profile: "fast"},
	}
	rec := Recommend(fixtureStep("P3_01.1_deploy.md"), nil, rules)
	assert.Equal(t, "fast", rec.Profile)
}
