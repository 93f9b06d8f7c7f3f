package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/sirw-engine/engine"
)

func pass(rule string) engine.RuleOutcome {
	return engine.RuleOutcome{RuleName: rule, Verdict: engine.VerdictPass, HumanMessage: rule + " ok"}
}

func fail(rule, msg string) engine.RuleOutcome {
	return engine.RuleOutcome{RuleName: rule, Verdict: engine.VerdictFail, HumanMessage: msg}
}

func warn(rule, msg string) engine.RuleOutcome {
	return engine.RuleOutcome{RuleName: rule, Verdict: engine.VerdictWarn, HumanMessage: msg}
}

func TestCompile_AllPass_Approved(t *testing.T) {
	d := engine.Compile("r1", []engine.RuleOutcome{pass("a"), pass("b")}, 5, fixedNow)
	assert.Equal(t, engine.StatusApproved, d.Status)
	assert.Equal(t, 5, d.ComputedWorkdays)
}

func TestCompile_AnyFail_Rejected(t *testing.T) {
	d := engine.Compile("r1", []engine.RuleOutcome{pass("a"), fail("b", "nope"), pass("c")}, 5, fixedNow)
	assert.Equal(t, engine.StatusRejected, d.Status)
}

func TestCompile_FailBeatsWarn(t *testing.T) {
	// A hard fail dominates regardless of position relative to warns.
	d := engine.Compile("r1", []engine.RuleOutcome{warn("a", "hmm"), fail("b", "nope")}, 5, fixedNow)
	assert.Equal(t, engine.StatusRejected, d.Status)

	d = engine.Compile("r1", []engine.RuleOutcome{fail("a", "nope"), warn("b", "hmm")}, 5, fixedNow)
	assert.Equal(t, engine.StatusRejected, d.Status)
}

func TestCompile_WarnOnly_Escalated(t *testing.T) {
	d := engine.Compile("r1", []engine.RuleOutcome{pass("a"), warn("b", "hmm")}, 5, fixedNow)
	assert.Equal(t, engine.StatusEscalated, d.Status)
}

func TestHeadline_FirstFailForRejected(t *testing.T) {
	d := engine.Compile("r1", []engine.RuleOutcome{
		pass("a"), fail("b", "first failure"), fail("c", "second failure"),
	}, 5, fixedNow)

	assert.Equal(t, "first failure", d.Headline().HumanMessage)
}

func TestHeadline_FirstWarnForEscalated(t *testing.T) {
	d := engine.Compile("r1", []engine.RuleOutcome{
		pass("a"), warn("b", "needs review"),
	}, 5, fixedNow)

	assert.Equal(t, "needs review", d.Headline().HumanMessage)
}

func TestReasons_NonPassOnly(t *testing.T) {
	d := engine.Compile("r1", []engine.RuleOutcome{
		pass("a"), fail("b", "bad"), warn("c", "iffy"),
	}, 5, fixedNow)

	assert.Equal(t, []string{"bad", "iffy"}, d.Reasons())
}

func TestReasons_AllPassFallsBackToEverything(t *testing.T) {
	d := engine.Compile("r1", []engine.RuleOutcome{pass("a"), pass("b")}, 5, fixedNow)
	assert.Len(t, d.Reasons(), 2)
}

func TestCompile_StampsDecisionTime(t *testing.T) {
	at := time.Date(2026, time.July, 1, 9, 0, 0, 0, time.UTC)
	d := engine.Compile("r1", []engine.RuleOutcome{pass("a")}, 3, at)
	assert.Equal(t, at, d.DecidedAt)
	assert.Equal(t, "r1", d.RequestID)
}
