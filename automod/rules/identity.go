package rules

import (
	"github.com/bluesky-social/chatmod/automod/classify"
	"github.com/bluesky-social/chatmod/automod/engine"
	"github.com/bluesky-social/chatmod/automod/policy"
	"github.com/bluesky-social/chatmod/automod/strikestore"
)

const (
	ReasonSelfIdentified = "Self-identified as female"
	ReasonPronouns       = "Female-identifying content not allowed here"
)

var _ engine.MessageRuleFunc = SelfIdentifiedMessageRule

// Permanent removal for a self-identifying affirmation.
//
// The question lookback always runs and is logged. It only blocks the ban when require_question_context is enabled.
func SelfIdentifiedMessageRule(c *engine.MessageContext) error {
	if !c.PolicyBool(policy.AutobanOnAffirm) {
		return nil
	}
	if !c.HasTag(classify.Affirmation) || c.HasTag(classify.Negation) {
		return nil
	}
	linked := c.QuestionContextFound()
	c.Logger.Info("affirmation", "questionContext", linked)
	if !linked && c.PolicyBool(policy.RequireQuestionContext) {
		return nil
	}
	c.Restrict(nil, ReasonSelfIdentified)
	return nil
}

var _ engine.MessageRuleFunc = PronounEscalationMessageRule

// Warns on identity pronouns, escalating to a temporary ban for users with a recent strike.
func PronounEscalationMessageRule(c *engine.MessageContext) error {
	if !c.PolicyBool(policy.WarnThenBanPronouns) || !c.HasTag(classify.IdentityPronoun) {
		return nil
	}
	switch c.EscalationDecision() {
	case strikestore.DecisionEnforce:
		c.TempRestrict(ReasonPronouns)
	default:
		c.Warn(ReasonPronouns)
	}
	return nil
}
