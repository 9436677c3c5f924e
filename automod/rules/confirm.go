package rules

import (
	"github.com/bluesky-social/chatmod/automod/classify"
	"github.com/bluesky-social/chatmod/automod/engine"
	"github.com/bluesky-social/chatmod/automod/policy"
)

var _ engine.JoinRuleFunc = HandleSignalJoinRule

// opens a confirmation when the joining user's names look female-identifying
func HandleSignalJoinRule(c *engine.JoinContext) error {
	if !c.PolicyBool(policy.UsernameHeuristics) || !c.HasTag(classify.HandleSignal) {
		return nil
	}
	c.Logger.Info("suspicious handle on join")
	c.PromptConfirmation()
	return nil
}

var _ engine.MessageRuleFunc = NegationConfirmMessageRule

// A negation from the user who owns the open confirmation resolves it. Negations never clear another user's confirmation.
func NegationConfirmMessageRule(c *engine.MessageContext) error {
	if !c.HasTag(classify.Negation) {
		return nil
	}
	p := c.PendingConfirmation()
	if p == nil || !p.Open(c.Time) {
		return nil
	}
	c.ConfirmPending()
	return nil
}
