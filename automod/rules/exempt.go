package rules

import (
	"github.com/bluesky-social/chatmod/automod/engine"
)

var _ engine.MessageRuleFunc = ExemptAuthorMessageRule

// admins and whitelisted users are never enforced against. Their messages are still in the chat context.
func ExemptAuthorMessageRule(c *engine.MessageContext) error {
	if c.IsExempt() {
		c.Halt("exempt")
	}
	return nil
}

var _ engine.JoinRuleFunc = ExemptJoinRule

func ExemptJoinRule(c *engine.JoinContext) error {
	if c.IsExempt() {
		c.Halt("exempt")
	}
	return nil
}
