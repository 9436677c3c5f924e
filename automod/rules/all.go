package rules

import (
	"github.com/bluesky-social/chatmod/automod/engine"
)

// Rules in precedence order; the first rule to choose an action (or halt) ends evaluation.
func DefaultRules() engine.RuleSet {
	rules := engine.RuleSet{
		JoinRules: []engine.JoinRuleFunc{
			ExemptJoinRule,
			HandleSignalJoinRule,
		},
		MessageRules: []engine.MessageRuleFunc{
			NegationConfirmMessageRule,
			ExemptAuthorMessageRule,
			SelfIdentifiedMessageRule,
			PronounEscalationMessageRule,
		},
	}
	return rules
}
