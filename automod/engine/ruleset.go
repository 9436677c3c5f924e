package engine

// Holds configuration of which rules should be run, in precedence order, and helps dispatch events to those rules.
type RuleSet struct {
	JoinRules    []JoinRuleFunc
	MessageRules []MessageRuleFunc
}

// Executes join rules in order until one chooses an action or halts. Only dispatches execution, does no other pre/post processing.
func (r *RuleSet) CallJoinRules(c *JoinContext) error {
	for _, f := range r.JoinRules {
		err := f(c)
		if err != nil {
			return err
		}
		if c.Done() {
			break
		}
	}
	return nil
}

// Executes message rules in order until one chooses an action or halts.
func (r *RuleSet) CallMessageRules(c *MessageContext) error {
	for _, f := range r.MessageRules {
		err := f(c)
		if err != nil {
			return err
		}
		if c.Done() {
			break
		}
	}
	return nil
}
