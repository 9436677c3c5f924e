package engine

type JoinRuleFunc = func(c *JoinContext) error
type MessageRuleFunc = func(c *MessageContext) error
