package rules

import (
	"github.com/bluesky-social/chatmod/automod/engine"
)

const (
	chatID  int64 = -1001
	askerID int64 = 11
	userID  int64 = 12
)

func engineFixture() *engine.Engine {
	eng := engine.EngineTestFixture()
	eng.Rules = DefaultRules()
	return eng
}
