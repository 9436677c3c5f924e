// Moderation decision engine for group chats.
//
// This package tree (`github.com/bluesky-social/chatmod/automod`) turns a stream of chat membership and message events into graduated enforcement actions. Messages are classified into tags, linked to recent conversation in a per-chat context window, and weighed against each user's strike history and any open username confirmation. At most one action (warn, temporary ban, permanent ban, or confirmation notice) comes out of each event, and it is carried out through an Enforcer supplied by the chat platform binding.
//
// The engine lives in `automod/engine`, the ordered rule set in `automod/rules`, and each ledger has its own store package with in-memory and Redis implementations. See `cmd/warden` for a daemon built on this package.
package automod
