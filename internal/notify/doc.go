// Package notify publishes gate lifecycle events to NATS.
//
// Events are facts about gates and transitions, published fire-and-forget
// on maturityd.event.<type> subjects. Subscribers (dashboards, chat bots,
// billing exports) attach without the engine knowing about them. A failed
// publish is logged and dropped; notifications never block or fail a state
// change.
package notify
