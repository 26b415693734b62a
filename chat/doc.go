// Package chat contains the live-chat watcher: the outer loop that discovers
// the active broadcast for the authorized channel and runs the poll loop
// against its chat.
//
// The watcher alternates between two states:
//   - idle: no live broadcast found; re-resolve after a short wait.
//   - polling: a live chat was found; block in the quota-governed poll loop,
//     dispatching each inbound message to the configured handler.
//
// When a *sql.DB is provided, every dispatched message is also recorded into
// the chat_messages table for audit/replay. Recording failures are isolated
// like any handler failure and never affect scheduling.
package chat
