// Package lobby tracks everything that exists between a socket opening
// and a match ending: connected users, matchmaking queues, and the table
// of live sessions.
//
// Queues are keyed by requested roster size. Joining is deduplicated by
// player uid, and the membership check and the drain of a filled queue
// happen inside one critical section, so a burst of joins can never
// produce a roster larger than the requested size. Each queue carries a
// rotating uid that becomes the session uid of the match it starts.
//
// Session teardown funnels through EndSession. It validates the claimed
// winner against the resolution kind, persists the result through the
// storage collaborator, and removes the session. Calling it again for the
// same session is a no-op.
package lobby
