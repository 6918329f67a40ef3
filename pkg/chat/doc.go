// Package chat orchestrates the streaming conversation with the backend.
//
// A Client submits the full message history tagged with the session ID,
// then consumes the response as a lazy, finite sequence of frames (text
// deltas, tool-call announcements, tool results, end marker). Frames are
// merged into the message history strictly in arrival order by a reducer;
// only the in-progress last assistant message ever mutates. At most one
// request is in flight at a time.
package chat
