// Package hub implements the broadcast hub using the actor pattern.
//
// A Hub owns its channel registry and history buffer from a single goroutine fed
// by a command channel (no mutexes). Joining replays the history snapshot and
// admits the channel in one command, so a joiner never misses a broadcast and
// never sees one twice. Per-connection write goroutines keep network I/O out of
// the actor; a channel whose send buffer fills up is treated as disconnected.
package hub
