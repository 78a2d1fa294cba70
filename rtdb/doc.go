// Package rtdb is a client for a Firebase-style realtime database.
//
// It speaks the database's REST surface for reads and writes (Get, Set,
// Update, Push, Delete on hierarchical paths) and its SSE streaming
// surface for live updates. A Listener turns the raw put/patch stream
// into value and child_added/child_changed/child_removed/child_moved
// events with predecessor keys, which is the surface the querysync
// mirror consumes.
//
//	client, _ := rtdb.NewClient(rtdb.Config{URL: "https://demo.example.io"})
//	ref := client.Ref("rooms/general/messages")
//	snap, _ := ref.OrderByChild("ts").LimitToLast(50).Get(ctx)
package rtdb
