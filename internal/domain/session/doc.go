// Package session keeps per-browser login state on the server.
//
// A session is created only by a successful login and is identified to the
// client by an opaque random token carried in a cookie. The store owns expiry:
// every session gets a fixed lifetime at creation and is treated as absent
// once that passes, whether or not the sweeper has reclaimed it yet.
//
// Components:
//   - Session: token, account name and lifetime
//   - Store: the contract the auth guard depends on
//   - MemoryStore: a mutex-guarded map with a background sweeper
//
// Example Usage:
//
//	store := session.NewMemoryStore(24 * time.Hour)
//	go store.Run(ctx, time.Minute)
//	sess, err := store.Create(ctx, "admin")
//	got, ok := store.Get(ctx, sess.Token)
package session
