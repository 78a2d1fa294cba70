// Package component defines the core interfaces for lifecycle-managed
// pieces of firekit.
//
// Components represent clients that require startup, shutdown, and
// health monitoring; the realtime database client and the storage
// backend both implement Component. A Registry starts them in
// registration order and stops them in reverse.
package component
