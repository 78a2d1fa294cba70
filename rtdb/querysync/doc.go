// Package querysync keeps a local ordered list in sync with a live
// database query.
//
// A Mirror attaches to a query's event stream and maintains the query
// results as a slice of entries plus a key index. The initial value
// event seeds the list; child events mutate it incrementally, keeping
// entries in the server's sort order via predecessor keys. Consumers
// read the list with Entries or react to changes through OnUpdate.
package querysync
