// Package permission holds the portal's role → resource → action table and the
// single decision function every authorization check goes through.
//
// # Semantics
//
// A [Grant] carries the four CRUD actions plus [ActionManage]; manage implies
// every other action on the same resource. Anything not granted is denied:
// unknown roles, unknown resources and unknown actions all answer false.
//
// # Architecture boundaries
//
// A [Table] is built once from a plain map, deep-copied, and never mutated
// afterwards, so lookups take no locks.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import portalAuth, jwt, or middleware.
//   - Offer any mutation after construction.
package permission
