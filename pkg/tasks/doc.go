// Package tasks manages tasks within an organization. Every mutating
// operation is gated by the permission resolver and audited.
package tasks
