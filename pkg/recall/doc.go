// Package recall implements message recall and the visibility rule for
// recalled messages.
//
// A message starts with scope none and transitions at most once to self
// (hidden from the sender's own view) or all (hidden from everyone). The
// transition is irreversible; re-recalling with a different scope is
// rejected, not upgraded.
package recall
