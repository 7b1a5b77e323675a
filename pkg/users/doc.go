// Package users manages user accounts: profile edits, soft deletion and the
// platform-level system role. Authorization runs through the permission
// resolver; accounts are never hard-deleted.
package users
