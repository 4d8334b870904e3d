// Package store reads the notes database the reminder engine watches.
//
// The server treats the database as an external, read-only source of rule
// text: every scheduler tick re-fetches all pages so edits show up without
// any cache invalidation.
package store
