// Package directory resolves principals (helpdesk accounts) by id or email.
// The gateway only reads from it; account CRUD belongs to the excluded
// application layer. Two implementations ship here: a GORM-backed one for
// the real database and an in-memory one for tests and examples.
package directory
