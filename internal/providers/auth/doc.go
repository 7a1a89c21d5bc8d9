// Package auth gates the file manager behind operator logins.
//
// Guard verifies secrets against bcrypt hashes held by a credentials.Store,
// issues sessions through a session.Store and rotates secrets. Unknown account
// names cost the same bcrypt comparison as wrong secrets, so a failed login
// reveals nothing about which accounts exist.
//
// On first start Bootstrap seeds the account admin/admin. That secret is a
// placeholder: the guard logs a warning until it is changed.
package auth
