// Package credentials persists operator accounts.
//
// Accounts live in a single JSON array of {"username","password"} records,
// where password is a bcrypt hash. Names are unique; a file carrying duplicate
// names fails to load rather than silently shadowing an account.
//
// Every mutation rewrites the whole file. FileStore serialises read-modify-write
// cycles with an advisory lock on a sibling ".lock" file and replaces the file
// through a temporary sibling plus rename, so readers never see a torn write.
// Both paths are reserved: the file manager hides them from listings and
// refuses to operate on them.
package credentials
