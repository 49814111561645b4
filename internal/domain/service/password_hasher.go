// Package service declares the domain's ports to infrastructure: hashing,
// tokens, second factors, storage, AI analysis, events and push delivery.
package service

// PasswordHasher stores host passwords as salted one-way hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Check reports whether password produces hash. A malformed hash never matches.
	Check(password, hash string) bool
}
