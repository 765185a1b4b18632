package service

// Actor identifies the authenticated administrator performing a mutation. It
// is always resolved from the verified JWT context at the handler boundary,
// never from a request body, so the audit trail cannot be spoofed.
type Actor struct {
	ID   uint
	Role string
}
