package domain

// RequestContext carries the authenticated caller of one inbound request.
// It is built once by the session middleware and passed explicitly to every
// service call that needs it.
type RequestContext struct {
	Session  SessionSnapshot
	Account  *Account
	Customer *Customer
}
