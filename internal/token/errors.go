package token

import "fmt"

// ErrorKind classifies why a token was rejected.
type ErrorKind int

const (
	// Expired means the token was well formed and correctly signed but its
	// exp has passed. Callers should prompt for reauthentication.
	Expired ErrorKind = iota + 1
	// Malformed covers structural problems and failed registered-claim
	// checks other than expiry (iss, iat, nbf).
	Malformed
	// SignatureInvalid means the signature or algorithm did not verify.
	SignatureInvalid
	// MissingSubject means a verified token carries no sub claim.
	MissingSubject
	// KindMismatch means an access token was presented where a refresh
	// token is required, or the other way round.
	KindMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case Expired:
		return "expired"
	case Malformed:
		return "malformed"
	case SignatureInvalid:
		return "signature_invalid"
	case MissingSubject:
		return "missing_subject"
	case KindMismatch:
		return "kind_mismatch"
	}
	return "unknown"
}

// Error is returned for every rejected token. Compare with errors.Is against
// the Err* values below, or errors.As to read Kind.
type Error struct {
	Kind  ErrorKind
	cause error
}

var (
	ErrExpired          = &Error{Kind: Expired}
	ErrMalformed        = &Error{Kind: Malformed}
	ErrSignatureInvalid = &Error{Kind: SignatureInvalid}
	ErrMissingSubject   = &Error{Kind: MissingSubject}
	ErrKindMismatch     = &Error{Kind: KindMismatch}
)

func newError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.cause)
	}
	return "token " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
