package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var errVerifierPanic = errors.New("token verifier panicked")

// Decision is the gate's verdict for one request.
type Decision struct {
	Admitted bool
	// Principal is nil for admitted public requests.
	Principal *Principal
	Reason    Reason
	// Err is the underlying cause of a rejection, for logging only.
	Err error
}

// Admit returns an admitting decision.
func Admit(p *Principal) Decision {
	return Decision{Admitted: true, Principal: p}
}

// Reject returns a rejecting decision.
func Reject(reason Reason, err error) Decision {
	return Decision{Reason: reason, Err: err}
}

// Gate decides per request whether it may proceed. It is stateless and safe
// for concurrent use.
type Gate struct {
	routes   *RouteClassifier
	verifier TokenVerifier
}

func NewGate(routes *RouteClassifier, verifier TokenVerifier) (*Gate, error) {
	if routes == nil {
		return nil, errors.New("gate: route classifier is required")
	}
	if verifier == nil {
		return nil, errors.New("gate: token verifier is required")
	}
	return &Gate{routes: routes, verifier: verifier}, nil
}

// Decide runs the admission sequence for r:
//
//	public route                       -> Admit(nil)
//	no "Bearer <token>" header         -> Reject(MissingToken)
//	malformed/bad signature/expired    -> Reject(InvalidToken)
//	verified                           -> Admit(principal)
//	anything else                      -> Reject(AuthenticationFailed)
func (g *Gate) Decide(r *http.Request) Decision {
	if g.routes.Classify(routingPath(r), r.Method) == Public {
		return Admit(nil)
	}

	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return Reject(ReasonMissingToken, nil)
	}

	principal, err := g.verify(token)
	switch {
	case err == nil:
		if principal.Subject == "" {
			return Reject(ReasonAuthenticationFailed, errors.New("verifier returned an empty subject"))
		}
		return Admit(&principal)
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrExpired):
		return Reject(ReasonInvalidToken, err)
	default:
		return Reject(ReasonAuthenticationFailed, err)
	}
}

// verify turns a verifier panic into an error so it takes the
// AuthenticationFailed branch.
func (g *Gate) verify(token string) (p Principal, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", errVerifierPanic, rec)
		}
	}()
	return g.verifier.Verify(token)
}

// routingPath is the path chi routes on: the raw escaped form when the URL
// has one. The gate must classify the same string the router dispatches.
func routingPath(r *http.Request) string {
	if r.URL.RawPath != "" {
		return r.URL.RawPath
	}
	return r.URL.Path
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
