package auth

import "github.com/ovaphlow/pitchfork/service-blog-go/pkg/apperr"

// ErrForbidden is returned when a valid identity mutates someone else's resource.
var ErrForbidden = apperr.Forbidden("Not authorized")

// Owned is implemented by resources whose mutation is restricted to their author.
type Owned interface {
	OwnerID() string
}

// Authorize permits a mutation only when actingID owns res. Callers load res
// from storage inside the same transaction as the write and report a missing
// resource themselves before calling this.
func Authorize(actingID string, res Owned) error {
	if actingID == "" {
		return ErrUnauthenticated
	}
	if res == nil || res.OwnerID() != actingID {
		return ErrForbidden
	}
	return nil
}
