// Package permissions decides whether an actor may perform an action on a
// resource. Roles are collapsed into a capability set and every rule is a
// predicate over that set plus resource ownership.
package permissions

import (
	"net/http"

	"yamdb/proj/internal/domain/errs"
	"yamdb/proj/internal/domain/models"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ActionFromMethod maps an HTTP method to an action. Safe methods map to read.
func ActionFromMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	case http.MethodPost:
		return ActionCreate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionUpdate
	}
}

type Kind string

const (
	KindCategory Kind = "category"
	KindGenre    Kind = "genre"
	KindTitle    Kind = "title"
	KindReview   Kind = "review"
	KindComment  Kind = "comment"
	KindUsers    Kind = "users"
	KindMe       Kind = "me"
)

// Resource identifies what is being acted upon. AuthorID is set for existing
// reviews and comments and is zero for collections.
type Resource struct {
	Kind     Kind
	AuthorID int64
}

type Capability uint8

const (
	CapRead Capability = 1 << iota
	CapWriteOwn
	CapModerate
	CapWriteAny
)

func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// Capabilities returns the capability set granted to actor.
func Capabilities(actor *models.User) Capability {
	switch {
	case actor.IsAnonymous():
		return CapRead
	case actor.IsAdmin():
		return CapRead | CapWriteOwn | CapModerate | CapWriteAny
	case actor.IsModerator():
		return CapRead | CapWriteOwn | CapModerate
	default:
		return CapRead | CapWriteOwn
	}
}

type Evaluator struct{}

func New() *Evaluator {
	return &Evaluator{}
}

func (e *Evaluator) Permit(actor *models.User, action Action, resource Resource) bool {
	caps := Capabilities(actor)
	switch resource.Kind {
	case KindCategory, KindGenre, KindTitle:
		if action == ActionRead {
			return true
		}
		return caps.Has(CapWriteAny)
	case KindReview, KindComment:
		switch {
		case action == ActionRead:
			return true
		case action == ActionCreate:
			return caps.Has(CapWriteOwn)
		case caps.Has(CapModerate), caps.Has(CapWriteAny):
			return true
		default:
			return caps.Has(CapWriteOwn) && resource.AuthorID == actor.ID
		}
	case KindUsers:
		return caps.Has(CapWriteAny)
	case KindMe:
		return caps.Has(CapWriteOwn) && (action == ActionRead || action == ActionUpdate)
	}
	return false
}

// Check is Permit returning the denial as an error: ErrUnauthenticated for
// anonymous actors, ErrForbidden otherwise.
func (e *Evaluator) Check(actor *models.User, action Action, resource Resource) error {
	if e.Permit(actor, action, resource) {
		return nil
	}
	if actor.IsAnonymous() {
		return errs.ErrUnauthenticated
	}
	return errs.ErrForbidden
}
