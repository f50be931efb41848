// Package authz resolves who is acting, on whose behalf, and whether the action is permitted.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/worknotes/internal/domain"
	"github.com/bissquit/worknotes/internal/pkg/ctxlog"
	"github.com/bissquit/worknotes/internal/pkg/metrics"
	"github.com/google/uuid"
)

// Action names a guarded operation.
type Action string

// Guarded operations.
const (
	ActionListAllNotes Action = "list_all_notes"
	ActionActOnBehalf  Action = "act_on_behalf"
	ActionUpdateNote   Action = "update_note"
	ActionDeleteNote   Action = "delete_note"
	ActionListUsers    Action = "list_users"
	ActionViewUser     Action = "view_user"
	ActionCreateUser   Action = "create_user"
	ActionUpdateUser   Action = "update_user"
	ActionDeleteUser   Action = "delete_user"
	ActionAssignRole   Action = "assign_role"
)

// Rule is the permission for one action.
// Self means the owner of the resource may always perform it;
// Floor is the role needed to perform it on somebody else's resource.
type Rule struct {
	Self  bool
	Floor domain.Role
}

var rules = map[Action]Rule{
	ActionListAllNotes: {Floor: domain.RoleManager},
	ActionActOnBehalf:  {Floor: domain.RoleManager},
	ActionUpdateNote:   {Self: true, Floor: domain.RoleManager},
	ActionDeleteNote:   {Self: true, Floor: domain.RoleManager},
	ActionListUsers:    {Floor: domain.RoleManager},
	ActionViewUser:     {Self: true, Floor: domain.RoleManager},
	ActionCreateUser:   {Floor: domain.RoleManager},
	ActionUpdateUser:   {Self: true, Floor: domain.RoleManager},
	ActionDeleteUser:   {Floor: domain.RoleManager},
	ActionAssignRole:   {Floor: domain.RoleManager},
}

// RuleFor returns the rule of an action. Unknown actions require ADMIN.
func RuleFor(action Action) Rule {
	if r, ok := rules[action]; ok {
		return r
	}
	return Rule{Floor: domain.RoleAdmin}
}

// UserFinder looks users up in the identity store.
// Both methods return domain.ErrUserNotFound when nothing matches.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Resolver answers the authorization questions of every handler.
type Resolver struct {
	users UserFinder
}

// NewResolver creates a resolver backed by the identity store.
func NewResolver(users UserFinder) *Resolver {
	return &Resolver{users: users}
}

// Actor resolves the calling user from the decoded token.
func (r *Resolver) Actor(ctx context.Context, id Identity) (*domain.User, error) {
	if id.IsZero() {
		return nil, ErrUnauthenticated
	}
	if _, err := uuid.Parse(id.UserID); err != nil {
		return nil, ErrUnknownActor
	}

	user, err := r.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrUnknownActor
		}
		return nil, fmt.Errorf("resolve actor: %w", err)
	}
	return user, nil
}

// Subject returns the user a create or reassign applies to.
// An elevated actor naming another user acts on their behalf; in every other
// case, including a USER that names someone, the subject is the actor.
func (r *Resolver) Subject(ctx context.Context, actor *domain.User, targetUsername string) (*domain.User, error) {
	targetUsername = domain.NormalizeName(targetUsername)
	if targetUsername == "" || targetUsername == actor.Username {
		return actor, nil
	}
	if !r.Allowed(actor, ActionActOnBehalf, "") {
		return actor, nil
	}

	target, err := r.users.GetUserByUsername(ctx, targetUsername)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidTarget
		}
		return nil, fmt.Errorf("resolve subject: %w", err)
	}

	r.record(ctx, actor, ActionActOnBehalf, true)
	return target, nil
}

// Allowed reports whether actor may perform action on a resource owned by ownerID.
// ownerID is empty for actions that have no owned resource.
func (r *Resolver) Allowed(actor *domain.User, action Action, ownerID string) bool {
	rule := RuleFor(action)
	if rule.Self && ownerID != "" && ownerID == actor.ID {
		return true
	}
	return actor.Role.AtLeast(rule.Floor)
}

// Authorize is Allowed that fails with ErrForbidden and records the decision.
func (r *Resolver) Authorize(ctx context.Context, actor *domain.User, action Action, ownerID string) error {
	ok := r.Allowed(actor, action, ownerID)
	r.record(ctx, actor, action, ok)
	if !ok {
		return ErrForbidden
	}
	return nil
}

// AuthorizeUser authorizes an action on another account. Besides the rule of
// the action, an actor may not touch an account that outranks them.
func (r *Resolver) AuthorizeUser(ctx context.Context, actor *domain.User, action Action, target *domain.User) error {
	if err := r.Authorize(ctx, actor, action, target.ID); err != nil {
		return err
	}
	if target.ID != actor.ID && !actor.Role.AtLeast(target.Role) {
		r.record(ctx, actor, action, false)
		return ErrForbidden
	}
	return nil
}

// AuthorizeRole checks that actor may grant role to an account.
// Granting USER is always allowed; anything higher needs an elevated actor
// that holds at least that role.
func (r *Resolver) AuthorizeRole(ctx context.Context, actor *domain.User, role domain.Role) error {
	if role == domain.RoleUser {
		return nil
	}
	if err := r.Authorize(ctx, actor, ActionAssignRole, ""); err != nil {
		return err
	}
	if !actor.Role.AtLeast(role) {
		r.record(ctx, actor, ActionAssignRole, false)
		return ErrForbidden
	}
	return nil
}

func (r *Resolver) record(ctx context.Context, actor *domain.User, action Action, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	metrics.AuthzDecisions.WithLabelValues(string(action), outcome).Inc()
	ctxlog.FromContext(ctx).Debug("authorization decision",
		"action", action,
		"actor_id", actor.ID,
		"role", actor.Role.String(),
		"outcome", outcome,
	)
}
