package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/user"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
)

// UserRepo persists domain.User rows, org-scoped like every other C16
// repository; email is globally unique across orgs per the ent schema.
type UserRepo struct {
	client *database.Client
}

// Create inserts a new user with an already-hashed password.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	row, err := r.client.User.Create().
		SetID(u.ID).
		SetOrgID(u.OrgID).
		SetEmail(u.Email).
		SetPasswordHash(u.PasswordHash).
		SetRole(user.Role(u.Role)).
		SetActive(true).
		Save(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("creating user %s: %w", u.Email, err)
	}
	return userFromEnt(row), nil
}

// GetByEmail looks up a user for login, regardless of org (email is the
// login identifier; the returned row carries its own org_id).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.client.User.Query().Where(user.EmailEQ(email)).Only(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("loading user by email %s: %w", email, err)
	}
	return userFromEnt(row), nil
}

// Get loads a user scoped to its own org, for admin endpoints that must not
// leak cross-org user records.
func (r *UserRepo) Get(ctx context.Context, orgID, userID string) (domain.User, error) {
	row, err := r.client.User.Query().
		Where(user.IDEQ(userID), user.OrgIDEQ(orgID)).
		Only(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("loading user %s for org %s: %w", userID, orgID, err)
	}
	return userFromEnt(row), nil
}

// List returns every user in an org, newest-first.
func (r *UserRepo) List(ctx context.Context, orgID string) ([]domain.User, error) {
	rows, err := r.client.User.Query().
		Where(user.OrgIDEQ(orgID)).
		Order(ent.Desc(user.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users for org %s: %w", orgID, err)
	}
	out := make([]domain.User, len(rows))
	for i, row := range rows {
		out[i] = userFromEnt(row)
	}
	return out, nil
}

// UpdateRole changes a user's role, used by the admin role-change endpoint
// that also fires a user.role_changed webhook.
func (r *UserRepo) UpdateRole(ctx context.Context, orgID, userID, role string) error {
	n, err := r.client.User.Update().
		Where(user.IDEQ(userID), user.OrgIDEQ(orgID)).
		SetRole(user.Role(role)).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("updating role for user %s: %w", userID, err)
	}
	if n == 0 {
		return fmt.Errorf("updating role for user %s: not found in org %s", userID, orgID)
	}
	return nil
}

// Deactivate flips a user's active flag off without deleting their audit trail.
func (r *UserRepo) Deactivate(ctx context.Context, orgID, userID string) error {
	n, err := r.client.User.Update().
		Where(user.IDEQ(userID), user.OrgIDEQ(orgID)).
		SetActive(false).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("deactivating user %s: %w", userID, err)
	}
	if n == 0 {
		return fmt.Errorf("deactivating user %s: not found in org %s", userID, orgID)
	}
	return nil
}

// RecordLogin stamps last_login_at, best-effort — a failure here must never
// block a successful login response.
func (r *UserRepo) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	return r.client.User.UpdateOneID(userID).SetLastLoginAt(at).Exec(ctx)
}

func userFromEnt(row *ent.User) domain.User {
	u := domain.User{
		ID:           row.ID,
		OrgID:        row.OrgID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         string(row.Role),
		Active:       row.Active,
		CreatedAt:    row.CreatedAt,
	}
	if row.LastLoginAt != nil {
		u.LastLoginAt = row.LastLoginAt
	}
	return u
}
