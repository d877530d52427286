package repo

import (
	"context"
	"fmt"

	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/org"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
)

// OrgRepo persists tenant organizations, the root of every org-scoped
// entity in C16's schema.
type OrgRepo struct {
	client *database.Client
}

// Create registers a new tenant org.
func (r *OrgRepo) Create(ctx context.Context, o domain.Org) (domain.Org, error) {
	row, err := r.client.Org.Create().
		SetID(o.ID).
		SetName(o.Name).
		Save(ctx)
	if err != nil {
		return domain.Org{}, fmt.Errorf("creating org %s: %w", o.Name, err)
	}
	return orgFromEnt(row), nil
}

// Get loads one org by id, used to validate an admin/master request targets
// a real tenant before cascading changes into it.
func (r *OrgRepo) Get(ctx context.Context, orgID string) (domain.Org, error) {
	row, err := r.client.Org.Get(ctx, orgID)
	if err != nil {
		return domain.Org{}, fmt.Errorf("loading org %s: %w", orgID, err)
	}
	return orgFromEnt(row), nil
}

// List returns every tenant org, a master-only capability.
func (r *OrgRepo) List(ctx context.Context) ([]domain.Org, error) {
	rows, err := r.client.Org.Query().Order(ent.Desc(org.FieldCreatedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing orgs: %w", err)
	}
	out := make([]domain.Org, len(rows))
	for i, row := range rows {
		out[i] = orgFromEnt(row)
	}
	return out, nil
}

func orgFromEnt(row *ent.Org) domain.Org {
	return domain.Org{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}
}
