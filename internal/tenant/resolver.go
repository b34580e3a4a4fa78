// Package tenant resolves company membership and ownership for principals.
package tenant

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/errors"
)

// Profile is the backend's per-user record. CompanyID is nil for users not
// yet attached to a company; that is a valid state, not an error.
type Profile struct {
	ID        string    `json:"id"`
	CompanyID *string   `json:"company_id"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the subset of the backend client the resolver needs.
type Store interface {
	Select(ctx context.Context, table, query string, dst interface{}) error
	SelectSingle(ctx context.Context, table, query string, dst interface{}) (bool, error)
}

// Resolver answers tenant questions from the profiles and companies tables.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver backed by store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// CompanyID looks up the principal's company. ok is false when the profile
// is missing or carries no company; both are valid terminal states.
func (r *Resolver) CompanyID(ctx context.Context, principalID string) (companyID string, ok bool, err error) {
	var row struct {
		CompanyID *string `json:"company_id"`
	}
	query := fmt.Sprintf("select=company_id&id=eq.%s", url.QueryEscape(principalID))
	found, err := r.store.SelectSingle(ctx, "profiles", query, &row)
	if err != nil {
		return "", false, errors.Dependency(err)
	}
	if !found || row.CompanyID == nil || *row.CompanyID == "" {
		return "", false, nil
	}
	return *row.CompanyID, true, nil
}

// IsOwner reports whether the principal owns its company. Principals without
// a company, and companies without a matching row, are simply not owners.
func (r *Resolver) IsOwner(ctx context.Context, principalID string) (bool, error) {
	companyID, ok, err := r.CompanyID(ctx, principalID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var row struct {
		OwnerUserID string `json:"owner_user_id"`
	}
	query := fmt.Sprintf("select=owner_user_id&id=eq.%s", url.QueryEscape(companyID))
	found, err := r.store.SelectSingle(ctx, "companies", query, &row)
	if err != nil {
		return false, errors.Dependency(err)
	}
	if !found {
		return false, nil
	}
	return row.OwnerUserID == principalID, nil
}

// Profiles returns every profile in the principal's company, oldest first.
// A principal without a company cannot list anyone.
func (r *Resolver) Profiles(ctx context.Context, principalID string) ([]Profile, error) {
	companyID, ok, err := r.CompanyID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Forbidden("no company found")
	}

	var profiles []Profile
	query := fmt.Sprintf("select=id,company_id,role,full_name,email,created_at&company_id=eq.%s&order=created_at.asc", url.QueryEscape(companyID))
	if err := r.store.Select(ctx, "profiles", query, &profiles); err != nil {
		return nil, errors.Dependency(err)
	}
	return profiles, nil
}

// ProfileByID fetches a single profile. found is false when no row exists.
func (r *Resolver) ProfileByID(ctx context.Context, principalID string) (Profile, bool, error) {
	var profile Profile
	query := fmt.Sprintf("select=id,company_id,role,full_name,email,created_at&id=eq.%s", url.QueryEscape(principalID))
	found, err := r.store.SelectSingle(ctx, "profiles", query, &profile)
	if err != nil {
		return Profile{}, false, errors.Dependency(err)
	}
	return profile, found, nil
}
