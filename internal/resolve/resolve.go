// Package resolve finds or creates the shared entities games point to:
// corporations, families and genres. Lookups go upstream id first, then
// exact name, and only then create a row with a unique slug.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
)

// LogoFetcher looks up a company logo URL; "" means the company has none
type LogoFetcher interface {
	CompanyLogoURL(ctx context.Context, companyID int64) (string, error)
}

// Resolver deduplicates entities against the catalog. It is not safe for
// concurrent use; batches run items sequentially.
type Resolver struct {
	q      *store.Queries
	logos  LogoFetcher
	chain  []string
	corps  map[string]int64
	roles  map[string]bool
	family map[string]int64
}

// New creates a resolver. logos may be nil to skip logo probing.
func New(q *store.Queries, logos LogoFetcher, chain []string) *Resolver {
	return &Resolver{
		q:      q,
		logos:  logos,
		chain:  chain,
		corps:  make(map[string]int64),
		roles:  make(map[string]bool),
		family: make(map[string]int64),
	}
}

func memoKey(upstreamID *int64, name string) string {
	if upstreamID != nil {
		return fmt.Sprintf("id:%d", *upstreamID)
	}
	return "name:" + name
}

// Corporation resolves a developer or publisher reference and makes sure it
// holds role. It returns nil when the reference carries no name.
func (r *Resolver) Corporation(ctx context.Context, ref *normalize.EntityRef, role string) (*int64, error) {
	if ref == nil || strings.TrimSpace(ref.Name) == "" {
		return nil, nil
	}
	name := strings.TrimSpace(ref.Name)
	key := memoKey(ref.UpstreamID, name)

	id, ok := r.corps[key]
	if !ok {
		corp, err := r.findOrCreateCorporation(ctx, ref.UpstreamID, name)
		if err != nil {
			return nil, err
		}
		id = corp.ID
		r.corps[key] = id
	}

	if role != "" {
		roleKey := fmt.Sprintf("%d:%s", id, role)
		if !r.roles[roleKey] {
			if err := r.q.AddCorporationRole(ctx, id, role); err != nil {
				return nil, err
			}
			r.roles[roleKey] = true
		}
	}

	return &id, nil
}

func (r *Resolver) findOrCreateCorporation(ctx context.Context, upstreamID *int64, name string) (*store.Corporation, error) {
	if upstreamID != nil {
		corp, err := r.q.CorporationByUpstreamID(ctx, *upstreamID)
		if err != nil || corp != nil {
			return corp, err
		}
	}

	corp, err := r.q.CorporationByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if corp != nil {
		if corp.UpstreamID == nil && upstreamID != nil {
			if err := r.q.SetCorporationUpstreamID(ctx, corp.ID, *upstreamID); err != nil {
				return nil, err
			}
			corp.UpstreamID = upstreamID
			util.DebugLog("Corporation %q: backfilled upstream id %d", name, *upstreamID)
		}
		return corp, nil
	}

	slug, err := r.q.UniqueCorporationSlug(ctx, normalize.Slugify(name))
	if err != nil {
		return nil, err
	}
	corp = &store.Corporation{UpstreamID: upstreamID, Name: name, Slug: slug}
	if err := r.q.CreateCorporation(ctx, corp); err != nil {
		return nil, err
	}
	util.DebugLog("Created corporation %q (%s)", name, slug)

	if upstreamID != nil && r.logos != nil {
		r.attachLogo(ctx, corp)
	}
	return corp, nil
}

// attachLogo is best effort: any failure is logged and the corporation stays as created
func (r *Resolver) attachLogo(ctx context.Context, corp *store.Corporation) {
	logo, err := r.logos.CompanyLogoURL(ctx, *corp.UpstreamID)
	if err != nil {
		util.WarnLog("Corporation %q: logo lookup failed: %v", corp.Name, err)
		return
	}
	if logo == "" {
		return
	}
	if err := r.q.SetCorporationLogo(ctx, corp.ID, logo); err != nil {
		util.WarnLog("Corporation %q: failed to save logo: %v", corp.Name, err)
		return
	}
	corp.LogoURL = logo
}

// Family resolves a family entry. It returns nil when no name can be resolved.
func (r *Resolver) Family(ctx context.Context, entry *normalize.ListEntry) (*int64, error) {
	if entry == nil {
		return nil, nil
	}
	name, _, ok := normalize.ResolveText(entry.Names, r.chain)
	if !ok {
		return nil, nil
	}
	key := memoKey(entry.UpstreamID, name)
	if id, ok := r.family[key]; ok {
		return &id, nil
	}

	family, err := r.findOrCreateFamily(ctx, entry.UpstreamID, name)
	if err != nil {
		return nil, err
	}
	r.family[key] = family.ID
	return &family.ID, nil
}

func (r *Resolver) findOrCreateFamily(ctx context.Context, upstreamID *int64, name string) (*store.Family, error) {
	if upstreamID != nil {
		family, err := r.q.FamilyByUpstreamID(ctx, *upstreamID)
		if err != nil || family != nil {
			return family, err
		}
	}

	family, err := r.q.FamilyByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if family != nil {
		if family.UpstreamID == nil && upstreamID != nil {
			if err := r.q.SetFamilyUpstreamID(ctx, family.ID, *upstreamID); err != nil {
				return nil, err
			}
			family.UpstreamID = upstreamID
		}
		return family, nil
	}

	slug, err := r.q.UniqueFamilySlug(ctx, normalize.Slugify(name))
	if err != nil {
		return nil, err
	}
	family = &store.Family{UpstreamID: upstreamID, Name: name, Slug: slug}
	if err := r.q.CreateFamily(ctx, family); err != nil {
		return nil, err
	}
	util.DebugLog("Created family %q (%s)", name, slug)
	return family, nil
}

// Genre links the principal entry to the pre-synchronized genre table.
// A missing local genre is not an error: the game is imported without one.
func (r *Resolver) Genre(ctx context.Context, entries []normalize.ListEntry) (*int64, error) {
	principal := normalize.Principal(entries)
	if principal == nil || principal.UpstreamID == nil {
		return nil, nil
	}
	genre, err := r.q.GenreByID(ctx, *principal.UpstreamID)
	if err != nil {
		return nil, err
	}
	if genre == nil {
		util.DebugLog("Genre %d is not synchronized, skipping genre link", *principal.UpstreamID)
		return nil, nil
	}
	return &genre.ID, nil
}
