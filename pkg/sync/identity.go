package sync

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/alexatafm/solar-hub-sync/internal/hubspot"
	"github.com/alexatafm/solar-hub-sync/internal/simpro"
	"github.com/alexatafm/solar-hub-sync/pkg/constants"
	"github.com/alexatafm/solar-hub-sync/pkg/logging"
)

// Resolver maps field-service customers and sites to CRM object IDs,
// creating records when none exist. Resolution is best-effort: every
// failure is logged and reported as "no identity" (an empty ID), because
// a missing association must never block a line-item sync.
//
// Resolved IDs are cached for the lifetime of the batch run so repeat
// customers cost one search instead of one per quote.
type Resolver struct {
	simpro  *simpro.Client
	hubspot *hubspot.Client

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a resolver over the two API clients.
func NewResolver(sp *simpro.Client, hs *hubspot.Client) *Resolver {
	return &Resolver{
		simpro:  sp,
		hubspot: hs,
		cache:   make(map[string]string),
	}
}

// ResolveContact finds or creates the CRM contact for an individual
// customer and returns its object ID, empty when resolution failed.
func (r *Resolver) ResolveContact(ctx context.Context, customerID int) string {
	return r.resolve(ctx, "contact", customerID, r.findOrCreateContact)
}

// ResolveCompany finds or creates the CRM company for an organization
// customer and returns its object ID, empty when resolution failed.
func (r *Resolver) ResolveCompany(ctx context.Context, customerID int) string {
	return r.resolve(ctx, "company", customerID, r.findOrCreateCompany)
}

// ResolveSite finds or creates the CRM site object for a field-service
// site and returns its object ID, empty when resolution failed.
func (r *Resolver) ResolveSite(ctx context.Context, siteID int) string {
	return r.resolve(ctx, "site", siteID, r.findOrCreateSite)
}

func (r *Resolver) resolve(ctx context.Context, kind string, sourceID int, lookup func(context.Context, int) (string, error)) string {
	if sourceID == 0 {
		return ""
	}

	key := fmt.Sprintf("%s:%d", kind, sourceID)
	r.mu.Lock()
	if id, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return id
	}
	r.mu.Unlock()

	id, err := lookup(ctx, sourceID)
	if err != nil {
		logging.Ctx(ctx).Warn().
			Str("kind", kind).
			Int("source_id", sourceID).
			Err(err).
			Msg("Identity resolution failed")
		return ""
	}
	if id == "" {
		return ""
	}

	r.mu.Lock()
	r.cache[key] = id
	r.mu.Unlock()
	return id
}

// findOrCreateContact searches by the stored customer ID, then by email
// with an ID backfill, then creates a contact with a placeholder email
// when the customer has none.
func (r *Resolver) findOrCreateContact(ctx context.Context, customerID int) (string, error) {
	match, err := r.hubspot.SearchFirst(ctx, hubspot.ObjectContacts, "simpro_customer_id", strconv.Itoa(customerID))
	if err != nil {
		return "", err
	}
	if match != nil {
		return match.ID, nil
	}

	customer, err := r.simpro.Customer(ctx, customerID, false)
	if err != nil {
		return "", err
	}

	email := customer.BestEmail()
	if email != "" {
		match, err = r.hubspot.SearchFirst(ctx, hubspot.ObjectContacts, "email", email)
		if err != nil {
			return "", err
		}
		if match != nil {
			// Backfill the source ID so the next run matches directly.
			if err := r.hubspot.UpdateContact(ctx, match.ID, map[string]string{
				"simpro_customer_id": strconv.Itoa(customerID),
			}); err != nil {
				logging.Ctx(ctx).Warn().Str("contact_id", match.ID).Err(err).Msg("Contact ID backfill failed")
			}
			return match.ID, nil
		}
	}

	return r.createContact(ctx, customer, email)
}

func (r *Resolver) createContact(ctx context.Context, customer *simpro.Customer, email string) (string, error) {
	if email == "" {
		email = fmt.Sprintf("noemail+%d@%s", customer.ID, constants.PlaceholderEmailDomain)
	}

	first := customer.GivenName
	last := customer.FamilyName
	phone := customer.Phone
	mobile := customer.CellPhone
	if cp := customer.ContactPerson; cp != nil {
		if cp.GivenName != "" {
			first = cp.GivenName
		}
		if cp.FamilyName != "" {
			last = cp.FamilyName
		}
		if cp.Phone != "" {
			phone = cp.Phone
		}
		if cp.CellPhone != "" {
			mobile = cp.CellPhone
		}
	}
	if last == "" {
		last = "Unknown"
	}

	id, err := r.hubspot.CreateContact(ctx, map[string]string{
		"email":              email,
		"firstname":          first,
		"lastname":           last,
		"phone":              phone,
		"mobilephone":        mobile,
		"simpro_customer_id": strconv.Itoa(customer.ID),
	})
	if err != nil {
		return "", err
	}

	logging.Ctx(ctx).Info().
		Str("contact_id", id).
		Int("customer_id", customer.ID).
		Msg("Created contact")
	return id, nil
}

func (r *Resolver) findOrCreateCompany(ctx context.Context, customerID int) (string, error) {
	match, err := r.hubspot.SearchFirst(ctx, hubspot.ObjectCompanies, "simpro_customer_id", strconv.Itoa(customerID))
	if err != nil {
		return "", err
	}
	if match != nil {
		return match.ID, nil
	}

	customer, err := r.simpro.Customer(ctx, customerID, true)
	if err != nil {
		return "", err
	}

	name := customer.CompanyName
	if name == "" {
		name = fmt.Sprintf("Customer %d", customer.ID)
	}

	id, err := r.hubspot.CreateCompany(ctx, map[string]string{
		"name":               name,
		"phone":              customer.Phone,
		"city":               customer.Address.City,
		"state":              customer.Address.State,
		"simpro_customer_id": strconv.Itoa(customer.ID),
	})
	if err != nil {
		return "", err
	}

	logging.Ctx(ctx).Info().
		Str("company_id", id).
		Int("customer_id", customer.ID).
		Msg("Created company")
	return id, nil
}

func (r *Resolver) findOrCreateSite(ctx context.Context, siteID int) (string, error) {
	match, err := r.hubspot.SearchFirst(ctx, hubspot.ObjectSites, "simpro_site_id", strconv.Itoa(siteID))
	if err != nil {
		return "", err
	}
	if match != nil {
		return match.ID, nil
	}

	site, err := r.simpro.Site(ctx, siteID)
	if err != nil {
		return "", err
	}

	name := site.Name
	if name == "" {
		name = "No Site Name"
	}
	country := site.Address.Country
	if country == "" {
		country = "Australia"
	}

	id, err := r.hubspot.CreateSite(ctx, map[string]string{
		"site":           name,
		"site_name":      name,
		"address":        site.Address.Address,
		"suburb":         site.Address.City,
		"state":          site.Address.State,
		"postcode":       site.Address.PostalCode,
		"country":        country,
		"simpro_site_id": strconv.Itoa(site.ID),
	})
	if err != nil {
		return "", err
	}

	logging.Ctx(ctx).Info().
		Str("site_id", id).
		Int("source_site_id", site.ID).
		Msg("Created site")
	return id, nil
}
