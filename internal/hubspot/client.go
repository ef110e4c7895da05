// Package hubspot provides a typed client for the HubSpot CRM API: deal
// reads and updates, property searches, contact and company upserts,
// line-item batch operations, and object associations.
package hubspot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alexatafm/solar-hub-sync/internal/transport"
	"github.com/alexatafm/solar-hub-sync/pkg/constants"
)

// ServiceName identifies this remote service in errors and logs.
const ServiceName = "hubspot"

// DefaultBaseURL is the production CRM API root.
const DefaultBaseURL = "https://api.hubapi.com"

// Object type names used in search and association paths. Sites are a
// portal-specific custom object.
const (
	ObjectDeals     = "deals"
	ObjectContacts  = "contacts"
	ObjectCompanies = "companies"
	ObjectSites     = "p_sites"
)

// Client talks to one HubSpot portal through the shared transport client.
type Client struct {
	transport *transport.Client
	baseURL   string
}

// NewClient creates a HubSpot client. baseURL is overridable for tests;
// pass DefaultBaseURL in production.
func NewClient(t *transport.Client, baseURL string) *Client {
	return &Client{transport: t, baseURL: baseURL}
}

// Limiter exposes the underlying rate limiter.
func (c *Client) Limiter() *transport.RateLimiter {
	return c.transport.Limiter()
}

// Deal fetches a deal with the properties the sync gates on. A missing
// deal surfaces as an error matching errors.ErrNotFound.
func (c *Client) Deal(ctx context.Context, dealID string) (*Deal, error) {
	url := fmt.Sprintf("%s/crm/v3/objects/deals/%s?properties=dealname,simpro_quote_id,dealstage,closed_lost_reason,pipeline", c.baseURL, dealID)
	resp, err := c.transport.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var deal Deal
	if err := transport.DecodeResponse(ServiceName, resp, &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// UpdateDeal patches deal properties. Values must already be rendered as
// CRM property values (strings or numbers).
func (c *Client) UpdateDeal(ctx context.Context, dealID string, properties map[string]any) error {
	body := map[string]any{"properties": properties}
	resp, err := c.transport.Patch(ctx, fmt.Sprintf("%s/crm/v3/objects/deals/%s", c.baseURL, dealID), body)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(ServiceName, resp, nil)
}

// Search runs a single-property EQ search against one object collection
// and returns the first page of matches.
func (c *Client) Search(ctx context.Context, objectType, property, value string, properties ...string) (*SearchResult, error) {
	req := SearchRequest{
		FilterGroups: []FilterGroup{{
			Filters: []Filter{{PropertyName: property, Operator: "EQ", Value: value}},
		}},
		Properties: properties,
	}

	resp, err := c.transport.Post(ctx, fmt.Sprintf("%s/crm/v3/objects/%s/search", c.baseURL, objectType), req)
	if err != nil {
		return nil, err
	}

	var result SearchResult
	if err := transport.DecodeResponse(ServiceName, resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchFirst returns the first match of a property search, or nil when
// nothing matched.
func (c *Client) SearchFirst(ctx context.Context, objectType, property, value string, properties ...string) (*SearchRecord, error) {
	result, err := c.Search(ctx, objectType, property, value, properties...)
	if err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

// CreateContact creates a contact and returns its object ID.
func (c *Client) CreateContact(ctx context.Context, properties map[string]string) (string, error) {
	return c.createObject(ctx, ObjectContacts, properties)
}

// UpdateContact patches contact properties, used to backfill the source
// customer ID on contacts matched by email.
func (c *Client) UpdateContact(ctx context.Context, contactID string, properties map[string]string) error {
	body := map[string]any{"properties": properties}
	resp, err := c.transport.Patch(ctx, fmt.Sprintf("%s/crm/v3/objects/contacts/%s", c.baseURL, contactID), body)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(ServiceName, resp, nil)
}

// CreateCompany creates a company and returns its object ID.
func (c *Client) CreateCompany(ctx context.Context, properties map[string]string) (string, error) {
	return c.createObject(ctx, ObjectCompanies, properties)
}

// CreateSite creates a site custom object and returns its object ID.
func (c *Client) CreateSite(ctx context.Context, properties map[string]string) (string, error) {
	return c.createObject(ctx, ObjectSites, properties)
}

func (c *Client) createObject(ctx context.Context, objectType string, properties map[string]string) (string, error) {
	body := map[string]any{"properties": properties}
	resp, err := c.transport.Post(ctx, fmt.Sprintf("%s/crm/v3/objects/%s", c.baseURL, objectType), body)
	if err != nil {
		return "", err
	}

	var created createdObject
	if err := transport.DecodeResponse(ServiceName, resp, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// DealLineItemIDs lists the IDs of line items currently associated with a
// deal. An empty slice means the deal has none and deletion can be
// skipped entirely.
func (c *Client) DealLineItemIDs(ctx context.Context, dealID string) ([]int64, error) {
	url := fmt.Sprintf("%s/crm/v4/objects/deals/%s/associations/line_items", c.baseURL, dealID)
	resp, err := c.transport.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var listing associationListing
	if err := transport.DecodeResponse(ServiceName, resp, &listing); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(listing.Results))
	for _, r := range listing.Results {
		ids = append(ids, r.ToObjectID)
	}
	return ids, nil
}

// BatchDeleteLineItems deletes line items through the legacy batch
// endpoint. Callers pass only non-empty slices.
func (c *Client) BatchDeleteLineItems(ctx context.Context, ids []int64) error {
	body := map[string][]int64{"ids": ids}
	resp, err := c.transport.Post(ctx, c.baseURL+"/crm-objects/v1/objects/line_items/batch-delete", body)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(ServiceName, resp, nil)
}

// BatchCreateLineItems creates line items through the legacy batch
// endpoint and returns the new object IDs in creation order.
func (c *Client) BatchCreateLineItems(ctx context.Context, items []LineItem) ([]string, error) {
	payload := make([][]PropertyValue, 0, len(items))
	for i := range items {
		payload = append(payload, items[i].Properties())
	}

	resp, err := c.transport.Post(ctx, c.baseURL+"/crm-objects/v1/objects/line_items/batch-create", payload)
	if err != nil {
		return nil, err
	}

	var created batchCreateResponse
	if err := transport.DecodeResponse(ServiceName, resp, &created); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(created))
	for _, obj := range created {
		if p, ok := obj.Properties["hs_object_id"]; ok {
			ids = append(ids, p.Value)
		}
	}
	return ids, nil
}

// AssociateLineItems associates freshly created line items to their deal
// in one batch call.
func (c *Client) AssociateLineItems(ctx context.Context, dealID string, lineItemIDs []string) error {
	type endpoint struct {
		ID string `json:"id"`
	}
	type input struct {
		From endpoint `json:"from"`
		To   endpoint `json:"to"`
		Type string   `json:"type"`
	}

	inputs := make([]input, 0, len(lineItemIDs))
	for _, id := range lineItemIDs {
		inputs = append(inputs, input{
			From: endpoint{ID: dealID},
			To:   endpoint{ID: id},
			Type: "deal_to_line_item",
		})
	}

	body := map[string]any{"inputs": inputs}
	resp, err := c.transport.Post(ctx, c.baseURL+"/crm/v3/associations/deal/line_item/batch/create", body)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(ServiceName, resp, nil)
}

// AssociateDealContact links a deal to a contact with the default label.
func (c *Client) AssociateDealContact(ctx context.Context, dealID, contactID string) error {
	return c.associate(ctx, dealID, ObjectContacts, contactID, "deal_to_contact")
}

// AssociateDealCompany links a deal to a company with the default label.
func (c *Client) AssociateDealCompany(ctx context.Context, dealID, companyID string) error {
	return c.associate(ctx, dealID, ObjectCompanies, companyID, "deal_to_company")
}

// AssociateDealSite links a deal to a site using the portal's typed
// deal-to-site association.
func (c *Client) AssociateDealSite(ctx context.Context, dealID, siteID string) error {
	return c.associate(ctx, dealID, ObjectSites, siteID, strconv.Itoa(constants.DealToSiteAssociationTypeID))
}

func (c *Client) associate(ctx context.Context, dealID, toType, toID, assocType string) error {
	url := fmt.Sprintf("%s/crm/v3/objects/deals/%s/associations/%s/%s/%s", c.baseURL, dealID, toType, toID, assocType)
	resp, err := c.transport.Put(ctx, url, nil)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(ServiceName, resp, nil)
}
