// Package simpro provides a typed client for the Simpro field-service API:
// quotes with their full section/cost-center/item tree, labor rates,
// customers, sites, and custom-field writes.
package simpro

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alexatafm/solar-hub-sync/internal/transport"
)

// ServiceName identifies this remote service in errors and logs.
const ServiceName = "simpro"

// Client talks to one Simpro company. All requests flow through the shared
// transport client and its rate limiter.
type Client struct {
	transport *transport.Client
	baseURL   string
}

// NewClient creates a Simpro client. baseURL is the company-scoped API
// root, e.g. https://example.simprosuite.com/api/v1.0/companies/0.
func NewClient(t *transport.Client, baseURL string) *Client {
	return &Client{transport: t, baseURL: baseURL}
}

// Limiter exposes the underlying rate limiter, shared with any other
// client built on the same transport.
func (c *Client) Limiter() *transport.RateLimiter {
	return c.transport.Limiter()
}

// Quote fetches a quote with display=all so the full nested tree of
// sections, cost centers, and items arrives in one response. A missing
// quote surfaces as an error matching errors.ErrNotFound.
func (c *Client) Quote(ctx context.Context, quoteID int) (*Quote, error) {
	resp, err := c.transport.Get(ctx, fmt.Sprintf("%s/quotes/%d?display=all", c.baseURL, quoteID))
	if err != nil {
		return nil, err
	}

	var quote Quote
	if err := transport.DecodeResponse(ServiceName, resp, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// Timelines fetches a quote's activity timeline. Callers treat failures
// as non-fatal; the timeline only enriches deal properties.
func (c *Client) Timelines(ctx context.Context, quoteID int) ([]TimelineEntry, error) {
	resp, err := c.transport.Get(ctx, fmt.Sprintf("%s/quotes/%d/timelines/", c.baseURL, quoteID))
	if err != nil {
		return nil, err
	}

	var entries []TimelineEntry
	if err := transport.DecodeResponse(ServiceName, resp, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Job fetches a single job.
func (c *Client) Job(ctx context.Context, jobID int) (*Job, error) {
	resp, err := c.transport.Get(ctx, fmt.Sprintf("%s/jobs/%d", c.baseURL, jobID))
	if err != nil {
		return nil, err
	}

	var job Job
	if err := transport.DecodeResponse(ServiceName, resp, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Jobs lists jobs one page at a time, newest first. An empty page means
// the listing is exhausted.
func (c *Client) Jobs(ctx context.Context, page, pageSize int) ([]Job, error) {
	q := url.Values{}
	q.Set("pageSize", fmt.Sprintf("%d", pageSize))
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("orderby", "-ID")

	resp, err := c.transport.Get(ctx, fmt.Sprintf("%s/jobs/?%s", c.baseURL, q.Encode()))
	if err != nil {
		return nil, err
	}

	var jobs []Job
	if err := transport.DecodeResponse(ServiceName, resp, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Customer fetches a full customer record. Company and individual
// customers live under different collections, so the caller must pass the
// customer type from the quote.
func (c *Client) Customer(ctx context.Context, customerID int, isCompany bool) (*Customer, error) {
	collection := "individuals"
	if isCompany {
		collection = "companies"
	}

	resp, err := c.transport.Get(ctx, fmt.Sprintf("%s/customers/%s/%d", c.baseURL, collection, customerID))
	if err != nil {
		return nil, err
	}

	var customer Customer
	if err := transport.DecodeResponse(ServiceName, resp, &customer); err != nil {
		return nil, err
	}
	if customer.Type == "" {
		if isCompany {
			customer.Type = "Company"
		} else {
			customer.Type = "Individual"
		}
	}
	return &customer, nil
}

// Site fetches a full site record.
func (c *Client) Site(ctx context.Context, siteID int) (*Site, error) {
	resp, err := c.transport.Get(ctx, fmt.Sprintf("%s/sites/%d", c.baseURL, siteID))
	if err != nil {
		return nil, err
	}

	var site Site
	if err := transport.DecodeResponse(ServiceName, resp, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// LaborRates fetches the full labor-rate table from the setup endpoints.
// Fetched once per batch run and cached; see sync.RateCache.
func (c *Client) LaborRates(ctx context.Context) ([]LaborRate, error) {
	resp, err := c.transport.Get(ctx, fmt.Sprintf("%s/setup/labor/laborRates/?pageSize=250", c.baseURL))
	if err != nil {
		return nil, err
	}

	var rates []LaborRate
	if err := transport.DecodeResponse(ServiceName, resp, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// SetQuoteCustomField writes a custom field value on a quote. Used for the
// deal-ID back-reference after a successful sync.
func (c *Client) SetQuoteCustomField(ctx context.Context, quoteID, fieldID int, value string) error {
	body := map[string]string{"Value": value}
	resp, err := c.transport.Patch(ctx, fmt.Sprintf("%s/quotes/%d/customFields/%d", c.baseURL, quoteID, fieldID), body)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(ServiceName, resp, nil)
}

// SetJobCustomField writes a custom field value on a job.
func (c *Client) SetJobCustomField(ctx context.Context, jobID, fieldID int, value string) error {
	body := map[string]string{"Value": value}
	resp, err := c.transport.Patch(ctx, fmt.Sprintf("%s/jobs/%d/customFields/%d", c.baseURL, jobID, fieldID), body)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(ServiceName, resp, nil)
}
