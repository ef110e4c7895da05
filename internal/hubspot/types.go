package hubspot

import "strconv"

// Deal is a CRM deal record with the properties the sync reads.
type Deal struct {
	ID         string         `json:"id"`
	Properties DealProperties `json:"properties"`
	Archived   bool           `json:"archived"`
}

// DealProperties holds the deal fields fetched ahead of each sync. All
// CRM property values arrive as strings.
type DealProperties struct {
	DealName         string `json:"dealname"`
	DealStage        string `json:"dealstage"`
	Pipeline         string `json:"pipeline"`
	ClosedLostReason string `json:"closed_lost_reason"`
	SimproQuoteID    string `json:"simpro_quote_id"`
}

// IsArchivedDuplicate reports whether a human merged this deal away.
// Such deals are skipped, never re-synced.
func (d *Deal) IsArchivedDuplicate(stage, reason string) bool {
	return d.Properties.DealStage == stage && d.Properties.ClosedLostReason == reason
}

// SearchRequest is the body of a CRM v3 property search.
type SearchRequest struct {
	FilterGroups []FilterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties,omitempty"`
	Limit        int           `json:"limit,omitempty"`
}

// FilterGroup groups filters combined with AND.
type FilterGroup struct {
	Filters []Filter `json:"filters"`
}

// Filter is one property predicate.
type Filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

// SearchResult is the response of a CRM v3 search.
type SearchResult struct {
	Total   int            `json:"total"`
	Results []SearchRecord `json:"results"`
}

// SearchRecord is one matched object with its requested properties.
type SearchRecord struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// PropertyValue is one name/value pair in the legacy v1 line-item batch
// body. Values may be strings or numbers.
type PropertyValue struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// LineItem is the flat projection of one priced quote item, carrying its
// position in the quote tree and its pricing fields.
type LineItem struct {
	Name                  string
	SKU                   string
	Type                  string
	Section               string
	CostCenter            string
	CostCenterDescription string
	PrimaryOptional       string
	Quantity              float64
	Price                 float64
	CostPrice             float64
	Markup                float64
	Discount              float64
	LineTotalExTax        float64
	LineTotalIncTax       float64
	OriginalPrice         float64
	SimproItemID          int
	BillableStatus        string
}

// Properties renders the line item as the property array the legacy batch
// create endpoint expects. Property names match the CRM line-item schema.
func (li *LineItem) Properties() []PropertyValue {
	return []PropertyValue{
		{Name: "quantity", Value: li.Quantity},
		{Name: "name", Value: li.Name},
		{Name: "price", Value: li.Price},
		{Name: "costcenter", Value: li.CostCenter},
		{Name: "primary_optional_cost_centre", Value: li.PrimaryOptional},
		{Name: "section", Value: li.Section},
		{Name: "costcenter_description", Value: li.CostCenterDescription},
		{Name: "type", Value: li.Type},
		{Name: "markup__", Value: li.Markup},
		{Name: "cost_price", Value: li.CostPrice},
		{Name: "hs_sku", Value: li.SKU},
		{Name: "item_discount", Value: li.Discount},
		{Name: "line_total__ex_tax_", Value: li.LineTotalExTax},
		{Name: "line_total__inc_tax_", Value: li.LineTotalIncTax},
		{Name: "original_price_before_discount", Value: li.OriginalPrice},
		{Name: "simpro_catalogue_id", Value: strconv.Itoa(li.SimproItemID)},
		{Name: "billable_status", Value: li.BillableStatus},
	}
}

// associationListing is the v4 association listing response; toObjectId
// identifies the associated object.
type associationListing struct {
	Results []struct {
		ToObjectID int64 `json:"toObjectId"`
	} `json:"results"`
}

// batchCreateResponse is the legacy v1 batch-create response: one entry
// per created object, properties keyed by name with wrapped values.
type batchCreateResponse []struct {
	Properties map[string]struct {
		Value string `json:"value"`
	} `json:"properties"`
}

// createdObject is a v3 object create/update response.
type createdObject struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}
