package simpro

import (
	"fmt"
	"strings"
)

// Quote is the full nested quote document returned by display=all. It is an
// immutable snapshot: fetched fresh per sync, decomposed, then discarded.
type Quote struct {
	ID           int                `json:"ID"`
	Name         string             `json:"Name"`
	Description  string             `json:"Description"`
	Customer     CustomerRef        `json:"Customer"`
	Site         SiteRef            `json:"Site"`
	Status       StatusRef          `json:"Status"`
	Salesperson  PersonRef          `json:"Salesperson"`
	DateIssued   string             `json:"DateIssued"`
	DueDate      string             `json:"DueDate"`
	IsClosed     bool               `json:"IsClosed"`
	Total        Money              `json:"Total"`
	CustomFields []CustomFieldValue `json:"CustomFields"`
	Sections     []Section          `json:"Sections"`
}

// Section is a named grouping of cost centers within a quote.
type Section struct {
	ID          int          `json:"ID"`
	Name        string       `json:"Name"`
	CostCenters []CostCenter `json:"CostCenters"`
}

// CostCenter groups priced items and carries the optional/primary flag.
// Under display=all the name lives on the nested CostCenter reference;
// older payload shapes carry it directly.
type CostCenter struct {
	ID                 int      `json:"ID"`
	Name               string   `json:"Name"`
	CostCenter         *NameRef `json:"CostCenter"`
	Description        string   `json:"Description"`
	OptionalDepartment bool     `json:"OptionalDepartment"`
	Items              Items    `json:"Items"`
}

// DisplayName returns the cost center's name, preferring the nested
// reference populated by display=all.
func (cc *CostCenter) DisplayName() string {
	if cc.CostCenter != nil && cc.CostCenter.Name != "" {
		return cc.CostCenter.Name
	}
	return cc.Name
}

// Items holds the five typed item collections of a cost center.
type Items struct {
	Catalogs    []CatalogItem    `json:"Catalogs"`
	OneOffs     []OneOffItem     `json:"OneOffs"`
	Prebuilds   []PrebuildItem   `json:"Prebuilds"`
	ServiceFees []ServiceFeeItem `json:"ServiceFees"`
	Labors      []LaborItem      `json:"Labors"`
}

// ItemCommon is the numeric envelope shared by every item kind.
type ItemCommon struct {
	ID             int       `json:"ID"`
	BasePrice      float64   `json:"BasePrice"`
	Markup         float64   `json:"Markup"`
	Discount       float64   `json:"Discount"`
	SellPrice      SellPrice `json:"SellPrice"`
	Total          ItemTotal `json:"Total"`
	BillableStatus string    `json:"BillableStatus"`
}

// CatalogItem is a priced catalog part.
type CatalogItem struct {
	ItemCommon
	Catalog PartRef `json:"Catalog"`
}

// OneOffItem is an ad-hoc priced item; its name is the description.
type OneOffItem struct {
	ItemCommon
	Description string `json:"Description"`
	PartNo      string `json:"PartNo"`
}

// PrebuildItem is a priced prebuild assembly. Type distinguishes rebate
// prebuilds, which are excluded from sync.
type PrebuildItem struct {
	ItemCommon
	Prebuild PrebuildRef `json:"Prebuild"`
}

// ServiceFeeItem is a priced service fee.
type ServiceFeeItem struct {
	ItemCommon
	ServiceFee PartRef `json:"ServiceFee"`
}

// LaborItem is priced labor; cost and markup come from the labor-rate
// table rather than item fields.
type LaborItem struct {
	ItemCommon
	LaborType PartRef `json:"LaborType"`
}

// SellPrice carries per-unit sell pricing for an item.
type SellPrice struct {
	ExTax           float64 `json:"ExTax"`
	IncTax          float64 `json:"IncTax"`
	ExDiscountExTax float64 `json:"ExDiscountExTax"`
}

// ItemTotal carries quantity and line totals for an item.
type ItemTotal struct {
	Qty    float64 `json:"Qty"`
	Amount Money   `json:"Amount"`
}

// Money is an ex/inc tax amount pair.
type Money struct {
	ExTax  float64 `json:"ExTax"`
	IncTax float64 `json:"IncTax"`
}

// PartRef is a named part reference with an optional SKU.
type PartRef struct {
	ID     int    `json:"ID"`
	Name   string `json:"Name"`
	PartNo string `json:"PartNo"`
}

// PrebuildRef extends PartRef with the prebuild type.
type PrebuildRef struct {
	ID     int    `json:"ID"`
	Name   string `json:"Name"`
	PartNo string `json:"PartNo"`
	Type   string `json:"Type"`
}

// NameRef is a bare ID/name reference.
type NameRef struct {
	ID   int    `json:"ID"`
	Name string `json:"Name"`
}

// StatusRef is a status reference.
type StatusRef struct {
	ID   int    `json:"ID"`
	Name string `json:"Name"`
}

// PersonRef is a staff reference.
type PersonRef struct {
	ID   int    `json:"ID"`
	Name string `json:"Name"`
}

// CustomerRef identifies the quote's customer. Type is "Company" for
// organization customers and "Individual" for persons.
type CustomerRef struct {
	ID          int    `json:"ID"`
	Type        string `json:"Type"`
	CompanyName string `json:"CompanyName"`
	GivenName   string `json:"GivenName"`
	FamilyName  string `json:"FamilyName"`
}

// IsCompany reports whether the customer is an organization.
func (c CustomerRef) IsCompany() bool {
	return c.Type == "Company"
}

// SiteRef identifies the quote's site.
type SiteRef struct {
	ID   int    `json:"ID"`
	Name string `json:"Name"`
}

// CustomFieldValue is a populated custom field on a quote or job.
type CustomFieldValue struct {
	CustomField CustomFieldRef `json:"CustomField"`
	Value       any            `json:"Value"`
}

// CustomFieldRef identifies a custom field definition.
type CustomFieldRef struct {
	ID   int    `json:"ID"`
	Name string `json:"Name"`
}

// StringValue renders the field value as a string, empty when unset.
func (cf CustomFieldValue) StringValue() string {
	if cf.Value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cf.Value))
}

// CustomFieldString finds a custom field by definition ID and returns its
// string value; empty when absent or unset.
func CustomFieldString(fields []CustomFieldValue, fieldID int) string {
	for _, cf := range fields {
		if cf.CustomField.ID == fieldID {
			return cf.StringValue()
		}
	}
	return ""
}

// LaborRate is one labor-rate definition from the setup tables.
type LaborRate struct {
	ID       int     `json:"ID"`
	Name     string  `json:"Name"`
	Markup   float64 `json:"Markup"`
	CostRate float64 `json:"CostRate"`
}

// Customer is a full customer record, fetched when identity resolution
// needs contact details. Company customers carry CompanyName and a
// ContactPerson; individuals carry the name/email fields directly.
type Customer struct {
	ID            int            `json:"ID"`
	Type          string         `json:"Type"`
	CompanyName   string         `json:"CompanyName"`
	GivenName     string         `json:"GivenName"`
	FamilyName    string         `json:"FamilyName"`
	Email         string         `json:"Email"`
	Phone         string         `json:"Phone"`
	CellPhone     string         `json:"CellPhone"`
	Address       Address        `json:"Address"`
	ContactPerson *ContactPerson `json:"ContactPerson"`
}

// BestEmail returns the contact person's email when present, falling back
// to the customer-level address.
func (c *Customer) BestEmail() string {
	if c.ContactPerson != nil && c.ContactPerson.Email != "" {
		return c.ContactPerson.Email
	}
	return c.Email
}

// ContactPerson is the nominated contact on a company customer.
type ContactPerson struct {
	GivenName  string `json:"GivenName"`
	FamilyName string `json:"FamilyName"`
	Email      string `json:"Email"`
	Phone      string `json:"Phone"`
	CellPhone  string `json:"CellPhone"`
}

// Site is a full site record.
type Site struct {
	ID      int     `json:"ID"`
	Name    string  `json:"Name"`
	Address Address `json:"Address"`
}

// Address is a postal address.
type Address struct {
	Address    string `json:"Address"`
	City       string `json:"City"`
	State      string `json:"State"`
	PostalCode string `json:"PostalCode"`
	Country    string `json:"Country"`
}

// TimelineEntry is one entry of a quote's activity timeline. Fetched
// best-effort for deal property enrichment; failures are tolerated.
type TimelineEntry struct {
	Type    string `json:"Type"`
	Date    string `json:"Date"`
	Message string `json:"Message"`
	Staff   string `json:"Staff"`
}

// Job is a quote converted to an active work order.
type Job struct {
	ID                 int                `json:"ID"`
	Name               string             `json:"Name"`
	Stage              string             `json:"Stage"`
	Status             StatusRef          `json:"Status"`
	Customer           CustomerRef        `json:"Customer"`
	Site               SiteRef            `json:"Site"`
	DateIssued         string             `json:"DateIssued"`
	CompletedDate      string             `json:"CompletedDate"`
	Total              Money              `json:"Total"`
	ConvertedFromQuote *NameRef           `json:"ConvertedFromQuote"`
	CustomFields       []CustomFieldValue `json:"CustomFields"`
}
