package sync

import (
	"math"
	"strconv"

	"github.com/alexatafm/solar-hub-sync/internal/hubspot"
	"github.com/alexatafm/solar-hub-sync/internal/simpro"
	"github.com/alexatafm/solar-hub-sync/pkg/constants"
)

// Line-item type labels as they appear in the CRM. The labels predate
// this sync and are fixed by the existing property values.
const (
	TypeCatalog    = "Catalogue"
	TypeOneOff     = "One-Off"
	TypePrebuild   = "Pre-Builds"
	TypeServiceFee = "Service"
	TypeLabor      = "Labour"
)

const (
	primaryCostCenter  = "Primary"
	optionalCostCenter = "Optional"
)

// Decompose flattens a quote's section/cost-center/item tree into CRM
// line items. Output order is deterministic: sections and cost centers in
// document order, item kinds in a fixed sequence within each cost center.
// Negative-priced items and rebate prebuilds are dropped.
func Decompose(quote *simpro.Quote, rates *RateCache) []hubspot.LineItem {
	var items []hubspot.LineItem
	for _, section := range quote.Sections {
		for i := range section.CostCenters {
			items = append(items, decomposeCostCenter(section.Name, &section.CostCenters[i], rates)...)
		}
	}
	return items
}

func decomposeCostCenter(sectionName string, cc *simpro.CostCenter, rates *RateCache) []hubspot.LineItem {
	scope := itemScope{
		section:         sectionName,
		costCenter:      cc.DisplayName(),
		description:     cc.Description,
		primaryOptional: primaryCostCenter,
	}
	if cc.OptionalDepartment {
		scope.primaryOptional = optionalCostCenter
	}

	var items []hubspot.LineItem
	for _, it := range cc.Items.Catalogs {
		if skipItem(it.ItemCommon) {
			continue
		}
		cost, markup := costAndMarkup(it.ItemCommon, "", rates)
		items = append(items, scope.lineItem(it.ItemCommon, TypeCatalog, it.Catalog.Name, it.Catalog.PartNo, cost, markup))
	}
	for _, it := range cc.Items.OneOffs {
		if skipItem(it.ItemCommon) {
			continue
		}
		cost, markup := costAndMarkup(it.ItemCommon, "", rates)
		items = append(items, scope.lineItem(it.ItemCommon, TypeOneOff, it.Description, it.PartNo, cost, markup))
	}
	for _, it := range cc.Items.Prebuilds {
		if skipItem(it.ItemCommon) || it.Prebuild.Type == constants.RebatePrebuildType {
			continue
		}
		cost, markup := costAndMarkup(it.ItemCommon, "", rates)
		items = append(items, scope.lineItem(it.ItemCommon, TypePrebuild, it.Prebuild.Name, it.Prebuild.PartNo, cost, markup))
	}
	for _, it := range cc.Items.ServiceFees {
		if skipItem(it.ItemCommon) {
			continue
		}
		cost, markup := costAndMarkup(it.ItemCommon, "", rates)
		items = append(items, scope.lineItem(it.ItemCommon, TypeServiceFee, it.ServiceFee.Name, it.ServiceFee.PartNo, cost, markup))
	}
	for _, it := range cc.Items.Labors {
		if skipItem(it.ItemCommon) {
			continue
		}
		cost, markup := costAndMarkup(it.ItemCommon, it.LaborType.Name, rates)
		items = append(items, scope.lineItem(it.ItemCommon, TypeLabor, it.LaborType.Name, it.LaborType.PartNo, cost, markup))
	}
	return items
}

// skipItem drops negative-priced items: credits and adjustments are
// represented elsewhere on the deal, not as line items.
func skipItem(common simpro.ItemCommon) bool {
	return round2(common.SellPrice.ExTax) < 0
}

// itemScope carries the tree position shared by every item of one cost
// center.
type itemScope struct {
	section         string
	costCenter      string
	description     string
	primaryOptional string
}

func (s *itemScope) lineItem(common simpro.ItemCommon, kind, name, partNo string, cost, markup float64) hubspot.LineItem {
	price := round2(common.SellPrice.ExTax)

	original := round2(common.SellPrice.ExDiscountExTax)
	if original == 0 {
		original = price
	}

	billable := common.BillableStatus
	if billable == "" {
		if s.primaryOptional == primaryCostCenter {
			billable = "Billable"
		} else {
			billable = "Non-Billable"
		}
	}

	sku := partNo
	if sku == "" {
		sku = strconv.Itoa(common.ID)
	}

	return hubspot.LineItem{
		Name:                  name,
		SKU:                   sku,
		Type:                  kind,
		Section:               s.section,
		CostCenter:            s.costCenter,
		CostCenterDescription: s.description,
		PrimaryOptional:       s.primaryOptional,
		Quantity:              round2(common.Total.Qty),
		Price:                 price,
		CostPrice:             cost,
		Markup:                markup,
		Discount:              common.Discount,
		LineTotalExTax:        round2(common.Total.Amount.ExTax),
		LineTotalIncTax:       round2(common.Total.Amount.IncTax),
		OriginalPrice:         original,
		SimproItemID:          common.ID,
		BillableStatus:        billable,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
