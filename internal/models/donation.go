package models

import "strings"

type Condition string

const (
	ConditionNew       Condition = "New"
	ConditionNewLower  Condition = "new"
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
	ConditionPoor      Condition = "Poor"
)

// DefaultCondition is assigned to new items without a fixed condition.
const DefaultCondition = ConditionGood

type DonationMethod string

const (
	MethodIndividual DonationMethod = "Individual"
	MethodBulk       DonationMethod = "Bulk"
)

func (m DonationMethod) Valid() bool {
	return m == MethodIndividual || m == MethodBulk
}

type Donor struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
}

// Validate reports blank required fields. Whitespace-only counts as blank.
func (d *Donor) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(d.Name) == "" {
		errors["name"] = "Donor name is required"
	}
	if strings.TrimSpace(d.Address) == "" {
		errors["address"] = "Donor address is required"
	}
	if strings.TrimSpace(d.Phone) == "" {
		errors["phone"] = "Donor phone is required"
	}

	return errors
}

// DonationItemDraft is one line of an in-progress donation.
type DonationItemDraft struct {
	ID                   string    `json:"id"`
	ItemTypeID           string    `json:"item_type_id"`
	ItemTypeName         string    `json:"item_type_name"`
	Category             string    `json:"category"`
	Quantity             int       `json:"quantity"`
	IsEstimated          bool      `json:"is_estimated"`
	ContainerType        string    `json:"container_type,omitempty"`
	ContainerCount       int       `json:"container_count,omitempty"`
	QuantityPerContainer int       `json:"quantity_per_container,omitempty"`
	Condition            Condition `json:"condition"`
	BaseValue            float64   `json:"base_value"`
	Value                float64   `json:"value"`
	ValueOverridden      bool      `json:"value_overridden"`
	Description          string    `json:"description"`
	FixedCondition       Condition `json:"fixed_condition,omitempty"`
	HasFixedCondition    bool      `json:"has_fixed_condition"`
	IsAssorted           bool      `json:"is_assorted"`
	AssortedGroupID      string    `json:"assorted_group_id,omitempty"`
}

// AssortedItemDraft is one item type staged inside an assorted container.
type AssortedItemDraft struct {
	ItemTypeID           string    `json:"item_type_id"`
	ItemTypeName         string    `json:"item_type_name"`
	QuantityPerContainer int       `json:"quantity_per_container"`
	BaseValue            float64   `json:"base_value"`
	FixedCondition       Condition `json:"fixed_condition,omitempty"`
}

// AssortedContainerDraft stages one physical container holding several item
// types before they are committed into the donation.
type AssortedContainerDraft struct {
	ContainerType  string              `json:"container_type"`
	ContainerCount int                 `json:"container_count"`
	Category       string              `json:"category"`
	Items          []AssortedItemDraft `json:"items"`
}
