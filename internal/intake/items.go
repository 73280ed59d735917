package intake

import (
	"fmt"
	"strings"

	"github.com/walkin/intake/internal/estimation"
	"github.com/walkin/intake/internal/models"
)

// ItemField names an editable field of a DonationItemDraft.
type ItemField string

const (
	FieldQuantity             ItemField = "quantity"
	FieldContainerType        ItemField = "containerType"
	FieldContainerCount       ItemField = "containerCount"
	FieldQuantityPerContainer ItemField = "quantityPerContainer"
	FieldCondition            ItemField = "condition"
	FieldValue                ItemField = "value"
	FieldDescription          ItemField = "description"
	FieldCategory             ItemField = "category"
)

// Items returns copies of the draft's items in order.
func (d *Draft) Items() []models.DonationItemDraft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.itemsCopy()
}

func (d *Draft) itemsCopy() []models.DonationItemDraft {
	out := make([]models.DonationItemDraft, len(d.items))
	for i, it := range d.items {
		out[i] = *it
	}
	return out
}

func (d *Draft) Item(id string) (models.DonationItemDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, it := d.find(id)
	if it == nil {
		return models.DonationItemDraft{}, ErrItemNotFound
	}
	return *it, nil
}

func (d *Draft) find(id string) (int, *models.DonationItemDraft) {
	for i, it := range d.items {
		if it.ID == id {
			return i, it
		}
	}
	return -1, nil
}

// AddItem appends one item of itemType. In Individual mode the item is a
// plain counter starting at 1; in Bulk mode it fills one default container.
func (d *Draft) AddItem(itemType models.ItemType) (models.DonationItemDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return models.DonationItemDraft{}, err
	}
	if strings.TrimSpace(itemType.ID) == "" || strings.TrimSpace(itemType.Name) == "" {
		return models.DonationItemDraft{}, ErrInvalidItemType
	}

	item := &models.DonationItemDraft{
		ID:           d.newID(),
		ItemTypeID:   itemType.ID,
		ItemTypeName: itemType.Name,
		Category:     itemType.Category,
		BaseValue:    sanitizeValue(itemType.BaseValue()),
	}
	applyCatalogCondition(item, itemType.FixedCondition, itemType.HasFixedCondition)

	if d.method == models.MethodBulk {
		item.IsEstimated = true
		item.ContainerType = DefaultContainerType
		item.ContainerCount = 1
		item.QuantityPerContainer = clampCount(d.estimator.EstimateQuantity(item.ContainerType, item.ItemTypeName))
		syncQuantity(item)
	} else {
		item.Quantity = 1
	}

	d.items = append(d.items, item)
	return *item, nil
}

func applyCatalogCondition(item *models.DonationItemDraft, fixed models.Condition, hasFixed bool) {
	item.Condition = models.DefaultCondition
	if hasFixed {
		if fixed == "" {
			fixed = models.DefaultCondition
		}
		item.FixedCondition = fixed
		item.HasFixedCondition = true
		item.Condition = fixed
	}
	item.Value = estimation.ComputeConditionValue(item.BaseValue, item.Condition)
}

// UpdateItem sets one field from raw user input and reruns every
// recomputation that depends on it.
func (d *Draft) UpdateItem(id string, field ItemField, value string) (models.DonationItemDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return models.DonationItemDraft{}, err
	}
	_, item := d.find(id)
	if item == nil {
		return models.DonationItemDraft{}, ErrItemNotFound
	}

	switch field {
	case FieldQuantity:
		if item.IsEstimated {
			return *item, ErrDerivedQuantity
		}
		item.Quantity = ParseCount(value)

	case FieldContainerType:
		if !item.IsEstimated {
			return *item, ErrNotEstimated
		}
		ct := strings.TrimSpace(value)
		if ct == "" {
			return *item, fmt.Errorf("%w: container type is required", ErrInvalidValue)
		}
		if item.IsAssorted {
			d.setGroupContainerType(item.AssortedGroupID, ct)
			break
		}
		item.ContainerType = ct
		item.QuantityPerContainer = clampCount(d.estimator.EstimateQuantity(ct, item.ItemTypeName))
		syncQuantity(item)

	case FieldContainerCount:
		if !item.IsEstimated {
			return *item, ErrNotEstimated
		}
		count := ParseCount(value)
		if item.IsAssorted {
			d.setGroupContainerCount(item.AssortedGroupID, count)
			break
		}
		item.ContainerCount = count
		syncQuantity(item)

	case FieldQuantityPerContainer:
		if !item.IsEstimated {
			return *item, ErrNotEstimated
		}
		item.QuantityPerContainer = ParseCount(value)
		syncQuantity(item)

	case FieldCondition:
		cond := models.Condition(strings.TrimSpace(value))
		if cond == "" {
			return *item, fmt.Errorf("%w: condition is required", ErrInvalidValue)
		}
		if item.HasFixedCondition && cond != item.FixedCondition {
			return *item, fmt.Errorf("%w: %s must stay %s", ErrFixedCondition, item.ItemTypeName, item.FixedCondition)
		}
		if cond != item.Condition {
			item.Condition = cond
			item.Value = estimation.ComputeConditionValue(item.BaseValue, cond)
			item.ValueOverridden = false
		}

	case FieldValue:
		item.Value = estimation.RoundCents(ParseValue(value))
		item.ValueOverridden = true

	case FieldDescription:
		item.Description = value

	case FieldCategory:
		item.Category = strings.TrimSpace(value)

	default:
		return *item, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	return *item, nil
}

// ResetItemValue drops a manual value and derives it from the condition again.
func (d *Draft) ResetItemValue(id string) (models.DonationItemDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return models.DonationItemDraft{}, err
	}
	_, item := d.find(id)
	if item == nil {
		return models.DonationItemDraft{}, ErrItemNotFound
	}
	item.Value = estimation.ComputeConditionValue(item.BaseValue, item.Condition)
	item.ValueOverridden = false
	return *item, nil
}

// RemoveItem deletes an item. Removing an assorted member rebalances the
// rest of its group.
func (d *Draft) RemoveItem(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return err
	}
	idx, item := d.find(id)
	if item == nil {
		return ErrItemNotFound
	}

	d.items = append(d.items[:idx], d.items[idx+1:]...)
	if item.IsAssorted {
		d.rebalanceGroup(item.AssortedGroupID)
	}
	return nil
}

func syncQuantity(item *models.DonationItemDraft) {
	item.ContainerCount = clampCount(item.ContainerCount)
	item.QuantityPerContainer = clampCount(item.QuantityPerContainer)
	item.Quantity = item.QuantityPerContainer * item.ContainerCount
}

