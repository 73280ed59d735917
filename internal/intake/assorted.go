package intake

import (
	"fmt"
	"strings"

	"github.com/walkin/intake/internal/estimation"
	"github.com/walkin/intake/internal/models"
)

// AssortedGroup describes one committed assorted container and its members.
type AssortedGroup struct {
	ID             string   `json:"id"`
	ContainerType  string   `json:"container_type"`
	ContainerCount int      `json:"container_count"`
	Category       string   `json:"category"`
	ItemIDs        []string `json:"item_ids"`
}

// AddAssortedGroup commits a staged container. Every staged item becomes an
// estimated draft item sharing a new group id and the container's count.
func (d *Draft) AddAssortedGroup(container models.AssortedContainerDraft) ([]models.DonationItemDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	ct := strings.TrimSpace(container.ContainerType)
	if ct == "" {
		fields["container_type"] = "Container type is required"
	}
	if len(container.Items) == 0 {
		fields["items"] = "Add at least one item type to the container"
	}
	for _, it := range container.Items {
		if strings.TrimSpace(it.ItemTypeID) == "" || strings.TrimSpace(it.ItemTypeName) == "" {
			fields["items"] = "Every item type needs an id and a name"
			break
		}
	}
	if err := newValidationError(fields); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(container.Items))
	for _, it := range container.Items {
		id := strings.TrimSpace(it.ItemTypeID)
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItemType, id)
		}
		seen[id] = true
	}

	group := &assortedGroup{
		ID:             d.newID(),
		ContainerType:  ct,
		ContainerCount: clampCount(container.ContainerCount),
		Category:       container.Category,
	}
	d.groups[group.ID] = group
	d.groupOrder = append(d.groupOrder, group.ID)

	total := len(container.Items)
	added := make([]models.DonationItemDraft, 0, total)
	for _, staged := range container.Items {
		qpc := staged.QuantityPerContainer
		if qpc < 1 {
			qpc = d.estimator.EstimateAssortedQuantity(ct, staged.ItemTypeName, total)
		}
		item := &models.DonationItemDraft{
			ID:                   d.newID(),
			ItemTypeID:           staged.ItemTypeID,
			ItemTypeName:         staged.ItemTypeName,
			Category:             container.Category,
			IsEstimated:          true,
			ContainerType:        ct,
			ContainerCount:       group.ContainerCount,
			QuantityPerContainer: qpc,
			BaseValue:            sanitizeValue(staged.BaseValue),
			IsAssorted:           true,
			AssortedGroupID:      group.ID,
		}
		applyCatalogCondition(item, staged.FixedCondition, staged.FixedCondition != "")
		syncQuantity(item)

		d.items = append(d.items, item)
		added = append(added, *item)
	}
	return added, nil
}

// AssortedGroups lists committed groups, including ones emptied by removals.
func (d *Draft) AssortedGroups() []AssortedGroup {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.groupsCopy()
}

func (d *Draft) groupsCopy() []AssortedGroup {
	out := make([]AssortedGroup, 0, len(d.groupOrder))
	for _, id := range d.groupOrder {
		g := d.groups[id]
		view := AssortedGroup{
			ID:             g.ID,
			ContainerType:  g.ContainerType,
			ContainerCount: g.ContainerCount,
			Category:       g.Category,
			ItemIDs:        []string{},
		}
		for _, it := range d.groupMembers(id) {
			view.ItemIDs = append(view.ItemIDs, it.ID)
		}
		out = append(out, view)
	}
	return out
}

func (d *Draft) groupMembers(groupID string) []*models.DonationItemDraft {
	var members []*models.DonationItemDraft
	for _, it := range d.items {
		if it.IsAssorted && it.AssortedGroupID == groupID {
			members = append(members, it)
		}
	}
	return members
}

// rebalanceGroup recomputes the share of every remaining member. An empty
// group is left alone.
func (d *Draft) rebalanceGroup(groupID string) {
	group, ok := d.groups[groupID]
	if !ok {
		return
	}
	members := d.groupMembers(groupID)
	if len(members) == 0 {
		return
	}

	input := make([]estimation.AssortedMember, len(members))
	for i, m := range members {
		input[i] = estimation.AssortedMember{Key: m.ID, ItemName: m.ItemTypeName}
	}
	shares := d.estimator.Rebalance(group.ContainerType, input)
	for _, m := range members {
		m.ContainerType = group.ContainerType
		m.ContainerCount = group.ContainerCount
		m.QuantityPerContainer = shares[m.ID]
		syncQuantity(m)
	}
}

func (d *Draft) setGroupContainerType(groupID, containerType string) {
	group, ok := d.groups[groupID]
	if !ok {
		return
	}
	group.ContainerType = containerType
	d.rebalanceGroup(groupID)
}

func (d *Draft) setGroupContainerCount(groupID string, count int) {
	group, ok := d.groups[groupID]
	if !ok {
		return
	}
	group.ContainerCount = count
	for _, m := range d.groupMembers(groupID) {
		m.ContainerCount = count
		syncQuantity(m)
	}
}

// AssortedBuilder stages an assorted container before it is committed.
// Every membership change rebalances all staged items. Dropping the builder
// discards the staged container.
type AssortedBuilder struct {
	estimator *estimation.Estimator
	container models.AssortedContainerDraft
}

func NewAssortedBuilder(estimator *estimation.Estimator, containerType string, containerCount int, category string) *AssortedBuilder {
	if estimator == nil {
		estimator = estimation.NewEstimator(nil)
	}
	if strings.TrimSpace(containerType) == "" {
		containerType = DefaultContainerType
	}
	return &AssortedBuilder{
		estimator: estimator,
		container: models.AssortedContainerDraft{
			ContainerType:  strings.TrimSpace(containerType),
			ContainerCount: clampCount(containerCount),
			Category:       category,
			Items:          []models.AssortedItemDraft{},
		},
	}
}

// NewAssortedBuilder stages a container using the draft's estimator.
func (d *Draft) NewAssortedBuilder(containerType string, containerCount int, category string) *AssortedBuilder {
	return NewAssortedBuilder(d.estimator, containerType, containerCount, category)
}

func (b *AssortedBuilder) Add(itemType models.ItemType) error {
	if strings.TrimSpace(itemType.ID) == "" || strings.TrimSpace(itemType.Name) == "" {
		return ErrInvalidItemType
	}
	for _, it := range b.container.Items {
		if it.ItemTypeID == itemType.ID {
			return ErrDuplicateItemType
		}
	}

	staged := models.AssortedItemDraft{
		ItemTypeID:   itemType.ID,
		ItemTypeName: itemType.Name,
		BaseValue:    itemType.BaseValue(),
	}
	if itemType.HasFixedCondition {
		staged.FixedCondition = itemType.FixedCondition
		if staged.FixedCondition == "" {
			staged.FixedCondition = models.DefaultCondition
		}
	}
	b.container.Items = append(b.container.Items, staged)
	b.rebalance()
	return nil
}

func (b *AssortedBuilder) Remove(itemTypeID string) error {
	for i, it := range b.container.Items {
		if it.ItemTypeID == itemTypeID {
			b.container.Items = append(b.container.Items[:i], b.container.Items[i+1:]...)
			b.rebalance()
			return nil
		}
	}
	return ErrAssortedItemMissing
}

func (b *AssortedBuilder) SetContainerType(containerType string) {
	if ct := strings.TrimSpace(containerType); ct != "" {
		b.container.ContainerType = ct
		b.rebalance()
	}
}

func (b *AssortedBuilder) SetContainerCount(count int) {
	b.container.ContainerCount = clampCount(count)
}

func (b *AssortedBuilder) rebalance() {
	n := len(b.container.Items)
	for i := range b.container.Items {
		it := &b.container.Items[i]
		it.QuantityPerContainer = b.estimator.EstimateAssortedQuantity(b.container.ContainerType, it.ItemTypeName, n)
	}
}

// Container returns a copy of the staged container.
func (b *AssortedBuilder) Container() models.AssortedContainerDraft {
	c := b.container
	c.Items = append([]models.AssortedItemDraft(nil), b.container.Items...)
	return c
}

// Commit adds the staged container to the draft.
func (b *AssortedBuilder) Commit(d *Draft) ([]models.DonationItemDraft, error) {
	return d.AddAssortedGroup(b.Container())
}
