// Package binding holds the ordered-list rules for a category's attribute
// bindings. Every function here is pure or guards its own state; persistence
// is the category usecase's job.
package binding

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

// Sorted returns a copy of list ordered by SortOrder, ties broken by
// AttributeID ascending.
func Sorted(list []model.CategoryAttribute) []model.CategoryAttribute {
	out := make([]model.CategoryAttribute, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].AttributeID < out[j].AttributeID
	})
	return out
}

// Renumber returns a copy of list with SortOrder set to 1..n in slice order.
func Renumber(list []model.CategoryAttribute) []model.CategoryAttribute {
	out := make([]model.CategoryAttribute, len(list))
	for i, b := range list {
		b.SortOrder = i + 1
		out[i] = b
	}
	return out
}

// Move returns a new slice with the element at from removed and reinserted
// at to. list is not modified.
func Move(list []model.CategoryAttribute, from, to int) ([]model.CategoryAttribute, error) {
	n := len(list)
	if from < 0 || from >= n {
		return nil, apperror.NewValidation(apperror.CodeOutOfRange, "fromIndex", fmt.Sprintf("index %d outside 0..%d", from, n-1))
	}
	if to < 0 || to >= n {
		return nil, apperror.NewValidation(apperror.CodeOutOfRange, "toIndex", fmt.Sprintf("index %d outside 0..%d", to, n-1))
	}

	out := make([]model.CategoryAttribute, 0, n)
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)

	moved := list[from]
	out = append(out, model.CategoryAttribute{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out, nil
}

// Normalize prepares a bulk-replace payload for categoryID: every entry is
// stamped with the category, given an id when missing, checked for duplicate
// attributes and renumbered densely in display order.
func Normalize(categoryID string, list []model.CategoryAttribute) ([]model.CategoryAttribute, error) {
	seen := make(map[string]struct{}, len(list))
	out := make([]model.CategoryAttribute, 0, len(list))
	for _, b := range list {
		if b.AttributeID == "" {
			return nil, apperror.NewValidation(apperror.CodeRequired, "attributeId", "attributeId is required")
		}
		if _, dup := seen[b.AttributeID]; dup {
			return nil, apperror.NewAlreadyAssigned(categoryID, b.AttributeID)
		}
		seen[b.AttributeID] = struct{}{}

		b.CategoryID = categoryID
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		out = append(out, b)
	}
	return Renumber(Sorted(out)), nil
}

// Editor applies assignment edits to the bindings of one category. Reads
// always see a complete list: edits are computed on a copy and swapped in.
type Editor struct {
	mu         sync.RWMutex
	categoryID string
	bindings   []model.CategoryAttribute
}

func NewEditor(categoryID string, bindings []model.CategoryAttribute) *Editor {
	own := make([]model.CategoryAttribute, len(bindings))
	copy(own, bindings)
	return &Editor{categoryID: categoryID, bindings: own}
}

func (e *Editor) CategoryID() string {
	return e.categoryID
}

// Bindings returns the current list in display order.
func (e *Editor) Bindings() []model.CategoryAttribute {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Sorted(e.bindings)
}

func (e *Editor) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.bindings)
}

// Assign appends a binding for attr at the end of the list, optional by
// default.
func (e *Editor) Assign(attr *model.Attribute) (model.CategoryAttribute, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexOf(attr.ID) >= 0 {
		return model.CategoryAttribute{}, apperror.NewAlreadyAssigned(e.categoryID, attr.ID)
	}

	b := model.CategoryAttribute{
		ID:          uuid.New().String(),
		CategoryID:  e.categoryID,
		AttributeID: attr.ID,
		IsRequired:  false,
		SortOrder:   len(e.bindings) + 1,
		Attribute:   attr,
	}

	next := make([]model.CategoryAttribute, len(e.bindings), len(e.bindings)+1)
	copy(next, e.bindings)
	e.bindings = append(next, b)
	return b, nil
}

// Unassign removes the binding. Remaining sort orders are left as they are.
func (e *Editor) Unassign(attributeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(attributeID)
	if i < 0 {
		return apperror.NewNotFound(apperror.CodeBindingNotFound, attributeID)
	}

	next := make([]model.CategoryAttribute, 0, len(e.bindings)-1)
	next = append(next, e.bindings[:i]...)
	next = append(next, e.bindings[i+1:]...)
	e.bindings = next
	return nil
}

// ToggleRequired flips IsRequired and returns the new value.
func (e *Editor) ToggleRequired(attributeID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(attributeID)
	if i < 0 {
		return false, apperror.NewNotFound(apperror.CodeBindingNotFound, attributeID)
	}

	next := make([]model.CategoryAttribute, len(e.bindings))
	copy(next, e.bindings)
	next[i].IsRequired = !next[i].IsRequired
	e.bindings = next
	return next[i].IsRequired, nil
}

// Reorder moves the binding at display index from to display index to and
// renumbers the whole list 1..n.
func (e *Editor) Reorder(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	moved, err := Move(Sorted(e.bindings), from, to)
	if err != nil {
		return err
	}
	e.bindings = Renumber(moved)
	return nil
}

func (e *Editor) indexOf(attributeID string) int {
	for i := range e.bindings {
		if e.bindings[i].AttributeID == attributeID {
			return i
		}
	}
	return -1
}
