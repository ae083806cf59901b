package form

import (
	orderserrors "ptcms/internal/orders/errors"
	"ptcms/internal/orders/validator"
	"ptcms/pkg/model"
)

// AddSelection appends a row for the first category not yet chosen, or an
// empty row when every category is taken.
func (f *Form) AddSelection() error {
	if len(f.Selections) >= validator.MaxSelections {
		return orderserrors.ErrSelectionLimit
	}

	used := make(map[int64]bool, len(f.Selections))
	for _, s := range f.Selections {
		used[s.CategoryID] = true
	}

	row := model.VehicleSelection{Quantity: 1}
	for _, c := range f.ref.Categories {
		if !used[c.ID] {
			row.CategoryID = c.ID
			break
		}
	}
	f.Selections = append(f.Selections, row)
	return nil
}

func (f *Form) RemoveSelection(i int) error {
	if i < 0 || i >= len(f.Selections) {
		return orderserrors.ErrSelectionIndex
	}
	if len(f.Selections) <= 1 {
		return orderserrors.ErrSelectionMinimum
	}
	f.Selections = append(f.Selections[:i:i], f.Selections[i+1:]...)
	return nil
}

// SetSelectionCategory refuses a category already chosen on another row.
func (f *Form) SetSelectionCategory(i int, categoryID int64) error {
	if i < 0 || i >= len(f.Selections) {
		return orderserrors.ErrSelectionIndex
	}
	if categoryID > 0 {
		for j, s := range f.Selections {
			if j != i && s.CategoryID == categoryID {
				return orderserrors.ErrDuplicateCategory
			}
		}
	}
	f.Selections[i].CategoryID = categoryID
	return nil
}

func (f *Form) SetSelectionQuantity(i int, quantity int) error {
	if i < 0 || i >= len(f.Selections) {
		return orderserrors.ErrSelectionIndex
	}
	f.Selections[i].Quantity = max(1, quantity)
	return nil
}
