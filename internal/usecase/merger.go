package usecase

import "github.com/myfcd/harvester/internal/domain"

// Merge folds per-source tables left to right into a new unified table.
// A record replaces any earlier record with the same name, so the argument
// order is the source priority: the last table wins. Inputs are not modified.
func Merge(tables ...domain.FoodTable) domain.FoodTable {
	size := 0
	for _, t := range tables {
		size += len(t)
	}

	unified := make(domain.FoodTable, size)
	for _, t := range tables {
		for name, record := range t {
			unified[name] = record
		}
	}
	return unified
}
