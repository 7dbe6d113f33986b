package catalog

import "strings"

// Policy holds the business filters applied to every catalog response.
// The excluded category names and the model block-list are operator
// configuration, not renter preferences.
type Policy struct {
	ExcludedTypeNames []string
	BlockedModelNames []string
}

// FilterTypes drops excluded categories, then de-duplicates the
// remainder by id. The first occurrence of an id wins; later entries
// are discarded.
func (p Policy) FilterTypes(in []VehicleType) []VehicleType {
	seen := make(map[ID]struct{}, len(in))
	out := make([]VehicleType, 0, len(in))
	for _, t := range in {
		if p.typeExcluded(t.Name) {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// FilterModels drops block-listed model names, then de-duplicates the
// remainder by name. The first occurrence of a name wins; later entries
// are discarded.
func (p Policy) FilterModels(in []VehicleModel) []VehicleModel {
	seen := make(map[string]struct{}, len(in))
	out := make([]VehicleModel, 0, len(in))
	for _, m := range in {
		if p.modelBlocked(m.Name) {
			continue
		}
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		out = append(out, m)
	}
	return out
}

func (p Policy) typeExcluded(name string) bool {
	for _, excluded := range p.ExcludedTypeNames {
		if strings.EqualFold(name, excluded) {
			return true
		}
	}
	return false
}

func (p Policy) modelBlocked(name string) bool {
	for _, blocked := range p.BlockedModelNames {
		if name == blocked {
			return true
		}
	}
	return false
}

// TypesForWheels returns the types whose wheel count matches the
// renter's selection.
func TypesForWheels(types []VehicleType, wheels int) []VehicleType {
	out := make([]VehicleType, 0, len(types))
	for _, t := range types {
		if int(t.Wheels) == wheels {
			out = append(out, t)
		}
	}
	return out
}
