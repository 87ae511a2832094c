package models

import (
	"fmt"
	"strings"
)

// Category is a fixed catalog category
type Category string

// Categories, in listing order
const (
	CategoryPE         Category = "PE"
	CategoryAcademic   Category = "Academic"
	CategoryCorporate  Category = "Corporate"
	CategoryDepartment Category = "Department Shirt"
)

var categoryOrder = []Category{CategoryPE, CategoryAcademic, CategoryCorporate, CategoryDepartment}

// Valid reports whether c is a known category
func (c Category) Valid() bool { return rank(categoryOrder, c) >= 0 }

// Scoped reports whether items in the category are partitioned by scope level
func (c Category) Scoped() bool {
	return c == CategoryCorporate || c == CategoryDepartment
}

// Rank returns the listing position of the category
func (c Category) Rank() int { return rank(categoryOrder, c) }

// ScopedCategories lists the categories partitioned by scope level
func ScopedCategories() []Category {
	var out []Category
	for _, c := range categoryOrder {
		if c.Scoped() {
			out = append(out, c)
		}
	}
	return out
}

// ItemKind distinguishes tops from bottoms
type ItemKind string

const (
	KindTop    ItemKind = "Top"
	KindBottom ItemKind = "Bottom"
)

var kindOrder = []ItemKind{KindTop, KindBottom}

func (k ItemKind) Valid() bool { return rank(kindOrder, k) >= 0 }
func (k ItemKind) Rank() int   { return rank(kindOrder, k) }

// Size is an ordinal garment size
type Size string

const (
	SizeXS  Size = "XS"
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

var sizeOrder = []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL}

func (s Size) Valid() bool { return rank(sizeOrder, s) >= 0 }
func (s Size) Rank() int   { return rank(sizeOrder, s) }

// Gender of a requester or catalog item. Only items may be Unisex.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderUnisex Gender = "Unisex"
)

// ValidForItem reports whether g may be set on a catalog item
func (g Gender) ValidForItem() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnisex
}

// ValidForRequester reports whether g may be set on a requester
func (g Gender) ValidForRequester() bool {
	return g == GenderMale || g == GenderFemale
}

// MinScopeLevel and MaxScopeLevel bound the year-level scope attribute
const (
	MinScopeLevel = 1
	MaxScopeLevel = 4
)

// Availability of a catalog item
type Availability string

const (
	AvailabilityAvailable   Availability = "Available"
	AvailabilityUnavailable Availability = "Unavailable"
)

func (a Availability) Valid() bool {
	return a == AvailabilityAvailable || a == AvailabilityUnavailable
}

// ActiveState of a catalog item
type ActiveState string

const (
	ActiveStateActive   ActiveState = "Active"
	ActiveStateInactive ActiveState = "Inactive"
)

func (s ActiveState) Valid() bool {
	return s == ActiveStateActive || s == ActiveStateInactive
}

// Role of a requester
type Role string

const (
	RoleStandard      Role = "standard"
	RoleAdministrator Role = "administrator"
)

func (r Role) Valid() bool {
	return r == RoleStandard || r == RoleAdministrator
}

func rank[T comparable](order []T, v T) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return -1
}

// parseEnum resolves a case-insensitive name against a closed set
func parseEnum[T ~string](order []T, raw string) (T, error) {
	raw = strings.TrimSpace(raw)
	for _, o := range order {
		if strings.EqualFold(string(o), raw) {
			return o, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown value %q", raw)
}

// ParseAvailability resolves a case-insensitive availability name.
// "Not Available" is accepted as written by the legacy front-end.
func ParseAvailability(raw string) (Availability, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "Not Available") {
		return AvailabilityUnavailable, nil
	}
	return parseEnum([]Availability{AvailabilityAvailable, AvailabilityUnavailable}, raw)
}

// ParseActiveState resolves a case-insensitive active state name
func ParseActiveState(raw string) (ActiveState, error) {
	return parseEnum([]ActiveState{ActiveStateActive, ActiveStateInactive}, raw)
}
