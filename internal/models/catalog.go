package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	enum := func(ok func(string) bool) validator.Func {
		return func(fl validator.FieldLevel) bool { return ok(fl.Field().String()) }
	}
	for tag, fn := range map[string]validator.Func{
		"category":     enum(func(s string) bool { return Category(s).Valid() }),
		"item_kind":    enum(func(s string) bool { return ItemKind(s).Valid() }),
		"size":         enum(func(s string) bool { return Size(s).Valid() }),
		"item_gender":  enum(func(s string) bool { return Gender(s).ValidForItem() }),
		"availability": enum(func(s string) bool { return Availability(s).Valid() }),
		"active_state": enum(func(s string) bool { return ActiveState(s).Valid() }),
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	v.RegisterStructValidation(validateScope, CatalogItemSpec{})
	return v
}

// CatalogItemSpec is the administrator input for creating or editing an item
type CatalogItemSpec struct {
	Category     Category     `json:"category" validate:"required,category"`
	Kind         ItemKind     `json:"item_kind" validate:"required,item_kind"`
	Size         Size         `json:"size" validate:"required,size"`
	Gender       Gender       `json:"gender" validate:"required,item_gender"`
	ScopeLevel   int          `json:"scope_level" validate:"gte=0"`
	Availability Availability `json:"availability" validate:"omitempty,availability"`
	ActiveState  ActiveState  `json:"active_state" validate:"omitempty,active_state"`
	ImageRef     string       `json:"image_ref" validate:"max=512"`
}

func validateScope(sl validator.StructLevel) {
	spec := sl.Current().Interface().(CatalogItemSpec)
	if spec.Category.Scoped() && spec.ScopeLevel < MinScopeLevel {
		sl.ReportError(spec.ScopeLevel, "scope_level", "ScopeLevel", "scoped", "")
	}
	if spec.ScopeLevel > MaxScopeLevel {
		sl.ReportError(spec.ScopeLevel, "scope_level", "ScopeLevel", "max_scope", fmt.Sprint(MaxScopeLevel))
	}
}

// Normalize fills defaults and clears the scope level of unscoped categories
func (s CatalogItemSpec) Normalize() CatalogItemSpec {
	if s.Availability == "" {
		s.Availability = AvailabilityAvailable
	}
	if s.ActiveState == "" {
		s.ActiveState = ActiveStateActive
	}
	if !s.Category.Scoped() {
		s.ScopeLevel = 0
	}
	s.ImageRef = strings.TrimSpace(s.ImageRef)
	return s
}

// Validate checks the input against the closed enumerations and the scope rule
func (s CatalogItemSpec) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "scoped":
			msgs = append(msgs, fmt.Sprintf("scope_level is required for category %s", s.Category))
			continue
		case "max_scope":
			msgs = append(msgs, fmt.Sprintf("scope_level must be at most %s", fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("invalid %s", fe.Field()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Item materializes the input as a catalog item (without identity)
func (s CatalogItemSpec) Item() CatalogItem {
	return CatalogItem{
		Category:     s.Category,
		Kind:         s.Kind,
		Size:         s.Size,
		Gender:       s.Gender,
		ScopeLevel:   s.ScopeLevel,
		Availability: s.Availability,
		ActiveState:  s.ActiveState,
		ImageRef:     s.ImageRef,
	}
}

// GenderMatches reports whether an item of gender item suits a person of gender person
func GenderMatches(item, person Gender) bool {
	return item == "" || item == GenderUnisex || item == person
}

// ScopeMatches reports whether an item's scope suits a person's scope level
func ScopeMatches(item CatalogItem, personScope int) bool {
	return !item.Category.Scoped() || item.ScopeLevel == personScope
}

// Eligible reports whether the requester may request the item
func Eligible(item CatalogItem, r Requester) bool {
	return GenderMatches(item.Gender, r.Gender) && ScopeMatches(item, r.ScopeLevel) && item.Requestable()
}

// SortCatalog orders items by category, kind, size, scope level, then id
func SortCatalog(items []CatalogItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Category != b.Category {
			return a.Category.Rank() < b.Category.Rank()
		}
		if a.Kind != b.Kind {
			return a.Kind.Rank() < b.Kind.Rank()
		}
		if a.Size != b.Size {
			return a.Size.Rank() < b.Size.Rank()
		}
		if a.ScopeLevel != b.ScopeLevel {
			return a.ScopeLevel < b.ScopeLevel
		}
		return a.ID < b.ID
	})
}
