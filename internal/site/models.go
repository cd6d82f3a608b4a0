package site

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/renewable-site-aggregation/internal/common"
	"github.com/i474232898/renewable-site-aggregation/internal/grid"
)

var validate = validator.New()

// Technology is the kind of generator installed at a site.
type Technology string

const (
	TechnologyWind  Technology = "wind"
	TechnologySolar Technology = "solar"
)

// ParseTechnology maps free-form labels such as "PV" or "Wind farm" to a Technology.
func ParseTechnology(s string) (Technology, error) {
	switch {
	case common.ContainsAnyFold(s, "solar", "pv", "photovoltaic"):
		return TechnologySolar, nil
	case common.ContainsAnyFold(s, "wind"):
		return TechnologyWind, nil
	default:
		return "", fmt.Errorf("%w: unknown technology %q", ErrInvalidSite, s)
	}
}

// Orientation is the fixed panel orientation of a solar site, in degrees.
type Orientation struct {
	Tilt    float64 `json:"tilt" validate:"gte=0,lte=90"`
	Azimuth float64 `json:"azimuth" validate:"gte=-180,lt=360"`
}

// Site is a point-located installation with a fixed nameplate capacity.
// Lon/Lat are the requested coordinates; the resolved grid cell is set only
// by Registry.Resolve.
type Site struct {
	Name        string       `json:"name" validate:"required"`
	Technology  Technology   `json:"technology" validate:"required,oneof=wind solar"`
	Lon         float64      `json:"lon" validate:"gte=-180,lte=360"`
	Lat         float64      `json:"lat" validate:"gte=-90,lte=90"`
	CapacityMW  float64      `json:"capacityMw"`
	Orientation *Orientation `json:"orientation,omitempty"`

	cell     grid.Cell
	resolved bool
}

// Validate checks a declaration before it enters a registry.
func (s Site) Validate() error {
	if !(s.CapacityMW > 0) || math.IsInf(s.CapacityMW, 1) {
		return fmt.Errorf("%w: site %q has capacity %g MW", ErrInvalidCapacity, s.Name, s.CapacityMW)
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: site %q: %s", ErrInvalidSite, s.Name, fieldErrors(err))
	}
	if s.Technology == TechnologyWind && s.Orientation != nil {
		return fmt.Errorf("%w: wind site %q cannot have a panel orientation", ErrInvalidSite, s.Name)
	}
	return nil
}

// Cell returns the resolved grid cell.
func (s Site) Cell() (grid.Cell, error) {
	if !s.resolved {
		return grid.Cell{}, fmt.Errorf("%w: %q", ErrUnresolvedSite, s.Name)
	}
	return s.cell, nil
}

func fieldErrors(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
