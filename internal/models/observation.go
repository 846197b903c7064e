package models

import (
	"time"

	"github.com/google/uuid"
)

// Covariate field names recorded alongside SEP intensity.
const (
	FieldIntensity   = "sep_intensity"
	FieldTemperature = "temperature"
	FieldIceExtent   = "ice_extent"
	FieldOzone       = "ozone_level"
	FieldKpIndex     = "kp_index"
	FieldSolarFlux   = "solar_flux"
	FieldSunspots    = "sunspot_count"
	FieldCosmicRays  = "cosmic_ray_count"
	FieldAurora      = "aurora_activity"
)

// CovariateFields lists every covariate in a stable order.
var CovariateFields = []string{
	FieldTemperature,
	FieldIceExtent,
	FieldOzone,
	FieldKpIndex,
	FieldSolarFlux,
	FieldSunspots,
	FieldCosmicRays,
	FieldAurora,
}

// Observation is one timestamped multi-variable SEP reading. Immutable once
// collected except for ClusterID, which only the clustering engine sets.
type Observation struct {
	ID           uuid.UUID `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	SepIntensity float64   `json:"sep_intensity"`
	Temperature  *float64  `json:"temperature,omitempty"`
	IceExtent    *float64  `json:"ice_extent,omitempty"`
	OzoneLevel   *float64  `json:"ozone_level,omitempty"`
	KpIndex      *float64  `json:"kp_index,omitempty"`
	SolarFlux    *float64  `json:"solar_flux,omitempty"`
	SunspotCount *float64  `json:"sunspot_count,omitempty"`
	CosmicRays   *float64  `json:"cosmic_ray_count,omitempty"`
	Aurora       *float64  `json:"aurora_activity,omitempty"`
	ClusterID    *int      `json:"cluster_id,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Field returns the named value and whether it is present on this observation.
func (o *Observation) Field(name string) (float64, bool) {
	switch name {
	case FieldIntensity:
		return o.SepIntensity, true
	case FieldTemperature:
		return deref(o.Temperature)
	case FieldIceExtent:
		return deref(o.IceExtent)
	case FieldOzone:
		return deref(o.OzoneLevel)
	case FieldKpIndex:
		return deref(o.KpIndex)
	case FieldSolarFlux:
		return deref(o.SolarFlux)
	case FieldSunspots:
		return deref(o.SunspotCount)
	case FieldCosmicRays:
		return deref(o.CosmicRays)
	case FieldAurora:
		return deref(o.Aurora)
	default:
		return 0, false
	}
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
