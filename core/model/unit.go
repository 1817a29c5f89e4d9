package model

import "fmt"

// Unit represents an officer or team that can be assigned to respond to an
// alert. Workload is a snapshot supplied by the caller; the allocator
// mutates only its own copy during a single allocation pass.
type Unit struct {
	ID       string   `json:"id" validate:"required"`
	Location Location `json:"location"`
	// Capacity is the maximum number of concurrent alerts the unit can take.
	Capacity int `json:"capacity" validate:"gt=0"`
	// Workload is the number of alerts currently assigned.
	Workload        int      `json:"workload" validate:"gte=0"`
	Specializations []string `json:"specializations,omitempty"`
	// SuccessRate is the historical resolution rate in [0,1].
	SuccessRate float64 `json:"success_rate" validate:"gte=0,lte=1"`
}

// CanAccept reports whether the unit has spare capacity.
func (u Unit) CanAccept() bool { return u.Workload < u.Capacity }

// HasSpecialization reports whether the unit carries the given tag.
func (u Unit) HasSpecialization(tag string) bool {
	for _, s := range u.Specializations {
		if s == tag {
			return true
		}
	}
	return false
}

// Validate checks that the unit configuration is sound.
// In particular Capacity must be positive.
func (u Unit) Validate() error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("invalid unit: %w", err)
	}
	if u.Workload > u.Capacity {
		return fmt.Errorf("unit %s workload %d exceeds capacity %d", u.ID, u.Workload, u.Capacity)
	}
	return nil
}
