// Package lifecycle holds the pure maintenance rules: due-date derivation,
// status derivation and input checks. Persistence of their results lives in
// the store.
package lifecycle

import (
	"strings"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/model"
)

// Intervals maps each periodic maintenance type to its length in days.
// Unscheduled has no interval.
var Intervals = map[model.MaintenanceType]int{
	model.MaintenanceMonthly:    30,
	model.MaintenanceQuarterly:  90,
	model.MaintenanceSixMonthly: 180,
	model.MaintenanceYearly:     365,
}

// ValidType reports whether t is a known maintenance type.
func ValidType(t model.MaintenanceType) bool {
	if t == model.MaintenanceUnscheduled {
		return true
	}
	_, ok := Intervals[t]
	return ok
}

// DueDate returns the next due date for an event of type t on eventDate, or
// nil for Unscheduled.
func DueDate(t model.MaintenanceType, eventDate model.Date) *model.Date {
	days, ok := Intervals[t]
	if !ok {
		return nil
	}
	return eventDate.AddDays(days).Ptr()
}

// DeriveStatus computes the status of a record at write time.
func DeriveStatus(t model.MaintenanceType, due *model.Date, completed bool, today model.Date) model.MaintenanceStatus {
	switch {
	case t == model.MaintenanceUnscheduled:
		return model.StatusBreakdown
	case completed:
		return model.StatusCompleted
	case due != nil && today.After(*due):
		return model.StatusOverdue
	default:
		return model.StatusScheduled
	}
}

// EffectiveStatus is the status a reader should see today. A stored
// Scheduled record whose due date has passed reads as Overdue.
func EffectiveStatus(r *model.MaintenanceRecord, today model.Date) model.MaintenanceStatus {
	return DeriveStatus(r.MaintenanceType, r.NextDueDate, r.IsCompleted, today)
}

// IsOverdue reports whether an uncompleted record is past its due date.
func IsOverdue(r *model.MaintenanceRecord, today model.Date) bool {
	return !r.IsCompleted && r.NextDueDate != nil && r.NextDueDate.Before(today)
}

// IsDueSoon reports whether the record's due date falls within the next
// window days, today included. A completed record still counts: its due date
// is when the asset needs its next visit.
func IsDueSoon(r *model.MaintenanceRecord, today model.Date, window int) bool {
	if r.NextDueDate == nil {
		return false
	}
	due := *r.NextDueDate
	return !due.Before(today) && !due.After(today.AddDays(window))
}

// ServiceDue returns the next service date for a vehicle serviced on
// servicedAt with the given period. Non-positive periods fall back to the
// default.
func ServiceDue(servicedAt model.Date, periodDays int) model.Date {
	if periodDays <= 0 {
		periodDays = model.DefaultServicePeriodDays
	}
	return servicedAt.AddDays(periodDays)
}

// ValidateParts checks replaced parts before anything is written.
func ValidateParts(parts []model.PartsReplaced) error {
	for i, p := range parts {
		if strings.TrimSpace(p.PartName) == "" {
			return apperr.Validation("parts_replaced[%d]: part_name is required", i)
		}
		if p.Quantity <= 0 {
			return apperr.Validation("parts_replaced[%d]: quantity must be greater than 0", i)
		}
	}
	return nil
}

// ValidateTypeChange rejects edits that move a record into or out of the
// breakdown category.
func ValidateTypeChange(from, to model.MaintenanceType) error {
	if !ValidType(to) {
		return apperr.Validation("unknown maintenance_type %q", to)
	}
	if (from == model.MaintenanceUnscheduled) != (to == model.MaintenanceUnscheduled) {
		return apperr.Validation("maintenance_type cannot change between Unscheduled and periodic")
	}
	return nil
}
