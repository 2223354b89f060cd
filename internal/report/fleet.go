package report

import (
	"context"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/model"
)

// VehicleMinutes is the usage of one vehicle over a rolling window.
type VehicleMinutes struct {
	VehicleID    uint  `json:"vehicle_id"`
	TotalMinutes int64 `json:"total_minutes"`
	Hours        int64 `json:"hours"`
	Minutes      int64 `json:"minutes"`
	PeriodDays   int   `json:"period_days"`
}

// ComparativeRow is one vehicle of the comparative report.
type ComparativeRow struct {
	VehicleID      uint   `json:"vehicle_id"`
	VIN            string `gorm:"column:vin" json:"vin"`
	RegistrationNo string `json:"registration_no"`
	TotalMinutes   int64  `json:"total_minutes"`
	Hours          int64  `gorm:"-" json:"hours"`
	Minutes        int64  `gorm:"-" json:"minutes"`
}

// Comparative ranks vehicles by usage.
type Comparative struct {
	PeriodDays int              `json:"period_days"`
	Vehicles   []ComparativeRow `json:"vehicles"`
}

// FleetDue lists vehicles whose service is due soon or overdue.
type FleetDue struct {
	WindowDays int             `json:"window_days"`
	DueSoon    []model.Vehicle `json:"due_soon"`
	Overdue    []model.Vehicle `json:"overdue"`
}

func (s *Service) since(days int) model.Date {
	return s.today().AddDays(-days)
}

// VehicleTotalMinutes sums a vehicle's runs over the last days days.
func (s *Service) VehicleTotalMinutes(ctx context.Context, vehicleID uint, days int) (*VehicleMinutes, error) {
	if days <= 0 {
		return nil, apperr.Validation("days must be positive")
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Vehicle{}).Where("id = ? AND is_active = ?", vehicleID, true).Count(&n).Error; err != nil {
		return nil, apperr.FromDB(err, "vehicle", vehicleID)
	}
	if n == 0 {
		return nil, apperr.NotFound("vehicle", vehicleID)
	}

	var total int64
	err := s.db.WithContext(ctx).Model(&model.DailyRun{}).
		Select("COALESCE(SUM(run_duration_minutes), 0)").
		Where("vehicle_id = ? AND run_date >= ?", vehicleID, s.since(days)).
		Scan(&total).Error
	if err != nil {
		return nil, apperr.FromDB(err, "daily run", vehicleID)
	}
	return &VehicleMinutes{
		VehicleID:    vehicleID,
		TotalMinutes: total,
		Hours:        total / 60,
		Minutes:      total % 60,
		PeriodDays:   days,
	}, nil
}

// ComparativeVehicles ranks active vehicles by minutes run over the last days
// days, most used first. Vehicles without runs are listed with zero.
func (s *Service) ComparativeVehicles(ctx context.Context, days, limit int) (*Comparative, error) {
	if days <= 0 || limit <= 0 {
		return nil, apperr.Validation("days and limit must be positive")
	}
	var rows []ComparativeRow
	err := s.db.WithContext(ctx).Model(&model.Vehicle{}).
		Select("vehicles.id AS vehicle_id, vehicles.vin AS vin, vehicles.registration_no AS registration_no, "+
			"COALESCE(SUM(daily_runs.run_duration_minutes), 0) AS total_minutes").
		Joins("LEFT JOIN daily_runs ON daily_runs.vehicle_id = vehicles.id AND daily_runs.run_date >= ?", s.since(days)).
		Where("vehicles.is_active = ?", true).
		Group("vehicles.id, vehicles.vin, vehicles.registration_no").
		Order("total_minutes DESC").
		Order("vehicles.id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.FromDB(err, "daily run", "comparative")
	}
	for i := range rows {
		rows[i].Hours = rows[i].TotalMinutes / 60
		rows[i].Minutes = rows[i].TotalMinutes % 60
	}
	if rows == nil {
		rows = []ComparativeRow{}
	}
	return &Comparative{PeriodDays: days, Vehicles: rows}, nil
}

// FleetDueSummary splits serviced vehicles into due within days and overdue.
func (s *Service) FleetDueSummary(ctx context.Context, days int) (*FleetDue, error) {
	if days <= 0 {
		days = s.dueSoonDays
	}
	today := s.today()
	out := &FleetDue{WindowDays: days, DueSoon: []model.Vehicle{}, Overdue: []model.Vehicle{}}

	err := s.db.WithContext(ctx).
		Where("is_active = ? AND next_service_due >= ? AND next_service_due <= ?", true, today, today.AddDays(days)).
		Order("next_service_due").Find(&out.DueSoon).Error
	if err != nil {
		return nil, apperr.FromDB(err, "vehicle", "due")
	}
	err = s.db.WithContext(ctx).
		Where("is_active = ? AND next_service_due < ?", true, today).
		Order("next_service_due").Find(&out.Overdue).Error
	if err != nil {
		return nil, apperr.FromDB(err, "vehicle", "overdue")
	}
	return out, nil
}
