// Package report aggregates maintenance and fleet data into read-only
// summaries. Nothing here writes to the database.
package report

import (
	"context"
	"time"

	"github.com/jinzhu/now"
	"gorm.io/gorm"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/lifecycle"
	"ac-maintenance-backend/internal/model"
)

// DefaultDueSoonDays is the look-ahead of "due soon" counts.
const DefaultDueSoonDays = 10

// Service computes reports.
type Service struct {
	db          *gorm.DB
	now         func() time.Time
	dueSoonDays int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock sets the source of "today".
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// WithDueSoonDays sets the due-soon look-ahead.
func WithDueSoonDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.dueSoonDays = days
		}
	}
}

// NewService creates a report service.
func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now, dueSoonDays: DefaultDueSoonDays}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() model.Date {
	return model.DateOf(now.With(s.now()).BeginningOfDay())
}

// StatusCounts maps every status to a count, zeros included.
type StatusCounts map[model.MaintenanceStatus]int

func newStatusCounts() StatusCounts {
	return StatusCounts{
		model.StatusScheduled: 0,
		model.StatusCompleted: 0,
		model.StatusOverdue:   0,
		model.StatusBreakdown: 0,
	}
}

// DivisionStatusReport counts a division's maintenance records by status.
type DivisionStatusReport struct {
	DivisionID   uint         `json:"division_id"`
	Division     string       `json:"division"`
	TotalRecords int          `json:"total_records"`
	StatusCounts StatusCounts `json:"status_counts"`
}

// DueSummary counts a division's records that need attention.
type DueSummary struct {
	DivisionID         uint   `json:"division_id"`
	Division           string `json:"division"`
	TotalRecords       int    `json:"total_records"`
	DueSoon            int    `json:"due_soon"`
	Overdue            int    `json:"overdue"`
	Breakdowns         int    `json:"breakdowns"`
	CompletedThisMonth int    `json:"completed_this_month"`
	WindowDays         int    `json:"window_days"`
}

// DivisionStatusCounts counts every record of assets in the division by its
// effective status.
func (s *Service) DivisionStatusCounts(ctx context.Context, divisionID uint) (*DivisionStatusReport, error) {
	div, err := s.division(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	records, err := s.divisionRecords(ctx, divisionID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	out := &DivisionStatusReport{
		DivisionID:   div.ID,
		Division:     div.Name,
		TotalRecords: len(records),
		StatusCounts: newStatusCounts(),
	}
	for i := range records {
		out.StatusCounts[lifecycle.EffectiveStatus(&records[i], today)]++
	}
	return out, nil
}

// DivisionalDueSummary reports due-soon, overdue and breakdown counts. Overdue
// is computed from dates, not from the stored status.
func (s *Service) DivisionalDueSummary(ctx context.Context, divisionID uint) (*DueSummary, error) {
	div, err := s.division(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	records, err := s.divisionRecords(ctx, divisionID)
	if err != nil {
		return nil, err
	}

	t := s.now()
	today := s.today()
	monthStart := model.DateOf(now.With(t).BeginningOfMonth())
	out := &DueSummary{
		DivisionID:   div.ID,
		Division:     div.Name,
		TotalRecords: len(records),
		WindowDays:   s.dueSoonDays,
	}
	for i := range records {
		r := &records[i]
		if lifecycle.IsDueSoon(r, today, s.dueSoonDays) {
			out.DueSoon++
		}
		if lifecycle.IsOverdue(r, today) {
			out.Overdue++
		}
		if r.MaintenanceType == model.MaintenanceUnscheduled {
			out.Breakdowns++
		}
		if r.IsCompleted && !r.MaintenanceDate.Before(monthStart) {
			out.CompletedThisMonth++
		}
	}
	return out, nil
}

// ACStatus is one asset line of a dashboard, built from its latest record.
type ACStatus struct {
	ACID                uint                    `json:"ac_id"`
	SerialNumber        string                  `json:"serial_number"`
	Station             string                  `json:"station,omitempty"`
	PreciseLocation     string                  `json:"precise_location,omitempty"`
	LastMaintenanceDate *model.Date             `json:"last_maintenance_date"`
	NextDueDate         *model.Date             `json:"next_due_date"`
	CurrentStatus       model.MaintenanceStatus `json:"current_status"`
	MaintenanceType     *model.MaintenanceType  `json:"maintenance_type"`
	PartsReplaced       []model.PartsReplaced   `json:"parts_replaced"`
}

// SubdivisionDashboard lists a subdivision's assets with their current state.
type SubdivisionDashboard struct {
	SubdivisionID uint       `json:"subdivision_id"`
	Subdivision   string     `json:"subdivision"`
	Division      string     `json:"division"`
	TotalACs      int        `json:"total_acs"`
	ACs           []ACStatus `json:"acs"`
}

// SubdivisionSummary is a subdivision block of the division dashboard.
type SubdivisionSummary struct {
	SubdivisionID uint         `json:"subdivision_id"`
	Subdivision   string       `json:"subdivision"`
	TotalACs      int          `json:"total_acs"`
	StatusCounts  StatusCounts `json:"status_counts"`
	ACs           []ACStatus   `json:"acs"`
}

// DivisionDashboard groups every subdivision of a division.
type DivisionDashboard struct {
	DivisionID   uint                 `json:"division_id"`
	Division     string               `json:"division"`
	TotalACs     int                  `json:"total_acs"`
	Subdivisions []SubdivisionSummary `json:"subdivisions"`
}

// SubdivisionDashboard builds the subdivision view. With overdueOnly set,
// only assets whose latest record is overdue are listed; TotalACs still
// counts all of them.
func (s *Service) SubdivisionDashboard(ctx context.Context, actor auth.Principal, subdivisionID uint, overdueOnly bool) (*SubdivisionDashboard, error) {
	var sd model.Subdivision
	err := s.db.WithContext(ctx).Preload("Division").
		Where("is_active = ?", true).First(&sd, subdivisionID).Error
	if err != nil {
		return nil, apperr.FromDB(err, "subdivision", subdivisionID)
	}
	if !actor.Covers(&sd.DivisionID, &sd.ID) {
		return nil, apperr.Forbidden("access denied to this subdivision")
	}

	lines, err := s.acLines(ctx, []uint{sd.ID})
	if err != nil {
		return nil, err
	}
	out := &SubdivisionDashboard{
		SubdivisionID: sd.ID,
		Subdivision:   sd.Name,
		TotalACs:      len(lines[sd.ID]),
		ACs:           []ACStatus{},
	}
	if sd.Division != nil {
		out.Division = sd.Division.Name
	}
	for _, line := range lines[sd.ID] {
		if overdueOnly && (line.NextDueDate == nil || line.CurrentStatus != model.StatusOverdue) {
			continue
		}
		out.ACs = append(out.ACs, line)
	}
	return out, nil
}

// DivisionDashboard builds the division-wide view.
func (s *Service) DivisionDashboard(ctx context.Context, divisionID uint) (*DivisionDashboard, error) {
	div, err := s.division(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	var subs []model.Subdivision
	err = s.db.WithContext(ctx).
		Where("division_id = ? AND is_active = ?", divisionID, true).
		Order("id").Find(&subs).Error
	if err != nil {
		return nil, apperr.FromDB(err, "subdivision", divisionID)
	}

	ids := make([]uint, len(subs))
	for i, sd := range subs {
		ids[i] = sd.ID
	}
	lines, err := s.acLines(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &DivisionDashboard{DivisionID: div.ID, Division: div.Name, Subdivisions: []SubdivisionSummary{}}
	for _, sd := range subs {
		block := SubdivisionSummary{
			SubdivisionID: sd.ID,
			Subdivision:   sd.Name,
			TotalACs:      len(lines[sd.ID]),
			StatusCounts:  newStatusCounts(),
			ACs:           lines[sd.ID],
		}
		if block.ACs == nil {
			block.ACs = []ACStatus{}
		}
		for _, line := range block.ACs {
			block.StatusCounts[line.CurrentStatus]++
		}
		out.TotalACs += block.TotalACs
		out.Subdivisions = append(out.Subdivisions, block)
	}
	return out, nil
}

// acLines returns the dashboard lines of the active assets in the given
// subdivisions, keyed by subdivision.
func (s *Service) acLines(ctx context.Context, subdivisionIDs []uint) (map[uint][]ACStatus, error) {
	out := make(map[uint][]ACStatus, len(subdivisionIDs))
	if len(subdivisionIDs) == 0 {
		return out, nil
	}

	var acs []model.AirConditioner
	err := s.db.WithContext(ctx).Preload("Station").
		Where("subdivision_id IN ? AND is_active = ?", subdivisionIDs, true).
		Order("id").Find(&acs).Error
	if err != nil {
		return nil, apperr.FromDB(err, "air conditioner", subdivisionIDs)
	}
	if len(acs) == 0 {
		return out, nil
	}

	acIDs := make([]uint, len(acs))
	for i, ac := range acs {
		acIDs[i] = ac.ID
	}
	var records []model.MaintenanceRecord
	err = s.db.WithContext(ctx).Preload("Parts").
		Where("ac_id IN ?", acIDs).
		Order("ac_id").Order("maintenance_date DESC").Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, apperr.FromDB(err, "maintenance record", acIDs)
	}
	latest := make(map[uint]*model.MaintenanceRecord, len(acs))
	for i := range records {
		if _, seen := latest[records[i].ACID]; !seen {
			latest[records[i].ACID] = &records[i]
		}
	}

	today := s.today()
	for _, ac := range acs {
		line := ACStatus{
			ACID:            ac.ID,
			SerialNumber:    ac.SerialNumber,
			PreciseLocation: ac.PreciseLocation,
			CurrentStatus:   model.StatusScheduled,
			PartsReplaced:   []model.PartsReplaced{},
		}
		if ac.Station != nil {
			line.Station = ac.Station.Name
		}
		if r, ok := latest[ac.ID]; ok {
			date, typ := r.MaintenanceDate, r.MaintenanceType
			line.LastMaintenanceDate = &date
			line.NextDueDate = r.NextDueDate
			line.MaintenanceType = &typ
			line.CurrentStatus = lifecycle.EffectiveStatus(r, today)
			if len(r.Parts) > 0 {
				line.PartsReplaced = r.Parts
			}
		}
		out[*ac.SubdivisionID] = append(out[*ac.SubdivisionID], line)
	}
	return out, nil
}

func (s *Service) division(ctx context.Context, id uint) (*model.Division, error) {
	var div model.Division
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&div, id).Error; err != nil {
		return nil, apperr.FromDB(err, "division", id)
	}
	return &div, nil
}

// divisionRecords loads every record of assets placed in the division,
// following asset -> subdivision -> division.
func (s *Service) divisionRecords(ctx context.Context, divisionID uint) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := s.db.WithContext(ctx).
		Joins("JOIN air_conditioners ON air_conditioners.id = maintenance_records.ac_id").
		Joins("JOIN subdivisions ON subdivisions.id = air_conditioners.subdivision_id").
		Where("subdivisions.division_id = ?", divisionID).
		Order("maintenance_records.maintenance_date DESC").
		Order("maintenance_records.id DESC").
		Find(&records).Error
	if err != nil {
		return nil, apperr.FromDB(err, "maintenance record", divisionID)
	}
	return records, nil
}
