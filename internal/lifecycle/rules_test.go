package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/model"
)

func TestDueDate(t *testing.T) {
	event := model.NewDate(2024, time.January, 1)

	testCases := []struct {
		typ  model.MaintenanceType
		want string
	}{
		{model.MaintenanceMonthly, "2024-01-31"},
		{model.MaintenanceQuarterly, "2024-03-31"},
		{model.MaintenanceSixMonthly, "2024-06-29"},
		{model.MaintenanceYearly, "2024-12-31"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.typ), func(t *testing.T) {
			due := DueDate(tc.typ, event)
			if assert.NotNil(t, due) {
				assert.Equal(t, tc.want, due.String())
			}
		})
	}

	assert.Nil(t, DueDate(model.MaintenanceUnscheduled, event))
}

func TestDeriveStatus(t *testing.T) {
	due := model.NewDate(2024, time.January, 31)
	before := model.NewDate(2024, time.January, 15)
	onDue := due
	after := model.NewDate(2024, time.February, 15)

	testCases := []struct {
		name      string
		typ       model.MaintenanceType
		due       *model.Date
		completed bool
		today     model.Date
		want      model.MaintenanceStatus
	}{
		{"scheduled before due", model.MaintenanceMonthly, &due, false, before, model.StatusScheduled},
		{"scheduled on due day", model.MaintenanceMonthly, &due, false, onDue, model.StatusScheduled},
		{"overdue after due", model.MaintenanceMonthly, &due, false, after, model.StatusOverdue},
		{"completed wins over overdue", model.MaintenanceMonthly, &due, true, after, model.StatusCompleted},
		{"completed before due", model.MaintenanceYearly, &due, true, before, model.StatusCompleted},
		{"breakdown open", model.MaintenanceUnscheduled, nil, false, after, model.StatusBreakdown},
		{"breakdown completed", model.MaintenanceUnscheduled, nil, true, after, model.StatusBreakdown},
		{"no due date never overdue", model.MaintenanceMonthly, nil, false, after, model.StatusScheduled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.typ, tc.due, tc.completed, tc.today))
		})
	}
}

func TestEffectiveStatusAndWindows(t *testing.T) {
	today := model.NewDate(2024, time.March, 1)
	record := &model.MaintenanceRecord{
		MaintenanceType: model.MaintenanceMonthly,
		MaintenanceDate: model.NewDate(2024, time.January, 1),
		NextDueDate:     model.NewDate(2024, time.January, 31).Ptr(),
		Status:          model.StatusScheduled,
	}

	assert.Equal(t, model.StatusOverdue, EffectiveStatus(record, today))
	assert.True(t, IsOverdue(record, today))
	assert.False(t, IsDueSoon(record, today, 10))

	record.NextDueDate = today.AddDays(10).Ptr()
	assert.True(t, IsDueSoon(record, today, 10))
	record.NextDueDate = today.AddDays(11).Ptr()
	assert.False(t, IsDueSoon(record, today, 10))

	record.IsCompleted = true
	assert.Equal(t, model.StatusCompleted, EffectiveStatus(record, today))
	assert.False(t, IsOverdue(record, today))
}

func TestServiceDue(t *testing.T) {
	serviced := model.NewDate(2024, time.January, 1)
	assert.Equal(t, "2024-03-31", ServiceDue(serviced, 90).String())
	assert.Equal(t, "2024-01-31", ServiceDue(serviced, 30).String())
	assert.Equal(t, "2024-03-31", ServiceDue(serviced, 0).String())
}

func TestValidateParts(t *testing.T) {
	assert.NoError(t, ValidateParts(nil))
	assert.NoError(t, ValidateParts([]model.PartsReplaced{{PartName: "capacitor", Quantity: 1}}))

	err := ValidateParts([]model.PartsReplaced{{PartName: "filter", Quantity: 0}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = ValidateParts([]model.PartsReplaced{{PartName: " ", Quantity: 2}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestValidateTypeChange(t *testing.T) {
	assert.NoError(t, ValidateTypeChange(model.MaintenanceMonthly, model.MaintenanceYearly))
	assert.Error(t, ValidateTypeChange(model.MaintenanceMonthly, model.MaintenanceUnscheduled))
	assert.Error(t, ValidateTypeChange(model.MaintenanceUnscheduled, model.MaintenanceQuarterly))
	assert.Error(t, ValidateTypeChange(model.MaintenanceMonthly, "Weekly"))
}
