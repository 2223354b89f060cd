package model

// All lists every persisted entity in migration order.
func All() []any {
	return []any{
		&Division{},
		&Subdivision{},
		&Station{},
		&Make{},
		&Capacity{},
		&Refrigerant{},
		&User{},
		&Maintainer{},
		&AirConditioner{},
		&ChecklistItem{},
		&MaintenanceRecord{},
		&MaintenanceChecklistRecord{},
		&PartsReplaced{},
		&DueWindow{},
		&Vehicle{},
		&DailyRun{},
		&ServiceRecord{},
		&TransferLog{},
		&PushSubscription{},
	}
}
