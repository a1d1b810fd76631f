package model

// All lists every table in migration order.
func All() []any {
	return []any{
		&Supplier{},
		&User{},
		&UserPermission{},
		&Inc{},
		&Rnc{},
		&RncEvent{},
		&Devolucao{},
		&Conserto{},
		&ConsertoPhoto{},
		&NotificationType{},
		&UserNotificationSetting{},
		&Notification{},
		&KVEntry{},
	}
}
