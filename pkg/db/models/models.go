package models

// All lists every persisted model in dependency order, for schema bootstrap on sqlite.
func All() []any {
	return []any{
		&License{},
		&Activation{},
		&ValidationRecord{},
		&AdminUser{},
	}
}
