package models

// All lists every model in dependency order, for migrations and schema export.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Auction{},
		&Bid{},
		&Wallet{},
		&Rating{},
		&Commentary{},
		&Favorite{},
		&Image{},
	}
}
