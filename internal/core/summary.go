package core

type CategoryTotal struct {
	Category string
	Type     TransactionType
	Total    Money
}

// Summary aggregates an owner's transactions by category and type.
type Summary struct {
	OwnerID    string
	ByCategory []CategoryTotal
}
