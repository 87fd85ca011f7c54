package model

// All lists every persisted entity in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&Transaction{},
		&Debt{},
		&DebtPayment{},
		&Notification{},
	}
}
