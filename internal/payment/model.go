package payment

import "time"

type MethodName string

const (
	Cash MethodName = "cash"
	Momo MethodName = "momo"
	Card MethodName = "card"
)

// Electronic methods settle immediately; cash waits for manual confirmation.
func (n MethodName) Electronic() bool {
	return n == Momo || n == Card
}

type Method struct {
	ID        int        `db:"id" json:"id"`
	Name      MethodName `db:"name" json:"name" swaggertype:"string" enums:"cash,momo,card"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
