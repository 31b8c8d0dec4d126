package invest

import "time"

const (
	TxDeposit  = "deposit"
	TxWithdraw = "withdraw"
	TxTransfer = "transfer"

	TxRequested = "requested"
	TxPending   = "pending"
	TxSuccess   = "success"
	TxRejected  = "rejected"

	// On-chain reference placeholder until the real hash is known.
	TxIdNotSet = "not-set"
)

// Transaction is the single record type behind deposits, withdrawals and
// internal transfers. Rows are never deleted; state only moves forward
// through requested -> pending -> success|rejected.
type Transaction struct {
	Id            uint       `json:"id" gorm:"primarykey"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	OrderId       string     `gorm:"uniqueIndex;not null" json:"order_id"`
	Type          string     `json:"type" gorm:"index;not null"`
	Status        string     `json:"status" gorm:"index;not null"`
	FromUserId    uint       `json:"from_user_id" gorm:"index"`
	ToUserId      uint       `json:"to_user_id" gorm:"index"`
	FromAddress   string     `json:"from_address"`
	ToAddress     string     `json:"to_address"`
	Chain         string     `json:"chain"`
	Token         string     `json:"token"`
	AmountInUSD   float64    `json:"amount_in_usd"`
	TransactionId string     `gorm:"index" json:"transaction_id"` // on-chain hash, "not-set" until supplied
	StartDate     time.Time  `json:"start_date"`
	ReleaseDate   *time.Time `json:"release_date"`
	RejectReason  string     `json:"reject_reason"`
	Message       string     `json:"message"`
}

// CentralWallet is a system deposit address. A wallet is marked in use when
// drawn for a deposit and never returned to the pool; the pool is replenished
// by the admin wallet endpoint.
type CentralWallet struct {
	Id        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	Chain     string    `json:"chain" gorm:"index;not null"`
	Address   string    `json:"address" gorm:"uniqueIndex;not null"`
	IsInUse   bool      `json:"is_in_use" gorm:"index"`
}
