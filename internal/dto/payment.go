package dto

// ── 支付对账 DTO ──

// ReconcileRequest 管理员手动对账
// user_id 与 email 至少提供一个
type ReconcileRequest struct {
	PaymentIntentID string  `json:"payment_intent_id" binding:"required,max=255"`
	Amount          float64 `json:"amount"            binding:"required"`
	UserID          *uint   `json:"user_id"           binding:"omitempty,min=1"`
	Email           string  `json:"email"             binding:"omitempty,email"`
}

// AttachPaymentRequest 管理员将支付直接绑定到指定报告
type AttachPaymentRequest struct {
	PaymentIntentID string  `json:"payment_intent_id" binding:"required,max=255"`
	Amount          float64 `json:"amount"            binding:"required"`
}

// MercadoPagoNotification Mercado Pago webhook 通知体
type MercadoPagoNotification struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ReconcileResponse 对账结果
type ReconcileResponse struct {
	Outcome string      `json:"outcome"`
	Report  interface{} `json:"report,omitempty"`
}
