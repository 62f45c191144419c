package paygateway

// Payment платеж из API платежного шлюза
// Это авторитетный источник статуса: телу вебхука не доверяем,
// перед любым изменением состояния платеж перечитывается по ID
type Payment struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"` // approved / pending / in_process / rejected / refunded / cancelled / charged_back
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"` // наш идентификатор бронирования
	TransactionAmount float64 `json:"transaction_amount"`
	PaymentMethodID   string  `json:"payment_method_id"`
	PaymentTypeID     string  `json:"payment_type_id"`
}

// ErrorResponse модель ошибки от шлюза
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}
