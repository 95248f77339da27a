package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type BalanceResponse struct {
	Address     string `json:"address" example:"0xbcc898616822c3e44154ecc64ad794790b73a3a7"`
	AmountCents int64  `json:"amount_cents" example:"1000"`
}

type FeeQuoteResponse struct {
	FeeCents int64 `json:"fee_cents" example:"2000"`
	Slots    int64 `json:"slots" example:"2"`
}
