package models

// WhishRequest represents the standard request structure for Whish API
type WhishRequest struct {
	Amount             *float64 `json:"amount,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	Invoice            string   `json:"invoice,omitempty"`
	ExternalID         *int64   `json:"externalId,omitempty"`
	SuccessCallbackURL string   `json:"successCallbackUrl,omitempty"`
	FailureCallbackURL string   `json:"failureCallbackUrl,omitempty"`
	SuccessRedirectURL string   `json:"successRedirectUrl,omitempty"`
	FailureRedirectURL string   `json:"failureRedirectUrl,omitempty"`
}

// Whish collect statuses
const (
	WhishCollectSuccess = "success"
	WhishCollectFailed  = "failed"
	WhishCollectPending = "pending"
)
