package app

import (
	"qat-ledger/internal/ai"
	"qat-ledger/internal/core"
)

// ChatResult is returned by ChatCommand and VoiceCommand.
// Sale or Debt is set when the sentence was complete and got saved.
type ChatResult struct {
	Transcript string           `json:"transcript,omitempty"`
	Reply      string           `json:"reply"`
	Extraction *core.Extraction `json:"extraction"`
	Sale       *core.Sale       `json:"sale,omitempty"`
	Debt       *core.Debt       `json:"debt,omitempty"`
}

// AnalyzeResult is returned by AnalyzeLedgerImage.
type AnalyzeResult struct {
	ImageURL  string             `json:"image_url"`
	Extracted *ai.LedgerAnalysis `json:"extracted"`
	Saved     []core.Sale        `json:"saved"`
}

// AssistResult is the body of a successful assistant response. Exactly one of
// Reply, Result or Extracted/Saved is set depending on the mode.
type AssistResult struct {
	Success   bool               `json:"success"`
	Reply     string             `json:"reply,omitempty"`
	Result    any                `json:"result,omitempty"`
	Extracted *ai.LedgerAnalysis `json:"extracted,omitempty"`
	Saved     []core.Sale        `json:"saved,omitempty"`
}

// WhatsAppResult is returned by DebtReminder.
type WhatsAppResult struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// UserSession is returned by AuthenticateUser.
type UserSession struct {
	UserID      int    `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// UserResult is returned by GetUser.
type UserResult struct {
	UserID      int    `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}
