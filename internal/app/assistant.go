package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"qat-ledger/internal/core"

	"go.uber.org/zap"
)

// ChatCommand runs text through the extractor. A complete sale or debt is saved
// through the callback; everything else only produces a reply.
func (s *appService) ChatCommand(ctx context.Context, text string, userID *int) (*ChatResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", core.ErrInvalidInput)
	}

	result := &ChatResult{}
	ex, err := s.extractor.Handle(ctx, text, func(ctx context.Context, action core.Intent, ex *core.Extraction) error {
		switch action {
		case core.IntentCreateSale:
			sale, err := s.sales.Create(ctx, ex.Sale.Input(core.SaleSourceAssistant, userID))
			if err != nil {
				return err
			}
			result.Sale = sale
		case core.IntentCreateDebt:
			debt, err := s.debts.Create(ctx, ex.Debt.Input(userID))
			if err != nil {
				return err
			}
			result.Debt = debt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Extraction = ex
	result.Reply = ex.Reply
	if !ex.Complete() {
		result.Reply = s.enrichReply(ctx, ex)
	}
	return result, nil
}

// enrichReply appends live numbers to the canned replies of the stats,
// customers and products topics. Lookup failures fall back to the canned text.
func (s *appService) enrichReply(ctx context.Context, ex *core.Extraction) string {
	switch ex.Topic {
	case core.TopicStats:
		rep, err := s.reports.Daily(ctx)
		if err != nil {
			s.log.Warn("stats reply without numbers", zap.Error(err))
			return ex.Reply
		}
		sum, err := s.reports.Debts(ctx)
		if err != nil {
			s.log.Warn("stats reply without debt totals", zap.Error(err))
			return fmt.Sprintf("%s\nعدد المبيعات: %d\nالإجمالي: %s %s",
				ex.Reply, rep.Count, rep.Total.StringFixed(0), s.opts.Currency)
		}
		return fmt.Sprintf("%s\nعدد المبيعات: %d\nالإجمالي: %s %s\nالديون المفتوحة: %d بمبلغ %s %s",
			ex.Reply, rep.Count, rep.Total.StringFixed(0), s.opts.Currency,
			sum.Open, sum.Remaining.StringFixed(0), s.opts.Currency)
	case core.TopicCustomers:
		customers, err := s.reports.Customers(ctx)
		if err != nil || len(customers) == 0 {
			return ex.Reply
		}
		var b strings.Builder
		b.WriteString(ex.Reply)
		for i, c := range customers {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "\n• %s: مبيعات %s، دين متبقي %s", c.Name, c.SalesTotal.StringFixed(0), c.DebtRemaining.StringFixed(0))
		}
		return b.String()
	case core.TopicProducts:
		products, err := s.products.List(ctx)
		if err != nil || len(products) == 0 {
			return ex.Reply
		}
		var b strings.Builder
		b.WriteString(ex.Reply)
		for _, p := range products {
			fmt.Fprintf(&b, "\n• %s", p.Name)
			if p.Grade != "" {
				fmt.Fprintf(&b, " (%s)", p.Grade)
			}
			if p.DefaultPrice.IsPositive() {
				fmt.Fprintf(&b, " %s %s", p.DefaultPrice.StringFixed(0), s.opts.Currency)
			}
		}
		return b.String()
	}
	return ex.Reply
}

func (s *appService) VoiceCommand(ctx context.Context, audio []byte, filename string, userID *int) (*ChatResult, error) {
	if s.agent == nil {
		return nil, ErrAssistantUnavailable
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: audio is required", core.ErrInvalidInput)
	}
	transcript, err := s.agent.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: no speech recognized", core.ErrInvalidInput)
	}
	res, err := s.ChatCommand(ctx, transcript, userID)
	if err != nil {
		return nil, err
	}
	res.Transcript = transcript
	return res, nil
}

// ── Assistant endpoint ────────────────────────────────────────────────────────

func (s *appService) Assist(ctx context.Context, req AssistRequest) (*AssistResult, error) {
	switch req.Mode {
	case ModeText:
		return s.assistText(ctx, req)
	case ModeImage:
		return s.assistImage(ctx, req)
	case ModeCommand:
		return s.assistCommand(ctx, req)
	case "":
		return nil, fmt.Errorf("%w: mode is required", core.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", core.ErrInvalidInput, req.Mode)
	}
}

func (s *appService) assistText(ctx context.Context, req AssistRequest) (*AssistResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", core.ErrInvalidInput)
	}
	if s.agent == nil {
		return nil, ErrAssistantUnavailable
	}
	reply, err := s.agent.Chat(ctx, req.Text, s.shopContext(ctx), s.buildReadTools())
	if err != nil {
		return nil, err
	}
	return &AssistResult{Success: true, Reply: reply}, nil
}

func (s *appService) assistImage(ctx context.Context, req AssistRequest) (*AssistResult, error) {
	if req.ImageBase64 == "" {
		return nil, fmt.Errorf("%w: imageBase64 is required", core.ErrInvalidInput)
	}
	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		return nil, err
	}
	res, err := s.AnalyzeLedgerImage(ctx, AnalyzeImageRequest{
		Image:       image,
		Instruction: req.Text,
		CreatedBy:   req.UserID,
	})
	if err != nil {
		return nil, err
	}
	return &AssistResult{Success: true, Extracted: res.Extracted, Saved: res.Saved}, nil
}

// decodeImage accepts raw base64 or a data URL ("data:image/png;base64,...").
func decodeImage(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	encoded = strings.TrimSpace(encoded)
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: imageBase64 is not valid base64", core.ErrInvalidInput)
	}
	return data, nil
}

func (s *appService) assistCommand(ctx context.Context, req AssistRequest) (*AssistResult, error) {
	var result any
	var err error

	switch req.Command {
	case CommandAddDebt:
		var p addDebtPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		result, err = s.CreateDebt(ctx, CreateDebtRequest{
			CustomerName: p.Customer,
			Phone:        p.Phone,
			Amount:       p.Amount,
			DueDate:      p.DueDate,
			Notes:        p.Note,
			CreatedBy:    req.UserID,
		})
	case CommandMarkDebtPaid:
		var p markDebtPaidPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		result, err = s.MarkDebtPaid(ctx, p.ID)
	case CommandDailyReport:
		result, err = s.DailyReport(ctx)
	case CommandMonthlyReport:
		var p monthlyReportPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		result, err = s.MonthlyReport(ctx, p.Year, p.Month)
	case "":
		return nil, fmt.Errorf("%w: command is required", core.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown command %q", core.ErrInvalidInput, req.Command)
	}
	if err != nil {
		return nil, err
	}
	return &AssistResult{Success: true, Result: result}, nil
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", core.ErrInvalidInput, err)
	}
	return Validate(dst)
}

// shopContext is the snapshot placed in the chat instructions.
func (s *appService) shopContext(ctx context.Context) string {
	var b strings.Builder
	if s.opts.ShopName != "" {
		fmt.Fprintf(&b, "المحل: %s\n", s.opts.ShopName)
	}
	if rep, err := s.reports.Daily(ctx); err == nil {
		fmt.Fprintf(&b, "مبيعات اليوم (%s): %d عملية بإجمالي %s %s\n",
			rep.Start, rep.Count, rep.Total.StringFixed(0), s.opts.Currency)
	} else {
		s.log.Warn("shop context: daily report", zap.Error(err))
	}
	if sum, err := s.reports.Debts(ctx); err == nil {
		fmt.Fprintf(&b, "الديون المفتوحة: %d بمبلغ متبقي %s %s\n",
			sum.Open, sum.Remaining.StringFixed(0), s.opts.Currency)
	} else {
		s.log.Warn("shop context: debt summary", zap.Error(err))
	}
	return b.String()
}
