package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Intent is the action an utterance asks for.
type Intent string

const (
	IntentNone       Intent = "none"
	IntentCreateSale Intent = "createSale"
	IntentCreateDebt Intent = "createDebt"
)

// Topic classifies an utterance, including the ones that carry no action.
type Topic string

const (
	TopicSale      Topic = "sale"
	TopicDebt      Topic = "debt"
	TopicHelp      Topic = "help"
	TopicStats     Topic = "stats"
	TopicCustomers Topic = "customers"
	TopicProducts  Topic = "products"
	TopicPrint     Topic = "print"
	TopicFallback  Topic = "fallback"
)

// Names of fields reported back to the user when a sentence is incomplete.
const (
	MissingProductType  = "نوع القات"
	MissingPrice        = "السعر"
	MissingCustomerName = "اسم العميل"
	MissingAmount       = "المبلغ"
)

const currencyWord = "ريال"

// SaleDraft holds the sale fields read from a sentence.
type SaleDraft struct {
	CustomerName string          `json:"customer_name"`
	ProductType  string          `json:"product_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Status       SaleStatus      `json:"status"`
}

// Input converts the draft into a sale write model.
func (d SaleDraft) Input(source SaleSource, createdBy *int) SaleInput {
	return SaleInput{
		ProductType:  d.ProductType,
		Quantity:     d.Quantity,
		UnitPrice:    d.UnitPrice,
		TotalPrice:   d.TotalPrice,
		CustomerName: d.CustomerName,
		Status:       d.Status,
		Source:       source,
		CreatedBy:    createdBy,
	}
}

// DebtDraft holds the debt fields read from a sentence.
type DebtDraft struct {
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes,omitempty"`
}

// Input converts the draft into a debt write model.
func (d DebtDraft) Input(createdBy *int) DebtInput {
	return DebtInput{
		CustomerName: d.CustomerName,
		Amount:       d.Amount,
		Notes:        d.Notes,
		CreatedBy:    createdBy,
	}
}

// Extraction is the outcome of reading one sentence.
// Intent is IntentNone unless every required field was found.
type Extraction struct {
	Text    string     `json:"text"`
	Topic   Topic      `json:"topic"`
	Intent  Intent     `json:"intent"`
	Sale    *SaleDraft `json:"sale,omitempty"`
	Debt    *DebtDraft `json:"debt,omitempty"`
	Missing []string   `json:"missing,omitempty"`
	Reply   string     `json:"reply"`
}

// Complete reports whether the extraction carries an action to persist.
func (e *Extraction) Complete() bool {
	return e.Intent == IntentCreateSale || e.Intent == IntentCreateDebt
}

// ActionFunc persists a completed extraction.
type ActionFunc func(ctx context.Context, action Intent, ex *Extraction) error

// Extractor turns free-text Arabic sentences into sale and debt actions using
// ordered pattern tables. It holds no state and is safe for concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads text without side effects.
//
// Detection order: sale keywords, then a debt keyword with an amount (or an
// addressee), then the canned topics, then a fallback echo.
func (x *Extractor) Extract(text string) Extraction {
	norm := normalizeText(text)
	ex := Extraction{Text: norm, Intent: IntentNone}

	hasDebtWord := debtWordPattern.MatchString(norm)
	switch {
	case isSaleSentence(norm, hasDebtWord):
		x.extractSale(norm, &ex)
	case hasDebtWord && (amountWithCurrency.MatchString(norm) || debtAddressee.MatchString(norm)):
		x.extractDebt(norm, &ex)
	default:
		ex.Topic = topicOf(norm)
		ex.Reply = topicReply(ex.Topic, norm)
	}
	return ex
}

// Handle extracts text and, when the action is complete, calls fn exactly
// once. Incomplete sentences never reach fn and are not errors.
func (x *Extractor) Handle(ctx context.Context, text string, fn ActionFunc) (*Extraction, error) {
	ex := x.Extract(text)
	if !ex.Complete() || fn == nil {
		return &ex, nil
	}
	if err := fn(ctx, ex.Intent, &ex); err != nil {
		return &ex, fmt.Errorf("%s: %w", ex.Intent, err)
	}
	return &ex, nil
}

// isSaleSentence: a sale verb always marks a sale. The generic "سجل" only
// does when the sentence is not about a debt.
func isSaleSentence(text string, hasDebtWord bool) bool {
	if saleVerbPattern.MatchString(text) {
		return true
	}
	return recordPattern.MatchString(text) && !hasDebtWord
}

func (x *Extractor) extractSale(text string, ex *Extraction) {
	ex.Topic = TopicSale

	d := &SaleDraft{
		CustomerName: matchName(saleCustomerPatterns, text),
		ProductType:  matchProduct(text),
		Quantity:     matchQuantity(text),
		Status:       SaleStatusPaid,
	}
	if d.CustomerName == "" {
		d.CustomerName = DefaultCustomerName
	}
	if price, ok := matchAmount(salePricePatterns, text); ok {
		d.UnitPrice = price
	}
	d.TotalPrice = d.Quantity.Mul(d.UnitPrice).Round(2)
	if deferredWords.MatchString(text) || containsAny(text, deferredPhrases) {
		d.Status = SaleStatusPending
	}
	ex.Sale = d

	if d.ProductType == "" {
		ex.Missing = append(ex.Missing, MissingProductType)
	}
	if !d.UnitPrice.IsPositive() {
		ex.Missing = append(ex.Missing, MissingPrice)
	}
	if len(ex.Missing) > 0 {
		ex.Reply = saleClarification(ex.Missing)
		return
	}

	ex.Intent = IntentCreateSale
	status := "مدفوع"
	if d.Status == SaleStatusPending {
		status = "آجل"
	}
	ex.Reply = fmt.Sprintf("✅ تم تسجيل البيع: %s %s بسعر %s %s، الإجمالي %s %s للعميل %s (%s)",
		d.Quantity, d.ProductType, d.UnitPrice, currencyWord, d.TotalPrice, currencyWord, d.CustomerName, status)
}

func (x *Extractor) extractDebt(text string, ex *Extraction) {
	ex.Topic = TopicDebt

	d := &DebtDraft{CustomerName: matchName(debtCustomerPatterns, text)}
	if amount, ok := matchAmount(debtAmountPatterns, text); ok {
		d.Amount = amount
	}
	if m := debtNotePattern.FindStringSubmatch(text); m != nil {
		d.Notes = strings.TrimSpace(m[1])
	}
	ex.Debt = d

	if d.CustomerName == "" {
		ex.Missing = append(ex.Missing, MissingCustomerName)
	}
	if !d.Amount.IsPositive() {
		ex.Missing = append(ex.Missing, MissingAmount)
	}
	if len(ex.Missing) > 0 {
		ex.Reply = fmt.Sprintf("⚠️ لم أتمكن من تسجيل الدين، ينقص: %s\nمثال: دين على أحمد 50 الف ريال",
			strings.Join(ex.Missing, "، "))
		return
	}

	ex.Intent = IntentCreateDebt
	ex.Reply = fmt.Sprintf("✅ تم تسجيل دين على %s بمبلغ %s %s", d.CustomerName, d.Amount, currencyWord)
}

func saleClarification(missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ لم أتمكن من تسجيل البيع، ينقص: %s\n", strings.Join(missing, "، "))
	b.WriteString("أمثلة:\n")
	b.WriteString("• بعت ربع شامي بي 5 الف\n")
	b.WriteString("• سجل بيع 2 حبة همداني بسعر 20000 للعميل محمد\n")
	fmt.Fprintf(&b, "الأنواع المتاحة: %s", strings.Join(ProductTypes, "، "))
	return b.String()
}

func topicOf(text string) Topic {
	for _, t := range topicKeywords {
		if containsAny(text, t.keywords) {
			return t.topic
		}
	}
	return TopicFallback
}

func topicReply(topic Topic, text string) string {
	switch topic {
	case TopicHelp:
		return "يمكنك كتابة أوامر مثل:\n" +
			"• بعت ربع شامي بي 5 الف\n" +
			"• بعت حبتين همداني بسعر 20000 للعميل علي آجل\n" +
			"• دين على أحمد 50 الف ريال\n" +
			"• احصائيات، العملاء، المنتجات"
	case TopicStats:
		return "📊 إحصائيات اليوم"
	case TopicCustomers:
		return "👥 قائمة العملاء متاحة في صفحة العملاء، ويمكن طلب كشف حساب لكل عميل."
	case TopicProducts:
		return "🌿 الأنواع المتاحة: " + strings.Join(ProductTypes, "، ")
	case TopicPrint:
		return "🖨️ يمكن تصدير كشف حساب العميل أو ملف المبيعات من صفحة التقارير."
	default:
		return fmt.Sprintf("استلمت: \"%s\". اكتب \"مساعدة\" لمعرفة الأوامر المتاحة.", text)
	}
}
