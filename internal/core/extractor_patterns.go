package core

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const number = `(\d+(?:\.\d+)?)`

// thousandWords multiply a captured number by 1000 when they appear in the
// matched text.
var thousandWords = []string{"الف", "ألف", "آلاف", "الاف"}

// quantityRule maps a phrase to a quantity. A zero value means "use the
// captured number".
type quantityRule struct {
	re    *regexp.Regexp
	value decimal.Decimal
}

// quantityRules are tried in order; the first match wins. "اربع" must come
// before "ربع" and "ثلثين" before "ثلث" because the shorter word is a
// substring of the longer one.
var quantityRules = []quantityRule{
	{re: regexp.MustCompile(number + `\s*(?:حبات|حبة|حبه)`)},
	{re: regexp.MustCompile(`ثلثين`), value: decimal.RequireFromString("0.67")},
	{re: regexp.MustCompile(`ثلث`), value: decimal.RequireFromString("0.33")},
	{re: regexp.MustCompile(`[أا]ربع`), value: decimal.NewFromInt(4)},
	{re: regexp.MustCompile(`ربع`), value: decimal.RequireFromString("0.25")},
	{re: regexp.MustCompile(`نصف|نص`), value: decimal.RequireFromString("0.5")},
	{re: regexp.MustCompile(`حبتين|اثنين|ثنتين`), value: decimal.NewFromInt(2)},
	{re: regexp.MustCompile(`ثلاث`), value: decimal.NewFromInt(3)},
	{re: regexp.MustCompile(`خمس`), value: decimal.NewFromInt(5)},
	{re: regexp.MustCompile(`حبة|حبه`), value: decimal.NewFromInt(1)},
}

var salePricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:بسعر|السعر|سعر)\s*:?\s*` + number + `\s*(?:الف|ألف|آلاف|الاف)`),
	regexp.MustCompile(`(?:^|\s)(?:بي|ب)\s*` + number + `\s*(?:الف|ألف|آلاف|الاف)`),
	regexp.MustCompile(number + `\s*(?:الف|ألف|آلاف|الاف)(?:\s*ريال)?`),
	regexp.MustCompile(`(?:بسعر|السعر|سعر)\s*:?\s*` + number),
	regexp.MustCompile(`(?:^|\s)(?:بي|ب)\s*` + number),
	regexp.MustCompile(number + `\s*ريال`),
}

var debtAmountPatterns = []*regexp.Regexp{
	regexp.MustCompile(number + `\s*(?:الف|ألف|آلاف|الاف)`),
	regexp.MustCompile(`مبلغ\s*:?\s*` + number),
	regexp.MustCompile(number + `\s*ريال`),
	regexp.MustCompile(number),
}

// Name templates capture one word and an optional second word; see nameFrom.
const nameCapture = `(\S+)(?:\s+(\S+))?`

var saleCustomerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:للعميل|العميل|للزبون|الزبون|للمشتري)\s+` + nameCapture),
	regexp.MustCompile(`باسم\s+` + nameCapture),
	regexp.MustCompile(`(?:^|\s)(?:على|عند)\s+` + nameCapture),
	regexp.MustCompile(`(?:^|\s)لـ\s*` + nameCapture),
	// Attached "ل" as in "لعلي"; two letters at least so "لم" and "لي" never match.
	regexp.MustCompile(`(?:^|\s)ل([^\sـ]{2,})(?:\s+(\S+))?`),
}

var debtCustomerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`دين\s+(?:على|عند|لـ|ل)\s*` + nameCapture),
	regexp.MustCompile(`(?:^|\s)(?:على|عند)\s+` + nameCapture),
	regexp.MustCompile(`(?:للعميل|العميل)\s+` + nameCapture),
	regexp.MustCompile(`باسم\s+` + nameCapture),
}

var debtNotePattern = regexp.MustCompile(`(?:ملاحظة|بسبب|مقابل)\s*:?\s*(.+)$`)

var (
	saleVerbPattern = regexp.MustCompile(`(?:^|\s)و?(?:بيع|بعت|باع|بعنا|بعناه)(?:\s|$)`)
	recordPattern   = regexp.MustCompile(`(?:^|\s)سجل(?:\s|$)`)
	debtWordPattern = regexp.MustCompile(`(?:^|\s)(?:ال)?دين(?:\s|$)`)

	// amountWithCurrency marks a debt sentence that states its amount.
	amountWithCurrency = regexp.MustCompile(number + `\s*(?:الف|ألف|آلاف|الاف|ريال)`)
	// debtAddressee marks a debt sentence that names a debtor but not an amount,
	// so the extractor can ask for the missing amount.
	debtAddressee = regexp.MustCompile(`دين\s+(?:على|عند|لـ)`)
)

// deferredWords switch a sale to pending when they appear as whole words.
var deferredWords = regexp.MustCompile(`(?:^|\s)(?:آجل|اجل|مؤجل|دين|بالدين)(?:\s|$)`)

// deferredPhrases switch a sale to pending when they appear anywhere.
var deferredPhrases = []string{"على الحساب", "لم يدفع", "ما دفع", "ما سدد", "لم يسدد"}

// nameStopWords are never accepted as a customer name.
var nameStopWords = map[string]bool{
	"الحساب": true,
	"حساب":   true,
	"بي":     true,
	"ب":      true,
	"بسعر":   true,
	"سعر":    true,
	"السعر":  true,
	"مبلغ":   true,
	"ريال":   true,
	"الف":    true,
	"ألف":    true,
	"دين":    true,
	"آجل":    true,
	"اجل":    true,
	"حبة":    true,
	"حبه":    true,
	"حبات":   true,
	"نص":     true,
	"ربع":    true,
	"ثلث":    true,
	"ها":     true,
	"كن":     true,
}

// namePrefixes start two-word names such as "ابو علي".
var namePrefixes = map[string]bool{
	"ابو": true, "أبو": true, "ام": true, "أم": true, "بن": true, "عبد": true, "بيت": true,
}

var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicHelp, []string{"مساعدة", "مساعده", "كيف", "الاوامر", "الأوامر", "help"}},
	{TopicStats, []string{"احصائيات", "إحصائيات", "تقرير", "مبيعات اليوم"}},
	{TopicCustomers, []string{"العملاء", "الزبائن", "زبائن"}},
	{TopicProducts, []string{"المنتجات", "الانواع", "الأنواع", "اصناف", "أصناف"}},
	{TopicPrint, []string{"طباعة", "طباعه", "اطبع", "دفتر"}},
}

var digitReplacer = func() *strings.Replacer {
	var pairs []string
	for i := 0; i < 10; i++ {
		ascii := string(rune('0' + i))
		pairs = append(pairs, string(rune(0x0660+i)), ascii) // Arabic-Indic
		pairs = append(pairs, string(rune(0x06F0+i)), ascii) // Extended (Persian)
	}
	pairs = append(pairs, "٫", ".", "٬", "")
	return strings.NewReplacer(pairs...)
}()

// thousandsSeparator matches a comma grouping exactly three digits, as in
// "20,000" or "20،000".
var thousandsSeparator = regexp.MustCompile(`(\d)[,،](\d{3})(?:\D|$)`)

// normalizeText maps Arabic digits to ASCII, drops thousands separators and
// diacritics, and collapses whitespace.
func normalizeText(s string) string {
	s = digitReplacer.Replace(s)
	s = stripThousands(s)
	s = strings.Map(func(r rune) rune {
		if r >= 0x064B && r <= 0x0652 { // tashkeel
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func stripThousands(s string) string {
	for {
		loc := thousandsSeparator.FindStringSubmatchIndex(s)
		if loc == nil {
			return s
		}
		sep := loc[3] // end of the leading digit
		_, size := utf8.DecodeRuneInString(s[sep:])
		s = s[:sep] + s[sep+size:]
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// matchAmount returns the first pattern's number, multiplied by 1000 when the
// match carries a thousand word.
func matchAmount(patterns []*regexp.Regexp, text string) (decimal.Decimal, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		if containsAny(m[0], thousandWords) {
			n = n.Mul(decimal.NewFromInt(1000))
		}
		return n, true
	}
	return decimal.Zero, false
}

func matchQuantity(text string) decimal.Decimal {
	for _, r := range quantityRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if !r.value.IsZero() {
			return r.value
		}
		if n, err := decimal.NewFromString(m[1]); err == nil && n.IsPositive() {
			return n
		}
	}
	return decimal.NewFromInt(1)
}

func matchProduct(text string) string {
	for _, p := range ProductTypes {
		if strings.Contains(text, p) {
			return p
		}
	}
	return ""
}

func matchName(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if name := nameFrom(m[1], m[2]); name != "" {
				return name
			}
		}
	}
	return ""
}

// nameFrom accepts first as a name unless it is a stop word, a number or a
// product grade. second is only kept after a prefix like "ابو".
func nameFrom(first, second string) string {
	first = strings.Trim(first, "،,.:؛")
	second = strings.Trim(second, "،,.:؛")
	if first == "" || nameStopWords[first] || IsProductType(first) || startsWithDigit(first) {
		return ""
	}
	if namePrefixes[first] && second != "" && !nameStopWords[second] && !startsWithDigit(second) {
		return first + " " + second
	}
	return first
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
