package telegram

import (
	"fmt"
	"strings"

	"eminence/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// markdownV2Specials are the characters Telegram's MarkdownV2 parser
// requires to be backslash-escaped inside text.
const markdownV2Specials = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdownV2 backslash-escapes every MarkdownV2 special character.
// It is total: any input comes back with the same characters in the same
// order, each special one preceded by a backslash.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 0x80 && strings.ContainsRune(markdownV2Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var pricePrinter = message.NewPrinter(language.English)

// formatPrice renders a toman amount with thousands grouping, keeping any
// fractional part ("1,250,000", "1,250,000.5").
func formatPrice(v float64) string {
	return pricePrinter.Sprint(number.Decimal(v))
}

// BuildCaption renders the MarkdownV2 caption for a product message. It is
// pure: no network calls, free text escaped, missing description replaced by
// a fixed fallback, missing category name left blank.
func BuildCaption(p *models.Product, pageBase string) string {
	description := p.Description
	if description == "" {
		description = "بدون توضیح"
	}
	categoryName := ""
	if p.CategoryName != nil {
		categoryName = *p.CategoryName
	}

	return fmt.Sprintf(`
⚡ *%s*
🔹 *کد*: `+"`%s`"+`
💰 *قیمت*: %s تومان
📏 *ابعاد*: %g×%g×%g سانتی‌متر
⚖️ *وزن*: %g کیلوگرم
📂 *دسته‌بندی*: %s
📝 %s
🏢 نمایندگی رسمی Hinorms در ایران
🌐 سایت: Kasraeminence.com
🔗 [مشاهده محصول](%s%d)
`,
		EscapeMarkdownV2(p.Name),
		EscapeMarkdownV2(p.Code),
		formatPrice(p.PriceCustomer),
		p.Length, p.Width, p.Height,
		p.Weight,
		EscapeMarkdownV2(categoryName),
		EscapeMarkdownV2(description),
		pageBase, p.ID,
	)
}

// InlineButton is a single inline keyboard button.
type InlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// InlineKeyboard is the reply_markup layout Telegram expects.
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// BuildKeyboard returns the fixed two-row contact layout attached to every
// product message.
func BuildKeyboard() InlineKeyboard {
	return InlineKeyboard{
		InlineKeyboard: [][]InlineButton{
			{
				{Text: "💬 واتساپ", URL: "https://wa.me/+989122434557"},
				{Text: "🟣 اینستاگرام", URL: "https://www.instagram.com/Hinorms.ir"},
			},
			{
				{Text: "🤖 سوالات متداول", URL: "https://t.me/HinormsFAQ_Bot"},
				{Text: "🆘 پشتیبانی", URL: "https://t.me/HinormsSupport_Bot"},
			},
		},
	}
}
