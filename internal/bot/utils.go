package bot

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"shrot-bot/internal/order"
	"shrot-bot/internal/pricing"
	"shrot-bot/internal/storage"
)

// messageLimit stays below Telegram's 4096 character cap.
const messageLimit = 4000

var orderIDPattern = regexp.MustCompile(`\d+`)

func formatDealPrice(q pricing.Quantity, pricePerKg float64) string {
	total, ok := q.Total(pricePerKg)
	if !ok {
		return msgDealUnavailable
	}
	return pricing.FormatMoney(total) + " сум"
}

func formatLocationLink(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(*lat, 'f', -1, 64),
		strconv.FormatFloat(*lon, 'f', -1, 64))
}

func locationLine(lat, lon *float64) (string, bool) {
	link := formatLocationLink(lat, lon)
	if link == "" {
		return "", false
	}
	return fmt.Sprintf("🗺 Lokatsiya: <a href=\"%s\">%s</a>", html.EscapeString(link), locationLinkCaption), true
}

func (b *Bot) formatDate(ts storage.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(b.loc).Format("2006-01-02 15:04")
}

func personName(first, last, fallback string) string {
	name := strings.Join(strings.Fields(first+" "+last), " ")
	if name == "" {
		return fallback
	}
	return name
}

func statusLabel(status order.Status, role order.CancelRole) string {
	switch {
	case status == order.StatusOpen:
		return "🟢 Ochiq"
	case status == order.StatusClosed:
		return "✅ Qabul qilingan va yopilgan"
	case status == order.StatusCanceled && role == order.RoleUser:
		return "❌ Bekor qilish va yopish"
	case status == order.StatusCanceled && role == order.RoleAdmin:
		return "⚠️ Admin tomonidan bekor qilingan"
	case status == order.StatusCanceled:
		return "❌ Bekor qilingan"
	default:
		return string(status)
	}
}

// formatOrder renders the admin view of an order as Telegram HTML.
func (b *Bot) formatOrder(o storage.Order) string {
	price := o.EffectivePrice()
	phone := o.Phone
	if phone == "" {
		phone = msgNotEntered
	}
	lines := []string{
		fmt.Sprintf("🆔 ID: %d", o.ID),
		"👤 Ism: " + html.EscapeString(personName(o.FirstName, o.LastName, msgUnknownPerson)),
		"📦 Mahsulot: " + html.EscapeString(o.ProductName),
		"⚖️ Miqdor: " + html.EscapeString(o.Quantity.String()),
		fmt.Sprintf("💰 Narx (1 kg, ariza vaqti): %s сум", pricing.FormatPrice(price)),
		"💵 Jami: " + html.EscapeString(formatDealPrice(o.Quantity, price)),
		"📞 Telefon: " + html.EscapeString(phone),
		"📍 Manzil: " + html.EscapeString(o.Address),
	}
	if line, ok := locationLine(o.Latitude, o.Longitude); ok {
		lines = append(lines, line)
	}
	lines = append(lines, "📅 Sana: "+b.formatDate(o.CreatedAt))
	return strings.Join(lines, "\n")
}

func (b *Bot) formatOrderDetails(o storage.Order) string {
	return b.formatOrder(o) + "\n📌 Holati: " + html.EscapeString(statusLabel(o.Status, o.CanceledBy))
}

func (b *Bot) formatUserOrder(o storage.Order) string {
	price := o.EffectivePrice()
	return strings.Join([]string{
		fmt.Sprintf("🆔 ID: %d", o.ID),
		"📦 Mahsulot: " + html.EscapeString(o.ProductName),
		"⚖️ Miqdor: " + html.EscapeString(o.Quantity.String()),
		fmt.Sprintf("💰 Narx (1 kg, ariza vaqti): %s сум", pricing.FormatPrice(price)),
		"💵 Jami: " + html.EscapeString(formatDealPrice(o.Quantity, price)),
		"📍 Manzil: " + html.EscapeString(o.Address),
		"📌 Holati: " + html.EscapeString(statusLabel(o.Status, o.CanceledBy)),
		"📅 Sana: " + b.formatDate(o.CreatedAt),
	}, "\n")
}

func productCaption(p storage.Product) string {
	description := p.Description
	if description == "" {
		description = msgNotEntered
	}
	return fmt.Sprintf("📦 Mahsulot: %s\n💰 Narxi (1 kg): %s сум\n🗒 Tavsif: %s",
		p.Name, pricing.FormatPrice(p.PricePerKg), description)
}

// parseOrderID takes the first run of digits, so "#12" and "ID 12" both work.
func parseOrderID(text string) (int64, bool) {
	match := orderIDPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// splitMessage cuts text at line boundaries into chunks of at most limit characters.
// A single line longer than limit is cut mid-line.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	size := 0
	flush := func() {
		if size > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
		}
		n := utf8.RuneCountInString(line)
		extra := n
		if size > 0 {
			extra++
		}
		if size+extra > limit {
			flush()
			extra = n
		}
		if size > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
		size += extra
	}
	flush()
	return chunks
}
