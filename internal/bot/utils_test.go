package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"shrot-bot/internal/order"
	"shrot-bot/internal/pricing"
)

func TestParseOrderID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12", 12, true},
		{"#12", 12, true},
		{"ID 305 iltimos", 305, true},
		{"  7  ", 7, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseOrderID(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseSupportID(t *testing.T) {
	id, ok := parseSupportID("👤 Foydalanuvchi: Ali\n🆔 ID: 98765\n\nText: salom")
	assert.True(t, ok)
	assert.Equal(t, int64(98765), id)

	_, ok = parseSupportID("Buyurtma ID:abc")
	assert.False(t, ok)

	_, ok = parseSupportID("UUID: 123")
	assert.False(t, ok)
}

func TestSplitMessageKeepsLines(t *testing.T) {
	lines := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		lines = append(lines, strings.Repeat("x", 30))
	}
	text := strings.Join(lines, "\n")

	chunks := splitMessage(text, 100)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
	}
	assert.Equal(t, text, strings.Join(chunks, "\n"))
}

func TestSplitMessageCutsLongLine(t *testing.T) {
	chunks := splitMessage(strings.Repeat("ы", 250), 100)
	assert.Len(t, chunks, 3)
	assert.Equal(t, 50, utf8.RuneCountInString(chunks[2]))

	assert.Equal(t, []string{"short"}, splitMessage("short", 100))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "🟢 Ochiq", statusLabel(order.StatusOpen, order.RoleNone))
	assert.Equal(t, "✅ Qabul qilingan va yopilgan", statusLabel(order.StatusClosed, order.RoleNone))
	assert.Equal(t, "❌ Bekor qilish va yopish", statusLabel(order.StatusCanceled, order.RoleUser))
	assert.Equal(t, "⚠️ Admin tomonidan bekor qilingan", statusLabel(order.StatusCanceled, order.RoleAdmin))
}

func TestFormatDealPrice(t *testing.T) {
	assert.Equal(t, "8,050,000 сум", formatDealPrice(pricing.NewQuantity(2.3), 3500))
	assert.Equal(t, msgDealUnavailable, formatDealPrice(pricing.FromText("ko'p"), 3500))
}

func TestFormatLocationLink(t *testing.T) {
	lat, lon := 41.3111, 69.2797
	assert.Equal(t, "https://www.google.com/maps?q=41.3111,69.2797", formatLocationLink(&lat, &lon))
	assert.Empty(t, formatLocationLink(nil, &lon))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "салом", truncateRunes("салом", 10))
	assert.Equal(t, "сал", truncateRunes("салом", 3))
}
