package report

import (
	"fmt"
	"sort"
	"strings"

	"shrot-bot/internal/pricing"
	"shrot-bot/internal/storage"
)

// SummaryLimit is how many entries the chat summary lists.
const SummaryLimit = 20

const (
	unknownUser = "Noma'lum foydalanuvchi"
	noPhone     = "📞 Telefon yo'q"
)

// ContactLabel renders "First Last (phone)" with placeholders for missing parts.
func ContactLabel(firstName, lastName, phone string) string {
	name := strings.Join(strings.Fields(firstName+" "+lastName), " ")
	if name == "" {
		name = unknownUser
	}
	if phone == "" {
		phone = noPhone
	}
	return fmt.Sprintf("%s (%s)", name, phone)
}

// Entry is one (customer, product) line of a report.
type Entry struct {
	UserID  int64
	Name    string
	Product string
	Tons    float64
	Amount  float64
}

type Report struct {
	Period      Period
	TotalAmount float64
	TotalTons   float64
	Entries     []Entry
}

// Build aggregates closed orders per customer and product, largest amount first.
// Orders whose quantity cannot be read are left out.
func Build(period Period, orders []storage.Order) Report {
	type key struct {
		userID  int64
		product string
	}

	r := Report{Period: period}
	index := make(map[key]int)
	for _, o := range orders {
		kg, ok := o.Quantity.Kilograms()
		if !ok {
			continue
		}
		amount := kg * o.EffectivePrice()
		tons := kg / 1000
		r.TotalAmount += amount
		r.TotalTons += tons

		k := key{userID: o.UserID, product: o.ProductName}
		i, seen := index[k]
		if !seen {
			i = len(r.Entries)
			index[k] = i
			r.Entries = append(r.Entries, Entry{
				UserID:  o.UserID,
				Name:    ContactLabel(o.FirstName, o.LastName, o.Phone),
				Product: o.ProductName,
			})
		}
		r.Entries[i].Tons += tons
		r.Entries[i].Amount += amount
	}

	sort.SliceStable(r.Entries, func(i, j int) bool {
		return r.Entries[i].Amount > r.Entries[j].Amount
	})
	return r
}

// Summary is the chat message sent with the report document.
func (r Report) Summary(limit int) string {
	lines := []string{
		"📑 Hisobot",
		"📅 Davr: " + r.Period.Label(),
		fmt.Sprintf("💵 Umumiy summa: %s so'm", pricing.FormatMoney(r.TotalAmount)),
		fmt.Sprintf("⚖️ Jami tonna: %s t", pricing.FormatTons(r.TotalTons)),
	}
	if len(r.Entries) == 0 {
		lines = append(lines, "📭 Ma'lumot topilmadi.")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "📌 Mijozlar va mahsulotlar:")
	for i, e := range r.Entries {
		if i >= limit {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s — %s: %s t, %s so'm",
			i+1, e.Name, e.Product, pricing.FormatTons(e.Tons), pricing.FormatMoney(e.Amount)))
	}
	return strings.Join(lines, "\n")
}
