package ordering

import (
	"strings"

	"github.com/appetiteclub/captain/pkg/enums/portion"
)

// Payload is the order handed to the submitter.
type Payload struct {
	OutletID    string        `json:"outlet_id"`
	UserID      string        `json:"user_id"`
	CaptainID   string        `json:"captain_id,omitempty"`
	OrderID     string        `json:"order_id,omitempty"`
	TableID     string        `json:"table_id,omitempty"`
	TableNumber string        `json:"table_number,omitempty"`
	SectionID   string        `json:"section_id,omitempty"`
	IsUpdate    bool          `json:"is_update"`
	Items       []PayloadLine `json:"items"`
	Total       float64       `json:"total"`
}

type PayloadLine struct {
	MenuID              string  `json:"menu_id"`
	Name                string  `json:"menu_name"`
	Price               float64 `json:"price"`
	Quantity            int     `json:"quantity"`
	TotalPrice          float64 `json:"total_price"`
	Portion             string  `json:"portion"`
	OfferPercent        int     `json:"offer"`
	SpecialInstructions string  `json:"special_instructions"`
	IsNewItem           bool    `json:"is_new_item"`
	SentQuantity        int     `json:"sent_quantity,omitempty"`
	HalfPrice           float64 `json:"half_price"`
	FullPrice           float64 `json:"full_price"`
	CategoryName        string  `json:"category_name"`
	FoodType            string  `json:"menu_food_type"`
}

// KOTLines returns what the kitchen has not seen yet: new lines in full and
// the units added on top of loaded lines. Quantities are the deltas.
func (p Payload) KOTLines() []PayloadLine {
	out := make([]PayloadLine, 0, len(p.Items))
	for _, line := range p.Items {
		qty := line.Quantity
		if !line.IsNewItem {
			qty -= line.SentQuantity
		}
		if qty <= 0 {
			continue
		}
		line.Quantity = qty
		line.TotalPrice = line.Price * float64(qty)
		out = append(out, line)
	}
	return out
}

// NormalizeLines converts cart lines to payload lines. TotalPrice is always
// recomputed from unit price and quantity.
func NormalizeLines(lines []CartLine) []PayloadLine {
	out := make([]PayloadLine, 0, len(lines))
	for _, line := range lines {
		pct := line.OfferPercent
		if pct < 0 || pct > 100 {
			pct = 0
		}
		out = append(out, PayloadLine{
			MenuID:              line.MenuID,
			Name:                line.Name,
			Price:               line.UnitPrice,
			Quantity:            line.Quantity,
			TotalPrice:          line.UnitPrice * float64(line.Quantity),
			Portion:             portion.Normalize(line.Portion),
			OfferPercent:        pct,
			SpecialInstructions: strings.TrimSpace(line.SpecialInstructions),
			IsNewItem:           line.IsNewItem,
			SentQuantity:        line.SentQuantity,
			HalfPrice:           line.HalfPrice,
			FullPrice:           line.FullPrice,
			CategoryName:        line.CategoryName,
			FoodType:            line.FoodType,
		})
	}
	return out
}

func payloadTotal(lines []PayloadLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.TotalPrice
	}
	return total
}
