package ordering

import "testing"

func TestNormalizeLinesRecomputesTotal(t *testing.T) {
	lines := []CartLine{
		{MenuID: "X", Name: "Dish", UnitPrice: 120, Quantity: 3, TotalPrice: 9999, Portion: "full"},
		{MenuID: "Y", UnitPrice: 50, Quantity: 2, TotalPrice: 0, Portion: "", OfferPercent: 150, SpecialInstructions: "  "},
	}

	got := NormalizeLines(lines)
	if got[0].TotalPrice != 360 {
		t.Errorf("total = %v, want 360", got[0].TotalPrice)
	}
	if got[1].TotalPrice != 100 {
		t.Errorf("total = %v, want 100", got[1].TotalPrice)
	}
	if got[1].Portion != "full" {
		t.Errorf("portion = %q, want full", got[1].Portion)
	}
	if got[1].OfferPercent != 0 {
		t.Errorf("offer = %v, want 0", got[1].OfferPercent)
	}
	if got[1].SpecialInstructions != "" {
		t.Errorf("instructions = %q, want empty", got[1].SpecialInstructions)
	}
	if lines[0].TotalPrice != 9999 {
		t.Error("NormalizeLines should not modify its input")
	}
}

func TestPayloadKOTLines(t *testing.T) {
	p := Payload{Items: []PayloadLine{
		{MenuID: "unchanged", Price: 10, Quantity: 2, SentQuantity: 2},
		{MenuID: "topped", Price: 10, Quantity: 5, SentQuantity: 2},
		{MenuID: "reduced", Price: 10, Quantity: 1, SentQuantity: 3},
		{MenuID: "new", Price: 25, Quantity: 2, IsNewItem: true},
	}}

	got := p.KOTLines()
	if len(got) != 2 {
		t.Fatalf("KOTLines() = %+v", got)
	}
	if got[0].MenuID != "topped" || got[0].Quantity != 3 || got[0].TotalPrice != 30 {
		t.Errorf("topped = %+v, want 3 added units", got[0])
	}
	if got[1].MenuID != "new" || got[1].Quantity != 2 || got[1].TotalPrice != 50 {
		t.Errorf("new = %+v", got[1])
	}
	if p.Items[1].Quantity != 5 {
		t.Error("KOTLines should not modify the payload")
	}
}
