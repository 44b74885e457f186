package ordering

import (
	"strings"

	"github.com/appetiteclub/captain/pkg/enums/portion"
)

// Cart holds one line per (menu item, portion) in insertion order.
type Cart struct {
	lines []CartLine
}

// NewCart seeds a cart with lines from an existing order. Lines sharing a
// menu item and portion are merged.
func NewCart(existing []CartLine) *Cart {
	c := &Cart{}
	for _, line := range existing {
		if line.Quantity <= 0 {
			continue
		}
		line.Portion = portion.Normalize(line.Portion)
		if !line.IsNewItem {
			line.SentQuantity = line.Quantity
		}
		if i := c.find(line.MenuID, line.Portion); i >= 0 {
			c.lines[i].Quantity += line.Quantity
			c.lines[i].SentQuantity += line.SentQuantity
			c.lines[i].TotalPrice = c.lines[i].UnitPrice * float64(c.lines[i].Quantity)
			continue
		}
		line.TotalPrice = line.UnitPrice * float64(line.Quantity)
		c.lines = append(c.lines, line)
	}
	return c
}

func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.lines {
		total += line.UnitPrice * float64(line.Quantity)
	}
	return total
}

func (c *Cart) find(menuID, p string) int {
	for i, line := range c.lines {
		if line.MenuID == menuID && line.Portion == p {
			return i
		}
	}
	return -1
}

// Add puts one unit of item in the cart. An existing line for the same
// portion is incremented instead of duplicated.
func (c *Cart) Add(item MenuItem, requested string) error {
	p, err := resolvePortion(item, requested)
	if err != nil {
		return err
	}

	if i := c.find(item.MenuID, p); i >= 0 {
		return c.increment(i)
	}

	price := item.PriceFor(p)
	c.lines = append(c.lines, CartLine{
		MenuID:       item.MenuID,
		Name:         item.Name,
		UnitPrice:    price,
		Quantity:     1,
		Portion:      p,
		TotalPrice:   price,
		OfferPercent: item.OfferPercent,
		IsNewItem:    true,
		HalfPrice:    item.HalfPrice,
		FullPrice:    item.FullPrice,
		CategoryID:   item.CategoryID,
		CategoryName: item.CategoryName,
		FoodType:     item.FoodType,
	})
	return nil
}

func (c *Cart) Increment(menuID, p string) error {
	i, err := c.locate(menuID, p)
	if err != nil {
		return err
	}
	return c.increment(i)
}

// Decrement removes one unit. The line disappears when it reaches zero.
func (c *Cart) Decrement(menuID, p string) error {
	i, err := c.locate(menuID, p)
	if err != nil {
		return err
	}
	if c.lines[i].Quantity <= 1 {
		c.removeAt(i)
		return nil
	}
	c.lines[i].Quantity--
	c.lines[i].TotalPrice = c.lines[i].UnitPrice * float64(c.lines[i].Quantity)
	return nil
}

func (c *Cart) Remove(menuID, p string) error {
	i, err := c.locate(menuID, p)
	if err != nil {
		return err
	}
	c.removeAt(i)
	return nil
}

func (c *Cart) SetInstructions(menuID, p, text string) error {
	i, err := c.locate(menuID, p)
	if err != nil {
		return err
	}
	c.lines[i].SpecialInstructions = strings.TrimSpace(text)
	return nil
}

func (c *Cart) increment(i int) error {
	if c.lines[i].Quantity >= MaxItemQuantity {
		return ErrQuantityLimit
	}
	c.lines[i].Quantity++
	c.lines[i].TotalPrice = c.lines[i].UnitPrice * float64(c.lines[i].Quantity)
	return nil
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// locate finds the line for menuID. An empty portion is accepted when the
// item has a single line in the cart.
func (c *Cart) locate(menuID, p string) (int, error) {
	if strings.TrimSpace(p) != "" {
		named := portion.ByName(p)
		if named == nil {
			return -1, ErrPortionUnavailable
		}
		if i := c.find(menuID, named.Name); i >= 0 {
			return i, nil
		}
		return -1, ErrNotInCart
	}

	found := -1
	for i, line := range c.lines {
		if line.MenuID != menuID {
			continue
		}
		if found >= 0 {
			return -1, ErrPortionRequired
		}
		found = i
	}
	if found < 0 {
		return -1, ErrNotInCart
	}
	return found, nil
}

// resolvePortion picks the portion for a new unit of item. Items priced in
// both portions need an explicit choice; single priced items default to
// the portion they have.
func resolvePortion(item MenuItem, requested string) (string, error) {
	full, half := portion.Portions.Full.Name, portion.Portions.Half.Name

	if strings.TrimSpace(requested) == "" {
		switch {
		case item.NeedsPortion():
			return "", ErrPortionRequired
		case item.HasHalf() && item.FullPrice <= 0:
			return half, nil
		default:
			return full, nil
		}
	}

	named := portion.ByName(requested)
	if named == nil {
		return "", ErrPortionUnavailable
	}
	switch named.Name {
	case half:
		if !item.HasHalf() {
			return "", ErrPortionUnavailable
		}
	case full:
		if item.FullPrice <= 0 && item.HasHalf() {
			return "", ErrPortionUnavailable
		}
	}
	return named.Name, nil
}
