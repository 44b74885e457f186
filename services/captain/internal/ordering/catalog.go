package ordering

import (
	"strings"

	"golang.org/x/text/cases"
)

// Catalog is the outlet menu as loaded at the start of a session. It is not
// modified afterwards.
type Catalog struct {
	categories []Category
	items      []MenuItem
	byID       map[string]int
}

// NewCatalog builds a catalog with the synthetic ALL category in front.
// Categories with a negative count get one computed from items, and category
// names missing on items are filled from the category list.
func NewCatalog(categories []Category, items []MenuItem) *Catalog {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.CategoryID] = c.CategoryName
	}

	c := &Catalog{byID: make(map[string]int, len(items))}
	counts := make(map[string]int)
	for _, item := range items {
		if item.MenuID == "" {
			continue
		}
		if _, dup := c.byID[item.MenuID]; dup {
			continue
		}
		if item.CategoryName == "" {
			item.CategoryName = names[item.CategoryID]
		}
		c.byID[item.MenuID] = len(c.items)
		c.items = append(c.items, item)
		counts[item.CategoryID]++
	}

	c.categories = make([]Category, 0, len(categories)+1)
	c.categories = append(c.categories, Category{
		CategoryID:   AllCategoryID,
		CategoryName: AllCategoryName,
		MenuCount:    len(c.items),
	})
	for _, cat := range categories {
		if cat.CategoryID == "" || cat.CategoryID == AllCategoryID {
			continue
		}
		if cat.MenuCount < 0 {
			cat.MenuCount = counts[cat.CategoryID]
		}
		c.categories = append(c.categories, cat)
	}
	return c
}

func (c *Catalog) Categories() []Category {
	if c == nil {
		return []Category{{CategoryID: AllCategoryID, CategoryName: AllCategoryName}}
	}
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Catalog) Items() []MenuItem {
	if c == nil {
		return nil
	}
	out := make([]MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Item(menuID string) (MenuItem, bool) {
	if c == nil {
		return MenuItem{}, false
	}
	i, ok := c.byID[menuID]
	if !ok {
		return MenuItem{}, false
	}
	return c.items[i], true
}

func (c *Catalog) HasCategory(id string) bool {
	if id == "" || id == AllCategoryID {
		return true
	}
	if c == nil {
		return false
	}
	for _, cat := range c.categories {
		if cat.CategoryID == id {
			return true
		}
	}
	return false
}

// Visible returns the items to show. A non-empty search matches item names
// over the whole catalog and ignores the category; an empty search lists
// the category, or everything for ALL.
func (c *Catalog) Visible(categoryID, search string) []MenuItem {
	if c == nil {
		return nil
	}

	out := make([]MenuItem, 0)
	if query := strings.TrimSpace(search); query != "" {
		fold := cases.Fold()
		needle := fold.String(query)
		for _, item := range c.items {
			if strings.Contains(fold.String(item.Name), needle) {
				out = append(out, item)
			}
		}
		return out
	}

	for _, item := range c.items {
		if categoryID == "" || categoryID == AllCategoryID || item.CategoryID == categoryID {
			out = append(out, item)
		}
	}
	return out
}

func (c *Catalog) categoryOf(line CartLine) string {
	if line.CategoryID != "" {
		return line.CategoryID
	}
	if item, ok := c.Item(line.MenuID); ok {
		return item.CategoryID
	}
	return ""
}

// Badges counts distinct menu items per category across the given line
// sets. The ALL entry counts distinct items overall.
func (c *Catalog) Badges(sets ...[]CartLine) map[string]int {
	seen := make(map[string]map[string]struct{})
	all := make(map[string]struct{})
	for _, lines := range sets {
		for _, line := range lines {
			all[line.MenuID] = struct{}{}
			cat := c.categoryOf(line)
			if cat == "" {
				continue
			}
			if seen[cat] == nil {
				seen[cat] = make(map[string]struct{})
			}
			seen[cat][line.MenuID] = struct{}{}
		}
	}

	badges := make(map[string]int, len(seen)+1)
	for cat, ids := range seen {
		badges[cat] = len(ids)
	}
	badges[AllCategoryID] = len(all)
	return badges
}
