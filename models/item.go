// models/item.go
package models

import (
	"math"
	"time"
)

// UnlimitedFinds is stored as the budget of items that never run out.
const UnlimitedFinds = math.MaxInt32

// Item is a hidden message that can be found for points.
type Item struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Points    int       `gorm:"not null" json:"points"`
	Remaining int       `gorm:"not null;check:remaining >= 0" json:"remaining"`
	Bonus     bool      `gorm:"not null" json:"bonus"` // opens the submission workflow on find
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Unlimited reports whether finds never use up the item's budget.
func (i Item) Unlimited() bool {
	return i.Remaining >= UnlimitedFinds
}

// ItemPreset is a named (points, budget, bonus) combination admins register items with.
type ItemPreset struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Remaining int    `json:"remaining"`
	Bonus     bool   `json:"bonus"`
}

// ItemPresets in the order they are listed in usage text.
var ItemPresets = []ItemPreset{
	{Name: "green", Points: 1, Remaining: UnlimitedFinds},
	{Name: "yellow", Points: 3, Remaining: 20},
	{Name: "teal", Points: 5, Remaining: 15},
	{Name: "purple", Points: 10, Remaining: 5, Bonus: true},
}

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (ItemPreset, bool) {
	for _, p := range ItemPresets {
		if p.Name == name {
			return p, true
		}
	}
	return ItemPreset{}, false
}

// PresetNames returns preset names joined for usage text, e.g. "green | yellow".
func PresetNames() []string {
	names := make([]string, 0, len(ItemPresets))
	for _, p := range ItemPresets {
		names = append(names, p.Name)
	}
	return names
}
