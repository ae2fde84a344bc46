package services

import (
	"fmt"

	"hide-seek-bot/models"
)

// Plural renders n with word, adding an "s" unless n is 1.
func Plural(n int64, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func willOrWont(b bool) string {
	if b {
		return "will"
	}
	return "won't"
}

// DescribeItem renders an item the way admin listings show it.
func DescribeItem(item models.Item) string {
	remaining := Plural(int64(item.Remaining), "remaining allowed find")
	if item.Unlimited() {
		remaining = "unlimited finds"
	}
	return fmt.Sprintf("`%s`: %s each, %s, %s show modal on find",
		item.ID, Plural(int64(item.Points), "point"), remaining, willOrWont(item.Bonus))
}
