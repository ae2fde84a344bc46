package discord

import (
	"context"
	"strings"
	"testing"

	"hide-seek-bot/internal/testutil"
	"hide-seek-bot/models"
	"hide-seek-bot/services"
	"hide-seek-bot/store"
)

const (
	ownerID = "100000000000000001"
	userID  = "100000000000000002"
	itemID  = "200000000000000001"
)

func newScoredCommands(t *testing.T) (*Commands, *store.MemoryLedger) {
	t.Helper()
	ids, err := services.NewIDValidator(`^[1-9][0-9]{16,19}$`)
	if err != nil {
		t.Fatalf("NewIDValidator error: %v", err)
	}
	ledger := store.NewMemoryLedger()
	admin := services.NewAdminService(ledger, ids, nil, nil, 20)
	isAdmin := func(id string) bool { return id == ownerID }
	return NewCommands("hs?", isAdmin, admin, nil), ledger
}

func run(t *testing.T, c *Commands, author, content string) Reply {
	t.Helper()
	reply, ok := c.Execute(context.Background(), author, content)
	if !ok {
		t.Fatalf("%q produced no reply", content)
	}
	return reply
}

func TestCommandsAddCheckRemove(t *testing.T) {
	c, _ := newScoredCommands(t)

	if got := run(t, c, ownerID, "hs?add purple "+itemID).Content; !strings.HasPrefix(got, "`"+itemID+"` has been added.") {
		t.Fatalf("add reply = %q", got)
	}
	if got := run(t, c, ownerID, "hs?add green "+itemID).Content; !strings.HasPrefix(got, "That message is already added.") {
		t.Fatalf("duplicate add reply = %q", got)
	}
	want := "`" + itemID + "`: 10 points each, 5 remaining allowed finds, will show modal on find"
	if got := run(t, c, ownerID, "hs?check "+itemID).Content; got != want {
		t.Fatalf("check reply = %q, want %q", got, want)
	}
	if got := run(t, c, ownerID, "hs?check").Content; got != want {
		t.Fatalf("check all reply = %q", got)
	}
	if got := run(t, c, ownerID, "hs?remove "+itemID).Content; got != "`"+itemID+"` has been removed." {
		t.Fatalf("remove reply = %q", got)
	}
	if got := run(t, c, ownerID, "hs?remove "+itemID).Content; got != "That message is not in the database." {
		t.Fatalf("second remove reply = %q", got)
	}
}

func TestCommandsUsage(t *testing.T) {
	c, _ := newScoredCommands(t)
	tests := map[string]string{
		"hs?add":                "**Usage:** `hs?add <green | yellow | teal | purple> <message ID>`",
		"hs?add blue " + itemID: "**Usage:** `hs?add <green | yellow | teal | purple> <message ID>`",
		"hs?add green 12":       "**Usage:** `hs?add <green | yellow | teal | purple> <message ID>`",
		"hs?remove":             "**Usage:** `hs?remove <message ID>`",
		"hs?check a b":          "**Usage:** `hs?check [message ID]`",
		"hs?lb 0":               "**Usage:** `hs?lb [page = 1]`",
		"hs?pts nobody":         "**Usage:** `hs?pts <user ID>`",
	}
	for content, want := range tests {
		if got := run(t, c, ownerID, content).Content; got != want {
			t.Errorf("%q reply = %q, want %q", content, got, want)
		}
	}
}

func TestCommandsIgnoreNonAdmins(t *testing.T) {
	c, ledger := newScoredCommands(t)
	if _, ok := c.Execute(context.Background(), userID, "hs?add green "+itemID); ok {
		t.Fatal("non-admin got a reply to add")
	}
	items, _ := ledger.ListItems(context.Background())
	if len(items) != 0 {
		t.Fatal("non-admin registered an item")
	}
	if _, ok := c.Execute(context.Background(), userID, "hello there"); ok {
		t.Fatal("plain message treated as a command")
	}
	if _, ok := c.Execute(context.Background(), userID, "hs?unknown"); ok {
		t.Fatal("unknown command produced a reply")
	}
}

func TestCommandsPointsAndLeaderboard(t *testing.T) {
	c, ledger := newScoredCommands(t)
	ctx := context.Background()
	if _, err := ledger.CreateItem(ctx, &models.Item{ID: itemID, Points: 3, Remaining: 5}); err != nil {
		t.Fatalf("CreateItem error: %v", err)
	}
	if _, err := services.NewFindService(ledger, nil, nil).AttemptFind(ctx, itemID, userID); err != nil {
		t.Fatalf("AttemptFind error: %v", err)
	}

	reply := run(t, c, userID, "hs?points")
	if reply.Description != "<@"+userID+"> has 3 points!" {
		t.Fatalf("points reply = %+v", reply)
	}
	reply = run(t, c, userID, "hs?pts <@!"+ownerID+">")
	if reply.Description != "<@"+ownerID+"> has 0 points!" {
		t.Fatalf("pts mention reply = %+v", reply)
	}
	reply = run(t, c, userID, "hs?leaderboard")
	if reply.Title != "Hide & Seek Leaderboard" || reply.Description != "<@"+userID+">: 3 points" {
		t.Fatalf("leaderboard reply = %+v", reply)
	}
	reply = run(t, c, userID, "hs?leaderboard 1")
	if reply.Description != "<@"+userID+">: 3 points" {
		t.Fatalf("leaderboard page 1 reply = %+v", reply)
	}
	reply = run(t, c, userID, "hs?leaderboard 9223372036854775807")
	if reply.Title != "Hide & Seek Leaderboard" || reply.Description != "" {
		t.Fatalf("leaderboard far page reply = %+v", reply)
	}
}

func TestCommandsDumpAttachesFile(t *testing.T) {
	c, ledger := newScoredCommands(t)
	ctx := context.Background()
	if _, err := ledger.CreateItem(ctx, &models.Item{ID: itemID, Points: 1, Remaining: 5}); err != nil {
		t.Fatalf("CreateItem error: %v", err)
	}
	if _, err := services.NewFindService(ledger, nil, nil).AttemptFind(ctx, itemID, userID); err != nil {
		t.Fatalf("AttemptFind error: %v", err)
	}

	reply := run(t, c, ownerID, "hs?dump")
	if reply.FileName != "dump.txt" || reply.FileBody != userID+": 1 point, 0 modals, 1 find total\n" {
		t.Fatalf("dump reply = %+v", reply)
	}
}

func TestCommandsSingleMode(t *testing.T) {
	ids, _ := services.NewIDValidator(`^[1-9][0-9]{16,19}$`)
	single := services.NewSingleClaimService(store.NewGormHiddenSet(testutil.OpenTestDB(t)), nil, nil, ids)
	c := NewCommands("hs?", func(id string) bool { return id == ownerID }, nil, single)

	if got := run(t, c, ownerID, "hs?add "+itemID).Content; got != "`"+itemID+"` has been hidden." {
		t.Fatalf("add reply = %q", got)
	}
	if got := run(t, c, ownerID, "hs?check").Content; got != "`"+itemID+"`" {
		t.Fatalf("check reply = %q", got)
	}
	if got := run(t, c, ownerID, "hs?remove "+itemID).Content; got != "`"+itemID+"` has been removed." {
		t.Fatalf("remove reply = %q", got)
	}
	if got := run(t, c, userID, "hs?lb").Content; got != "Not available in single-claim mode." {
		t.Fatalf("lb reply = %q", got)
	}
}

func TestFitReplyMovesLongTextToFile(t *testing.T) {
	long := strings.Repeat("x", maxReplyLength+1)
	r := fitReply(Reply{Content: long})
	if r.Content != "" || r.FileName != "data.txt" || r.FileBody != long {
		t.Fatalf("fitReply = %+v", r)
	}
}
