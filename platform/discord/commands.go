// platform/discord/commands.go
package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"hide-seek-bot/models"
	"hide-seek-bot/services"
)

const maxReplyLength = 2000

var mentionPattern = regexp.MustCompile(`^<@!?([0-9]+)>$`)

// Reply is what a command answers with. Long text goes out as a file attachment.
type Reply struct {
	Content     string
	Title       string
	Description string
	FileName    string
	FileBody    string
}

func (r Reply) FileReader() *strings.Reader { return strings.NewReader(r.FileBody) }

// Commands executes prefixed chat commands. admin is nil in single-claim mode, single is nil in scored mode.
type Commands struct {
	prefix  string
	isAdmin func(userID string) bool
	admin   *services.AdminService
	single  *services.SingleClaimService
}

func NewCommands(prefix string, isAdmin func(string) bool, admin *services.AdminService, single *services.SingleClaimService) *Commands {
	return &Commands{prefix: prefix, isAdmin: isAdmin, admin: admin, single: single}
}

// Execute runs content as a command for authorID. ok is false when nothing should be sent back.
func (c *Commands) Execute(ctx context.Context, authorID, content string) (Reply, bool) {
	if !strings.HasPrefix(content, c.prefix) {
		return Reply{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, c.prefix))
	if len(fields) == 0 {
		return Reply{}, false
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	var reply Reply
	var err error
	switch command {
	case "add", "remove", "check", "dump":
		if !c.isAdmin(authorID) {
			return Reply{}, false
		}
		reply, err = c.adminCommand(ctx, command, args)
	case "leaderboard", "lb":
		reply, err = c.leaderboard(ctx, command, args)
	case "points", "pts":
		reply, err = c.points(ctx, command, authorID, args)
	default:
		return Reply{}, false
	}

	if err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			return Reply{Content: "**Usage:** `" + c.prefix + string(usage) + "`"}, true
		}
		log.Printf("❌ [COMMAND] %s%s failed: %v", c.prefix, command, err)
		if errors.Is(err, services.ErrStoreUnavailable) {
			return Reply{Content: "The database is unavailable right now, try again in a moment."}, true
		}
		return Reply{Content: "Something went wrong running that command."}, true
	}
	return fitReply(reply), true
}

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

func (c *Commands) adminCommand(ctx context.Context, command string, args []string) (Reply, error) {
	if c.single != nil {
		return c.singleCommand(ctx, command, args)
	}
	if c.admin == nil {
		return Reply{}, usageError("leaderboard [page = 1]")
	}

	switch command {
	case "add":
		usage := usageError(fmt.Sprintf("add <%s> <message ID>", strings.Join(models.PresetNames(), " | ")))
		if len(args) != 2 {
			return Reply{}, usage
		}
		existed, err := c.admin.RegisterPreset(ctx, args[0], args[1])
		if errors.Is(err, services.ErrInvalidInput) {
			return Reply{}, usage
		}
		if err != nil {
			return Reply{}, err
		}
		if existed {
			return Reply{Content: fmt.Sprintf("That message is already added. If you want to set it differently, use `%sremove %s` first.", c.prefix, args[1])}, nil
		}
		return Reply{Content: fmt.Sprintf("`%s` has been added. Use `%scheck [message ID]` to view info on a specific message or all recorded messages.", args[1], c.prefix)}, nil

	case "remove":
		usage := usageError("remove <message ID>")
		if len(args) != 1 {
			return Reply{}, usage
		}
		existed, err := c.admin.UnregisterItem(ctx, args[0])
		if errors.Is(err, services.ErrInvalidInput) {
			return Reply{}, usage
		}
		if err != nil {
			return Reply{}, err
		}
		if !existed {
			return Reply{Content: "That message is not in the database."}, nil
		}
		return Reply{Content: fmt.Sprintf("`%s` has been removed.", args[0])}, nil

	case "check":
		usage := usageError("check [message ID]")
		switch len(args) {
		case 0:
			items, err := c.admin.Items(ctx)
			if err != nil {
				return Reply{}, err
			}
			if len(items) == 0 {
				return Reply{Content: "No messages are recorded."}, nil
			}
			lines := make([]string, 0, len(items))
			for _, item := range items {
				lines = append(lines, services.DescribeItem(item))
			}
			return Reply{Content: strings.Join(lines, "\n")}, nil
		case 1:
			item, err := c.admin.Item(ctx, args[0])
			if errors.Is(err, services.ErrInvalidInput) {
				return Reply{}, usage
			}
			if err != nil {
				return Reply{}, err
			}
			if item == nil {
				return Reply{Content: fmt.Sprintf("`%s` is not in the database.", args[0])}, nil
			}
			return Reply{Content: services.DescribeItem(*item)}, nil
		default:
			return Reply{}, usage
		}

	case "dump":
		report, err := c.admin.Dump(ctx)
		if err != nil {
			return Reply{}, err
		}
		reply := Reply{FileName: "dump.txt", FileBody: report}
		if url, err := c.admin.ArchiveDump(ctx); err == nil {
			reply.Content = "Archived at " + url
		} else if !errors.Is(err, services.ErrArchiveDisabled) {
			log.Printf("⚠️ [COMMAND] Dump archive failed: %v", err)
		}
		return reply, nil
	}
	return Reply{}, nil
}

func (c *Commands) singleCommand(ctx context.Context, command string, args []string) (Reply, error) {
	switch command {
	case "add":
		if len(args) != 1 {
			return Reply{}, usageError("add <message ID>")
		}
		if err := c.single.Hide(ctx, args[0]); err != nil {
			if errors.Is(err, services.ErrInvalidInput) {
				return Reply{}, usageError("add <message ID>")
			}
			return Reply{}, err
		}
		return Reply{Content: fmt.Sprintf("`%s` has been hidden.", args[0])}, nil

	case "remove":
		if len(args) != 1 {
			return Reply{}, usageError("remove <message ID>")
		}
		removed, err := c.single.Unhide(ctx, args[0])
		if err != nil {
			if errors.Is(err, services.ErrInvalidInput) {
				return Reply{}, usageError("remove <message ID>")
			}
			return Reply{}, err
		}
		if !removed {
			return Reply{Content: "That message is not hidden."}, nil
		}
		return Reply{Content: fmt.Sprintf("`%s` has been removed.", args[0])}, nil

	case "check":
		ids, err := c.single.Hidden(ctx)
		if err != nil {
			return Reply{}, err
		}
		if len(ids) == 0 {
			return Reply{Content: "No messages are hidden."}, nil
		}
		lines := make([]string, 0, len(ids))
		for _, id := range ids {
			lines = append(lines, "`"+id+"`")
		}
		return Reply{Content: strings.Join(lines, "\n")}, nil
	}
	return Reply{Content: "Not available in single-claim mode."}, nil
}

func (c *Commands) leaderboard(ctx context.Context, command string, args []string) (Reply, error) {
	usage := usageError(command + " [page = 1]")
	if c.admin == nil {
		return Reply{Content: "Not available in single-claim mode."}, nil
	}
	if len(args) > 1 {
		return Reply{}, usage
	}
	page := 1
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return Reply{}, usage
		}
		page = n
	}

	scores, err := c.admin.LeaderboardPage(ctx, page)
	if errors.Is(err, services.ErrInvalidInput) {
		return Reply{}, usage
	}
	if err != nil {
		return Reply{}, err
	}
	lines := make([]string, 0, len(scores))
	for _, s := range scores {
		lines = append(lines, fmt.Sprintf("<@%s>: %s", s.UserID, services.Plural(s.Points, "point")))
	}
	return Reply{Title: "Hide & Seek Leaderboard", Description: strings.Join(lines, "\n")}, nil
}

func (c *Commands) points(ctx context.Context, command, authorID string, args []string) (Reply, error) {
	usage := usageError(command + " <user ID>")
	if c.admin == nil {
		return Reply{Content: "Not available in single-claim mode."}, nil
	}
	if len(args) > 1 {
		return Reply{}, usage
	}
	userID := authorID
	if len(args) == 1 {
		userID = args[0]
		if m := mentionPattern.FindStringSubmatch(args[0]); m != nil {
			userID = m[1]
		}
	}

	points, err := c.admin.QueryScore(ctx, userID)
	if errors.Is(err, services.ErrInvalidInput) {
		return Reply{}, usage
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{Title: "Hide & Seek Score", Description: fmt.Sprintf("<@%s> has %s!", userID, services.Plural(points, "point"))}, nil
}

// fitReply moves text that would exceed the message limit into an attachment.
func fitReply(r Reply) Reply {
	if len(r.Content) <= maxReplyLength || r.FileName != "" {
		return r
	}
	return Reply{FileName: "data.txt", FileBody: r.Content}
}
