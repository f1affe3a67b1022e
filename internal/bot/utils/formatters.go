package utils

import (
	"fmt"
	"strings"
	"time"

	"signalnet/internal/models"
)

const previewLength = 200

// FormatFeedEntry renders one ranked post.
func FormatFeedEntry(i int, entry models.ScoredPost) string {
	var sb strings.Builder

	author := "Someone"
	if entry.Author != nil && entry.Author.FullName != nil && *entry.Author.FullName != "" {
		author = *entry.Author.FullName
	}

	sb.WriteString(fmt.Sprintf("*%d\\. %s* · _%s_\n",
		i,
		EscapeMarkdown(author),
		EscapeMarkdown(models.GetPostTypeDisplayName(entry.PostType)),
	))

	sb.WriteString(EscapeMarkdown(TruncateString(entry.Content, previewLength)))
	sb.WriteString("\n")

	if entry.City != nil && *entry.City != "" {
		sb.WriteString(fmt.Sprintf("📍 %s\n", EscapeMarkdown(*entry.City)))
	}

	if entry.MatchReason != "" {
		sb.WriteString(fmt.Sprintf("✨ %s\n", EscapeMarkdown(entry.MatchReason)))
	}

	return sb.String()
}

func FormatFeed(title string, entries []models.ScoredPost, limit int) string {
	if len(entries) == 0 {
		return FormatEmptyFeedMessage()
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*\n\n", EscapeMarkdown(title)))

	for i, entry := range entries {
		sb.WriteString(FormatFeedEntry(i+1, entry))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatSignals lists active signals with the days they have left.
func FormatSignals(signals []models.UserSignalWithCategory, now time.Time) string {
	if len(signals) == 0 {
		return "ℹ️ You have no active signals\\. Pick some in the app\\."
	}

	var sb strings.Builder
	sb.WriteString("*📡 Your signals:*\n\n")

	for _, us := range signals {
		line := fmt.Sprintf("• *%s:* %s",
			EscapeMarkdown(us.Signal.Category.Name),
			EscapeMarkdown(us.Signal.Label),
		)
		if days := us.DaysUntilExpiration(now); days != nil {
			line += EscapeMarkdown(fmt.Sprintf(" (%s)", formatDaysLeft(*days)))
		}
		sb.WriteString(line + "\n")
	}

	return sb.String()
}

func formatDaysLeft(days int) string {
	switch days {
	case 0:
		return "expires today"
	case 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

func FormatWelcomeMessage(name string) string {
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf(`👋 Hi, *%s*\!

Your account is linked\. I can show you what your network is up to\.

*Commands:*
/feed \- posts matched to your signals
/connections \- posts from your connections
/signals \- your active signals
/help \- help`, EscapeMarkdown(name))
}

func FormatLinkInstructions() string {
	return `👋 *Welcome\!*

To link this chat, open the app, request a Telegram link code and send it here:

` + "`/start <code>`"
}

func FormatHelpMessage() string {
	return `*📖 Help*

/start \<code\> \- link this chat to your profile
/feed \- top posts matched to your signals
/connections \- top posts from your connections
/signals \- your active signals and their expiry
/help \- this message

Manage posts, signals and connections in the app\.`
}

func FormatNotLinkedMessage() string {
	return `⚠️ *This chat is not linked*

Request a link code in the app, then send ` + "`/start <code>`" + `\.`
}

func FormatEmptyFeedMessage() string {
	return `😔 *Nothing here yet*

Add signals or connect with people to fill your feed\.`
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	// \ _ * [ ] ( ) ~ ` > # + - = | { } . !
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)

	return replacer.Replace(text)
}

// TruncateString cuts on rune boundaries.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
