package utils

import (
	tele "gopkg.in/telebot.v3"
)

const (
	ActionFeed    = "feed"
	ActionSignals = "signals"
)

func MainMenuKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}

	btnFeed := menu.Text("📰 Feed")
	btnConnections := menu.Text("🤝 Connections")
	btnSignals := menu.Text("📡 Signals")
	btnHelp := menu.Text("❓ Help")

	menu.Reply(
		menu.Row(btnFeed, btnConnections),
		menu.Row(btnSignals, btnHelp),
	)

	return menu
}

// FeedSwitchKeyboard offers the other feed views below a rendered feed.
func FeedSwitchKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	btnSmart := menu.Data("✨ For you", ActionFeed, "smart")
	btnConnections := menu.Data("🤝 Connections", ActionFeed, "connections")
	btnOwn := menu.Data("📝 My posts", ActionFeed, "own")
	btnSignals := menu.Data("📡 Signals", ActionSignals)

	menu.Inline(
		menu.Row(btnSmart, btnConnections),
		menu.Row(btnOwn, btnSignals),
	)

	return menu
}
