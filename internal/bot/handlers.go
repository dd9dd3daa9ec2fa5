package bot

import (
	"fmt"

	"log/slog"

	"github.com/m3rciful/librobot/core/buildinfo"
	"github.com/m3rciful/librobot/core/logger"
	tghelpers "github.com/m3rciful/librobot/core/telegram/helpers"
	"github.com/m3rciful/librobot/core/telegram/keyboard"
	"github.com/m3rciful/librobot/internal/dialog"

	tele "gopkg.in/telebot.v4"
)

const msgTryAgain = "Something went wrong, please try again."

// HandleText drives one dialog turn for the sender.
func (a *App) HandleText(c tele.Context) error {
	text := c.Text()
	return a.step(c, dialog.Input{Text: text, Action: NormalizeAction(text)})
}

func (a *App) handleStart(c tele.Context) error {
	return a.step(c, dialog.Input{Action: dialog.ActionReset})
}

func (a *App) handleVersion(c tele.Context) error {
	date := buildinfo.Date
	if date == "" {
		date = "unknown"
	}
	return tghelpers.SendMD(c, fmt.Sprintf(
		"`librobot %s` (%s, built %s)", buildinfo.Version, buildinfo.Commit, date,
	))
}

// step runs the machine against the stored session and commits the result.
// On a storage error the session stays as it was, so the user can repeat the
// same input once the registry is reachable again.
func (a *App) step(c tele.Context, in dialog.Input) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	sess := a.sessions.Get(userID)
	next, reply, err := a.machine.Step(ctx, sess, in)
	if err != nil {
		logger.Error(ctx, "bot", "dialog.step.fail",
			slog.String("state", string(sess.State)),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, msgTryAgain)
	}

	a.sessions.Put(userID, next)
	return a.send(c, reply)
}

func (a *App) send(c tele.Context, reply dialog.Reply) error {
	if len(reply.Keyboard) > 0 {
		markup := keyboard.ReplyRows(reply.OneTime, reply.Keyboard...)
		return tghelpers.SendWithKeyboard(c, reply.Text, markup)
	}
	return tghelpers.SendWithKeyboard(c, reply.Text, keyboard.RemoveKeyboard())
}
