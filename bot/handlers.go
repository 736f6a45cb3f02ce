package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rewardbot/core/telegram/callbacks"
	"github.com/m3rciful/rewardbot/core/telegram/commands"
	"github.com/m3rciful/rewardbot/core/telegram/format"
	tghelpers "github.com/m3rciful/rewardbot/core/telegram/helpers"
	"github.com/m3rciful/rewardbot/core/telegram/keyboard"
	"github.com/m3rciful/rewardbot/ledger"
)

const (
	cbRedeem      = "redeem"
	cbSetupCancel = "setup_cancel"

	redeemButtonsPerRow = 4
	// Telegram rejects messages over 4096 characters.
	maxMessageLen = 4000
	maxEchoLen    = 64
	// Escaping at most doubles a line, which keeps it inside one message.
	maxLineRunes = 1000
)

func (a *App) register() error {
	cmds := map[string]commands.Command{
		"/start":      {Handler: a.handleStart, Description: "Mulai bot & inisiasi akun"},
		"/help":       {Handler: a.handleHelp, Description: "Panduan penggunaan"},
		"/setrewards": {Handler: a.handleSetRewards, Description: "Buat daftar reward"},
		"/rewards":    {Handler: a.handleRewards, Description: "Lihat daftar reward"},
		"/points":     {Handler: a.handlePoints, Description: "Lihat poin"},
		"/add":        {Handler: a.handleAdd, Description: "Tambah poin dari tugas"},
		"/redeem":     {Handler: a.handleRedeem, Description: "Tukar poin dengan reward"},
		"/history":    {Handler: a.handleHistory, Description: "Lihat riwayat"},
		"/cancel":     {Handler: a.handleCancel, Description: "Batalkan pengisian reward"},
		"/stats":      {Handler: a.handleStats, Description: "Statistik ledger", AdminOnly: true, Hidden: true},
	}
	for name, cmd := range cmds {
		a.registry.RegisterCommand(name, cmd)
	}
	if err := a.registry.RegisterCallback(cbRedeem, a.handleRedeemCallback); err != nil {
		return err
	}
	return a.registry.RegisterCallback(cbSetupCancel, a.handleSetupCancelCallback)
}

// requestOf returns the logging context and ledger key of the update's sender.
func requestOf(c tele.Context) (context.Context, string, bool) {
	user := c.Sender()
	if user == nil {
		return nil, "", false
	}
	return tghelpers.BuildContext(c), strconv.FormatInt(user.ID, 10), true
}

// fail tells the user something broke and hands err to the bot's error hook.
func fail(c tele.Context, err error) error {
	_ = tghelpers.SendText(c, textFailure)
	return err
}

func (a *App) handleStart(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	if _, err := a.svc.Account(ctx, id); err != nil {
		return fail(c, err)
	}
	return tghelpers.SendText(c, textWelcome)
}

func (a *App) handleHelp(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	if _, err := a.svc.Account(ctx, id); err != nil {
		return fail(c, err)
	}
	return tghelpers.SendMD(c, textHelp)
}

func (a *App) handleSetRewards(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	if err := a.svc.BeginRewardSetup(ctx, id); err != nil {
		return fail(c, err)
	}
	return tghelpers.SendMD(c, textSetupPrompt, keyboard.SingleCancelMarkup(cbSetupCancel, textCancelButton))
}

func (a *App) handleRewards(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	acc, err := a.svc.Account(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if len(acc.Rewards) == 0 {
		return tghelpers.SendText(c, textRewardsEmpty)
	}

	lines := make([]string, 0, len(acc.Rewards))
	buttons := make([]keyboard.InlineBtn, 0, len(acc.Rewards))
	for i, r := range acc.Rewards {
		n := i + 1
		lines = append(lines, fmt.Sprintf(textRewardLine, n, r.Points, format.MD(truncate(r.Name, maxLineRunes))))
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   fmt.Sprintf(textRedeemButton, n),
			Unique: cbRedeem,
			Data:   strconv.Itoa(n),
		})
	}
	// Lists stored before the size limit may exceed one keyboard.
	if len(buttons) > ledger.MaxRewards {
		buttons = buttons[:ledger.MaxRewards]
	}
	chunks := chunkMessages(textRewardsHeader, lines)
	for _, chunk := range chunks[:len(chunks)-1] {
		if err := tghelpers.SendMD(c, chunk); err != nil {
			return err
		}
	}
	return tghelpers.SendMD(c, chunks[len(chunks)-1], keyboard.InlineButtonsNPerRow(buttons, redeemButtonsPerRow))
}

func (a *App) handlePoints(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	acc, err := a.svc.Account(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf(textPoints, acc.Points))
}

// handleAdd treats the last argument as the amount and the rest as the task name.
func (a *App) handleAdd(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	if _, err := a.svc.Account(ctx, id); err != nil {
		return fail(c, err)
	}
	args := c.Args()
	if len(args) < 2 {
		return tghelpers.SendText(c, textAddUsage)
	}
	amount, err := ledger.ParsePoints(args[len(args)-1])
	if err != nil {
		return tghelpers.SendText(c, textAddBadPoints)
	}
	task := strings.Join(args[:len(args)-1], " ")

	acc, err := a.svc.Add(ctx, id, task, amount)
	switch {
	case errors.Is(err, ledger.ErrEmptyTask):
		return tghelpers.SendText(c, textAddUsage)
	case errors.Is(err, ledger.ErrInvalidPoints):
		return tghelpers.SendText(c, textAddBadPoints)
	case err != nil:
		return fail(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf(textAdded, truncate(task, maxLineRunes), amount, acc.Points))
}

func (a *App) handleRedeem(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	if _, err := a.svc.Account(ctx, id); err != nil {
		return fail(c, err)
	}
	args := c.Args()
	if len(args) == 0 {
		return tghelpers.SendText(c, textRedeemUsage)
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return tghelpers.SendText(c, textRedeemBadIndex)
	}
	reply, err := a.redeem(ctx, id, index)
	if err != nil {
		return fail(c, err)
	}
	return tghelpers.SendText(c, reply)
}

func (a *App) handleRedeemCallback(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return c.Respond()
	}
	index, err := callbacks.PayloadInt(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: textRedeemBadIndex})
	}
	reply, err := a.redeem(ctx, id, index)
	if err != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: textFailure})
		return err
	}
	if err := tghelpers.SendText(c, reply); err != nil {
		return err
	}
	return c.Respond()
}

// redeem maps rule violations to replies; only storage failures come back as errors.
func (a *App) redeem(ctx context.Context, id string, index int) (string, error) {
	reward, acc, err := a.svc.Redeem(ctx, id, index)
	switch {
	case errors.Is(err, ledger.ErrInvalidIndex):
		return textRedeemNoIndex, nil
	case errors.Is(err, ledger.ErrInsufficientPoints):
		return textRedeemNoPoints, nil
	case err != nil:
		return "", err
	}
	return fmt.Sprintf(textRedeemed, reward.Name, reward.Points, acc.Points), nil
}

func (a *App) handleHistory(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	acc, err := a.svc.Account(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if len(acc.History) == 0 {
		return tghelpers.SendText(c, textHistoryEmpty)
	}
	for _, chunk := range historyMessages(acc.History) {
		if err := tghelpers.SendMD(c, chunk); err != nil {
			return err
		}
	}
	return nil
}

func historyMessages(history []string) []string {
	lines := make([]string, len(history))
	for i, entry := range history {
		lines[i] = "- " + format.MD(truncate(entry, maxLineRunes)) + "\n"
	}
	return chunkMessages(textHistoryHeader, lines)
}

// chunkMessages packs header and lines into as few messages as Telegram's
// length limit allows. Lines are never split; the header opens the first message.
func chunkMessages(header string, lines []string) []string {
	var (
		out []string
		b   strings.Builder
		n   int
	)
	b.WriteString(header)
	for _, line := range lines {
		if n > 0 && b.Len()+len(line) > maxMessageLen {
			out = append(out, b.String())
			b.Reset()
			n = 0
		}
		b.WriteString(line)
		n++
	}
	return append(out, b.String())
}

func (a *App) handleCancel(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	reply, err := a.cancelSetup(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return tghelpers.SendText(c, reply)
}

func (a *App) handleSetupCancelCallback(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return c.Respond()
	}
	reply, err := a.cancelSetup(ctx, id)
	if err != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: textFailure})
		return err
	}
	if err := tghelpers.EditOrSendMD(c, reply); err != nil {
		return err
	}
	return c.Respond()
}

func (a *App) cancelSetup(ctx context.Context, id string) (string, error) {
	was, err := a.svc.CancelRewardSetup(ctx, id)
	if err != nil {
		return "", err
	}
	if !was {
		return textNothingToStop, nil
	}
	return textCancelled, nil
}

func (a *App) handleStats(c tele.Context) error {
	st, err := a.svc.Stats(tghelpers.BuildContext(c))
	if err != nil {
		return fail(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf(textStats, st.Accounts, st.Points))
}

// rewardSetup claims plain text while the sender's account is in reward-setup mode.
type rewardSetup struct {
	app *App
}

func (s rewardSetup) InProgress(ctx context.Context, userID int64) (bool, error) {
	return s.app.svc.InRewardSetup(ctx, strconv.FormatInt(userID, 10))
}

func (s rewardSetup) ManagerHandler(c tele.Context) error {
	ctx, id, ok := requestOf(c)
	if !ok {
		return nil
	}
	rewards, handled, err := s.app.svc.SubmitRewards(ctx, id, c.Text())
	if err != nil {
		if reply, ok := parseErrorReply(err); ok {
			return tghelpers.SendText(c, reply)
		}
		return fail(c, err)
	}
	if !handled {
		return nil
	}
	return tghelpers.SendText(c, fmt.Sprintf(textRewardsSaved, len(rewards)))
}

func parseErrorReply(err error) (string, bool) {
	switch {
	case errors.Is(err, ledger.ErrNoRewardLines):
		return textParseNoLines, true
	case errors.Is(err, ledger.ErrTooManyRewards):
		return fmt.Sprintf(textParseTooMany, ledger.MaxRewards), true
	}
	var perr *ledger.ParseError
	if !errors.As(err, &perr) {
		return "", false
	}
	reason := reasonMalformed
	switch {
	case errors.Is(perr.Err, ledger.ErrInvalidPoints):
		reason = reasonBadPoints
	case errors.Is(perr.Err, ledger.ErrMissingName):
		reason = reasonMissingName
	case errors.Is(perr.Err, ledger.ErrNameTooLong):
		reason = fmt.Sprintf(reasonNameTooLong, ledger.MaxRewardNameLen)
	}
	return fmt.Sprintf(textParseLine, perr.Line, truncate(perr.Text, maxEchoLen), reason), true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
