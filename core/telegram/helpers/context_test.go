package helpers

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rewardbot/core/logger"
)

func newContext(t *testing.T) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return b.NewContext(tele.Update{
		ID: 3,
		Message: &tele.Message{
			Sender: &tele.User{ID: 9},
			Chat:   &tele.Chat{ID: 9, Type: tele.ChatPrivate},
		},
	})
}

func TestBuildContextWithoutMiddleware(t *testing.T) {
	c := newContext(t)
	ctx := BuildContext(c)

	rid, _ := c.Get(ridKey).(string)
	if rid == "" || logger.RIDFrom(ctx) != rid {
		t.Fatalf("rid = %q, ctx rid = %q", rid, logger.RIDFrom(ctx))
	}
	if logger.UserIDFrom(ctx) != 9 {
		t.Fatalf("user id = %d", logger.UserIDFrom(ctx))
	}
	if again := BuildContext(c); again != ctx {
		t.Fatal("second call must reuse the stored context")
	}
}

func TestWithHandlerKeepsRID(t *testing.T) {
	c := newContext(t)
	c.Set(ridKey, "fixed")

	ctx := WithHandler(c, "/points")
	if logger.HandlerFrom(ctx) != "/points" || logger.RIDFrom(ctx) != "fixed" {
		t.Fatalf("handler = %q, rid = %q", logger.HandlerFrom(ctx), logger.RIDFrom(ctx))
	}
	if stored, _ := ContextFrom(c); stored != ctx {
		t.Fatal("handler context not stored")
	}
}
