package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"raw with payload", &tele.Callback{Data: Data("redeem", "2")}, "redeem", "2"},
		{"raw without payload", &tele.Callback{Data: Data("setup_cancel", "")}, "setup_cancel", ""},
		{"pipe in payload", &tele.Callback{Data: "\fredeem|2|x"}, "redeem", "2|x"},
		{"resolved by telebot", &tele.Callback{Unique: "redeem", Data: "3"}, "redeem", "3"},
		{"plain data", &tele.Callback{Data: "legacy"}, "legacy", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			key, payload := Parse(c.cb)
			if key != c.key || payload != c.payload {
				t.Fatalf("Parse = (%q, %q), want (%q, %q)", key, payload, c.key, c.payload)
			}
		})
	}
}
