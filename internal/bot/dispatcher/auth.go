package dispatcher

import (
	"errors"

	"github.com/dmitrijs2005/diarybot/internal/common"
)

const bridgeMissingMsg = "The web app is not configured for this bot."

// handleAuthLink finishes a sign-in started on the web app, which sends the
// user here with /start auth_<token>.
func (d *Dispatcher) handleAuthLink(r *request, token string) {
	if d.bridge == nil {
		r.reply(bridgeMissingMsg)
		return
	}
	if token == "" {
		r.reply("❌ The sign-in link is incomplete. Request a new one on the web app.")
		return
	}

	err := d.bridge.Link(r.ctx, token, r.user)
	switch {
	case err == nil:
		d.log.Info(r.ctx, "account linked", "user_id", r.user.ID)
		r.reply("✅ Your account is linked to the web app!\nYou can go back to the browser now.")
	case errors.Is(err, common.ErrInvalidToken):
		r.reply("❌ The sign-in link is invalid or expired. Request a new one on the web app.")
	default:
		r.fail(err, "❌ Could not reach the web app. Please try again later.")
	}
}

func (d *Dispatcher) handleWeb(r *request) {
	if d.bridge == nil {
		r.reply(bridgeMissingMsg)
		return
	}

	link, err := d.bridge.RequestLink(r.ctx)
	if err != nil {
		r.fail(err, "❌ Could not create a sign-in link. Please try again later.")
		return
	}

	msg := "🌐 Sign in to the web app:\n\n1. Open the link:\n" + link.URL + "\n\n2. Confirm the sign-in there."
	if link.ExpiresAt != "" {
		msg += "\n\n⏰ The link expires at " + link.ExpiresAt + "."
	}
	r.reply(msg)
}
