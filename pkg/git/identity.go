package git

import (
	"context"

	"autocoder/pkg/taskerr"
)

// Committer identity applied when the clone has none.
const (
	BotName  = "Autocoder Bot"
	BotEmail = "autocoder@example.com"
)

// ensureIdentity sets user.name and user.email when they are unset. Each
// key is checked and set on its own. The check runs once per Gateway.
func (g *Gateway) ensureIdentity(ctx context.Context) error {
	if g.identityConfigured {
		return nil
	}

	for _, kv := range [][2]string{{"user.name", BotName}, {"user.email", BotEmail}} {
		key, value := kv[0], kv[1]

		// git config <key> exits 1 when the key is unset.
		res, err := g.run(ctx, false, "config", key)
		if err != nil {
			return err
		}
		if res.Success() {
			continue
		}

		g.logger.Debug("Setting git %s to %q", key, value)
		if err := g.mustRun(ctx, "config", "config", key, value); err != nil {
			return taskerr.Wrap(err, "Failed to configure git %s", key)
		}
	}

	g.identityConfigured = true
	return nil
}
