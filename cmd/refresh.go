package cmd

import (
	"fmt"
	"sort"
	"strings"

	"roleboard/feature/snapshot"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	refreshRoles  string
	refreshUser   string
	refreshBot    string
	refreshToken  string
	refreshImport bool
)

// refreshCmd runs one refresh outside the server.
var refreshCmd = &cobra.Command{
	Use:   "refresh <uid>",
	Short: "Refresh the stored characters of one account",
	Long: `Fetches the roster of an account from the game-data API, sanitizes and scores
every character and syncs the result into the snapshot store.

Examples:
  # Refresh everything using the stored credential
  refresh 100000001

  # Refresh two characters only
  refresh 100000001 --roles 1205,1501

  # Rebuild from the archived raw data instead of the API
  refresh 100000001 --import`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		uid := args[0]
		l := a.logger.With(zap.String("uid", uid))

		var res *snapshot.RefreshResult
		if refreshImport {
			res, err = a.snapshots.Import(cmd.Context(), uid)
		} else {
			bot := refreshBot
			if bot == "" {
				bot = a.cfg.Server.BotID
			}
			res, err = a.snapshots.Refresh(cmd.Context(), snapshot.RefreshRequest{
				UID:        uid,
				UserID:     refreshUser,
				BotID:      bot,
				Credential: refreshToken,
				Owner:      refreshToken != "",
				Selection:  snapshot.Selection{RoleIDs: splitList(refreshRoles)},
			})
		}
		if err != nil {
			return fmt.Errorf("refresh %s: %w", uid, err)
		}

		l.Info("Refresh summary",
			zap.Bool("owner", res.Owner),
			zap.Int("characters", res.Characters),
			zap.Strings("updated", res.Updated),
			zap.Strings("unchanged", res.Unchanged),
			zap.Strings("removed", res.Removed),
		)
		ids := make([]string, 0, len(res.Scores))
		for id := range res.Scores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			s := res.Scores[id]
			l.Info("Character",
				zap.String("role_id", id),
				zap.String("status", string(s.Status)),
				zap.Float64("score", s.Score),
				zap.Float64("damage", s.Damage),
			)
		}
		return nil
	},
}

// splitList parses a comma separated flag, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func init() {
	refreshCmd.Flags().StringVar(&refreshRoles, "roles", "", "Comma separated role ids to refresh (default all)")
	refreshCmd.Flags().StringVar(&refreshUser, "user", "", "Platform user id used for the credential lookup")
	refreshCmd.Flags().StringVar(&refreshBot, "bot", "", "Platform bot id (defaults to server.bot_id)")
	refreshCmd.Flags().StringVar(&refreshToken, "token", "", "Use this credential instead of the stored one")
	refreshCmd.Flags().BoolVar(&refreshImport, "import", false, "Rebuild from the archived raw data")
	RootCmd.AddCommand(refreshCmd)
}
