package cmd

import (
	"fmt"

	"roleboard/feature/ranking"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rankType  string
	rankPage  int
	rankSize  int
	rankUID   string
	rankGroup string
	rankLimit int
)

// rankCmd is the parent command for leaderboard queries.
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Query the leaderboards",
}

var rankGlobalCmd = &cobra.Command{
	Use:   "global <roleId>",
	Short: "Show one page of a character's global ranking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		board, err := a.ranking.TopWithSelf(cmd.Context(), args[0], ranking.ParseRankType(rankType), rankPage, rankSize, rankUID)
		if err != nil {
			return fmt.Errorf("global rank %s: %w", args[0], err)
		}
		l := a.logger.With(zap.String("role_id", args[0]))
		l.Info("Global ranking",
			zap.String("type", string(board.Type)),
			zap.Int("page", board.Page.Page),
			zap.Int64("total", board.Total),
			zap.Float64("avg_score", board.AvgScore),
			zap.Float64("avg_damage", board.AvgDamage),
		)
		for _, e := range board.Entries {
			logEntry(l, e)
		}
		if board.Self != nil && board.AppendedSelf {
			logEntry(l.With(zap.Bool("self", true)), *board.Self)
		}
		return nil
	},
}

var rankSelfCmd = &cobra.Command{
	Use:   "self <roleId> <uid>",
	Short: "Show an account's rank for one character",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		rank, err := a.ranking.SelfRank(cmd.Context(), args[1], args[0], ranking.ParseRankType(rankType))
		if err != nil {
			return err
		}
		l := a.logger.With(zap.String("role_id", args[0]), zap.String("uid", args[1]))
		if rank == nil {
			l.Info("No rank")
			return nil
		}
		l.Info("Self rank", zap.Int("rank", *rank))
		return nil
	},
}

var rankGroupCmd = &cobra.Command{
	Use:   "group <roleId>",
	Short: "Rank one character among the accounts bound in a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if rankGroup == "" {
			return fmt.Errorf("--group is required")
		}
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		entries, err := a.ranking.GroupRank(cmd.Context(), nil, rankGroup, args[0], ranking.ParseRankType(rankType), rankLimit)
		if err != nil {
			return err
		}
		l := a.logger.With(zap.String("role_id", args[0]), zap.String("group_id", rankGroup))
		l.Info("Group ranking", zap.Int("entries", len(entries)))
		for _, e := range entries {
			logEntry(l, e)
		}
		return nil
	},
}

var rankTotalCmd = &cobra.Command{
	Use:   "total",
	Short: "Show one page of the total power ranking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		board, err := a.ranking.TotalRank(cmd.Context(), rankPage, rankSize, rankUID)
		if err != nil {
			return err
		}
		l := a.logger
		l.Info("Total ranking", zap.Int("page", board.Page), zap.Int64("total", board.Total))
		for _, e := range board.Entries {
			logTotal(l, e)
		}
		if board.Self != nil {
			logTotal(l.With(zap.Bool("self", true)), *board.Self)
		}
		return nil
	},
}

func logEntry(l *zap.Logger, e ranking.Entry) {
	l.Info("Entry",
		zap.Int("rank", e.Rank),
		zap.String("uid", e.UID),
		zap.String("role_name", e.RoleName),
		zap.Int("chain", e.ChainNum),
		zap.Float64("score", e.Score),
		zap.String("damage", e.DamageText),
	)
}

func logTotal(l *zap.Logger, e ranking.TotalEntry) {
	l.Info("Entry",
		zap.Int("rank", e.Rank),
		zap.String("uid", e.UID),
		zap.Float64("total_score", e.TotalScore),
		zap.Int("characters", e.CharCount),
	)
}

func init() {
	for _, c := range []*cobra.Command{rankGlobalCmd, rankSelfCmd, rankGroupCmd} {
		c.Flags().StringVar(&rankType, "type", string(ranking.ByScore), "Ranking type (score, damage)")
	}
	for _, c := range []*cobra.Command{rankGlobalCmd, rankTotalCmd} {
		c.Flags().IntVar(&rankPage, "page", 1, "Page number")
		c.Flags().IntVar(&rankSize, "size", 0, "Page size (default ranking.page_size)")
		c.Flags().StringVar(&rankUID, "uid", "", "Account to locate on the board")
	}
	rankGroupCmd.Flags().StringVar(&rankGroup, "group", "", "Group id whose bound accounts are ranked")
	rankGroupCmd.Flags().IntVar(&rankLimit, "limit", 0, "Maximum entries (default ranking.group_limit)")

	rankCmd.AddCommand(rankGlobalCmd, rankSelfCmd, rankGroupCmd, rankTotalCmd)
	RootCmd.AddCommand(rankCmd)
}
