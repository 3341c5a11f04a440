package commands

import (
	"errors"
	"fmt"
	"strings"

	"auction-harvester/services"

	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listOffset int
)

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 25, "number of auctions to show (0 for all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "number of auctions to skip")
	rootCmd.AddCommand(listCmd, showCmd, deleteCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [-n <limit>] [--offset <n>]",
	Short: "Lists stored auctions, latest end date first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		auctions, total, err := services.NewAuctionRepository(nil).ListAuctions(cmd.Context(), listLimit, listOffset)
		if err != nil {
			return err
		}
		renderAuctions(cmd.OutOrStdout(), auctions, total)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <identity>",
	Short: "Shows one stored auction with its asset.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := strings.ToUpper(strings.TrimSpace(args[0]))
		auction, err := services.NewAuctionRepository(nil).GetAuctionWithAsset(cmd.Context(), identity)
		if err != nil {
			return err
		}
		if auction == nil {
			return fmt.Errorf("auction %s not found", identity)
		}
		renderAuction(cmd.OutOrStdout(), auction)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <identity>",
	Short: "Deletes a stored auction and its asset so the next harvest fetches it again.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := strings.ToUpper(strings.TrimSpace(args[0]))
		err := services.NewAuctionRepository(nil).DeleteAuction(cmd.Context(), identity)
		if errors.Is(err, services.ErrAuctionNotFound) {
			return fmt.Errorf("auction %s not found", identity)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", identity)
		return nil
	},
}
