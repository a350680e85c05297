package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ad-placement-service/internal/infra/adclient"
)

func newInterestCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interest",
		Short: "Manage the local recent-interest list",
		Long: `The interest list is sent with every preview request. It keeps the
ten most recent distinct interests and expires after 30 days without updates.`,
	}

	cmd.AddCommand(
		newInterestAddCmd(v),
		newInterestListCmd(v),
		newInterestClearCmd(v),
	)

	return cmd
}

func newInterestAddCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <interest>...",
		Short: "Add interests to the front of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := v.GetString("interests-file")
			now := time.Now()

			f, err := loadInterests(path, now)
			if err != nil {
				return err
			}
			f.add(now, args...)
			if err := saveInterests(path, f); err != nil {
				return err
			}

			if sync, _ := cmd.Flags().GetBool("sync"); sync {
				log, err := newLogger(v)
				if err != nil {
					return err
				}
				client := adclient.New(clientConfig(v), log)

				stored, err := client.RecordInterests(cmd.Context(), f.VisitorID, args)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Server list: %s\n", strings.Join(stored, ", "))
			}

			printInterests(cmd.OutOrStdout(), f)
			return nil
		},
	}

	cmd.Flags().Bool("sync", false, "Also record the interests on the server for this visitor")

	return cmd
}

func newInterestListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the visitor ID and interest list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadInterests(v.GetString("interests-file"), time.Now())
			if err != nil {
				return err
			}

			printInterests(cmd.OutOrStdout(), f)
			return nil
		},
	}
}

func newInterestClearCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all interests, keeping the visitor ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := v.GetString("interests-file")
			now := time.Now()

			f, err := loadInterests(path, now)
			if err != nil {
				return err
			}
			f.clear(now)
			if err := saveInterests(path, f); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Interests cleared")
			return nil
		},
	}
}

func printInterests(w io.Writer, f *interestFile) {
	fmt.Fprintf(w, "Visitor: %s\n", f.VisitorID)
	if len(f.Interests) == 0 {
		fmt.Fprintln(w, "Interests: (none)")
		return
	}
	fmt.Fprintf(w, "Interests: %s\n", strings.Join(f.Interests, ", "))
}
