package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bonsplit/bonsplit/internal/cli"
)

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Assign or adjust item share vectors",
	}

	cmd.AddCommand(splitSetCmd())
	cmd.AddCommand(splitUniformCmd())

	return cmd
}

func splitSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <item-id> <person=fraction>...",
		Short: "Set the exact share vector for one item",
		Long: `Replace an item's share vector. Fractions must cover every configured
person and sum to 1.0; anything else is rejected and the previous
shares stay in effect.

Example:
  bonsplit split set 3f2a... anna=0.7 ben=0.3`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shares, err := parseShareArgs(args[1:])
			if err != nil {
				return err
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			assigner, err := newAssigner(store)
			if err != nil {
				return err
			}

			if err := assigner.SetShares(cmd.Context(), args[0], shares); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("shares updated for item %s", args[0])))
			return nil
		},
	}
}

func splitUniformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uniform <item-id>...",
		Short: "Set one person's fraction on several items at once",
		Long: `Give one person the same fraction on every listed item. The remaining
fraction is spread over the other persons, proportional to what they
held before.

Example:
  bonsplit split uniform --person anna --fraction 1.0 3f2a... 9c1b...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			person, _ := cmd.Flags().GetString("person")
			fraction, _ := cmd.Flags().GetFloat64("fraction")
			if person == "" {
				return fmt.Errorf("--person is required")
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			assigner, err := newAssigner(store)
			if err != nil {
				return err
			}

			if err := assigner.ApplyUniform(cmd.Context(), args, person, fraction); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(
				fmt.Sprintf("%s now carries %.0f%% on %d item(s)", person, fraction*100, len(args))))
			return nil
		},
	}

	cmd.Flags().String("person", "", "person receiving the fraction")
	cmd.Flags().Float64("fraction", 1.0, "fraction for the person, 0..1")

	return cmd
}

func voidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "void <item-id>",
		Short: "Exclude an item from billing without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.VoidItem(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("item %s voided", args[0])))
			return nil
		},
	}
}
