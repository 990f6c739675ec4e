package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	var limit int

	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search interactions by keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/search", apiFlag, userFlag),
				map[string]string{"q": args[0], "limit": strconv.Itoa(limit)})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	searchCmd.Flags().IntVarP(&limit, "limit", "l", 3, "Maximum results")
	rootCmd.AddCommand(searchCmd)

	var termLimit int
	termsCmd := &cobra.Command{
		Use:   "terms",
		Short: "Show the user's most frequent terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/search/terms", apiFlag, userFlag),
				map[string]string{"limit": strconv.Itoa(termLimit)})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	termsCmd.Flags().IntVarP(&termLimit, "limit", "l", 10, "Maximum terms")
	rootCmd.AddCommand(termsCmd)

	var memLimit int
	memoriesCmd := &cobra.Command{
		Use:   "memories QUERY",
		Short: "Retrieve memory records relevant to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/memories", apiFlag, userFlag),
				map[string]string{"q": args[0], "limit": strconv.Itoa(memLimit)})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	memoriesCmd.Flags().IntVarP(&memLimit, "limit", "l", 3, "Maximum records")
	rootCmd.AddCommand(memoriesCmd)
}
