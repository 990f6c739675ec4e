package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	emotionsCmd := &cobra.Command{Use: "emotions", Short: "Emotion history operations"}

	var limit int
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent emotion records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/emotions/recent", apiFlag, userFlag),
				map[string]string{"limit": strconv.Itoa(limit)})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	recentCmd.Flags().IntVarP(&limit, "limit", "l", 5, "Number of records")
	emotionsCmd.AddCommand(recentCmd)

	var days int
	trendCmd := &cobra.Command{
		Use:   "trend",
		Short: "Show per-day emotion labels over a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/emotions/trend", apiFlag, userFlag),
				map[string]string{"days": strconv.Itoa(days)})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	trendCmd.Flags().IntVarP(&days, "days", "d", 7, "Window size in days")
	emotionsCmd.AddCommand(trendCmd)

	distributionCmd := &cobra.Command{
		Use:   "distribution",
		Short: "Show emotion label counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/emotions/distribution", apiFlag, userFlag), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	emotionsCmd.AddCommand(distributionCmd)

	activeDaysCmd := &cobra.Command{
		Use:   "active-days",
		Short: "List the distinct days the user was active",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/active-days", apiFlag, userFlag), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	emotionsCmd.AddCommand(activeDaysCmd)

	rootCmd.AddCommand(emotionsCmd)
}
