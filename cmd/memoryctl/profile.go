package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	profileCmd := &cobra.Command{Use: "profile", Short: "Profile and preference operations"}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Get (or create) the user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/profile", apiFlag, userFlag), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	profileCmd.AddCommand(getCmd)

	resolveCmd := &cobra.Command{
		Use:   "resolve USERNAME",
		Short: "Resolve a username to a stable user ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doPostJSON(fmt.Sprintf("%s/api/users/resolve", apiFlag), map[string]string{"username": args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	profileCmd.AddCommand(resolveCmd)

	var prefsJSON string
	setPrefsCmd := &cobra.Command{
		Use:   "set-prefs",
		Short: "Merge preferences into the user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			var prefs map[string]interface{}
			if err := json.Unmarshal([]byte(prefsJSON), &prefs); err != nil {
				return fmt.Errorf("--prefs must be a JSON object: %w", err)
			}
			data, err := doPatchJSON(fmt.Sprintf("%s/api/users/%s/preferences", apiFlag, userFlag),
				map[string]interface{}{"preferences": prefs})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	setPrefsCmd.Flags().StringVarP(&prefsJSON, "prefs", "p", "{}", "Preferences as a JSON object")
	_ = setPrefsCmd.MarkFlagRequired("prefs")
	profileCmd.AddCommand(setPrefsCmd)

	getPrefsCmd := &cobra.Command{
		Use:   "prefs USERNAME",
		Short: "Get preferences by username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/users/by-name/%s/preferences", apiFlag, args[0]), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	profileCmd.AddCommand(getPrefsCmd)

	rootCmd.AddCommand(profileCmd)
}
