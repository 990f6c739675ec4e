package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	interactionsCmd := &cobra.Command{Use: "interactions", Short: "Interaction ledger operations"}

	var text, emotion, suggestion string
	var confidence float64
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record an interaction turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			if text == "" {
				return fmt.Errorf("--text required")
			}
			payload := map[string]interface{}{
				"text":       text,
				"emotion":    emotion,
				"confidence": confidence,
				"suggestion": suggestion,
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/users/%s/interactions", apiFlag, userFlag), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&text, "text", "t", "", "User message text (required)")
	addCmd.Flags().StringVarP(&emotion, "emotion", "e", "", "Detected emotion label")
	addCmd.Flags().Float64VarP(&confidence, "confidence", "c", 0, "Detection confidence")
	addCmd.Flags().StringVarP(&suggestion, "suggestion", "s", "", "Agent suggestion text")
	_ = addCmd.MarkFlagRequired("text")
	interactionsCmd.AddCommand(addCmd)

	var ts, fbText string
	var rating int
	feedbackCmd := &cobra.Command{
		Use:   "feedback",
		Short: "Attach feedback to an interaction by timestamp",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			if ts == "" {
				return fmt.Errorf("--timestamp required (RFC 3339, as returned by add)")
			}
			payload := map[string]interface{}{
				"timestamp": ts,
				"rating":    rating,
				"text":      fbText,
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/users/%s/interactions/feedback", apiFlag, userFlag), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	feedbackCmd.Flags().StringVarP(&ts, "timestamp", "t", "", "Interaction timestamp (required)")
	feedbackCmd.Flags().IntVarP(&rating, "rating", "r", 0, "Rating value")
	feedbackCmd.Flags().StringVarP(&fbText, "text", "x", "", "Feedback text")
	_ = feedbackCmd.MarkFlagRequired("timestamp")
	interactionsCmd.AddCommand(feedbackCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics for the user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/stats", apiFlag, userFlag), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	interactionsCmd.AddCommand(statsCmd)

	rootCmd.AddCommand(interactionsCmd)
}
