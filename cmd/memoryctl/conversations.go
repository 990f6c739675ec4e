package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	conversationsCmd := &cobra.Command{Use: "conversations", Short: "Conversation operations"}

	var role, content, emotion string
	messageCmd := &cobra.Command{
		Use:   "message",
		Short: "Append a message to the active conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			if content == "" {
				return fmt.Errorf("--content required")
			}
			payload := map[string]interface{}{
				"role":    role,
				"content": content,
				"emotion": emotion,
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/users/%s/conversations/messages", apiFlag, userFlag), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	messageCmd.Flags().StringVarP(&role, "role", "r", "user", "Message role (user or assistant)")
	messageCmd.Flags().StringVarP(&content, "content", "c", "", "Message text (required)")
	messageCmd.Flags().StringVarP(&emotion, "emotion", "e", "", "Emotion label")
	_ = messageCmd.MarkFlagRequired("content")
	conversationsCmd.AddCommand(messageCmd)

	var convID string
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show conversation messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			query := map[string]string{}
			if convID != "" {
				query["conversationId"] = convID
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/conversations/history", apiFlag, userFlag), query)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	historyCmd.Flags().StringVarP(&convID, "conversation", "c", "", "Conversation ID (defaults to the active one)")
	conversationsCmd.AddCommand(historyCmd)

	var limit int
	summariesCmd := &cobra.Command{
		Use:   "summaries",
		Short: "List conversation summaries, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/conversations/summaries", apiFlag, userFlag),
				map[string]string{"limit": strconv.Itoa(limit)})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	summariesCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum rows (0 = all)")
	conversationsCmd.AddCommand(summariesCmd)

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Close the active conversation and start fresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/users/%s/conversations/start", apiFlag, userFlag), map[string]string{})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, data)
			return nil
		},
	}
	conversationsCmd.AddCommand(startCmd)

	rootCmd.AddCommand(conversationsCmd)
}
