package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarthi-ai/voicechat/internal/client"
	"github.com/sarthi-ai/voicechat/internal/model"
)

var (
	logUser   string
	logAI     string
	logPrompt string
)

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().StringVar(&logUser, "user", "", "user message")
	logCmd.Flags().StringVar(&logAI, "ai", "", "AI response")
	logCmd.Flags().StringVar(&logPrompt, "prompt", "", "system prompt")
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Store an exchange through the REST API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := client.NewHistoryClient(serverURL, nil).Create(cmd.Context(), &model.CreateConversationRequest{
			UserMessage:  logUser,
			AIResponse:   logAI,
			SystemPrompt: logPrompt,
		})
		if err != nil {
			var verr *model.ValidationError
			if errors.As(err, &verr) && verr.Field != "" {
				return fmt.Errorf("rejected: --%s: %s", flagFor(verr.Field), verr.Message)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "stored exchange %d\n", conv.ID)
		return nil
	},
}

func flagFor(field string) string {
	switch field {
	case "userMessage":
		return "user"
	case "aiResponse":
		return "ai"
	case "systemPrompt":
		return "prompt"
	default:
		return field
	}
}
