package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmorenn/modelbridge/internal/llm"
)

var stopFlag string

var replyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question without the interactive UI",
	Long: `Send one query to the selected backend and print the reply.

A degraded backend call prints nothing and exits 1; caller contract errors
(such as a system prompt sent to the gemini backend) exit 2.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := selectClient()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		query := strings.Join(args, " ")
		text, _, err := client.Converse(context.Background(), llm.Request{
			Query:       query,
			System:      systemFlag,
			Temperature: tempFlag,
			Stop:        stopFlag,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		if text == "" {
			// The backend degraded; diagnostics went to the log.
			os.Exit(1)
		}
		fmt.Println(replyStyle.Render(text))
	},
}

func init() {
	askCmd.Flags().StringVar(&stopFlag, "stop", "", "stop sequence (ignored by fastchat)")
	rootCmd.AddCommand(askCmd)
}
