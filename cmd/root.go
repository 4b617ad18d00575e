package cmd

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jmorenn/modelbridge/internal/config"
	"github.com/jmorenn/modelbridge/internal/llm"
	"github.com/jmorenn/modelbridge/internal/logging"
	"github.com/jmorenn/modelbridge/internal/tui"
)

var (
	providerFlag string
	modelFlag    string
	systemFlag   string
	tempFlag     float64
	debugFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "modelbridge",
	Short: "One chat interface over three model backends",
	Long: `modelbridge presents a single conversation contract over several
incompatible model backends, each with its own wire format and prompt
templating.

Supported providers:
  openai    - hosted chat-completion API (requires OPENAI_API_KEY;
              set OPENAI_API_TYPE=azure for gateway deployments)
  gemini    - hosted generative-content API (requires GOOGLE_API_KEY)
  fastchat  - self-hosted completion server (FASTCHAT_HOST/FASTCHAT_PORT)`,
	Run: runChat,
}

// selectClient builds the backend client from flags and config defaults.
func selectClient() (llm.Client, string, error) {
	cfg := config.Get()

	provider := providerFlag
	if provider == "" && cfg.DefaultProvider != "" {
		provider = cfg.DefaultProvider
	}

	model := modelFlag
	if model == "" {
		model = cfg.DefaultModel
	}

	client, err := llm.NewFromConfig(llm.ProviderConfig{
		Provider: strings.ToLower(provider),
		Model:    model,
		Logger:   logging.New(debugFlag),
	})
	if err != nil {
		return nil, "", err
	}

	name := model
	if name == "" {
		name = provider
	}
	return client, name, nil
}

func runChat(cmd *cobra.Command, args []string) {
	client, modelName, err := selectClient()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Supported providers: openai, gemini, fastchat")
		os.Exit(1)
	}

	p := tea.NewProgram(
		tui.New(client, modelName, systemFlag, tempFlag),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "backend provider (openai, gemini, fastchat)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "model identifier")
	rootCmd.PersistentFlags().StringVarP(&systemFlag, "system", "s", "", "system prompt (rejected by the gemini backend)")
	rootCmd.PersistentFlags().Float64VarP(&tempFlag, "temperature", "t", 0.0, "sampling temperature (ignored by fastchat)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log per-exchange diagnostics")
}
