package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var errCheckFailed = errors.New("one or more providers failed the check")

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Connect to the configured providers",
	Long: `Create the embedding and completion services from the current settings
and ping each one. Nothing is embedded or generated.`,
	RunE: runConfigCheck,
}

func init() {
	configCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ok := true
	report := func(label string, provider domain.AIProvider, model string, err error) {
		switch {
		case err != nil:
			ok = false
			cmd.Printf("%-10s %s: FAILED\n  %v\n", label, provider, err)
		case model == "":
			ok = false
			cmd.Printf("%-10s %s: not configured\n", label, provider)
		default:
			cmd.Printf("%-10s %s (%s): ok\n", label, provider, model)
		}
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(&settings.Embedding)
	report("Embedding:", settings.Embedding.Provider, modelOf(embedder), err)

	llm, err := ai.CreateAndValidateLLMService(&settings.LLM)
	report("LLM:", settings.LLM.Provider, modelOf(llm), err)

	if !ok {
		return errCheckFailed
	}
	return nil
}

// modelOf closes svc after reading its model name. A nil svc has no model.
func modelOf(svc interface {
	ModelName() string
	Close() error
}) string {
	if svc == nil {
		return ""
	}
	defer svc.Close() //nolint:errcheck // nothing to report after a ping
	return svc.ModelName()
}
