package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/obyrne/llmbridge/pkg/config"
	"github.com/obyrne/llmbridge/pkg/fewshot"
	"github.com/obyrne/llmbridge/pkg/llm"
	"github.com/obyrne/llmbridge/pkg/provider"
	"github.com/obyrne/llmbridge/pkg/template"
	"github.com/obyrne/llmbridge/pkg/trace"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "llmbridge",
	Short: "Uniform front end for incompatible LLM back ends",
	Long: `llmbridge normalizes chat-completion, raw-completion, and local model
back ends behind one conversation shape.

Use 'llmbridge init' to scaffold a config, then 'llmbridge ask' to send
a question through any configured provider.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// --- ask command ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question through a configured provider",
	Long: `Send a question through one provider, or through every configured
provider with --all.

The answer is printed to stdout. An empty model answer is reported as
"(no answer)". With --trace, the full call record is written as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadOrDefault(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		question := args[0]
		system, _ := cmd.Flags().GetString("system")
		prefix, _ := cmd.Flags().GetString("prefix")

		if all, _ := cmd.Flags().GetBool("all"); all {
			return askAll(cmd.Context(), cfg, question, system, prefix)
		}

		name, _ := cmd.Flags().GetString("provider")
		if name == "" {
			name = cfg.DefaultProvider
		}
		if name == "" {
			return fmt.Errorf("no provider selected and no default_provider configured")
		}

		answer, tr, err := askOne(cmd.Context(), cfg, name, question, system, prefix)
		if err != nil {
			return err
		}

		if tracePath, _ := cmd.Flags().GetString("trace"); tracePath != "" {
			data, err := tr.JSON()
			if err != nil {
				return fmt.Errorf("serializing trace: %w", err)
			}
			if err := os.WriteFile(tracePath, data, 0o644); err != nil {
				return fmt.Errorf("writing trace: %w", err)
			}
		}

		if answer == "" {
			fmt.Println("(no answer)")
			return nil
		}
		fmt.Println(answer)
		return nil
	},
}

// askOne runs the question through a single named provider.
func askOne(ctx context.Context, cfg *config.Config, name, question, system, prefix string) (string, *trace.CallTrace, error) {
	adapter, err := buildAdapter(cfg, name)
	if err != nil {
		return "", nil, fmt.Errorf("provider %q: %w", name, err)
	}

	messages, err := buildMessages(adapter.Config(), cfg.Providers[name], system, question)
	if err != nil {
		return "", nil, fmt.Errorf("provider %q: %w", name, err)
	}

	tr := trace.New(name, cfg.Providers[name].Model)
	for _, m := range messages {
		tr.AddMessage(string(m.Role), m.Content)
	}
	tr.SetPrefix(prefix)

	answer, err := adapter.CallLLM(ctx, messages, prefix)
	tr.SetAnswer(answer)
	tr.Finish()
	if err != nil {
		return "", nil, fmt.Errorf("provider %q: %w", name, err)
	}
	return answer, tr, nil
}

// askAll fans the question out to every configured provider concurrently
// and prints the answers in provider name order.
func askAll(ctx context.Context, cfg *config.Config, question, system, prefix string) error {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	answers := make(map[string]string, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			answer, _, err := askOne(ctx, cfg, name, question, system, prefix)
			if err != nil {
				return err
			}
			mu.Lock()
			answers[name] = answer
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, name := range names {
		answer := answers[name]
		if answer == "" {
			answer = "(no answer)"
		}
		fmt.Printf("%-16s %s\n", name+":", answer)
	}
	return nil
}

// buildAdapter wires the adapter for a named provider entry.
func buildAdapter(cfg *config.Config, name string) (llm.Adapter, error) {
	p, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("not found in config")
	}

	params := llm.Params{Model: p.Model, Temperature: p.Temperature}

	switch p.Type {
	case config.TypeChat:
		key, err := cfg.ResolveAPIKey(name)
		if err != nil {
			return nil, err
		}
		var opts []provider.OpenAIOption
		if p.BaseURL != "" {
			opts = append(opts, provider.WithOpenAIBaseURL(p.BaseURL))
		}
		return llm.NewChatAdapter(provider.NewOpenAIClient(key, opts...), params), nil

	case config.TypeCompletion:
		key, err := cfg.ResolveAPIKey(name)
		if err != nil {
			return nil, err
		}
		var opts []provider.AnthropicOption
		if p.BaseURL != "" {
			opts = append(opts, provider.WithAnthropicBaseURL(p.BaseURL))
		}
		client := provider.NewAnthropicClient(key, opts...)
		return llm.NewCompletionAdapter(client, p.HumanTag, p.AssistantTag, params), nil

	case config.TypeLocalChat:
		render, err := template.Lookup(p.Template)
		if err != nil {
			return nil, err
		}
		client := provider.NewOpenAIClient("", provider.WithOpenAIBaseURL(p.BaseURL))
		return llm.NewLocalChatAdapter(client, render, params), nil

	case config.TypeLocalStream:
		render, err := template.Lookup("mistral")
		if err != nil {
			return nil, err
		}
		return llm.NewLocalStreamAdapter(provider.NewStreamGenerateClient(), render, params), nil

	default:
		return nil, fmt.Errorf("unknown type %q", p.Type)
	}
}

// buildMessages assembles the conversation honoring the adapter's
// configuration: an optional dated system turn, few-shot examples, and
// the question itself.
func buildMessages(adapterCfg llm.Config, p config.ProviderConfig, system, question string) ([]llm.Message, error) {
	var messages []llm.Message

	if system != "" {
		if adapterCfg.EnableTodaysDate {
			system = fmt.Sprintf("%s Today's date is %s.", system, time.Now().Format("2006-01-02"))
		}
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	} else if adapterCfg.EnableTodaysDate {
		messages = append(messages, llm.Message{
			Role:    llm.RoleSystem,
			Content: fmt.Sprintf("Today's date is %s.", time.Now().Format("2006-01-02")),
		})
	}

	messages = append(messages, adapterCfg.FewShotLearning...)

	if p.FewShotFile != "" {
		examples, err := fewshot.Load(p.FewShotFile)
		if err != nil {
			return nil, err
		}
		messages = append(messages, examples...)
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: question}), nil
}

// --- templates command ---

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available prompt templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, key := range template.Keys() {
			fmt.Println(" ", key)
		}
		return nil
	},
}

// --- validate command ---

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config and few-shot files",
	Long: `Check the configuration file for errors.

Validates YAML syntax, provider types, required per-type fields,
template references, and any referenced few-shot files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadOrDefault(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}

		for name, p := range cfg.Providers {
			if p.FewShotFile == "" {
				continue
			}
			if _, err := fewshot.Load(p.FewShotFile); err != nil {
				return fmt.Errorf("provider %q: %w", name, err)
			}
		}

		fmt.Printf("Config %q is valid.\n", cfgPath)
		return nil
	},
}

// --- init command ---

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new llmbridge config",
	Long: `Scaffold a configuration file and an example few-shot file.

Creates:
  llmbridge.yaml     - Main configuration file
  examples.yaml      - Example few-shot conversation`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := writeExampleConfig("llmbridge.yaml"); err != nil {
		return err
	}
	if err := writeExampleFewShot("examples.yaml"); err != nil {
		return err
	}

	fmt.Println("\nProject initialized. Run 'llmbridge validate' to check your config.")
	return nil
}

func writeYAML(path string, data any) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  skipped %s (already exists)\n", path)
		return nil
	}

	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("  created %s\n", path)
	return nil
}

func writeExampleConfig(path string) error {
	data := map[string]any{
		"default_provider": "openai",
		"providers": map[string]any{
			"openai": map[string]any{
				"type":        "chat",
				"model":       "gpt-3.5-turbo",
				"api_key_env": "OPENAI_API_KEY",
			},
			"anthropic": map[string]any{
				"type":          "completion",
				"model":         "claude-2",
				"api_key_env":   "ANTHROPIC_API_KEY",
				"human_tag":     "\n\nHuman:",
				"assistant_tag": "\n\nAssistant:",
			},
			"local": map[string]any{
				"type":     "local-chat",
				"model":    "mistral",
				"base_url": "http://localhost:8000/v1/chat/completions",
				"template": "mistral",
			},
			"local-stream": map[string]any{
				"type":  "local-stream",
				"model": "mistral",
			},
		},
	}
	return writeYAML(path, data)
}

func writeExampleFewShot(path string) error {
	data := map[string]any{
		"examples": []map[string]any{
			{"role": "user", "content": "What is the capital of France?"},
			{"role": "assistant", "content": "Paris."},
		},
	}
	return writeYAML(path, data)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// ask command flags
	askCmd.Flags().StringP("provider", "p", "", "Provider to use (default: config's default_provider)")
	askCmd.Flags().StringP("config", "c", "llmbridge.yaml", "Path to config file")
	askCmd.Flags().String("prefix", "", "Seed the assistant's answer with this prefix")
	askCmd.Flags().String("system", "", "System instruction prepended to the conversation")
	askCmd.Flags().String("trace", "", "Write the call trace as JSON to this path")
	askCmd.Flags().Bool("all", false, "Ask every configured provider")

	// validate command flags
	validateCmd.Flags().String("config", "llmbridge.yaml", "Path to config file to validate")

	// register all subcommands
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}
