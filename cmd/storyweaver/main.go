// Package main is the entry point for storyweaver.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"storyweaver/internal/app"
	"storyweaver/internal/export"
	"storyweaver/internal/prompt"
	"storyweaver/internal/story"
	"storyweaver/internal/tui"
	"storyweaver/pkg/types"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "storyweaver",
	Short: "Generate and refine short stories with AI",
	Long: `Storyweaver turns structured story parameters (genre, tone, character,
setting, length) into a generated story you can iteratively refine in the
terminal before exporting it to a document.`,
	Version: version,
}

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Generate a new story and open it for refinement",
	RunE:  runWriteCmd,
}

func runWriteCmd(cmd *cobra.Command, args []string) error {
	providerFlag, _ := cmd.Flags().GetString("provider")
	formatFlag, _ := cmd.Flags().GetString("format")

	application, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer application.Close()

	ctx := context.Background()
	provider, err := application.NewProvider(ctx, providerFlag)
	if err != nil {
		if errors.Is(err, app.ErrMissingAPIKey) {
			fmt.Println("\n⚠ No API key configured for the selected provider.")
			fmt.Println("Run 'storyweaver auth' to set one up.")
		}
		return err
	}
	defer provider.Close()

	params, err := collectParameters()
	if err != nil {
		return err
	}

	globalConfig, err := application.Config.LoadGlobalConfig()
	if err != nil {
		return err
	}
	exportFormat := formatFlag
	if exportFormat == "" {
		exportFormat = globalConfig.Defaults.ExportFormat
	}
	if _, err := export.ForFormat(exportFormat); err != nil {
		return err
	}

	session := story.NewSession(provider,
		story.WithTimeout(globalConfig.Generation.Timeout()),
		story.WithLogger(application.Logger),
	)

	fmt.Printf("\nGenerating a %s story with a %s tone...\n", params.Genre, params.Tone)
	if err := session.RequestGeneration(ctx, params); err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	model := tui.New(session, exportFormat)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// collectParameters runs the parameter form. Character and setting are
// required; the select fields come from the fixed option lists.
func collectParameters() (types.StoryParameters, error) {
	params := types.StoryParameters{
		Genre:     types.Genres[0],
		Tone:      types.Tones[0],
		WordLimit: prompt.WordBands[0].Label,
	}

	genreOptions := make([]huh.Option[string], len(types.Genres))
	for i, g := range types.Genres {
		genreOptions[i] = huh.NewOption(g, g)
	}
	toneOptions := make([]huh.Option[string], len(types.Tones))
	for i, t := range types.Tones {
		toneOptions[i] = huh.NewOption(t, t)
	}
	limitOptions := make([]huh.Option[string], len(prompt.WordBands))
	for i, b := range prompt.WordBands {
		limitOptions[i] = huh.NewOption(b.Label, b.Label)
	}

	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Genre").
				Options(genreOptions...).
				Value(&params.Genre),
			huh.NewSelect[string]().
				Title("Tone").
				Options(toneOptions...).
				Value(&params.Tone),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Main character").
				Placeholder("e.g., a retired astronaut").
				Validate(required("character")).
				Value(&params.Character),
			huh.NewInput().
				Title("Setting").
				Placeholder("e.g., a floating city").
				Validate(required("setting")).
				Value(&params.Setting),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Story length").
				Options(limitOptions...).
				Value(&params.WordLimit),
		),
	)

	if err := form.Run(); err != nil {
		return types.StoryParameters{}, fmt.Errorf("parameter form failed: %w", err)
	}
	return params, nil
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Configure inference provider authentication",
	RunE:  runAuthCmd,
}

func runAuthCmd(cmd *cobra.Command, args []string) error {
	listFlag, _ := cmd.Flags().GetBool("list")
	removeFlag, _ := cmd.Flags().GetString("remove")
	providerFlag, _ := cmd.Flags().GetString("provider")

	application, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer application.Close()

	if listFlag {
		return listProviders(application)
	}

	if removeFlag != "" {
		return removeProvider(application, removeFlag)
	}

	if providerFlag != "" {
		return configureProvider(application, providerFlag)
	}

	return interactiveAuth(application)
}

func listProviders(application *app.App) error {
	config, err := application.Config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Configured providers:")
	fmt.Println()

	providers := []struct {
		name  string
		label string
	}{
		{"huggingface", "Hugging Face"},
		{"openai", "OpenAI"},
		{"gemini", "Google Gemini"},
	}

	hasAny := false
	for _, p := range providers {
		providerConfig, exists := config.Providers[p.name]
		if !exists || (providerConfig.APIKey == "" && providerConfig.BaseURL == "") {
			continue
		}

		hasAny = true
		defaultMark := ""
		if config.Defaults.Provider == p.name {
			defaultMark = " (default)"
		}

		fmt.Printf("  %s%s\n", p.label, defaultMark)

		if providerConfig.APIKey != "" {
			fmt.Printf("    API Key: %s\n", maskAPIKey(providerConfig.APIKey))
		}
		if providerConfig.DefaultModel != "" {
			fmt.Printf("    Model: %s\n", providerConfig.DefaultModel)
		}
		if providerConfig.BaseURL != "" {
			fmt.Printf("    Base URL: %s\n", providerConfig.BaseURL)
		}
		fmt.Println()
	}

	if !hasAny {
		fmt.Println("  No providers configured.")
		fmt.Println()
		fmt.Println("Run 'storyweaver auth' to configure a provider.")
	}

	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func removeProvider(application *app.App, providerName string) error {
	config, err := application.Config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, exists := config.Providers[providerName]; !exists {
		return fmt.Errorf("provider '%s' is not configured", providerName)
	}

	delete(config.Providers, providerName)

	if config.Defaults.Provider == providerName {
		config.Defaults.Provider = ""
		for name := range config.Providers {
			config.Defaults.Provider = name
			break
		}
	}

	if err := application.Config.SaveGlobalConfig(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Provider '%s' removed.\n", providerName)
	return nil
}

func configureProvider(application *app.App, providerName string) error {
	switch providerName {
	case "huggingface", "openai", "gemini":
		return setupProvider(application, providerName)
	default:
		return fmt.Errorf("unknown provider: %s (supported: huggingface, openai, gemini)", providerName)
	}
}

func interactiveAuth(application *app.App) error {
	var providerName string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select provider to configure").
				Options(
					huh.NewOption("Hugging Face", "huggingface"),
					huh.NewOption("OpenAI", "openai"),
					huh.NewOption("Google Gemini", "gemini"),
				).
				Value(&providerName),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("provider selection failed: %w", err)
	}

	return setupProvider(application, providerName)
}

func setupProvider(application *app.App, providerName string) error {
	config, err := application.Config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if config.Providers == nil {
		config.Providers = make(map[string]*types.ProviderConfig)
	}

	providerConfig := config.Providers[providerName]
	if providerConfig == nil {
		providerConfig = &types.ProviderConfig{}
	}

	switch providerName {
	case "huggingface":
		err = setupHuggingFace(providerConfig)
	case "openai":
		err = setupOpenAI(providerConfig)
	case "gemini":
		err = setupGemini(providerConfig)
	}
	if err != nil {
		return err
	}

	config.Providers[providerName] = providerConfig

	var setDefault bool
	defaultForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Set as default provider?").
				Value(&setDefault),
		),
	)

	if err := defaultForm.Run(); err != nil {
		return fmt.Errorf("default selection failed: %w", err)
	}

	if setDefault {
		config.Defaults.Provider = providerName
	}

	if err := application.Config.SaveGlobalConfig(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n✓ %s configured successfully\n", providerName)
	return nil
}

func setupHuggingFace(config *types.ProviderConfig) error {
	var apiKey, model string

	currentKey := ""
	if config.APIKey != "" {
		currentKey = " (current: " + maskAPIKey(config.APIKey) + ")"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Hugging Face API Key"+currentKey).
				Placeholder("hf_... or ${HUGGINGFACE_API_KEY}").
				Value(&apiKey),
			huh.NewInput().
				Title("Model").
				Placeholder("meta-llama/Llama-3.2-3B-Instruct").
				Value(&model),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("Hugging Face setup failed: %w", err)
	}

	if apiKey != "" {
		config.APIKey = apiKey
	}
	if model != "" {
		config.DefaultModel = model
	}

	return nil
}

func setupOpenAI(config *types.ProviderConfig) error {
	var apiKey, model string

	currentKey := ""
	if config.APIKey != "" {
		currentKey = " (current: " + maskAPIKey(config.APIKey) + ")"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API Key"+currentKey).
				Placeholder("sk-...").
				Value(&apiKey),
			huh.NewSelect[string]().
				Title("Default model").
				Options(
					huh.NewOption("GPT-4o Mini (recommended)", "gpt-4o-mini"),
					huh.NewOption("GPT-4o", "gpt-4o"),
					huh.NewOption("GPT-4 Turbo", "gpt-4-turbo"),
					huh.NewOption("GPT-3.5 Turbo", "gpt-3.5-turbo"),
				).
				Value(&model),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("OpenAI setup failed: %w", err)
	}

	if apiKey != "" {
		config.APIKey = apiKey
	}
	if model != "" {
		config.DefaultModel = model
	}

	return nil
}

func setupGemini(config *types.ProviderConfig) error {
	var apiKey, model string

	currentKey := ""
	if config.APIKey != "" {
		currentKey = " (current: " + maskAPIKey(config.APIKey) + ")"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API Key"+currentKey).
				Placeholder("Get from ai.google.dev").
				Value(&apiKey),
			huh.NewSelect[string]().
				Title("Default model").
				Options(
					huh.NewOption("Gemini 2.5 Flash (recommended)", "gemini-2.5-flash"),
					huh.NewOption("Gemini 2.5 Pro", "gemini-2.5-pro"),
					huh.NewOption("Gemini 2.0 Flash", "gemini-2.0-flash"),
				).
				Value(&model),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("Gemini setup failed: %w", err)
	}

	if apiKey != "" {
		config.APIKey = apiKey
	}
	if model != "" {
		config.DefaultModel = model
	}

	return nil
}

func init() {
	writeCmd.Flags().StringP("provider", "p", "", "Inference provider to use (default from config)")
	writeCmd.Flags().StringP("format", "f", "", "Export format: pdf, txt, or html (default from config)")

	authCmd.Flags().BoolP("list", "l", false, "List configured providers")
	authCmd.Flags().StringP("remove", "r", "", "Remove a provider configuration")
	authCmd.Flags().StringP("provider", "p", "", "Configure a specific provider")

	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(authCmd)
}
