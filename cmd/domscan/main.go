package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/brantansp/taf-dom-analyzer/internal/ai"
	"github.com/brantansp/taf-dom-analyzer/internal/analyzer"
	"github.com/brantansp/taf-dom-analyzer/internal/browser"
	"github.com/brantansp/taf-dom-analyzer/internal/screenshot"
)

var (
	highlight   bool
	focusIndex  int
	expansion   int
	debugMode   bool
	maxElements int
	prioritize  bool
	output      string
	export      string
	shot        string
	policyFile  string
	suggest     string
	provider    string
	model       string
	stealth     bool
	hold        int
	width       int
	height      int
	timeout     int
	profile     string
	verbose     bool
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "domscan <url>",
		Short: "Analyze a page's interactive elements and highlight them in the browser",
		Long: `domscan loads a page, builds a map of its DOM with every interactive
element classified and numbered, and draws colored highlight overlays in the
live browser. The element map can be exported as JSON for automation tooling.

Example:
  domscan "https://myapp.com" --screenshot page.png --export elements.json`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.Flags().BoolVar(&highlight, "highlight", true, "Draw highlight overlays in the browser")
	rootCmd.Flags().IntVar(&focusIndex, "focus", -1, "Only draw the overlay for this highlight index")
	rootCmd.Flags().IntVar(&expansion, "expansion", 0, "Viewport expansion in px (-1 = include everything)")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Dump the full element map via the debug log")
	rootCmd.Flags().IntVar(&maxElements, "max-elements", 10000, "Stop emitting elements past this count")
	rootCmd.Flags().BoolVar(&prioritize, "prioritize", true, "Annotate interactive elements with a priority tier")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Write the full analysis envelope to this JSON file")
	rootCmd.Flags().StringVar(&export, "export", "", "Write the interactive element list to this JSON file")
	rootCmd.Flags().StringVar(&shot, "screenshot", "", "Save a screenshot (with overlays) to this PNG file")
	rootCmd.Flags().StringVar(&policyFile, "policy", "", "YAML file overriding the classification lists")
	rootCmd.Flags().StringVar(&suggest, "suggest", "", "Ask the AI provider which element matches this instruction")
	rootCmd.Flags().StringVar(&provider, "provider", "", "AI provider: claude, openai (default: from env or claude)")
	rootCmd.Flags().StringVar(&model, "model", "", "Specific model override")
	rootCmd.Flags().BoolVar(&stealth, "stealth", false, "Evade basic automation detection")
	rootCmd.Flags().IntVar(&hold, "hold", 0, "Keep the browser (and overlays) open for this many seconds")
	rootCmd.Flags().IntVar(&width, "width", 1280, "Viewport width")
	rootCmd.Flags().IntVar(&height, "height", 720, "Viewport height")
	rootCmd.Flags().IntVar(&timeout, "timeout", 30, "Navigation timeout in seconds")
	rootCmd.Flags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	url := args[0]
	ctx := cmd.Context()

	logger := newLogger()

	// Step 1: Open the page
	fmt.Printf("→ Opening %s... ", url)
	b, err := browser.Open(ctx, url, browser.Options{
		Width:      width,
		Height:     height,
		Timeout:    time.Duration(timeout) * time.Second,
		ProfileDir: profile,
		Stealth:    stealth,
		Logger:     logger,
	})
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("open failed: %w", err)
	}
	defer b.Close()
	fmt.Println("done")

	// Step 2: Analyze the DOM
	settings := analyzer.Settings{
		HighlightElements:      highlight,
		FocusIndex:             focusIndex,
		ViewportExpansion:      expansion,
		DebugMode:              debugMode,
		MaxElements:            maxElements,
		PrioritizeByImportance: prioritize,
	}

	opts := []analyzer.Option{analyzer.WithLogger(logger)}
	if policyFile != "" {
		policy, err := analyzer.LoadPolicy(policyFile)
		if err != nil {
			return fmt.Errorf("policy load failed: %w", err)
		}
		opts = append(opts, analyzer.WithPolicy(policy))
	}

	fmt.Printf("→ Analyzing page... ")
	result, err := analyzer.Analyze(ctx, b.Page(), settings, opts...)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("analysis failed: %w", err)
	}
	fmt.Printf("done (%d elements, %d highlighted)\n", result.TotalElements, result.HighlightedElements)

	printElements(result)

	// Step 3: Exports
	if output != "" {
		if err := writeJSON(output, result); err != nil {
			return fmt.Errorf("output write failed: %w", err)
		}
		fmt.Printf("→ Wrote analysis envelope to %s\n", output)
	}
	if export != "" {
		if err := writeJSON(export, result.InteractiveElements); err != nil {
			return fmt.Errorf("export write failed: %w", err)
		}
		fmt.Printf("→ Wrote %d interactive elements to %s\n", len(result.InteractiveElements), export)
	}

	// Step 4: Screenshot, taken with overlays still on the page
	if shot != "" {
		fmt.Printf("→ Capturing screenshot... ")
		size, err := screenshot.Capture(ctx, b.Page(), shot, screenshot.Options{})
		if err != nil {
			fmt.Println("failed")
			return fmt.Errorf("screenshot failed: %w", err)
		}
		fmt.Printf("done (%s, %.1f KB)\n", shot, float64(size)/1024)
	}

	// Step 5: AI suggestion
	if suggest != "" {
		selectedProvider := provider
		if selectedProvider == "" {
			selectedProvider = os.Getenv("DOMSCAN_DEFAULT_PROVIDER")
			if selectedProvider == "" {
				selectedProvider = "claude"
			}
		}
		fmt.Printf("→ Asking %s... ", selectedProvider)
		aiProvider, err := ai.NewProvider(selectedProvider, model)
		if err != nil {
			fmt.Println("failed")
			return fmt.Errorf("AI provider init failed: %w", err)
		}
		suggestion, err := aiProvider.SuggestElement(ctx, result, suggest)
		if err != nil {
			fmt.Println("failed")
			return fmt.Errorf("suggestion failed: %w", err)
		}
		fmt.Println("done")
		printSuggestion(result, suggestion)
	}

	// Step 6: Hold the overlays on screen, then clean up
	if hold > 0 {
		fmt.Printf("→ Holding for %ds (Ctrl+C to quit early)...\n", hold)
		select {
		case <-time.After(time.Duration(hold) * time.Second):
		case <-ctx.Done():
		}
	}
	if err := analyzer.Cleanup(ctx, b.Page()); err != nil {
		logger.Warn("overlay cleanup failed", "error", err)
	}

	fmt.Printf("✓ %d interactive elements on %s\n", len(result.InteractiveElements), url)
	return nil
}

// printElements writes the interactive element table to stdout.
func printElements(result *analyzer.Result) {
	for _, el := range result.InteractiveElements {
		line := fmt.Sprintf("  [%d] <%s>", el.HighlightIndex, el.TagName)
		if el.Text != "" {
			line += fmt.Sprintf(" %q", el.Text)
		}
		if el.Selector != "" {
			line += " " + el.Selector
		}
		if el.Priority != "" {
			line += " (" + el.Priority + ")"
		}
		fmt.Println(line)
	}
}

func printSuggestion(result *analyzer.Result, s *ai.Suggestion) {
	if s.Index < 0 {
		fmt.Printf("  No matching element: %s\n", s.Reason)
		return
	}
	fmt.Printf("  Suggested: [%d] %s: %s\n", s.Index, s.Action, s.Reason)
	for _, el := range result.InteractiveElements {
		if el.HighlightIndex == s.Index {
			fmt.Printf("  Selector: %s\n", el.Selector)
			break
		}
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose || debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
