package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/anushtup-nandy/roundtable/internal/config"
	"github.com/anushtup-nandy/roundtable/internal/engine"
	"github.com/anushtup-nandy/roundtable/internal/export"
	"github.com/anushtup-nandy/roundtable/internal/provider"
	"github.com/anushtup-nandy/roundtable/internal/storage"
	"github.com/anushtup-nandy/roundtable/internal/template"
	"github.com/anushtup-nandy/roundtable/web/handlers"
)

var (
	dbPath    string
	cfgPath   string
	verbose   bool
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "roundtable",
	Short: "Multi-agent AI debate engine",
	Long: `roundtable orchestrates structured debates between AI agents.

Define agents with templated personas, group them into debate sessions
around a decision topic, and stream their turn-by-turn discussion with
an automatic summary at the end.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.roundtable/roundtable.db)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.roundtable/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(debatesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func getStorage() (storage.Storage, error) {
	path := dbPath
	if path == "" {
		path = appConfig.Database.Path
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(); err != nil {
		return nil, err
	}

	return store, nil
}

func getEngine(store storage.Storage) *engine.Engine {
	factory := provider.NewFactory(appConfig.FactoryConfig())
	summaryModel := appConfig.Gemini.Model
	if appConfig.Defaults.Provider == "ollama" {
		summaryModel = appConfig.Ollama.Model
	}
	return engine.New(store, factory,
		engine.WithWindowSize(appConfig.Defaults.WindowSize),
		engine.WithTurnDelay(time.Duration(appConfig.Defaults.TurnDelay)),
		engine.WithSummaryProvider(appConfig.Defaults.Provider, summaryModel),
	)
}

// ============================================================================
// SERVE COMMAND
// ============================================================================

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") && appConfig.Server.Port != 0 {
			servePort = appConfig.Server.Port
		}

		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		h := handlers.New(store, getEngine(store))

		addr := fmt.Sprintf(":%d", servePort)
		server := &http.Server{
			Addr:    addr,
			Handler: h.Router(),
		}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			fmt.Println("\nShutting down...")
			server.Close()
		}()

		slog.Info("Server starting", "addr", addr)
		fmt.Printf("roundtable API listening on http://localhost:%d\n", servePort)
		fmt.Println("Press Ctrl+C to stop the server")

		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8090, "Server port")
}

// ============================================================================
// TEMPLATE COMMAND
// ============================================================================

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Work with agent prompt templates",
}

var templateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the default agent template",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(template.DefaultAgentTemplate)
	},
}

var templateValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate an agent template file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read template: %w", err)
		}

		valid, errMessage := template.Validate(string(data))
		if !valid {
			return fmt.Errorf("invalid template: %s", errMessage)
		}

		fmt.Println("Template is valid.")
		if vars := template.ExtractVariables(string(data)); len(vars) > 0 {
			fmt.Printf("Variables: %s\n", strings.Join(vars, ", "))
		}
		return nil
	},
}

func init() {
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateValidateCmd)
}

// ============================================================================
// DEBATES COMMAND
// ============================================================================

var debatesProfile string

var debatesCmd = &cobra.Command{
	Use:   "debates",
	Short: "List debate sessions for a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		if debatesProfile == "" {
			return fmt.Errorf("--profile is required")
		}

		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		sessions, err := store.ListSessions(debatesProfile, 50, 0)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No debates found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTOPIC\tSTATUS\tTURNS\tCREATED")
		for _, s := range sessions {
			topic := s.Topic
			if len(topic) > 40 {
				topic = topic[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				s.ID[:8], topic, s.Status, s.TurnCount, s.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	debatesCmd.Flags().StringVar(&debatesProfile, "profile", "", "Profile ID")
}

// ============================================================================
// EXPORT COMMAND
// ============================================================================

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a debate session to markdown, pdf or json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getStorage()
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		session, err := store.GetSession(args[0])
		if err != nil {
			return err
		}
		if session == nil {
			return fmt.Errorf("session not found: %s", args[0])
		}

		turns, err := store.GetTurns(session.ID)
		if err != nil {
			return err
		}
		agents, err := store.GetAgents(session.AgentIDs)
		if err != nil {
			return err
		}

		exporter, err := export.GetExporter(export.Format(exportFormat))
		if err != nil {
			return err
		}

		filename := exportOutput
		if filename == "" {
			filename = export.GenerateFilename(session, exporter.FileExtension())
		}

		f, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		if err := exporter.Export(session, agents, turns, f); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported to %s\n", filename)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Export format (markdown, pdf, json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: generated name)")
}

// ============================================================================
// CONFIG COMMAND
// ============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print an example configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.GenerateExample())
	},
}
