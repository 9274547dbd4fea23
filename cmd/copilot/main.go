// Command copilot is a line-oriented chat front end for the Commission
// Co-Pilot core. It resolves each typed request into a business operation,
// asks for confirmation, and executes on a yes.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mstiles/copilot/common/version"
	"github.com/mstiles/copilot/internal/copilot/app"
	"github.com/mstiles/copilot/internal/copilot/config"
	"github.com/mstiles/copilot/internal/copilot/dispatch"
	"github.com/mstiles/copilot/internal/copilot/gate"
	"github.com/mstiles/copilot/internal/copilot/history"
	"github.com/mstiles/copilot/internal/copilot/ops"
	"github.com/mstiles/copilot/internal/copilot/recon"
	"github.com/mstiles/copilot/internal/copilot/registry"
	"github.com/mstiles/copilot/internal/copilot/resolver"
)

// confirmationPositiveWords are replies that mean "yes, proceed".
var confirmationPositiveWords = []string{
	"yes", "y", "ok", "okay", "confirm", "proceed",
	"go ahead", "go", "do it", "continue",
	"sure", "yep", "yup", "affirmative",
}

// confirmationNegativeWords are replies that mean "no, cancel".
var confirmationNegativeWords = []string{
	"no", "n", "cancel", "abort", "stop", "nope",
	"nevermind", "never mind", "forget it", "nah",
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("copilot %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Log)

	if cfg.Oracle.APIKey == "" {
		fmt.Fprintf(os.Stderr, "Error: %s is required\n", config.EnvAPIKey)
		os.Exit(1)
	}

	store, cleanup := openStore(cfg.Database.Path)
	defer cleanup()

	reg := registry.New()
	engine, err := buildEngine(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := ops.NewCatalog(engine, nil).Register(reg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: register operations: %v\n", err)
		os.Exit(1)
	}

	oracle := resolver.NewOracle(resolver.Config{
		APIKey:  cfg.Oracle.APIKey,
		BaseURL: cfg.Oracle.BaseURL,
		Model:   cfg.Oracle.Model,
		Timeout: cfg.Oracle.Timeout.Std(),
	})

	a := app.New(
		resolver.New(oracle, reg),
		gate.New(cfg.Gate.TTL.Std()),
		dispatch.New(reg),
		store,
	)

	fmt.Printf("Commission Co-Pilot %s\n", version.Version)
	fmt.Println("Type your request, /help for commands, /quit to exit.")
	fmt.Println()

	runREPL(a)
}

// setupLogging configures the process-wide slog default.
func setupLogging(cfg config.Log) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openStore opens the SQLite history store, falling back to the in-memory
// store with a warning when the database cannot be opened or no path is
// configured.
func openStore(path string) (history.Store, func()) {
	if path == "" {
		slog.Warn("no database path configured; conversations will not survive a restart")
		return history.NewMemoryStore(), func() {}
	}
	s, err := history.NewSQLiteStore(path)
	if err != nil {
		slog.Warn("could not open conversation database; falling back to in-memory store", "path", path, "err", err)
		return history.NewMemoryStore(), func() {}
	}
	return s, func() { s.Close() }
}

// buildEngine assembles the reconciliation engine. With a SQLite history
// store, the es_sales and sap_sales tables live in the same database;
// otherwise empty in-memory sources are used.
func buildEngine(store history.Store) (*recon.Engine, error) {
	sqlStore, ok := store.(*history.SQLiteStore)
	if !ok {
		return recon.NewEngine(recon.NewMemorySource(), recon.NewMemorySource()), nil
	}

	ctx := context.Background()
	ledger, err := recon.NewSQLiteSource(sqlStore.DB(), "es_sales")
	if err != nil {
		return nil, err
	}
	sap, err := recon.NewSQLiteSource(sqlStore.DB(), "sap_sales")
	if err != nil {
		return nil, err
	}
	if err := ledger.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if err := sap.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return recon.NewEngine(ledger, sap), nil
}

// runREPL drives the chat loop over stdin.
func runREPL(a *app.App) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	var conversationID string

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, a, line, &conversationID); quit {
				return
			}
			continue
		}

		reply, err := route(ctx, a, conversationID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		conversationID = reply.ConversationID
		printReply(reply)
	}
}

// route classifies the input as confirmation, cancellation, or free text.
func route(ctx context.Context, a *app.App, conversationID, line string) (*app.Reply, error) {
	switch {
	case matchesWord(line, confirmationPositiveWords):
		return a.Confirm(ctx, conversationID, line)
	case matchesWord(line, confirmationNegativeWords):
		return a.Cancel(ctx, conversationID, line)
	default:
		return a.HandleText(ctx, conversationID, line)
	}
}

// matchesWord reports whether line, lowercased, equals one of words.
func matchesWord(line string, words []string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, w := range words {
		if lower == w {
			return true
		}
	}
	return false
}

// handleCommand executes one slash command. Returns true to quit.
func handleCommand(ctx context.Context, a *app.App, line string, conversationID *string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /new           start a new conversation")
		fmt.Println("  /list          list saved conversations")
		fmt.Println("  /open <id>     switch to a conversation and show its transcript")
		fmt.Println("  /delete <id>   delete a conversation")
		fmt.Println("  /clear         delete all conversations")
		fmt.Println("  /quit          exit")

	case "/new":
		*conversationID = ""
		fmt.Println("Started a new conversation.")

	case "/list":
		summaries, err := a.Summaries(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		if len(summaries) == 0 {
			fmt.Println("No saved conversations.")
			break
		}
		for _, s := range summaries {
			fmt.Printf("  %s  %s  %s\n", s.ID, s.UpdatedAt.Format("2006-01-02 15:04"), clipTitle(s.Title))
		}

	case "/open":
		if len(fields) < 2 {
			fmt.Println("Usage: /open <id>")
			break
		}
		messages, err := a.Messages(ctx, fields[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		*conversationID = fields[1]
		for _, m := range messages {
			fmt.Printf("[%s] %s\n", m.Role, m.Content)
		}

	case "/delete":
		if len(fields) < 2 {
			fmt.Println("Usage: /delete <id>")
			break
		}
		if err := a.Delete(ctx, fields[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		if *conversationID == fields[1] {
			*conversationID = ""
		}
		fmt.Println("Deleted.")

	case "/clear":
		if err := a.ClearAll(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		*conversationID = ""
		fmt.Println("All conversations deleted.")

	default:
		fmt.Printf("Unknown command %s; try /help\n", fields[0])
	}
	return false
}

// printReply renders the assistant reply, including any table.
func printReply(reply *app.Reply) {
	fmt.Println(reply.Text)
	if reply.Table != nil && !reply.Table.Empty() {
		printTable(reply.Table)
	}
	fmt.Println()
}

// printTable renders a table as aligned columns.
func printTable(t *registry.Table) {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c)
	}
	cells := make([][]string, len(t.Rows))
	for ri, row := range t.Rows {
		cells[ri] = make([]string, len(t.Columns))
		for ci, c := range t.Columns {
			v := fmt.Sprintf("%v", row[c])
			cells[ri][ci] = v
			if len(v) > widths[ci] {
				widths[ci] = len(v)
			}
		}
	}

	var header strings.Builder
	for i, c := range t.Columns {
		fmt.Fprintf(&header, "%-*s  ", widths[i], c)
	}
	fmt.Println(strings.TrimRight(header.String(), " "))
	for _, row := range cells {
		var line strings.Builder
		for i, v := range row {
			fmt.Fprintf(&line, "%-*s  ", widths[i], v)
		}
		fmt.Println(strings.TrimRight(line.String(), " "))
	}
}

// clipTitle shortens long conversation titles for the listing.
func clipTitle(s string) string {
	const max = 60
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
