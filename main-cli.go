//go:build !windows || dev

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
)

type globalOptions struct {
	AppDir string `long:"app-dir" env:"FEEDSYNC_APP_DIR" description:"Directory with config.json, app.log and the SQLite database"`
	Debug  bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var opts globalOptions

type serveCommand struct{}

type importCommand struct {
	User   string `long:"user" required:"true" description:"Tenant (user id) owning the imported rows"`
	URL    string `long:"url" required:"true" description:"URL of the XML product feed"`
	Format string `long:"format" description:"google_merchant | shop_catalog (default from config)"`
}

type consoleCommand struct{}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	_, _ = parser.AddCommand("serve", "Run the HTTP API and the scheduled sync", "", &serveCommand{})
	_, _ = parser.AddCommand("import", "Import a single feed and print the result", "", &importCommand{})
	_, _ = parser.AddCommand("console", "Interactive console (default)", "", &consoleCommand{})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
	// bez komendy: konsola jak dawniej
	if parser.Active == nil {
		if err := (&consoleCommand{}).Execute(nil); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func (c *serveCommand) Execute(_ []string) error {
	a, err := boot(opts.AppDir, true, opts.Debug)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.log.Info().Msgf("feedsync %s (serve)", ver)
	a.autoStart(ctx)
	return a.serveHTTP(ctx)
}

func (c *importCommand) Execute(_ []string) error {
	a, err := boot(opts.AppDir, false, opts.Debug)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := a.runImport(ctx, c.User, c.URL, c.Format)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.ImportSuccess {
		return fmt.Errorf("import finished with %d error(s)", len(res.Errors))
	}
	return nil
}

// Prosta pętla poleceń w terminalu
func (c *consoleCommand) Execute(_ []string) error {
	a, err := boot(opts.AppDir, true, opts.Debug)
	if err != nil {
		return err
	}
	defer a.close()
	a.log.Info().Msg("Aplikacja (CLI) uruchomiona")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.autoStart(ctx)

	fmt.Println("feedsync CLI", ver)
	fmt.Println("Komendy: start | stop | reload | status | paths | quit")
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			// EOF na stdin
			return nil
		}
		cmd := strings.TrimSpace(strings.ToLower(line))

		switch cmd {
		case "start":
			if err := a.sync.Start(ctx); err != nil {
				a.log.Error().Err(err).Msg("Start error")
				fmt.Println("Błąd startu:", err)
				continue
			}
			fmt.Println("Start OK")
		case "stop":
			a.sync.Stop()
			fmt.Println("Zatrzymano")
		case "reload":
			if err := a.reload(); err != nil {
				a.log.Error().Err(err).Msg("Błąd reloadu")
				fmt.Println("Błąd reloadu:", err)
				continue
			}
			fmt.Println("Konfiguracja przeładowana")
		case "status":
			if a.sync.IsRunning() {
				fmt.Println("Status: DZIAŁA")
			} else {
				fmt.Println("Status: ZATRZYMANY")
			}
			for _, j := range a.sync.Jobs() {
				printJob(j.Name, j.LastRun, j.LastErr, j.Success, j.Busy)
			}
		case "paths":
			fmt.Println("Logi:", a.logPath)
			fmt.Println("Config:", a.cfgPath)
			fmt.Println("Feeds:", a.cfg.FeedsDir)
			fmt.Println("DB:", a.dbh.Path)
		case "quit", "exit":
			cancel()
			time.Sleep(50 * time.Millisecond)
			return nil
		case "":
			// enter – ignoruj
		default:
			fmt.Println("Nieznana komenda. Użyj: start | stop | reload | status | paths | quit")
		}
	}
}

func printJob(name string, last time.Time, lastErr error, ok, busy bool) {
	switch {
	case busy:
		fmt.Printf("  %-24s w trakcie\n", name)
	case last.IsZero():
		fmt.Printf("  %-24s jeszcze nie uruchomiony\n", name)
	case lastErr != nil:
		fmt.Printf("  %-24s %s BŁĄD: %v\n", name, last.Format(time.RFC3339), lastErr)
	case !ok:
		fmt.Printf("  %-24s %s częściowo (patrz logi)\n", name, last.Format(time.RFC3339))
	default:
		fmt.Printf("  %-24s %s OK\n", name, last.Format(time.RFC3339))
	}
}
