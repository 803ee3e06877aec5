//go:build windows && !dev

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/getlantern/systray"
)

func main() {
	a, err := boot("", false, false)
	if err != nil {
		panic(err)
	}
	defer a.close()

	// kontekst sterujący życiem procesu (CTRL+C / zamknięcie sesji)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// API działa razem z trayem, harmonogram steruje się z menu
	go func() {
		if err := a.serveHTTP(ctx); err != nil {
			a.log.Error().Err(err).Msg("HTTP API zatrzymane z błędem")
		}
	}()

	// jeśli proces dostanie sygnał – zatrzymaj syncer i zamknij tray
	go func() {
		<-ctx.Done()
		a.sync.Stop()
		systray.Quit()
	}()

	systray.Run(func() {
		systray.SetTitle("feedsync")
		systray.SetTooltip(fmt.Sprintf("feedsync %s", ver))

		mStart := systray.AddMenuItem("Start synchronizacji", "Uruchom harmonogram feedów")
		mStop := systray.AddMenuItem("Stop synchronizacji", "Zatrzymaj harmonogram")
		mStop.Disable()

		systray.AddSeparator()
		mOpenLogs := systray.AddMenuItem("Otwórz logi", "Pokaż plik log")
		mOpenCfg := systray.AddMenuItem("Ustawienia (config.json)", "Otwórz plik konfiguracyjny")
		mOpenFeeds := systray.AddMenuItem("Katalog feedów", "Otwórz katalog z plikami *.yaml")
		mReload := systray.AddMenuItem("Przeładuj konfigurację", "Wczytaj ponownie config.json i feedy")
		systray.AddSeparator()
		mAbout := systray.AddMenuItem(fmt.Sprintf("O programie (%s)", ver), "")
		mQuit := systray.AddMenuItem("Wyjście", "Zamknij aplikację")

		running := func(on bool) {
			if on {
				mStart.Disable()
				mStop.Enable()
				systray.SetTooltip(fmt.Sprintf("feedsync %s — działa", ver))
				return
			}
			mStop.Disable()
			mStart.Enable()
			systray.SetTooltip(fmt.Sprintf("feedsync %s — zatrzymane", ver))
		}

		// AutoStart harmonogramu (nie mylić z autostartem Windows!)
		a.autoStart(ctx)
		running(a.sync.IsRunning())

		go func() {
			for {
				select {
				case <-mStart.ClickedCh:
					if err := a.sync.Start(ctx); err != nil {
						a.log.Error().Err(err).Msg("Start error")
						systray.SetTooltip(fmt.Sprintf("feedsync %s — błąd startu", ver))
						continue
					}
					running(true)

				case <-mStop.ClickedCh:
					a.sync.Stop()
					running(false)

				case <-mOpenLogs.ClickedCh:
					openInExplorer(a.logPath)

				case <-mOpenCfg.ClickedCh:
					openInExplorer(a.cfgPath)

				case <-mOpenFeeds.ClickedCh:
					_ = os.MkdirAll(a.cfg.FeedsDir, 0o755)
					openInExplorer(a.cfg.FeedsDir)

				case <-mReload.ClickedCh:
					if err := a.reload(); err != nil {
						a.log.Error().Err(err).Msg("Błąd reloadu")
						continue
					}
					running(a.sync.IsRunning())

				case <-mAbout.ClickedCh:
					a.log.Info().Msgf("feedsync %s | %s", ver, runtime.Version())

				case <-mQuit.ClickedCh:
					// łagodne zamykanie
					cancel()
					a.sync.Stop()
					systray.Quit()
					return
				}
			}
		}()
	}, func() {
		// onExit: daj chwilę loggerowi na flush
		time.Sleep(50 * time.Millisecond)
	})
}

// przenośne otwieranie plików/katalogów w domyślnej aplikacji
func openInExplorer(path string) {
	switch runtime.GOOS {
	case "windows":
		// "start" musi być uruchomiony przez cmd /C, z pustym tytułem okna ""
		_ = exec.Command("cmd", "/C", "start", "", path).Start()
	case "darwin":
		_ = exec.Command("open", path).Start()
	default:
		_ = exec.Command("xdg-open", path).Start()
	}
}
