package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/inkbridge"
	"pkt.systems/inkbridge/core"
	"pkt.systems/inkbridge/httpapi"
	"pkt.systems/inkbridge/internal/appconfig"
	"pkt.systems/inkbridge/schema"
	"pkt.systems/pslog"
)

//go:embed assets/banner.txt
var serveBanner string

func newServeCmd() *cobra.Command {
	var cfgPath string
	var noBanner bool
	var showQR bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the inkbridge HTTP host and editor page",
		RunE: func(cmd *cobra.Command, args []string) error {
			logMode := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_MODE")))
			showBanner := !noBanner && logMode != "json" && logMode != "structured"
			if showBanner && serveBanner != "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), styleBanner(serveBanner, isTerminal(cmd.OutOrStdout())))
			}
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}

			serverCfg := toServerConfig(cfg)
			server, err := inkbridge.New(serverCfg, inkbridge.ServerDeps{
				HostDeps: core.HostDeps{Logger: logger},
			}, inkbridge.WithHTTP())
			if err != nil {
				return err
			}
			if showQR {
				printEditorQR(cmd.OutOrStdout(), editorURL(cfg.HTTP))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			logger.Info("editor available", "url", editorURL(cfg.HTTP), "document", cfg.Editor.DefaultDocument)
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "disable startup banner")
	cmd.Flags().BoolVar(&showQR, "qr", false, "print a QR code of the editor URL")
	return cmd
}

func toServerConfig(cfg appconfig.Config) inkbridge.ServerConfig {
	host := cfg.HostConfig()
	return inkbridge.ServerConfig{
		Host:      host,
		HTTP:      toHTTPConfig(cfg.HTTP, host),
		LoopDepth: cfg.Editor.LoopDepth,
	}
}

func toHTTPConfig(cfg appconfig.HTTPConfig, host schema.HostConfig) httpapi.Config {
	return httpapi.Config{
		Addr:            cfg.Addr,
		BaseURL:         cfg.BaseURL,
		BasePath:        cfg.BasePath,
		OutboxHistory:   cfg.OutboxHistory,
		StreamDepth:     cfg.StreamDepth,
		DefaultDocument: host.DefaultDocument,
	}
}

// editorURL prefers the configured public base URL and falls back to the
// listen address.
func editorURL(cfg appconfig.HTTPConfig) string {
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		return strings.TrimRight(base, "/") + "/"
	}
	host, port, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return "http://" + cfg.Addr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	path := strings.Trim(cfg.BasePath, "/")
	if path != "" {
		path += "/"
	}
	return "http://" + net.JoinHostPort(host, port) + "/" + path
}

func printEditorQR(w io.Writer, url string) {
	_, _ = fmt.Fprintf(w, "editor_url: %s\n", url)
	qrterminal.GenerateHalfBlock(url, qrterminal.L, w)
}

func styleBanner(banner string, color bool) string {
	if !color {
		return banner
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Render(strings.TrimRight(banner, "\n")) + "\n"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
