package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/inkbridge"
	"pkt.systems/inkbridge/core"
	"pkt.systems/inkbridge/internal/appconfig"
	"pkt.systems/inkbridge/internal/chromesurface"
	"pkt.systems/inkbridge/internal/logx"
	"pkt.systems/inkbridge/internal/markdown"
	"pkt.systems/inkbridge/schema"
	"pkt.systems/pslog"
)

const renderSurfaceID schema.SurfaceID = "render"

type renderRequest struct {
	Document schema.DocumentID
	Content  string
	Timeout  time.Duration
	Settle   time.Duration
}

func newRenderCmd() *cobra.Command {
	var cfgPath string
	var docID string
	var timeout time.Duration
	var settle time.Duration
	var markdownInput bool
	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Render HTML in a headless editor surface and print its preview and height",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if markdownInput || strings.EqualFold(filepath.Ext(args[0]), ".md") {
				content = markdown.ToHTML(content)
			}
			if timeout <= 0 {
				timeout = time.Duration(cfg.Chrome.TimeoutSeconds) * time.Second
			}
			snap, err := renderDocument(cmd.Context(), cfg, renderRequest{
				Document: schema.DocumentID(docID),
				Content:  content,
				Timeout:  timeout,
				Settle:   settle,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "document: %s\n", snap.ID)
			_, _ = fmt.Fprintf(out, "height: %g\n", snap.Height)
			_, err = fmt.Fprintf(out, "preview: %s\n", snap.Preview)
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&docID, "doc", "render", "document id used for the render")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall render timeout (defaults to chrome.timeout_seconds)")
	cmd.Flags().BoolVar(&markdownInput, "markdown", false, "treat input as markdown (implied for .md files)")
	cmd.Flags().DurationVar(&settle, "settle", 300*time.Millisecond, "quiet period after the last height report")
	return cmd
}

// renderDocument hosts content on a private loopback server with a throwaway
// state dir, drives one Chrome surface through the handshake and returns the
// resulting snapshot.
func renderDocument(ctx context.Context, cfg appconfig.Config, req renderRequest) (schema.DocumentSnapshot, error) {
	if err := schema.ValidateDocumentID(req.Document); err != nil {
		return schema.DocumentSnapshot{}, err
	}
	logger := logx.WithDocument(ctx, req.Document)

	stateDir, err := os.MkdirTemp("", "inkbridge-render-")
	if err != nil {
		return schema.DocumentSnapshot{}, fmt.Errorf("render state dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(stateDir) }()
	cfg.StateDir = stateDir
	cfg.HTTP.BaseURL = ""
	cfg.HTTP.BasePath = ""

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return schema.DocumentSnapshot{}, err
	}
	serverCfg := toServerConfig(cfg)
	serverCfg.HTTP.Addr = ln.Addr().String()
	server, err := inkbridge.New(serverCfg, inkbridge.ServerDeps{
		HostDeps: core.HostDeps{Logger: logger},
	}, inkbridge.WithListener(ln))
	if err != nil {
		_ = ln.Close()
		return schema.DocumentSnapshot{}, err
	}
	if err := server.Start(ctx); err != nil {
		return schema.DocumentSnapshot{}, err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = server.Stop(stopCtx)
	}()

	runCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	loop, host := server.Loop(), server.Host()
	events, unsubscribe := server.Events().Subscribe(req.Document)
	defer unsubscribe()

	var opErr error
	if err := loop.Call(runCtx, func() { opErr = host.SetContent(req.Document, req.Content) }); err != nil {
		return schema.DocumentSnapshot{}, err
	}
	if opErr != nil {
		return schema.DocumentSnapshot{}, opErr
	}

	execPath, err := chromesurface.FindExec(cfg.Chrome.ExecPath)
	if err != nil {
		return schema.DocumentSnapshot{}, err
	}
	browser, err := chromesurface.Launch(runCtx, chromesurface.Options{
		ExecPath:  execPath,
		Headless:  cfg.Chrome.Headless,
		NoSandbox: cfg.Chrome.NoSandbox,
		Logger:    logger,
	})
	if err != nil {
		return schema.DocumentSnapshot{}, err
	}
	defer browser.Close()

	surface := chromesurface.NewSurface(browser, renderSurfaceID, func(ev schema.SurfaceEvent) {
		postErr := loop.Post(runCtx, func() {
			if err := host.HandleSurfaceEvent(renderSurfaceID, ev); err != nil {
				logger.Warn("render surface event rejected", "event", ev.Name, "err", err)
			}
		})
		if postErr != nil {
			logger.Debug("render surface event dropped", "event", ev.Name, "err", postErr)
		}
	})
	defer surface.Close()

	if err := loop.Call(runCtx, func() {
		_, opErr = host.AttachSurface(req.Document, renderSurfaceID, surface)
	}); err != nil {
		return schema.DocumentSnapshot{}, err
	}
	if opErr != nil {
		return schema.DocumentSnapshot{}, opErr
	}

	pageURL := "http://" + ln.Addr().String() + "/?doc=" + url.QueryEscape(string(req.Document))
	if err := surface.Load(runCtx, pageURL); err != nil {
		return schema.DocumentSnapshot{}, err
	}
	if err := awaitRender(runCtx, events, req.Settle); err != nil {
		return schema.DocumentSnapshot{}, err
	}

	var snap schema.DocumentSnapshot
	if err := loop.Call(ctx, func() { snap, opErr = host.Snapshot(req.Document) }); err != nil {
		return schema.DocumentSnapshot{}, err
	}
	if opErr != nil {
		return schema.DocumentSnapshot{}, opErr
	}
	logger.Info("render complete", "height", snap.Height)
	return snap, nil
}

// awaitRender blocks until the surface is interactive and its height reports
// have been quiet for settle.
func awaitRender(ctx context.Context, events <-chan schema.DocumentEvent, settle time.Duration) error {
	if settle <= 0 {
		settle = 300 * time.Millisecond
	}
	logger := pslog.Ctx(ctx)
	interactive := false
	var quiet <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if interactive {
				return nil
			}
			return fmt.Errorf("surface did not become interactive: %w", ctx.Err())
		case <-quiet:
			return nil
		case ev, ok := <-events:
			if !ok {
				return errors.New("document event stream closed")
			}
			switch ev.Type {
			case schema.DocumentEventInteractive:
				interactive = true
				quiet = time.After(settle)
			case schema.DocumentEventHeight:
				logger.Trace("render height", "height", ev.Height)
				if interactive {
					quiet = time.After(settle)
				}
			case schema.DocumentEventDetached:
				return errors.New("surface detached before render completed")
			}
		}
	}
}
