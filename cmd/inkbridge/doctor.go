package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"

	"pkt.systems/inkbridge/internal/appconfig"
	"pkt.systems/inkbridge/internal/chromesurface"
	"pkt.systems/inkbridge/internal/persist"
	"pkt.systems/pslog"
)

const minChromeMemoryMiB = 512

func newDoctorCmd() *cobra.Command {
	var cfgPath string
	var requireChrome bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run inkbridge diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())

			configPath := cfgPath
			if strings.TrimSpace(configPath) == "" {
				path, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				configPath = path
			}
			logger.Info("doctor start", "config", configPath)

			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Info("doctor config ok", "version", cfg.ConfigVersion, "addr", cfg.HTTP.Addr, "document", cfg.Editor.DefaultDocument, "theme", cfg.Editor.DefaultTheme)

			if err := checkStateDir(cfg.StateDir); err != nil {
				return err
			}
			store, err := persist.NewStoreWithLogger(cfg.StateDir, logger)
			if err != nil {
				return err
			}
			docs, err := store.List()
			if err != nil {
				return fmt.Errorf("doctor documents: %w", err)
			}
			logger.Info("doctor state dir ok", "path", cfg.StateDir, "documents", len(docs))

			execPath, err := chromesurface.FindExec(cfg.Chrome.ExecPath)
			if err != nil {
				if requireChrome {
					return fmt.Errorf("doctor chrome: %w", err)
				}
				logger.Warn("doctor chrome missing; render is unavailable", "configured", cfg.Chrome.ExecPath, "err", err)
			} else {
				logger.Info("doctor chrome ok", "path", execPath, "headless", cfg.Chrome.Headless)
				checkMemory(logger)
			}
			logger.Info("doctor complete")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&requireChrome, "require-chrome", false, "fail when no Chrome executable is found")
	return cmd
}

// checkStateDir verifies the state dir exists (creating it if needed) and is writable.
func checkStateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("state_dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("doctor state dir: %w", err)
	}
	if err := checkWritable(dir); err != nil {
		return fmt.Errorf("doctor state dir not writable: %w", err)
	}
	return nil
}

// checkMemory reports available memory; Chrome needs a few hundred MiB per tab.
func checkMemory(logger pslog.Logger) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		logger.Warn("doctor memory check failed", "err", err)
		return
	}
	availableMiB := vm.Available / (1 << 20)
	if availableMiB < minChromeMemoryMiB {
		logger.Warn("doctor memory low for chrome", "available_mib", availableMiB, "min_mib", minChromeMemoryMiB)
		return
	}
	logger.Info("doctor memory ok", "available_mib", availableMiB, "total_mib", vm.Total/(1<<20), "used_percent", vm.UsedPercent)
}
