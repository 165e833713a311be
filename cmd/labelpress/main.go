package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/labelpress/labelpress/internal/adapters/ble"
	"github.com/labelpress/labelpress/internal/adapters/queue"
	"github.com/labelpress/labelpress/internal/adapters/spool"
	"github.com/labelpress/labelpress/internal/app"
	"github.com/labelpress/labelpress/internal/cliconfig"
	"github.com/labelpress/labelpress/internal/domain"
	"github.com/labelpress/labelpress/internal/server"
	"github.com/labelpress/labelpress/pkg/log"
)

const dateLayout = "2006-01-02"

var exampleUsage = strings.TrimSpace(`
  labelpress -m "Chicken Soup" -o
  labelpress -m "Leftovers" -b "EAT ME FIRST" -d 2025-03-14 -c 3
  labelpress -m "Chili" -p
  labelpress serve --listen :8745
  labelpress printers --scan
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var (
		cfgPath     string
		printerName string
		message     string
		borderMsg   string
		sideMsg     string
		dateStr     string
		showDate    bool
		copies      int
		imagePath   string
		previewOnly bool
		previewPath string
	)

	zlog := cliconfig.Logger()

	// loadConfig resolves file and env layers under the explicit flags.
	loadConfig := func(cmd *cobra.Command) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return err
			}
		}
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}
		return cfg.Validate()
	}

	buildLogger := func() log.Logger {
		if cfg.LogFile != "" {
			return log.NewRotatingZerologAdapter(cfg.LogFile)
		}
		return log.NewZerologAdapterWithLogger(zlog)
	}

	root := &cobra.Command{
		Use:     "labelpress",
		Short:   "Print food-rotation labels on thermal printers",
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}

			req := domain.ContentRequest{
				Message:       message,
				BorderMessage: borderMsg,
				SideMessage:   sideMsg,
				ShowDate:      showDate,
				ImagePath:     imagePath,
				Copies:        copies,
			}
			if dateStr != "" {
				d, err := time.Parse(dateLayout, dateStr)
				if err != nil {
					return fmt.Errorf("date must be %s: %w", dateLayout, err)
				}
				req.Date = d
				req.ShowDate = true
			} else if showDate {
				req.Date = time.Now()
			}
			if err := req.Validate(); err != nil {
				return err
			}

			if previewOnly {
				return writePreview(cfg, printerName, req, previewPath)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Print(ctx, cfg, printerName, req, buildLogger())
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.labelpress/config.toml)")
	root.Flags().StringVar(&printerName, "printer", "", "configured printer to use (default from config)")
	root.Flags().StringVarP(&message, "message", "m", "", "main label text")
	root.Flags().StringVarP(&borderMsg, "border-message", "b", "", "secondary text in the framed border region")
	root.Flags().StringVarP(&sideMsg, "side-message", "s", "", "caption printed along the short edges")
	root.Flags().StringVarP(&dateStr, "date", "d", "", "date to stamp (YYYY-MM-DD, implies --show-date)")
	root.Flags().BoolVarP(&showDate, "show-date", "o", false, "stamp today's date on the top and bottom edges")
	root.Flags().IntVarP(&copies, "copies", "c", 1, "number of copies (1-99)")
	root.Flags().StringVarP(&imagePath, "image", "i", "", "PNG drawn beneath the text, cropped to the label")
	root.Flags().BoolVarP(&previewOnly, "preview-only", "p", false, "render to a PNG file instead of printing")
	root.Flags().StringVar(&previewPath, "preview-out", "preview.png", "path for the preview PNG")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP print service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			logger := buildLogger()

			srv := server.New(cfg, logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				w := server.NewConfigWatcher(cfgFile, srv, logger)
				if err := w.Start(ctx); err != nil {
					logger.Warn("config watcher disabled", log.Err(err))
				} else {
					defer w.Wait()
				}
			}

			return srv.ListenAndServe(ctx, cfg.ListenAddr)
		},
	}
	serveCmd.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")
	serveCmd.Flags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "rotate logs to this file instead of stderr")

	var (
		scanBLE    bool
		scanWindow time.Duration
	)
	printersCmd := &cobra.Command{
		Use:   "printers",
		Short: "List configured printers and discover system ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}

			fmt.Println("configured:")
			for name, pc := range cfg.Printers {
				marker := " "
				if name == cfg.DefaultPrinter {
					marker = "*"
				}
				fmt.Printf("  %s %s (%s, %gx%g in @ %d dpi)\n",
					marker, name, pc.Transport, pc.LabelWidthIn, pc.LabelHeightIn, pc.DPI)
			}

			ctx := cmd.Context()
			listSystemPrinters(ctx)

			if scanBLE {
				fmt.Println("bluetooth:")
				names, err := ble.Scan(ctx, scanWindow)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Printf("    %s\n", n)
				}
			}
			return nil
		},
	}
	printersCmd.Flags().BoolVar(&scanBLE, "scan", false, "scan for BLE printers")
	printersCmd.Flags().DurationVar(&scanWindow, "scan-window", ble.DefaultScanWindow, "BLE scan duration")

	root.AddCommand(serveCmd, printersCmd)

	if err := root.Execute(); err != nil {
		zlog.Error().Err(err).Msg("labelpress")
		os.Exit(1)
	}
}

// writePreview renders the request and saves it as a PNG without touching
// any printer.
func writePreview(cfg cliconfig.Config, printer string, req domain.ContentRequest, path string) error {
	spec, err := cfg.LabelSpecFor(printer)
	if err != nil {
		return err
	}
	pipeline, err := app.NewPipeline(cfg.FontPath)
	if err != nil {
		return err
	}
	bitmap, err := pipeline.Render(spec, req, cfg.DateFormat)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, bitmap); err != nil {
		return err
	}
	fmt.Printf("preview written to %s\n", path)
	return nil
}

// listSystemPrinters prints whatever the platform print system can
// enumerate; absence of a print system is not an error here.
func listSystemPrinters(ctx context.Context) {
	if runtime.GOOS == "windows" {
		names, err := spool.List()
		if err != nil {
			return
		}
		fmt.Println("spooler:")
		for _, n := range names {
			fmt.Printf("    %s\n", n)
		}
		return
	}

	names, err := queue.List(ctx)
	if err != nil || len(names) == 0 {
		return
	}
	fmt.Println("queues:")
	for _, n := range names {
		fmt.Printf("    %s\n", n)
	}
}
