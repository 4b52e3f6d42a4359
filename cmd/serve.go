package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CleanSheetLabs/cleansheet/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web service: upload, clean, preview, download",
	Long: `Serve starts the HTTP server. Open the printed address in a browser
to upload a dataset, or talk to the JSON API directly:

  POST /api/upload     multipart field 'file' (.csv/.tsv/.xlsx)
  GET  /api/shape      rows/columns of the cleaned table
  GET  /api/preview    first rows x cols window of the cleaned table
  GET  /api/summary    profile of raw or cleaned data plus pipeline report
  GET  /api/download   the cleaned table as a CSV attachment`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := ensureConfig()
		if serveAddr != "" {
			c.ListenAddr = serveAddr
		}

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(c, logger).ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "bind address (overrides listen_addr from config)")
}
