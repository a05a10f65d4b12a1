package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/adventcavalier/google-photos-upload/internal/auth"
	"github.com/adventcavalier/google-photos-upload/internal/config"
	"github.com/adventcavalier/google-photos-upload/internal/gphotos"
	"github.com/adventcavalier/google-photos-upload/internal/walker"
)

func main() {
	var authFile string
	var logFile string
	var albumName string
	var strictEmpty bool

	rootCmd := cobra.Command{
		Use:   "gphotos-upload [photo...]",
		Short: "Upload photos to Google Photos",
		Long: `Upload photos to Google Photos, optionally into a named album.
The album is created if it does not already exist.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.Load()
			if err := settings.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger, closeLog, err := newLogger(logFile, settings)
			if err != nil {
				return err
			}
			defer closeLog()

			if len(args) == 0 {
				if strictEmpty {
					return fmt.Errorf("no photos specified")
				}
				fmt.Println("No photos specified")
				return nil
			}

			ctx := cmd.Context()
			client, err := newClient(ctx, settings, authFile, logger)
			if err != nil {
				logger.Error("Authentication failed", slog.String("error", err.Error()))
				return err
			}
			if _, err := client.UploadPhotos(ctx, args, albumName); err != nil {
				logger.Error("Upload failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&authFile, "auth", "", "File for reading/storing user authentication tokens")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "Name of output file for log messages")
	rootCmd.Flags().StringVar(&albumName, "album", "", "Name of photo album to create (if it doesn't exist); uploaded photos are added to it")
	rootCmd.Flags().BoolVar(&strictEmpty, "strict-empty", false, "Treat an empty photo list as an error instead of a no-op")

	uploadDirCmd := cobra.Command{
		Use:   "upload-dir <directory>",
		Short: "Upload a directory tree, one album per subdirectory",
		Long: `Upload photos from a directory tree to Google Photos. Every
subdirectory becomes an album named after it; files within a directory
are uploaded in sorted order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.Load()
			if err := settings.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger, closeLog, err := newLogger(logFile, settings)
			if err != nil {
				return err
			}
			defer closeLog()

			batches, err := walker.Walk(args[0])
			if err != nil {
				logger.Error("Failed to walk directory", slog.String("error", err.Error()))
				return err
			}
			if len(batches) == 0 {
				logger.Info("No album subdirectories found", slog.String("root", args[0]))
				return nil
			}

			ctx := cmd.Context()
			client, err := newClient(ctx, settings, authFile, logger)
			if err != nil {
				logger.Error("Authentication failed", slog.String("error", err.Error()))
				return err
			}
			if err := client.UploadAlbums(ctx, batches); err != nil {
				logger.Error("Upload failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}
	rootCmd.AddCommand(&uploadDirCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newClient authenticates and wires up the API client.
func newClient(ctx context.Context, settings config.Settings, authFile string, logger *slog.Logger) (*gphotos.Client, error) {
	httpClient, err := auth.Session(ctx, settings, authFile, logger)
	if err != nil {
		return nil, err
	}
	session := gphotos.NewSession(httpClient, settings.APIBaseURL)
	return gphotos.NewClient(session, settings, logger), nil
}

// newLogger builds the run's logger, writing to logFile when given and
// stderr otherwise.
func newLogger(logFile string, settings config.Settings) (*slog.Logger, func(), error) {
	level, err := settings.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	w := io.Writer(os.Stderr)
	closeFn := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		w = f
		closeFn = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slog.NewTextHandler(w, opts)), closeFn, nil
}
