package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"atelier/internal/api"
	"atelier/internal/domain"
	"atelier/internal/store"
)

var dbURL string

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// Default store location; DATABASE_URL overrides, --db overrides both.
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".atelier", "atelier.db")
	if env := os.Getenv("DATABASE_URL"); env != "" {
		defaultDB = env
	}

	rootCmd := &cobra.Command{
		Use:   "atelier",
		Short: "Record keeping for freelance artists: clients, commissions, notes",
		Long: "Atelier tracks clients, commissions and notes behind a small JSON API.\n" +
			"Records are append-only: there are no update or delete operations.",
	}

	rootCmd.PersistentFlags().StringVar(&dbURL, "db", defaultDB,
		"store connection string: a sqlite path, a mongodb:// URL or a ws:// SurrealDB URL")

	rootCmd.AddCommand(serveCmd(logger))
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore() (store.Store, error) {
	// Plain paths are sqlite files; make sure the directory exists.
	if !strings.Contains(dbURL, "://") {
		if err := os.MkdirAll(filepath.Dir(dbURL), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return store.Open(dbURL)
}

func serveCmd(logger zerolog.Logger) *cobra.Command {
	defaultAddr := ":8000"
	if port := os.Getenv("PORT"); port != "" {
		defaultAddr = ":" + port
	}

	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				// Serve anyway: data endpoints answer 500, /test reports
				// the degraded state.
				logger.Warn().Err(err).Msg("store unavailable, serving degraded")
				s = nil
			}
			// Note: don't defer s.Close() as server runs indefinitely

			server := api.New(s, addr, logger)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", defaultAddr, "server address")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show commission counts per pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			counts, err := s.CountByField(context.Background(), domain.CollectionCommission, "status")
			if err != nil {
				return err
			}

			if len(counts) == 0 {
				fmt.Println("No commissions yet.")
				return nil
			}

			statuses := make([]string, 0, len(counts))
			for status := range counts {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)

			for _, status := range statuses {
				label := status
				if label == "" {
					label = "Unknown"
				}
				fmt.Printf("%-12s %d\n", label, counts[status])
			}

			return nil
		},
	}
}
