package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	var interval time.Duration
	var dir string
	var keep int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write timestamped snapshot files on a timer",
		Long: `Continuously export snapshots of the store to a directory.
Designed for running as a background service alongside the web server.
Handles SIGINT/SIGTERM for graceful shutdown (finishes the current cycle).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create backup directory: %w", err)
			}

			log.Printf("oceans backup: starting with interval %s", interval)

			cycle := 1
			for {
				start := time.Now()
				if err := writeBackup(dir, keep); err != nil {
					log.Printf("oceans backup: cycle %d error: %v", cycle, err)
				} else {
					log.Printf("oceans backup: cycle %d completed in %s", cycle, time.Since(start).Round(time.Millisecond))
				}

				cycle++

				// Wait for the next tick or a shutdown signal.
				timer := time.NewTimer(interval)
				select {
				case <-sig:
					timer.Stop()
					log.Println("oceans backup: received shutdown signal, exiting")
					return nil
				case <-timer.C:
				}
			}
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Hour, "duration between snapshots (e.g. 30m, 1h, 24h)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "./backups", "directory to write snapshot files into")
	cmd.Flags().IntVarP(&keep, "keep", "k", 24, "number of snapshot files to retain (0 = unlimited)")
	return cmd
}

func writeBackup(dir string, keep int) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.ExportSnapshot()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("oceans-%s.json", snap.Metadata.ExportedAt.Format("20060102-150405")))
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	log.Printf("oceans backup: wrote %s", name)

	if keep > 0 {
		if err := pruneBackups(dir, keep); err != nil {
			log.Printf("oceans backup: prune failed: %v", err)
		}
	}
	return nil
}

// pruneBackups removes the oldest snapshot files beyond the retention count.
// Snapshot filenames embed their timestamp, so lexical order is age order.
func pruneBackups(dir string, keep int) error {
	matches, err := filepath.Glob(filepath.Join(dir, "oceans-*.json"))
	if err != nil {
		return err
	}
	if len(matches) <= keep {
		return nil
	}
	for _, stale := range matches[:len(matches)-keep] {
		if err := os.Remove(stale); err != nil {
			return err
		}
	}
	return nil
}
