package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	oceans "github.com/calmeoceans/oceans-tracers"
	"github.com/calmeoceans/oceans-tracers/internal/notify"
	"github.com/calmeoceans/oceans-tracers/internal/storage"
)

var (
	configPath string
	cfg        *storage.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oceans",
		Short: "Content store for the Ocean Tracers marketing site",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(contentCmd())
	rootCmd.AddCommand(imageCmd())
	rootCmd.AddCommand(submissionsCmd())
	rootCmd.AddCommand(partnersCmd())
	rootCmd.AddCommand(subscribersCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(initConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = storage.DefaultConfig()
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg = storage.DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

func openStore() (*oceans.Store, error) {
	store, err := oceans.Open(oceans.StoreConfig{
		DatabasePath: cfg.Database.Path,
		FallbackPath: cfg.Database.FallbackPath,
		SeedDefaults: cfg.Database.SeedDefaults,
		Notifier:     notify.NewEmailNotifier(cfg.Notifications.Enabled, cfg.Notifications.Recipient),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func contentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Manage editable site content",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under a content key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			value, ok, err := store.GetContent(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no content stored under %q", args[0])
			}
			fmt.Println(value)
			return nil
		},
	})

	var contentType string
	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a content value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			item, err := store.PutContent(args[0], args[1], contentType)
			if err != nil {
				return err
			}
			fmt.Printf("Stored %s (version %d)\n", item.Key, item.Version)
			return nil
		},
	}
	setCmd.Flags().StringVarP(&contentType, "type", "t", "text", "content type: text or html")
	cmd.AddCommand(setCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all content keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.ListContent()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tTYPE\tVERSION\tUPDATED")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", item.Key, item.Type, item.Version, item.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	})

	return cmd
}

func imageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage image assets",
	}

	var category string
	setCmd := &cobra.Command{
		Use:   "set <id> <payload>",
		Short: "Store an image payload (data URI or external URL)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			asset, err := store.PutImage(args[0], args[1], category)
			if err != nil {
				return err
			}
			fmt.Printf("Stored %s (%s, %d bytes)\n", asset.ID, asset.Format, asset.SizeBytes)
			return nil
		},
	}
	setCmd.Flags().StringVar(&category, "category", "", "image category (default: general)")
	cmd.AddCommand(setCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Print the stored payload for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			payload, ok, err := store.GetImage(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no image stored under %q", args[0])
			}
			fmt.Println(payload)
			return nil
		},
	})

	var listCategory string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored images",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			assets, err := store.ListImages(listCategory)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tFORMAT\tSIZE\tUPLOADED")
			for _, a := range assets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", a.ID, a.Category, a.Format, a.SizeBytes, a.UploadedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&listCategory, "category", "", "only list images in this category")
	cmd.AddCommand(listCmd)

	return cmd
}

func submissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Review contact-form submissions",
	}

	var status string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			subs, err := store.ListSubmissions(status, limit)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(subs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&status, "status", "s", "", "filter by status: pending, reviewed, archived")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of submissions to show (0 = all)")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a submission to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid submission ID: %w", err)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sub, err := store.UpdateSubmissionStatus(id, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Submission %d is now %s\n", sub.ID, sub.Status)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "read <id>",
		Short: "Mark a submission as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid submission ID: %w", err)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.MarkSubmissionRead(id); err != nil {
				return err
			}
			fmt.Printf("Marked submission %d as read\n", id)
			return nil
		},
	})

	return cmd
}

func partnersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partners",
		Short: "Manage partner organizations",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List partners",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			status := ""
			if all {
				status = "all"
			}
			partners, err := store.ListPartners(status)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTIER\tSTATUS\tWEBSITE")
			for _, p := range partners {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Tier, p.Status, p.Website)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().BoolVarP(&all, "all", "a", false, "include inactive partners")
	cmd.AddCommand(listCmd)

	var id, website, tier, status string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.UpsertPartner(oceans.Partner{
				ID:      id,
				Name:    args[0],
				Website: website,
				Tier:    tier,
				Status:  status,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Stored partner %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&id, "id", "", "partner ID (generated when empty)")
	addCmd.Flags().StringVar(&website, "website", "", "partner website URL")
	addCmd.Flags().StringVar(&tier, "tier", "", "partner tier")
	addCmd.Flags().StringVar(&status, "status", "", "partner status: active or inactive")
	cmd.AddCommand(addCmd)

	return cmd
}

func subscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage newsletter subscribers",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			subs, err := store.ListSubscribers(!all)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tACTIVE\tSUBSCRIBED")
			for _, sub := range subs {
				fmt.Fprintf(w, "%s\t%v\t%s\n", sub.Email, sub.Active, sub.SubscribedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
	listCmd.Flags().BoolVarP(&all, "all", "a", false, "include unsubscribed addresses")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "add <email>",
		Short: "Subscribe an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sub, err := store.Subscribe(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Subscribed %s\n", sub.Email)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <email>",
		Short: "Unsubscribe an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Unsubscribe(args[0]); err != nil {
				return err
			}
			fmt.Printf("Unsubscribed %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage site-wide settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			value, ok, err := store.GetSetting(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no setting stored under %q", args[0])
			}
			fmt.Println(value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.SetSetting(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Stored setting %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			settings, err := store.ListSettings()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE\tUPDATED")
			for _, s := range settings {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Key, s.Value, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	})

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Statistics()
			if err != nil {
				return err
			}
			fmt.Printf("Backend:             %s\n", store.BackendKind())
			fmt.Printf("Content items:       %d\n", stats.ContentItems)
			fmt.Printf("Images:              %d\n", stats.Images)
			fmt.Printf("Submissions:         %d (%d pending)\n", stats.Submissions, stats.PendingSubmissions)
			fmt.Printf("Active partners:     %d\n", stats.ActivePartners)
			fmt.Printf("Subscribers:         %d\n", stats.Subscribers)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export a full snapshot as JSON (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if len(args) == 0 {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(args[0], data, 0644); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
			fmt.Printf("Exported snapshot %s to %s\n", snap.Metadata.ID, args[0])
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the store's contents with a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("import replaces all existing data; re-run with --yes to confirm")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}
			var snap oceans.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("failed to parse snapshot: %w", err)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ImportSnapshot(&snap); err != nil {
				return err
			}
			fmt.Printf("Imported snapshot %s from %s\n", snap.Metadata.ID, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm replacing all existing data")
	return cmd
}

func clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("clear deletes all data; re-run with --yes to confirm")
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ClearAll(); err != nil {
				return err
			}
			fmt.Println("Cleared all data")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting all data")
	return cmd
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Create a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = "./config/config.yaml"
			}

			dir := filepath.Dir(configPath)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config file already exists: %s", configPath)
			}

			cfg := storage.DefaultConfig()
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			if err := os.WriteFile(configPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Printf("Created default config at %s\n", configPath)
			return nil
		},
	}
}
