// Command trendr runs the attention-flow engine: ingest tagged content,
// detect flows on a schedule, and serve the results over local HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/trendr-app/trendr/internal/api"
	"github.com/trendr-app/trendr/internal/config"
	"github.com/trendr-app/trendr/internal/engine"
	"github.com/trendr-app/trendr/internal/ingest"
	"github.com/trendr-app/trendr/internal/notifier"
	"github.com/trendr-app/trendr/internal/report"
	"github.com/trendr-app/trendr/internal/scheduler"
	"github.com/trendr-app/trendr/internal/store"
	"github.com/trendr-app/trendr/internal/taxonomy"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trendr",
		Short: "Attention flow detection over a topic co-occurrence graph",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(flowsCmd())
	rootCmd.AddCommand(relatedCmd())
	rootCmd.AddCommand(alertsCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, writing defaults on first run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg = config.Default()
	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}
	path, _ := config.ConfigPath()
	log.Printf("[main] Created default config at %s", path)
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	s, err := store.New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := taxonomy.Seed(s); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server with scheduled detection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			// Server runs until killed; no deferred close.

			eng := engine.New(s, cfg)

			extractor, err := taxonomy.NewExtractor(s, cfg.Detection.MaxTopicsPerItem)
			if err != nil {
				return err
			}
			pipe := ingest.New(s, cfg.Detection.MaxTopicsPerItem)

			var emailer *notifier.Notifier
			if cfg.Email.Enabled {
				emailer, err = notifier.NewFromConfig(cfg.Email)
				if err != nil {
					return fmt.Errorf("email notifier: %w", err)
				}
				log.Printf("[main] Email digests enabled, sending to %s", cfg.Email.ToAddr)
			}

			sched, err := scheduler.New(cfg.Schedule.Timezone)
			if err != nil {
				return err
			}
			err = sched.AddIntervalJob("detect", cfg.Schedule.DetectIntervalMinutes, func(ctx context.Context) error {
				result, err := eng.RunDetectionCycle(ctx)
				if err != nil {
					return err
				}
				if emailer != nil && len(result.Alerts) > 0 {
					if err := sendDigest(s, emailer, result); err != nil {
						log.Printf("[main] Digest send failed: %v", err)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			log.Printf("[main] Detection scheduled every %d minutes", cfg.Schedule.DetectIntervalMinutes)

			if addr == "" {
				addr = cfg.Server.Addr
			}
			server := api.New(s, eng, pipe, extractor.Extract, addr)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	return cmd
}

// sendDigest emails the flows behind a cycle's alerts.
func sendDigest(s *store.Store, emailer *notifier.Notifier, result *engine.CycleResult) error {
	names, err := s.TopicNames()
	if err != nil {
		return err
	}
	builder, err := report.New(20)
	if err != nil {
		return err
	}
	digest, err := builder.Build(result.Flows, names)
	if err != nil {
		return err
	}
	return emailer.SendDigest(digest)
}

func detectCmd() *cobra.Command {
	var last bool

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run one detection cycle now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			var result *engine.CycleResult
			if last {
				cached, path, err := store.LoadLatestSnapshot[engine.CycleResult](store.SnapshotCycle)
				if err != nil {
					return err
				}
				fmt.Printf("Last cycle (%s):\n", path)
				result = &cached
			} else {
				eng := engine.New(s, cfg)
				result, err = eng.RunDetectionCycle(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Detection finished in %s: %d flows, %d alerts\n",
					result.Duration.Round(time.Millisecond), len(result.Flows), len(result.Alerts))
			}

			names, err := s.TopicNames()
			if err != nil {
				return err
			}
			for _, f := range result.Flows {
				printFlow(f, names)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&last, "last", false, "print the most recent cycle's snapshot instead of running")
	return cmd
}

func ingestCmd() *cobra.Command {
	var extractTopics bool

	cmd := &cobra.Command{
		Use:   "ingest [file.json]",
		Short: "Ingest a JSON array of content items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var items []ingest.Item
			if err := json.Unmarshal(data, &items); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			extractor, err := taxonomy.NewExtractor(s, cfg.Detection.MaxTopicsPerItem)
			if err != nil {
				return err
			}
			pipe := ingest.New(s, cfg.Detection.MaxTopicsPerItem)

			inserted := 0
			for _, item := range items {
				var tags []store.TopicTag
				if extractTopics {
					tags = extractor.Extract(item.Text)
				}
				ok, err := pipe.Ingest(cmd.Context(), item, tags)
				if err != nil {
					log.Printf("[main] Skipping %s/%s: %v", item.Platform, item.PlatformID, err)
					continue
				}
				if ok {
					inserted++
				}
			}

			if path, err := store.SaveSnapshot(store.SnapshotIngested, items); err == nil {
				log.Printf("[main] Ingest snapshot saved to %s", path)
			}

			fmt.Printf("Ingested %d of %d items\n", inserted, len(items))
			return nil
		},
	}

	cmd.Flags().BoolVar(&extractTopics, "extract", true, "tag items with the keyword extractor")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default topic taxonomy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openStore(cfg) // openStore seeds when the topics table is empty
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.CountTopics()
			if err != nil {
				return err
			}
			fmt.Printf("Taxonomy ready: %d topics\n", n)
			return nil
		},
	}
}

func flowsCmd() *cobra.Command {
	var minConfidence float64

	cmd := &cobra.Command{
		Use:   "flows",
		Short: "List active attention flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			flows, err := s.ActiveFlows(time.Now().UTC(), minConfidence)
			if err != nil {
				return err
			}
			if len(flows) == 0 {
				fmt.Println("No active flows. Run 'trendr detect' after ingesting content.")
				return nil
			}

			names, err := s.TopicNames()
			if err != nil {
				return err
			}
			for _, f := range flows {
				printFlow(f, names)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "hide flows below this confidence")
	return cmd
}

func printFlow(f store.Flow, names map[string]string) {
	from := names[f.FromTopicID]
	to := names[f.ToTopicID]
	if from == "" {
		from = f.FromTopicID
	}
	if to == "" {
		to = f.ToTopicID
	}

	classes := make([]string, 0, len(f.Signals))
	for _, sig := range f.Signals {
		classes = append(classes, sig.Type)
	}

	line := fmt.Sprintf("%s -> %s  confidence %.2f  strength %.2f  [%s]",
		from, to, f.Confidence, f.Strength, strings.Join(classes, ", "))
	if f.Motivation != nil {
		line += "  via " + *f.Motivation
	}
	fmt.Println(line)
}

func relatedCmd() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "related [topic-id]",
		Short: "Show topics linked through the co-occurrence graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			related, err := s.RelatedTopics(args[0], depth)
			if err != nil {
				return err
			}
			if len(related) == 0 {
				fmt.Println("No related topics yet.")
				return nil
			}

			for _, r := range related {
				fmt.Printf("%s  depth %d  weight %d\n", r.Name, r.Depth, r.Weight)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 2, "traversal depth (1 or 2)")
	return cmd
}

func alertsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			var alerts []store.Alert
			if all {
				alerts, err = s.ListAlerts(50)
			} else {
				alerts, err = s.UnreadAlerts()
			}
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				fmt.Println("No alerts.")
				return nil
			}

			for _, a := range alerts {
				marker := " "
				if !a.Read {
					marker = "*"
				}
				fmt.Printf("%s %s  %-14s  %s\n", marker, a.CreatedAt.Format("2006-01-02 15:04"), a.AlertType, a.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include read alerts")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus and flow statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.Stats(time.Now().UTC())
			if err != nil {
				return err
			}

			fmt.Printf("Content:       %d (%d in the last 7 days)\n", st.TotalContent, st.ContentLast7Days)
			fmt.Printf("Topics:        %d\n", st.TotalTopics)
			fmt.Printf("Creators:      %d\n", st.TotalCreators)
			fmt.Printf("Active flows:  %d\n", st.ActiveFlows)
			if len(st.TopTopics) > 0 {
				fmt.Println("Top topics:")
				for _, t := range st.TopTopics {
					fmt.Printf("  %-24s %d\n", t.Name, t.Count)
				}
			}
			return nil
		},
	}
}
