package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/premise-atlas/internal/adjudicate"
	"github.com/premise-atlas/internal/brand"
	"github.com/premise-atlas/internal/config"
	"github.com/premise-atlas/internal/docstore"
	"github.com/premise-atlas/internal/facility"
	"github.com/premise-atlas/internal/source"
	"github.com/premise-atlas/internal/sweep"
	"github.com/premise-atlas/internal/truth"
	"github.com/premise-atlas/internal/web"
)

var (
	cfg   config.Config
	store docstore.Store
	log   *zap.SugaredLogger
)

func main() {
	cfg = config.FromEnv()

	zl, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zl.Sync()
	log = zl.Sugar()

	store, err = openStore(cfg)
	if err != nil {
		log.Fatalw("opening document store", "error", err)
	}

	rootCmd := &cobra.Command{
		Use:   "premise",
		Short: "Address identity resolution and classification engine",
		Long:  `Resolves noisy premise records onto canonical address identities, aggregates truth views, and classifies each address as storefront, suite cluster, mail drop, or residence.`,
	}

	rootCmd.AddCommand(createTruthCmd())
	rootCmd.AddCommand(createFacilitiesCmd())
	rootCmd.AddCommand(createSweepCmd())
	rootCmd.AddCommand(createAdjudicateCmd())
	rootCmd.AddCommand(createEffectiveCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore selects the Postgres backend when a database URL is set, the
// file backend otherwise.
func openStore(cfg config.Config) (docstore.Store, error) {
	if cfg.DatabaseURL != "" {
		return docstore.NewPGStore(cfg.DatabaseURL)
	}
	return docstore.NewFileStore(cfg.DataDir)
}

func newRunner() *sweep.Runner {
	var provider sweep.Provider = sweep.StubProvider{}
	keyPresent := cfg.PlacesAPIKey != ""
	if keyPresent {
		provider = sweep.NewPlacesClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, cfg.ProviderTimeout)
	}
	classifyCfg := sweep.DefaultClassifyConfig()
	classifyCfg.Jurisdiction = cfg.Jurisdiction
	return sweep.NewRunner(store, provider, cfg.ProviderQPS, keyPresent,
		sweep.DefaultScoreWeights(), classifyCfg, log)
}

func printSummary(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalw("encoding summary", "error", err)
	}
	fmt.Println(string(data))
}

func createTruthCmd() *cobra.Command {
	truthCmd := &cobra.Command{
		Use:   "truth",
		Short: "Build and inspect truth rollups",
	}
	truthCmd.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Rebuild address and city truth documents from the source rows",
		Run: func(cmd *cobra.Command, args []string) {
			stats, err := truth.Build(store, brand.Load(store), truth.DefaultThresholds())
			if err != nil {
				log.Fatalw("truth build failed", "error", err)
			}
			printSummary(stats)
		},
	})
	return truthCmd
}

func readRowsFile(path string) []source.Row {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalw("reading rows file", "path", path, "error", err)
	}
	var doc struct {
		Rows []source.Row `json:"rows"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		// Allow a bare array too.
		if err2 := json.Unmarshal(data, &doc.Rows); err2 != nil {
			log.Fatalw("decoding rows file", "path", path, "error", err)
		}
	}
	return doc.Rows
}

func createFacilitiesCmd() *cobra.Command {
	facCmd := &cobra.Command{
		Use:   "facilities",
		Short: "Manage the operator facility directory",
	}

	facCmd.AddCommand(&cobra.Command{
		Use:   "preview [rows.json]",
		Short: "Match seed rows against the directory without committing",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			resolver := facility.NewResolver(store, log)
			res, err := resolver.Preview(readRowsFile(args[0]))
			if err != nil {
				log.Fatalw("preview failed", "error", err)
			}
			printSummary(res)
		},
	})

	commitCmd := &cobra.Command{
		Use:   "commit [rows.json]",
		Short: "Append not-found seeds to a named log and rebuild the directory",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logName, _ := cmd.Flags().GetString("log")
			resolver := facility.NewResolver(store, log)
			res, err := resolver.Commit(logName, readRowsFile(args[0]))
			if err != nil {
				log.Fatalw("commit failed", "error", err)
			}
			printSummary(res)
		},
	}
	commitCmd.Flags().String("log", "operator", "seed log name")
	facCmd.AddCommand(commitCmd)

	facCmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the directory from all seed logs",
		Run: func(cmd *cobra.Command, args []string) {
			resolver := facility.NewResolver(store, log)
			rows, err := resolver.Rebuild()
			if err != nil {
				log.Fatalw("rebuild failed", "error", err)
			}
			printSummary(map[string]int{"directory": len(rows)})
		},
	})
	return facCmd
}

func createSweepCmd() *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the candidate discovery and classification pass",
		Run: func(cmd *cobra.Command, args []string) {
			scope, _ := cmd.Flags().GetStringSlice("address")
			doc, err := newRunner().Run(context.Background(), sweep.RunOptions{Scope: scope})
			if err != nil {
				log.Fatalw("sweep failed", "error", err)
			}
			printSummary(map[string]interface{}{
				"counts":   doc.Counts,
				"provider": doc.Provider,
			})
		},
	}
	sweepCmd.Flags().StringSlice("address", nil, "limit the sweep to these address ids or keys")
	return sweepCmd
}

func createAdjudicateCmd() *cobra.Command {
	adjCmd := &cobra.Command{
		Use:   "adjudicate",
		Short: "Record human decisions for swept addresses",
	}

	setCmd := &cobra.Command{
		Use:   "set [addressKey] [decision]",
		Short: "Upsert one decision (replaces any existing entry for the key)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			note, _ := cmd.Flags().GetString("note")
			placeID, _ := cmd.Flags().GetString("place-id")
			adjStore := adjudicate.NewStore(store)
			err := adjStore.Upsert(adjudicate.Adjudication{
				AddressKey: args[0],
				Decision:   args[1],
				Note:       note,
				PlaceID:    placeID,
			})
			if err != nil {
				log.Fatalw("adjudication failed", "error", err)
			}
			fmt.Println("ok")
		},
	}
	setCmd.Flags().String("note", "", "reviewer note")
	setCmd.Flags().String("place-id", "", "confirmed candidate place id")
	adjCmd.AddCommand(setCmd)

	adjCmd.AddCommand(&cobra.Command{
		Use:   "bulk [items.json]",
		Short: "Bulk upsert decisions from a JSON file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				log.Fatalw("reading items file", "error", err)
			}
			var doc struct {
				Items []adjudicate.Adjudication `json:"items"`
			}
			if err := json.Unmarshal(data, &doc); err != nil {
				log.Fatalw("decoding items file", "error", err)
			}
			changed, err := adjudicate.NewStore(store).BulkUpsert(doc.Items)
			if err != nil {
				log.Fatalw("bulk adjudication failed", "error", err)
			}
			printSummary(map[string]int{"changed": changed})
		},
	})
	return adjCmd
}

func createEffectiveCmd() *cobra.Command {
	effCmd := &cobra.Command{
		Use:   "effective",
		Short: "Materialize the effective view",
	}
	effCmd.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Merge sweep rows with adjudications into the effective document",
		Run: func(cmd *cobra.Command, args []string) {
			rows, err := adjudicate.BuildEffective(store, adjudicate.NewStore(store))
			if err != nil {
				log.Fatalw("effective build failed", "error", err)
			}
			printSummary(map[string]int{"rows": rows})
		},
	})
	return effCmd
}

func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			server := web.NewServer(cfg, store, newRunner(), log)
			if err := server.Start(); err != nil {
				log.Fatalw("server failed", "error", err)
			}
		},
	}
}

func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the document store and report document presence",
		Run: func(cmd *cobra.Command, args []string) {
			names := []string{
				truth.SourceFacilitiesDoc,
				truth.SourceTechsDoc,
				truth.AddressTruthDoc,
				truth.CityTruthDoc,
				facility.DirectoryDoc,
				sweep.SweepDoc,
				adjudicate.AdjudicationsDoc,
				adjudicate.EffectiveDoc,
			}
			present := map[string]bool{}
			for _, name := range names {
				ok, err := store.Exists(name)
				if err != nil {
					log.Fatalw("store check failed", "doc", name, "error", err)
				}
				present[name] = ok
			}
			printSummary(present)
		},
	}
}
