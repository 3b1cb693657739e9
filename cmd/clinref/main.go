package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinref/clinref/internal/config"
	"github.com/clinref/clinref/internal/domain/dosage"
	"github.com/clinref/clinref/internal/domain/interaction"
	"github.com/clinref/clinref/internal/domain/patient"
	"github.com/clinref/clinref/internal/domain/reference"
	syncpkg "github.com/clinref/clinref/internal/domain/sync"
	"github.com/clinref/clinref/internal/domain/validation"
	"github.com/clinref/clinref/internal/platform/statestore"
)

// app bundles the constructed components shared by the subcommands.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	dataset   *reference.Dataset
	drugs     reference.DrugRepository
	validator *validation.Validator
	checker   *interaction.Checker
	store     statestore.Store
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	var ds *reference.Dataset
	if cfg.DatasetPath != "" {
		ds, err = reference.LoadFile(cfg.DatasetPath)
	} else {
		ds, err = reference.LoadEmbedded()
	}
	if err != nil {
		return nil, err
	}

	var store statestore.Store = statestore.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pool, poolErr := pgxpool.New(ctx, cfg.DatabaseURL)
		if poolErr != nil {
			return nil, fmt.Errorf("connect database: %w", poolErr)
		}
		store, err = statestore.NewPGStore(ctx, pool)
		if err != nil {
			return nil, err
		}
	}

	drugs := reference.NewMemoryDrugRepository(ds.Drugs)
	return &app{
		cfg:       cfg,
		logger:    logger,
		dataset:   ds,
		drugs:     drugs,
		validator: validation.NewValidator(),
		checker:   interaction.NewChecker(drugs, logger),
		store:     store,
	}, nil
}

func (a *app) orchestrator() *syncpkg.Orchestrator {
	orch := syncpkg.NewOrchestrator(a.dataset, a.validator, a.store, a.logger, syncpkg.Config{
		MaxAttempts: a.cfg.SyncMaxAttempts,
		BackoffBase: a.cfg.Backoff(),
		CacheTTL:    a.cfg.CacheTTL(),
	})
	// Reference data changing under the checker would leave stale pair
	// outcomes cached.
	orch.Subscribe(func(syncpkg.Status) { a.checker.InvalidateCache() })
	return orch
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinref",
		Short: "Clinical decision-support reference engine",
	}

	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(doseCmd())
	rootCmd.AddCommand(interactionsCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a full reference-data sync and print the quality report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			orch := a.orchestrator()
			if err := orch.Initialize(cmd.Context()); err != nil {
				return err
			}
			return printJSON(orch.Status())
		},
	}
}

func doseCmd() *cobra.Command {
	var (
		drug, gender, procedure string
		age                     int
		weight, creatinine      float64
		conditions, allergies   []string
	)
	cmd := &cobra.Command{
		Use:   "dose",
		Short: "Calculate a patient-specific dose",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			p := &patient.Parameters{
				Age:        age,
				WeightKg:   weight,
				Gender:     gender,
				Conditions: conditions,
				Allergies:  allergies,
			}
			if creatinine > 0 {
				p.Creatinine = &creatinine
			}
			engine := dosage.NewEngine(a.drugs, a.validator, a.logger)
			res, err := engine.Calculate(cmd.Context(), p, drug, procedure)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&drug, "drug", "", "drug name (required)")
	cmd.Flags().IntVar(&age, "age", 0, "patient age in years (required)")
	cmd.Flags().Float64Var(&weight, "weight", 0, "patient weight in kg (required)")
	cmd.Flags().StringVar(&gender, "gender", "", "male|female|other")
	cmd.Flags().Float64Var(&creatinine, "creatinine", 0, "serum creatinine in mg/dL")
	cmd.Flags().StringSliceVar(&conditions, "condition", nil, "patient condition (repeatable)")
	cmd.Flags().StringSliceVar(&allergies, "allergy", nil, "patient allergy (repeatable)")
	cmd.Flags().StringVar(&procedure, "procedure", "", "procedure indication hint")
	cobra.CheckErr(cmd.MarkFlagRequired("drug"))
	cobra.CheckErr(cmd.MarkFlagRequired("age"))
	cobra.CheckErr(cmd.MarkFlagRequired("weight"))
	return cmd
}

func interactionsCmd() *cobra.Command {
	var (
		age                   int
		conditions, allergies []string
	)
	cmd := &cobra.Command{
		Use:   "interactions <drug>...",
		Short: "Check a drug combination for interactions and contraindications",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			var ids []uuid.UUID
			for _, name := range args {
				d, lookupErr := a.drugs.GetByName(cmd.Context(), name)
				if lookupErr != nil {
					return lookupErr
				}
				if d == nil {
					return fmt.Errorf("drug %q not found; known drugs: %s", name, knownDrugs(a.dataset))
				}
				ids = append(ids, d.ID)
			}
			var p *patient.Parameters
			if age > 0 {
				p = &patient.Parameters{Age: age, WeightKg: 70, Conditions: conditions, Allergies: allergies}
			}
			res, err := a.checker.Check(cmd.Context(), ids, p)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().IntVar(&age, "age", 0, "patient age in years (enables patient checks)")
	cmd.Flags().StringSliceVar(&conditions, "condition", nil, "patient condition (repeatable)")
	cmd.Flags().StringSliceVar(&allergies, "allergy", nil, "patient allergy (repeatable)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate every reference record and print per-record summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range a.dataset.Drugs {
				fmt.Printf("drug %-28s %s\n", d.Name, validation.Summary(a.validator.ValidateDrug(d)))
			}
			for _, p := range a.dataset.Procedures {
				fmt.Printf("procedure %-24s %s\n", p.Name, validation.Summary(a.validator.ValidateProcedure(p)))
			}
			for _, m := range a.dataset.Materials {
				fmt.Printf("material %-25s %s\n", m.Name, validation.Summary(a.validator.ValidateMaterial(m)))
			}
			return nil
		},
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func knownDrugs(ds *reference.Dataset) string {
	names := make([]string, 0, len(ds.Drugs))
	for _, d := range ds.Drugs {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}
