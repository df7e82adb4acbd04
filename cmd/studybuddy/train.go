package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sujith0466/Smart-Study-Buddy/internal/classifier"
	"github.com/sujith0466/Smart-Study-Buddy/internal/config"
	"github.com/sujith0466/Smart-Study-Buddy/internal/intent"
)

var (
	trainOutput string
	trainAlpha  float64
	trainNGram  int
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the intent classifier and write the model artifact",
	Long: `Train fits the primary intent classifier on every pattern of the intent
catalog and writes a gzip-compressed artifact tagged with the catalog
fingerprint. The server refuses artifacts trained on a different catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if trainOutput != "" {
			cfg.ModelPath = trainOutput
		}
		return runTrain(cmd.OutOrStdout(), cfg, classifier.TrainOptions{
			Alpha: trainAlpha,
			NGram: trainNGram,
		})
	},
}

func init() {
	trainCmd.Flags().StringVarP(&trainOutput, "output", "o", "", "artifact path (default: model_path from config)")
	trainCmd.Flags().Float64Var(&trainAlpha, "alpha", classifier.DefaultAlpha, "additive smoothing")
	trainCmd.Flags().IntVar(&trainNGram, "ngram", 2, "largest word n-gram used as a feature")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(out io.Writer, cfg *config.Config, opts classifier.TrainOptions) error {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("load intent catalog: %w", err)
	}

	m, err := classifier.Train(catalog, opts)
	if err != nil {
		return fmt.Errorf("train classifier: %w", err)
	}
	if err := m.SaveFile(cfg.ModelPath, catalog.Fingerprint()); err != nil {
		return fmt.Errorf("save classifier: %w", err)
	}

	fmt.Fprintf(out, "classes:   %d\n", len(m.Classes()))
	fmt.Fprintf(out, "features:  %d\n", m.Features())
	fmt.Fprintf(out, "accuracy:  %.3f (training patterns)\n", trainingAccuracy(m, catalog))
	fmt.Fprintf(out, "written:   %s\n", cfg.ModelPath)
	return nil
}

// trainingAccuracy is the share of catalog patterns the model maps back to
// their own tag.
func trainingAccuracy(m *classifier.Model, catalog *intent.Catalog) float64 {
	patterns := catalog.Patterns()
	if len(patterns) == 0 {
		return 0
	}
	var hits int
	for _, p := range patterns {
		if res, ok := m.Classify(p.Text); ok && res.Tag == p.Tag {
			hits++
		}
	}
	return float64(hits) / float64(len(patterns))
}
