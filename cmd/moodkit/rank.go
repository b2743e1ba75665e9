package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/discovery"
)

var (
	rankFile    string
	rankMood    string
	rankMax     int
	rankBackend string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank restaurants from a candidate file",
	Long: `Rank a fixture of candidate restaurants (YAML or JSON) for one mood and print the result as JSON.

The file holds either a list of restaurants or an object with a "restaurants" list,
in the same shape the collect command writes.

Examples:
  moodkit rank --file candidates.yaml --mood date
  moodkit rank --file reviews.json --mood budget --max 5 --backend keyword`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVarP(&rankFile, "file", "f", "", "candidate file (YAML or JSON)")
	rankCmd.Flags().StringVarP(&rankMood, "mood", "m", "", "mood to rank for")
	rankCmd.Flags().IntVarP(&rankMax, "max", "n", 10, "maximum number of results")
	rankCmd.Flags().StringVar(&rankBackend, "backend", "", "override model.backend")
	_ = rankCmd.MarkFlagRequired("file")
	_ = rankCmd.MarkFlagRequired("mood")
}

func runRank(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if rankBackend != "" {
		cfg.Model.Backend = rankBackend
	}

	candidates, err := discovery.LoadCandidates(rankFile)
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := eng.Rank(cmd.Context(), candidates, core.Mood(rankMood), rankMax)
	if err != nil {
		return err
	}
	return writeIndented(cmd.OutOrStdout(), res)
}

func writeIndented(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
