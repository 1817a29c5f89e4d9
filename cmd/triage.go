package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fraudops/fieldkit/core/allocate"
	"github.com/fraudops/fieldkit/core/cluster"
	"github.com/fraudops/fieldkit/core/model"
	"github.com/fraudops/fieldkit/core/priority"
)

var (
	alertsPath string
	unitsPath  string
)

// triageCmd runs one full score/cluster/allocate pass over a file of
// alerts, for operator tooling and dry runs.
var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Score, cluster and allocate a file of alerts",
	RunE:  runTriage,
}

func init() {
	triageCmd.Flags().StringVar(&alertsPath, "alerts", "alerts.json", "JSON file of alerts")
	triageCmd.Flags().StringVar(&unitsPath, "units", "", "JSON file of responding units (optional)")
	rootCmd.AddCommand(triageCmd)
}

type triageOutput struct {
	Clusters    []cluster.Cluster `json:"clusters"`
	Assignments map[string]string `json:"assignments,omitempty"`
}

func runTriage(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(alertsPath)
	if err != nil {
		return fmt.Errorf("read alerts: %w", err)
	}
	var alerts []model.Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return fmt.Errorf("decode alerts: %w", err)
	}
	for _, a := range alerts {
		if err := a.Validate(); err != nil {
			return err
		}
	}

	clusterer := cluster.New(priority.NewScorer())
	out := triageOutput{Clusters: clusterer.GroupByLocation(alerts, nil)}

	if unitsPath != "" {
		udata, err := os.ReadFile(unitsPath)
		if err != nil {
			return fmt.Errorf("read units: %w", err)
		}
		var units []model.Unit
		if err := json.Unmarshal(udata, &units); err != nil {
			return fmt.Errorf("decode units: %w", err)
		}
		for _, u := range units {
			if err := u.Validate(); err != nil {
				return err
			}
		}
		out.Assignments = allocate.NewAllocator().Allocate(out.Clusters, units)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
