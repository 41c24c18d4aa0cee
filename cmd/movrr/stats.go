package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"movrr/waitlist/pkg/cli"
	"movrr/waitlist/pkg/waitlist"
)

var statsFlags struct {
	output string
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print waitlist statistics",
	Long: `Print the dashboard statistics: total signups, distinct cities, bike
owners, planned purchases, signups in the last 7 days and the top cities.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsFlags.output, "output", "text", "text, json or csv")
}

// statsView prints Stats as metric/value rows; JSON keeps the Stats shape.
type statsView struct {
	waitlist.Stats
}

func (v statsView) Header() []string { return []string{"METRIC", "VALUE"} }

func (v statsView) Rows() [][]string {
	rows := [][]string{
		{"total_signups", strconv.Itoa(v.TotalSignups)},
		{"cities", strconv.Itoa(v.Cities)},
		{"bike_owners", strconv.Itoa(v.BikeOwners)},
		{"owner_percent", strconv.Itoa(v.OwnerPercent)},
		{"planning_to_buy", strconv.Itoa(v.PlanningToBuy)},
		{"recent_signups", strconv.Itoa(v.RecentSignups)},
	}
	for _, c := range v.TopCities {
		rows = append(rows, []string{"city:" + c.City, strconv.Itoa(c.Signups)})
	}
	return rows
}

func runStats(cmd *cobra.Command, args []string) error {
	output, err := cli.ParseOutputFormat(statsFlags.output)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.service.Stats(cmd.Context())
	if err != nil {
		return cli.NewCommandError("stats", err)
	}
	return cli.NewFormatter(output).FormatTo(cmd.OutOrStdout(), statsView{stats})
}
