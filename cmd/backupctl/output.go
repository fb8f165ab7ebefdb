package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/marinxz/n-playwright-3.9/location"
	"github.com/marinxz/n-playwright-3.9/workflow"
)

type resultView struct {
	Location     string `json:"location" yaml:"location"`
	RunID        string `json:"run_id" yaml:"run_id"`
	Success      bool   `json:"success" yaml:"success"`
	ArtifactPath string `json:"artifact_path,omitempty" yaml:"artifact_path,omitempty"`
	Size         int64  `json:"size,omitempty" yaml:"size,omitempty"`
	ArchivedAt   string `json:"archived_at,omitempty" yaml:"archived_at,omitempty"`
	FailedState  string `json:"failed_state,omitempty" yaml:"failed_state,omitempty"`
	Reason       string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
	Duration     string `json:"duration" yaml:"duration"`
}

func toResultView(res workflow.Result) resultView {
	v := resultView{
		Location:     res.Location,
		RunID:        res.RunID.String(),
		Success:      res.Success,
		ArtifactPath: res.ArtifactPath,
		Size:         res.Size,
		ArchivedAt:   res.ArchivedAt,
		FailedState:  string(res.FailedState),
		Reason:       res.Reason(),
		Duration:     res.Duration.Round(time.Millisecond).String(),
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

func (a *app) printResults(results []workflow.Result) error {
	views := make([]resultView, len(results))
	for i, res := range results {
		views[i] = toResultView(res)
	}

	switch a.settings.Output {
	case "json":
		return printJSON(a.out, views)
	case "yaml":
		return printYAML(a.out, views)
	}

	for _, v := range views {
		if v.Success {
			pterm.Success.WithWriter(a.out).Printfln("%s: backup saved to %s (%d bytes, %s)",
				v.Location, v.ArtifactPath, v.Size, v.Duration)
			continue
		}
		pterm.Error.WithWriter(a.out).Printfln("%s: failed in %s (%s): %s",
			v.Location, v.FailedState, v.Reason, v.Error)
	}
	return nil
}

func (a *app) printConfigs(cfgs []*location.Config) error {
	views := make([]map[string]interface{}, len(cfgs))
	for i, cfg := range cfgs {
		views[i] = cfg.Redacted()
	}

	switch a.settings.Output {
	case "json":
		return printJSON(a.out, views)
	case "yaml":
		return printYAML(a.out, views)
	}

	for _, view := range views {
		pterm.Info.WithWriter(a.out).Printfln("%s", view["location"])
		keys := make([]string, 0, len(view))
		for k := range view {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, fmt.Sprint(view[k])})
		}
		printTable(a.out, []string{"KEY", "VALUE"}, rows)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}
