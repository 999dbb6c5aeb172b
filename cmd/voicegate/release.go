package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voicegate/internal/contract"
	"voicegate/internal/release"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release bundle tooling (snapshot, verify)",
}

var releaseSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write the deterministic release bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := contract.Load(cfg.Contract.Path)
		if err != nil {
			return err
		}
		if err := release.Snapshot(doc, cfg.Engine, cfg.Release.Dir); err != nil {
			return err
		}

		report, err := release.Verify(cfg.Release.Dir)
		if err != nil {
			return err
		}
		if !report.OK() {
			return fmt.Errorf("freshly written bundle failed verification: %v", report.Errors)
		}
		fmt.Printf("snapshot written to %s (bundle %s)\n", cfg.Release.Dir, report.BundleDigest)
		return nil
	},
}

var releaseVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the release bundle's integrity",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := release.Verify(cfg.Release.Dir)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(report); err != nil {
			return err
		}
		if !report.OK() {
			return fmt.Errorf("bundle verification failed")
		}
		return nil
	},
}

func init() {
	releaseCmd.AddCommand(releaseSnapshotCmd)
	releaseCmd.AddCommand(releaseVerifyCmd)
}
