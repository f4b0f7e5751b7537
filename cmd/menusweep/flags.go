package main

import (
	"github.com/spf13/cobra"

	"github.com/v0xg/menusweep/internal/config"
)

// scanFlags holds the scan flags before they become config overrides.
type scanFlags struct {
	url          string
	username     string
	password     string
	headless     bool
	profile      string
	blockHTTPS   bool
	output       string
	leafMode     string
	skipSides    string
	patternsFile string
	evidenceDir  string
	evidenceGIF  string
	logFormat    string
	verbose      bool
	metricsFile  string
}

func bindScanFlags(cmd *cobra.Command, f *scanFlags) {
	cmd.Flags().StringVar(&f.url, "url", "", "Application entry URL")
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Login id (or MENUSWEEP_USERNAME)")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "Login password (or MENUSWEEP_PASSWORD)")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "Run the browser without a window")
	cmd.Flags().StringVar(&f.profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	cmd.Flags().BoolVar(&f.blockHTTPS, "block-https", true, "Abort every https:// request")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Report file (default scanResult.json)")
	cmd.Flags().StringVar(&f.leafMode, "leaf-mode", "", "Run the leaf action on: leaves, all")
	cmd.Flags().StringVar(&f.skipSides, "skip-sides", "", "Comma-separated side menus to skip")
	cmd.Flags().StringVar(&f.patternsFile, "patterns", "", "YAML file with the patterns to scan for")
	cmd.Flags().StringVar(&f.evidenceDir, "evidence", "", "Save a screenshot of every finding into this directory")
	cmd.Flags().StringVar(&f.evidenceGIF, "evidence-gif", "", "Also assemble the screenshots into this GIF")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: text, json")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Show detailed progress")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")
}

func (f scanFlags) toOverrides(cmd *cobra.Command) config.Overrides {
	ov := config.Overrides{}
	changed := cmd.Flags().Changed

	if changed("url") {
		ov.URL = f.url
	}
	if changed("username") {
		ov.Username = f.username
	}
	if changed("password") {
		ov.Password = f.password
	}
	if changed("headless") {
		ov.Headless = &f.headless
	}
	if changed("profile") {
		ov.ProfileDir = f.profile
	}
	if changed("block-https") {
		ov.BlockHTTPS = &f.blockHTTPS
	}
	if changed("output") {
		ov.Output = f.output
	}
	if changed("leaf-mode") {
		ov.LeafMode = f.leafMode
	}
	if changed("skip-sides") {
		ov.SkipSides = config.ParseList(f.skipSides)
	}
	if changed("patterns") {
		ov.PatternsFile = f.patternsFile
	}
	if changed("evidence") {
		ov.EvidenceDir = f.evidenceDir
	}
	if changed("evidence-gif") {
		ov.EvidenceGIF = f.evidenceGIF
	}
	if changed("log-format") {
		ov.LogFormat = f.logFormat
	}
	if changed("verbose") {
		ov.Verbose = &f.verbose
	}
	if changed("metrics-file") {
		ov.MetricsFile = f.metricsFile
	}
	return ov
}
