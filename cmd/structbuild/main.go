// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

// structbuild reconstructs a project directory from a text dump and
// exports built trees as documents.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pranavsaji/Project-builder/pkg/builder"
	"github.com/pranavsaji/Project-builder/pkg/llm"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:           "structbuild",
		Short:         "Reconstruct a project directory from a loosely structured text dump",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Credentials may live in a local .env; absence is fine.
			_ = godotenv.Load()
			if verbose {
				zl, err := zap.NewDevelopment()
				if err != nil {
					return fmt.Errorf("initializing logger: %w", err)
				}
				builder.SetLogger(zl.Sugar())
				llm.SetLogger(zl.Sugar())
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable stage logging")
	cmd.AddCommand(buildCmd(), exportCmd())
	return cmd
}

func buildCmd() *cobra.Command {
	var (
		configPath  string
		dest        string
		rootHint    string
		mode        string
		provider    string
		model       string
		noStructure bool
		noBackfill  bool
		force       bool
	)
	cmd := &cobra.Command{
		Use:   "build <dump-file>",
		Short: "Build a project tree from a dump file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := builder.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if mode != "" {
				if mode != builder.ModeSkip && mode != builder.ModeOverwrite {
					return fmt.Errorf("invalid --mode %q (want %q or %q)", mode, builder.ModeSkip, builder.ModeOverwrite)
				}
				cfg.Build.Mode = mode
			}
			if provider != "" {
				cfg.LLM.Provider = provider
			}
			if model != "" {
				cfg.LLM.Model = model
			}
			if noStructure {
				f := false
				cfg.Build.UseLLMStructure = &f
			}
			if noBackfill {
				f := false
				cfg.Build.UseLLMBackfill = &f
			}
			cfg.Build.Force = force

			b := builder.New(cfg)
			res, err := b.BuildFile(cmd.Context(), args[0], dest, rootHint)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "configuration.yaml", "configuration file")
	cmd.Flags().StringVarP(&dest, "dest", "d", ".", "destination directory")
	cmd.Flags().StringVar(&rootHint, "root-hint", "", "project root name override")
	cmd.Flags().StringVar(&mode, "mode", "", "existing-file policy: skip or overwrite")
	cmd.Flags().StringVar(&provider, "provider", "", "gateway provider: groq, openai, or gemini")
	cmd.Flags().StringVar(&model, "model", "", "gateway model override")
	cmd.Flags().BoolVar(&noStructure, "no-llm-structure", false, "skip gateway structure inference")
	cmd.Flags().BoolVar(&noBackfill, "no-llm-backfill", false, "skip gateway content fabrication")
	cmd.Flags().BoolVar(&force, "force", false, "rebuild even when the dump is unchanged")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		configPath string
		format     string
		out        string
		title      string
	)
	cmd := &cobra.Command{
		Use:   "export <project-dir>",
		Short: "Export a built tree as a markdown, XML, or zip document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := builder.LoadConfig(configPath)
			if err != nil {
				return err
			}
			files, err := builder.HarvestFolder(args[0], cfg.Export)
			if err != nil {
				return err
			}
			if title == "" {
				title = filepath.Base(strings.TrimRight(args[0], "/"))
			}

			var data []byte
			switch format {
			case "md", "markdown":
				data = []byte(builder.BuildMarkdownDocument(files, title))
			case "xml":
				data, err = builder.BuildXMLDocument(files, title)
			case "zip":
				data, err = builder.BuildZip(files)
			default:
				return fmt.Errorf("invalid --format %q (want md, xml, or zip)", format)
			}
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				if format == "zip" {
					return fmt.Errorf("zip export needs --out")
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d files to %s\n", len(files), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "configuration.yaml", "configuration file")
	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format: md, xml, or zip")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	return cmd
}
