package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"portal-web/internal/backend"
	"portal-web/internal/cvs"
)

func newExportCmd() *cobra.Command {
	var (
		apiBase string
		token   string
		format  string
		out     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export <cv-id>",
		Short: "Download the server-rendered export of a saved CV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("a backend token is required (--token or PORTAL_TOKEN)")
			}
			client := backend.New(apiBase, timeout).WithToken(token)
			svc := cvs.NewService(func(string) cvs.Gateway { return client }, nil)
			export, err := svc.Export(cmd.Context(), cvs.Owner{Token: token}, args[0], format)
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = export.FileName
			}
			if err := os.WriteFile(path, export.Data, 0o644); err != nil {
				return err
			}
			if export.Pages > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes, %d pages)\n", path, len(export.Data), export.Pages)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", path, len(export.Data))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiBase, "api", envOr("API_BASE_URL", "http://localhost:8000/api"), "backend API base URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("PORTAL_TOKEN"), "backend bearer token")
	cmd.Flags().StringVarP(&format, "format", "f", backend.FormatPDF, "pdf or html")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to the server's file name)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
