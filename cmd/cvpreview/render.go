package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"portal-web/cv/model"
	"portal-web/cv/render"
)

func newRenderCmd() *cobra.Command {
	var (
		out       string
		assetBase string
		asJSON    bool
		normalize bool
	)
	cmd := &cobra.Command{
		Use:   "render <cv.json>",
		Short: "Render a CV document to preview HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if normalize {
				doc = model.Normalize(doc)
			}
			r := render.NewRenderer(assetBase)

			var body []byte
			if asJSON {
				body, err = json.MarshalIndent(r.Build(doc), "", "  ")
			} else {
				var html string
				html, err = r.RenderHTML(doc)
				body = []byte(html)
			}
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), out, body)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&assetBase, "asset-base", os.Getenv("ASSET_BASE_URL"), "base URL for relative photo paths")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the preview model as JSON")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "drop empty entries first, as saving would")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <cv.json>",
		Short: "Check a CV document's shape and the fields required to save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if err := model.ValidateForSave(model.Normalize(doc)); err != nil {
				var verr *model.ValidationError
				if errors.As(err, &verr) {
					for _, f := range verr.Fields {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", f.Field, f.Message)
					}
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func readDocument(path string) (model.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, err
	}
	doc, err := model.DecodeJSON(raw)
	if err != nil {
		return model.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func writeOutput(stdout io.Writer, path string, body []byte) error {
	if path == "" {
		_, err := stdout.Write(body)
		return err
	}
	return os.WriteFile(path, body, 0o644)
}
