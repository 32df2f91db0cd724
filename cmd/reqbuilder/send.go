package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/brizzai/reqbuilder/internal/logger"
	"github.com/brizzai/reqbuilder/internal/manifest"
	"github.com/brizzai/reqbuilder/requester"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func newSendCmd() *cobra.Command {
	var (
		strict bool
		dryRun bool
		sel    string
	)
	cmd := &cobra.Command{
		Use:   "send MANIFEST",
		Short: "Assemble and send the request described by a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			m, err := manifest.Load(fs, args[0])
			if err != nil {
				return err
			}
			req, err := m.Request(fs)
			if err != nil {
				return err
			}
			baseURL := cfg.EndpointConfig.BaseURL
			if baseURL == "" {
				return errors.New("base URL is required, set --base-url or endpoint.base_url")
			}

			if dryRun {
				assembled, err := assemble(req, baseURL, strict)
				if err != nil {
					return err
				}
				printAssembled(assembled)
				return nil
			}

			var transport requester.Transport
			app := fx.New(
				fx.WithLogger(func() fxevent.Logger {
					return &fxevent.ZapLogger{Logger: logger.GetLogger()}
				}),
				fx.Supply(&cfg.EndpointConfig),
				requester.Module,
				fx.Populate(&transport),
			)
			if err := app.Err(); err != nil {
				return fmt.Errorf("failed to wire transport: %w", err)
			}

			resp, err := requester.Send(cmd.Context(), transport, req, baseURL, strict)
			if err != nil {
				return err
			}
			return printResponse(resp, sel)
		},
	}
	cmd.Flags().String("base-url", "", "Base URL the manifest path is joined onto")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on the first invalid header, query pair or body instead of skipping it")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the assembled request without sending it")
	cmd.Flags().StringVar(&sel, "select", "", "GJSON path selecting part of a JSON response")
	return cmd
}

func assemble(req requester.Request, baseURL string, strict bool) (*requester.AssembledRequest, error) {
	if strict {
		return requester.TryAssemble(req, baseURL)
	}
	return requester.Assemble(req, baseURL)
}

func printAssembled(a *requester.AssembledRequest) {
	pterm.Info.Printfln("%s %s", a.Method, a.URL)
	names := make([]string, 0, len(a.Header))
	for name := range a.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pterm.Println(pterm.Gray(name+": ") + strings.Join(a.Header[name], ", "))
	}
	if a.ContentType != "" {
		pterm.Println(pterm.Gray("Content-Type: ") + a.ContentType)
	}
	if len(a.Body) > 0 {
		pterm.Println()
		pterm.Println(string(a.Body))
	}
}

func printResponse(resp *requester.Response, sel string) error {
	status := pterm.Success
	if resp.StatusCode >= 400 {
		status = pterm.Warning
	}
	status.Printfln("HTTP %d", resp.StatusCode)

	body := resp.Body
	if sel != "" {
		if !gjson.ValidBytes(body) {
			return errors.New("--select needs a JSON response body")
		}
		result := gjson.GetBytes(body, sel)
		if !result.Exists() {
			return fmt.Errorf("path %q not found in response", sel)
		}
		body = []byte(result.String())
	}
	_, err := os.Stdout.Write(append(body, '\n'))
	return err
}
