package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/networkable/bootstrap"
	"github.com/kbukum/networkable/codec"
	"github.com/kbukum/networkable/middleware"
	"github.com/kbukum/networkable/observability"
	"github.com/kbukum/networkable/request"
	"github.com/kbukum/networkable/session"
)

// requestFlags tune a single request.
type requestFlags struct {
	headers []string
	query   []string
	params  []string
	form    []string
	files   []string
	data    string
	fail    bool
	include bool
	raw     bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, `request header, "Name: value" or name=value (repeatable)`)
	cmd.Flags().StringArrayVarP(&f.query, "query", "q", nil, "query parameter key=value (repeatable)")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "request body, or @file to read it from a file")
	cmd.Flags().StringArrayVarP(&f.form, "form", "F", nil, "multipart form field key=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.files, "file", nil, "multipart file field=path (repeatable)")
	cmd.Flags().BoolVar(&f.fail, "fail", false, "exit with an error on non-2xx responses")
	cmd.Flags().BoolVarP(&f.include, "include", "i", false, "print the status line and response headers")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "print the body as received, without pretty-printing")
}

// options converts the flags into request options.
func (f *requestFlags) options() ([]request.Option, error) {
	var opts []request.Option
	for _, h := range f.headers {
		k, v, err := splitPair(h, ":=")
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", h, err)
		}
		opts = append(opts, request.WithHeader(k, v))
	}
	for _, q := range f.query {
		k, v, err := splitPair(q, "=")
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", q, err)
		}
		opts = append(opts, request.WithQuery(k, v))
	}
	if f.data != "" && len(f.form)+len(f.files) > 0 {
		return nil, fmt.Errorf("--data cannot be combined with --form or --file")
	}
	if len(f.form)+len(f.files) > 0 {
		body, err := f.multipart()
		if err != nil {
			return nil, err
		}
		opts = append(opts, request.WithBody(body))
	}
	if f.data != "" {
		body := []byte(f.data)
		if path, ok := strings.CutPrefix(f.data, "@"); ok {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read body: %w", err)
			}
			body = b
		}
		opts = append(opts, request.WithBody(body))
	}
	return opts, nil
}

func (f *requestFlags) multipart() (*codec.Multipart, error) {
	m := &codec.Multipart{Fields: make(map[string]string, len(f.form))}
	for _, kv := range f.form {
		k, v, err := splitPair(kv, "=")
		if err != nil {
			return nil, fmt.Errorf("form %q: %w", kv, err)
		}
		m.Fields[k] = v
	}
	for _, fv := range f.files {
		field, path, err := splitPair(fv, "=")
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", fv, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		m.Files = append(m.Files, codec.File{FieldName: field, FileName: filepath.Base(path), Data: data})
	}
	return m, nil
}

func newRequestCmd(g *globalFlags) *cobra.Command {
	f := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send a request to a path or absolute URL",
		Example: `  networkable request GET /users/1
  networkable request POST /users -d '{"name":"ada"}' -H "Content-Type: application/json"
  networkable request POST /uploads -F title=demo --file audio=./demo.wav`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			method := request.Method(strings.ToUpper(args[0]))
			return run(cmd, g, f, func(*cliConfig) (request.Request, error) {
				return request.New(method, args[1], opts...), nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newCallCmd(g *globalFlags) *cobra.Command {
	f := &requestFlags{}
	cmd := &cobra.Command{
		Use:     "call ROUTE",
		Short:   "Send a request built from a named route of the config",
		Example: `  networkable call get_user --param id=1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			params := make(map[string]string, len(f.params))
			for _, p := range f.params {
				k, v, err := splitPair(p, "=")
				if err != nil {
					return fmt.Errorf("param %q: %w", p, err)
				}
				params[k] = v
			}
			return run(cmd, g, f, func(cfg *cliConfig) (request.Request, error) {
				router, err := cfg.router()
				if err != nil {
					return request.Request{}, err
				}
				return router.Request(args[0], params, opts...)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "route variable key=value (repeatable)")
	return cmd
}

// run loads the configuration, starts the observability and session
// components, sends the request and prints the response.
func run(cmd *cobra.Command, g *globalFlags, f *requestFlags, build func(*cliConfig) (request.Request, error)) error {
	cfg, err := loadConfig(g.configFile)
	if err != nil {
		return err
	}
	if g.baseURL != "" {
		cfg.Session.BaseURL = g.baseURL
	}
	var appOpts []bootstrap.Option
	if g.verbose {
		cfg.Logging.Level = "debug"
		appOpts = append(appOpts, bootstrap.WithSummary(cmd.ErrOrStderr()))
	}

	app, err := bootstrap.NewApp(cfg, appOpts...)
	if err != nil {
		return err
	}

	if cfg.Observability != nil {
		if err := app.RegisterComponent(observability.NewComponent(*cfg.Observability)); err != nil {
			return err
		}
	}
	sessOpts := []session.Option{session.WithLogger(app.Logger)}
	if f.fail {
		sessOpts = append(sessOpts, session.WithMiddleware(middleware.RequireSuccess()))
	}
	comp := session.NewComponent(cfg.Session, sessOpts...)
	if err := app.RegisterComponent(comp); err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), f.include, f.raw)
	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		req, err := build(cfg)
		if err != nil {
			return err
		}
		began := time.Now()
		resp, body, err := comp.Session().Fetch(ctx, req)
		if err != nil {
			return err
		}
		return p.response(resp, body, time.Since(began))
	})
}

// splitPair splits s at the first of the separators.
func splitPair(s, seps string) (string, string, error) {
	i := strings.IndexAny(s, seps)
	if i <= 0 {
		return "", "", fmt.Errorf("expected key%cvalue", seps[0])
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), nil
}
