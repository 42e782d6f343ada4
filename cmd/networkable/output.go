package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/kbukum/networkable/wire"
)

// printer writes responses. The body goes to out; the status summary goes to
// errOut so that out can be piped.
type printer struct {
	out, errOut io.Writer
	include     bool
	pretty      bool
}

func newPrinter(out, errOut io.Writer, include, raw bool) *printer {
	return &printer{
		out:     out,
		errOut:  errOut,
		include: include,
		pretty:  !raw && isTerminal(out),
	}
}

func (p *printer) response(resp *wire.Response, body []byte, elapsed time.Duration) error {
	if p.include {
		fmt.Fprintf(p.out, "%s %s\n", resp.Proto, resp.Status)
		keys := make([]string, 0, len(resp.Header))
		for k := range resp.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, v := range resp.Header[k] {
				fmt.Fprintf(p.out, "%s: %s\n", k, v)
			}
		}
		fmt.Fprintln(p.out)
	}

	out := body
	if p.pretty && isJSON(resp) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	if _, err := p.out.Write(out); err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' && p.pretty {
		fmt.Fprintln(p.out)
	}

	fmt.Fprintf(p.errOut, "%s · %s in %s\n", resp.Status, humanize.Bytes(uint64(len(body))), elapsed.Round(time.Millisecond))
	return nil
}

func isJSON(resp *wire.Response) bool {
	ct := resp.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/json") || strings.Contains(ct, "+json")
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
