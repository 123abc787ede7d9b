package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ykrasik/gamedex/metadata"
)

// terminalResolver asks the user to disambiguate on stdin. The worker
// blocks until an answer arrives; that is the point.
type terminalResolver struct {
	in  io.Reader
	out io.Writer

	reader *bufio.Reader
}

func (r *terminalResolver) readLine() (string, error) {
	if r.reader == nil {
		r.reader = bufio.NewReader(r.in)
	}
	line, err := r.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (r *terminalResolver) printHelp(req metadata.Request) {
	_, _ = fmt.Fprintln(r.out, "  n <name>  search again with a different name")
	_, _ = fmt.Fprintln(r.out, "  e         exclude this path forever")
	if req.CanProceedWithout {
		_, _ = fmt.Fprintf(r.out, "  p         proceed without %s\n", req.Provider)
	}
	_, _ = fmt.Fprintln(r.out, "  s         skip this path for now")
}

func (r *terminalResolver) OnNoResults(ctx context.Context, req metadata.Request) (metadata.Decision, error) {
	_, _ = fmt.Fprintf(r.out, "\n%s\n%s found nothing for '%s' (%s)\n", req.Path, req.Provider, req.Name, req.Platform)
	r.printHelp(req)

	for {
		if err := ctx.Err(); err != nil {
			return metadata.Decision{}, err
		}
		_, _ = fmt.Fprint(r.out, "> ")
		line, err := r.readLine()
		if err != nil {
			return metadata.Decision{}, err
		}
		if d, ok := r.parseCommon(line, req); ok {
			return d, nil
		}
		_, _ = fmt.Fprintln(r.out, "unrecognized choice")
	}
}

func (r *terminalResolver) OnMultipleResults(ctx context.Context, req metadata.Request, results []metadata.SearchResult) (metadata.Decision, error) {
	_, _ = fmt.Fprintf(r.out, "\n%s\n%s found %d matches for '%s' (%s):\n", req.Path, req.Provider, len(results), req.Name, req.Platform)
	for i, res := range results {
		line := fmt.Sprintf("  %d) %s", i+1, res.Name)
		if res.ReleaseDate != "" {
			line += fmt.Sprintf(" (%s)", res.ReleaseDate)
		}
		if res.Score > 0 {
			line += fmt.Sprintf(" [%.0f]", res.Score)
		}
		_, _ = fmt.Fprintln(r.out, line)
	}
	r.printHelp(req)

	for {
		if err := ctx.Err(); err != nil {
			return metadata.Decision{}, err
		}
		_, _ = fmt.Fprint(r.out, "> ")
		line, err := r.readLine()
		if err != nil {
			return metadata.Decision{}, err
		}

		if idx, err := strconv.Atoi(line); err == nil {
			if idx >= 1 && idx <= len(results) {
				return metadata.Choose(results[idx-1]), nil
			}
			_, _ = fmt.Fprintf(r.out, "pick a number between 1 and %d\n", len(results))
			continue
		}
		if d, ok := r.parseCommon(line, req); ok {
			return d, nil
		}
		_, _ = fmt.Fprintln(r.out, "unrecognized choice")
	}
}

// parseCommon handles the choices shared by both prompts.
func (r *terminalResolver) parseCommon(line string, req metadata.Request) (metadata.Decision, bool) {
	switch {
	case strings.HasPrefix(line, "n "):
		name := strings.TrimSpace(strings.TrimPrefix(line, "n "))
		if name == "" {
			return metadata.Decision{}, false
		}
		return metadata.NewName(name), true
	case line == "e":
		return metadata.Exclude(), true
	case line == "p" && req.CanProceedWithout:
		return metadata.Proceed(), true
	case line == "s":
		return metadata.Skip(), true
	}
	return metadata.Decision{}, false
}

// terminalPrompt confirms sub-library creation on stdin.
type terminalPrompt struct {
	in  io.Reader
	out io.Writer

	reader *bufio.Reader
}

func (p *terminalPrompt) ConfirmNewLibrary(ctx context.Context, path, platform string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.reader == nil {
		p.reader = bufio.NewReader(p.in)
	}

	_, _ = fmt.Fprintf(p.out, "\n%s contains only directories. Register it as a %s sub-library? [y/N] ", path, platform)
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
