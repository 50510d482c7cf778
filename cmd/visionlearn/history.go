package main

import (
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/example/visionlearn/internal/history"
)

type historyCmd struct {
	op   string
	id   string
	open func() (history.Store, error)
	*root
	fs *flag.FlagSet
}

func (h *historyCmd) FlagSet() *flag.FlagSet {
	return h.fs
}

func parseHistoryCmd(args []string, r *root) (*historyCmd, error) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	h := &historyCmd{root: r, fs: fs, open: r.openHistory}
	fs.Usage = usageFunc(h)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, &UsageError{of: h}
	}
	h.op = strings.ToLower(fs.Arg(0))
	switch h.op {
	case "list", "clear":
		if fs.NArg() != 1 {
			return nil, &UsageError{of: h}
		}
	case "show", "delete":
		if fs.NArg() != 2 {
			return nil, usageErrorf(h, "%s requires an id", h.op)
		}
		h.id = fs.Arg(1)
	default:
		return nil, usageErrorf(h, "unknown history command %q", h.op)
	}
	return h, nil
}

func (h *historyCmd) Run() error {
	store, err := h.open()
	if err != nil {
		return err
	}
	defer store.Close()
	ctx, cancel := signalContext()
	defer cancel()

	out := h.root.out()
	switch h.op {
	case "list":
		entries, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(h.root.errOut(), "no lessons yet")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Timestamp.Local().Format("2006-01-02 15:04"), e.Type, strings.Join(e.Topics, ", "))
		}
		return tw.Flush()
	case "show":
		e, err := store.Get(ctx, h.id)
		if err != nil {
			return fmt.Errorf("lesson %s: %w", h.id, err)
		}
		fmt.Fprintln(out, e.HTML)
	case "delete":
		if err := store.Delete(ctx, h.id); err != nil {
			return fmt.Errorf("lesson %s: %w", h.id, err)
		}
		fmt.Fprintf(h.root.errOut(), "deleted %s\n", h.id)
	case "clear":
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(h.root.errOut(), "history cleared")
	}
	return nil
}
