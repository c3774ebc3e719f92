package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"megatex/internal/config"
	"megatex/internal/listener"
	"megatex/internal/quote"
	"megatex/internal/refdata"
	"megatex/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	holder, err := refdata.NewHolder(refdata.Paths{
		Designs: cfg.DesignsXLSXPath,
		BOM:     cfg.BOMXLSXPath,
		Catalog: cfg.CatalogXLSXPath,
		Fabrics: cfg.FabricsXLSXPath,
	})
	must(err)
	for _, w := range holder.Current().Warnings {
		log.Printf("reference data warning: %s", w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher := listener.NewService(holder, db, time.Duration(cfg.ReloadIntervalSec)*time.Second)
	go watcher.Run(ctx)

	must(serve(ctx, os.Stdin, os.Stdout, holder, cfg.QuoteSettings()))
}

type snapshots interface {
	Current() *refdata.Snapshot
}

type response struct {
	OK     bool                   `json:"ok"`
	Result *quote.QuotationResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Kind   string                 `json:"kind,omitempty"`
}

// serve answers one JSON selection per input line with one JSON
// response line. Each line is priced against the snapshot current when
// it is read.
func serve(ctx context.Context, in io.Reader, out io.Writer, snaps snapshots, settings quote.Settings) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := enc.Encode(handle(line, snaps, settings)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func handle(line []byte, snaps snapshots, settings quote.Settings) response {
	var sel quote.Selection
	if err := json.Unmarshal(line, &sel); err != nil {
		return response{Error: fmt.Sprintf("invalid request: %v", err), Kind: "request"}
	}
	res, err := quote.Compute(snaps.Current().Data, sel, settings)
	if err != nil {
		return response{Error: err.Error(), Kind: errorKind(err)}
	}
	return response{OK: true, Result: &res}
}

func errorKind(err error) string {
	var ce *quote.ComputeError
	switch {
	case errors.Is(err, quote.ErrUnknownDesign):
		return "unknown_design"
	case errors.Is(err, quote.ErrInvalidSelection):
		return "invalid_selection"
	case errors.As(err, &ce):
		return "compute"
	default:
		return "internal"
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
