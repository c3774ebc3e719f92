package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"megatex/internal"
	"megatex/internal/config"
	"megatex/internal/connectors"
	gmailconnector "megatex/internal/connectors/gmail"
	imapconnector "megatex/internal/connectors/imap"
	"megatex/internal/export"
	"megatex/internal/quote"
	"megatex/internal/quotebook"
	"megatex/internal/refdata"
	"megatex/internal/storage"
	"megatex/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "data:template":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", filepath.Dir(cfg.DesignsXLSXPath), "output directory")
		force := fs.Bool("force", false, "overwrite existing workbooks")
		_ = fs.Parse(os.Args[2:])
		written, err := refdata.WriteTemplates(*dir, *force)
		must(err)
		for _, p := range written {
			fmt.Printf("wrote %s\n", p)
		}
		fmt.Printf("templates done written=%d\n", len(written))
		return
	case "data:check":
		data, warnings, err := refdata.Load(dataPaths(cfg))
		must(err)
		fmt.Printf("reference data ok designs=%d materials=%d fabric_types=%d\n", len(data.Designs), len(data.Materials), len(data.Fabrics.Types))
		for _, w := range warnings {
			fmt.Printf("warning: %s\n", w)
		}
		return
	case "designs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		category := fs.String("category", "", "only designs of this curtain type")
		_ = fs.Parse(os.Args[2:])
		holder, err := refdata.NewHolder(dataPaths(cfg))
		must(err)
		snap := holder.Current()
		if strings.TrimSpace(*category) != "" {
			designs := snap.Index.Designs(*category)
			if len(designs) == 0 {
				must(fmt.Errorf("unknown category %q; known: %s", *category, strings.Join(snap.Index.Categories(), ", ")))
			}
			for _, d := range designs {
				fmt.Println(d)
			}
			return
		}
		for _, key := range snap.Data.DesignOrder {
			d := snap.Data.Designs[key]
			fmt.Printf("%s\t%s\tx%s\tM.O. %s\n", d.ID, strings.Join(d.Categories, ", "), d.WidthMultiplier.String(), util.FormatMoney(d.LaborUnitPrice, cfg.QuoteSettings().MoneyPlaces))
		}
		return
	case "quote:compute":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		sf := addSelectionFlags(fs)
		asJSON := fs.Bool("json", false, "print the result as JSON")
		_ = fs.Parse(os.Args[2:])
		holder, err := refdata.NewHolder(dataPaths(cfg))
		must(err)
		res, err := quote.Compute(holder.Current().Data, sf.selection(), cfg.QuoteSettings())
		must(err)
		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			must(enc.Encode(res))
			return
		}
		printResult(res, cfg.QuoteSettings().MoneyPlaces)
		return
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	switch cmd {
	case "quote:new":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		client := internal.Client{}
		seller := internal.Seller{}
		fs.StringVar(&client.Name, "client", "", "client name")
		fs.StringVar(&client.IDNumber, "id", "", "client id number (cédula/NIT)")
		fs.StringVar(&client.Phone, "phone", "", "client phone")
		fs.StringVar(&client.Address, "address", "", "client address")
		fs.StringVar(&client.Email, "email", "", "client email")
		fs.StringVar(&seller.Name, "seller", "", "seller name")
		fs.StringVar(&seller.Phone, "seller-phone", "", "seller phone")
		_ = fs.Parse(os.Args[2:])
		svc := quotebook.NewService(db, nil, serviceOptions(cfg))
		q, err := svc.Create(client, seller)
		must(err)
		fmt.Printf("quote created id=%s number=%s\n", q.ID, q.Number)
	case "quote:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		ref := fs.String("quote", "", "quote id or number")
		sf := addSelectionFlags(fs)
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*ref) == "" {
			must(fmt.Errorf("--quote is required"))
		}
		holder, err := refdata.NewHolder(dataPaths(cfg))
		must(err)
		svc := quotebook.NewService(db, holder, serviceOptions(cfg))
		q, err := svc.Find(*ref)
		must(err)
		item, err := svc.AddItem(q.ID, sf.selection())
		must(err)
		printResult(item.Result, cfg.QuoteSettings().MoneyPlaces)
		sum, err := svc.Summary(q.ID)
		must(err)
		fmt.Printf("item %d added to quote %s; quote total %s (%d items)\n", item.Position, q.Number, util.FormatMoney(sum.Total, cfg.QuoteSettings().MoneyPlaces), sum.Items)
	case "quote:summary":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		ref := fs.String("quote", "", "quote id or number")
		_ = fs.Parse(os.Args[2:])
		svc := quotebook.NewService(db, nil, serviceOptions(cfg))
		q, err := svc.Find(*ref)
		must(err)
		doc, err := svc.Document(q.ID)
		must(err)
		printDocument(doc)
	case "quote:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		ref := fs.String("quote", "", "quote id or number")
		out := fs.String("out", "", "output path (.xlsx, .pdf or .html)")
		_ = fs.Parse(os.Args[2:])
		svc := quotebook.NewService(db, nil, serviceOptions(cfg))
		q, err := svc.Find(*ref)
		must(err)
		doc, err := svc.Document(q.ID)
		must(err)
		if len(doc.Items) == 0 {
			must(fmt.Errorf("quote %s has no items", q.Number))
		}
		path := *out
		if strings.TrimSpace(path) == "" {
			path = filepath.Join(cfg.OutputDir, export.QuoteFileName(q.Number)+".xlsx")
		}
		must(exportDocument(doc, path))
		fmt.Printf("exported quote %s items=%d to %s\n", q.Number, len(doc.Items), path)
	case "quote:send":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		ref := fs.String("quote", "", "quote id or number")
		provider := fs.String("provider", "outbox", "gmail|imap|outbox")
		to := fs.String("to", "", "recipient (defaults to the client email)")
		toName := fs.String("to-name", "", "recipient display name")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("MAIL_FROM_ADDRESS", cfg.MailFromAddress))
		svc := quotebook.NewService(db, nil, serviceOptions(cfg))
		q, err := svc.Find(*ref)
		must(err)
		doc, err := svc.Document(q.ID)
		must(err)
		if len(doc.Items) == 0 {
			must(fmt.Errorf("quote %s has no items", q.Number))
		}
		mail, err := export.BuildQuoteEmail(doc, export.Sender{Name: cfg.MailFromName, Address: cfg.MailFromAddress}, *to, *toName, time.Now())
		must(err)
		ctx := context.Background()
		sender, err := makeSender(ctx, cfg, *provider)
		must(err)
		res, err := connectors.NewDeliveryService(db, cfg.OutboxDir, sender).Deliver(ctx, mail)
		must(err)
		fmt.Printf("quote %s delivered provider=%s to=%s status=%s copy=%s\n", q.Number, sender.Provider(), mail.To, res.Status, res.Delivery.RawRef)
	case "quotes:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 50, "max quotes")
		_ = fs.Parse(os.Args[2:])
		svc := quotebook.NewService(db, nil, serviceOptions(cfg))
		quotes, err := svc.List(*limit)
		must(err)
		for _, q := range quotes {
			sum, err := svc.Summary(q.ID)
			must(err)
			fmt.Printf("%s\t%s\t%s\t%d items\t%s\n", q.Number, q.Status, q.Client.Name, sum.Items, util.FormatMoney(sum.Total, cfg.QuoteSettings().MoneyPlaces))
		}
	case "outbox:verify":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		ref := fs.String("quote", "", "quote id or number")
		_ = fs.Parse(os.Args[2:])
		svc := quotebook.NewService(db, nil, serviceOptions(cfg))
		q, err := svc.Find(*ref)
		must(err)
		deliveries, err := db.ListDeliveries(q.ID)
		must(err)
		store := connectors.NewOutboxStore(db, cfg.OutboxDir)
		for _, d := range deliveries {
			raw, err := store.Load(d)
			must(err)
			rep, err := export.InspectMessage(raw)
			must(err)
			fmt.Printf("%s %s status=%s to=%s number=%s items=%d total=%s pdf_pages=%d attachments=%s\n",
				d.Provider, rep.MessageID, d.Status, rep.To, rep.Number, rep.Items, rep.Total, rep.PDFPages, strings.Join(rep.Attachments, ","))
		}
	default:
		usage()
		os.Exit(1)
	}
}

func dataPaths(cfg config.Config) refdata.Paths {
	return refdata.Paths{
		Designs: cfg.DesignsXLSXPath,
		BOM:     cfg.BOMXLSXPath,
		Catalog: cfg.CatalogXLSXPath,
		Fabrics: cfg.FabricsXLSXPath,
	}
}

func serviceOptions(cfg config.Config) quotebook.Options {
	return quotebook.Options{
		Settings:     cfg.QuoteSettings(),
		CompanyName:  cfg.CompanyName,
		CompanyEmail: cfg.CompanyEmail,
	}
}

func exportDocument(doc internal.QuoteDocument, path string) error {
	var content []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.ExportQuoteXLSX(doc, path)
	case ".pdf":
		b, err := export.QuotePDF(doc)
		if err != nil {
			return err
		}
		content = b
	case ".html":
		h, err := export.QuoteHTML(doc)
		if err != nil {
			return err
		}
		content = []byte(h)
	default:
		return fmt.Errorf("unsupported export format: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func makeSender(ctx context.Context, cfg config.Config, provider string) (connectors.QuoteSender, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	case "outbox":
		return connectors.LocalSender{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func printResult(res quote.QuotationResult, places int32) {
	fmt.Printf("design=%s effective_width=%s multiplier=%s quantity=%d\n", res.Design, res.EffectiveWidth.StringFixed(2), res.Multiplier.String(), res.Quantity)
	for _, line := range res.Lines {
		fmt.Printf("  %-40s %10s %s x %s = %s [%s]\n", line.Label, line.QuantityTotal.StringFixed(2), line.Unit,
			util.FormatMoney(line.UnitPrice, places), util.FormatMoney(line.LineTotal, places), line.Source)
	}
	fmt.Printf("subtotal=%s tax=%s total=%s\n", util.FormatMoney(res.SubtotalBeforeTax, places), util.FormatMoney(res.TaxAmount, places), util.FormatMoney(res.Total, places))
	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}

func printDocument(doc internal.QuoteDocument) {
	q := doc.Quote
	fmt.Printf("quote %s (%s) status=%s\n", q.Number, q.ID, q.Status)
	fmt.Printf("client: %s %s %s %s %s\n", q.Client.Name, q.Client.IDNumber, q.Client.Phone, q.Client.Email, q.Client.Address)
	fmt.Printf("seller: %s %s\n", q.Seller.Name, q.Seller.Phone)
	for _, item := range doc.Items {
		fmt.Printf("  %d. %s %.2fx%.2f x%d %s = %s\n", item.Position, item.Design, item.Width, item.Height, item.Quantity, item.FabricLabel, util.FormatMoney(item.Result.Total, doc.MoneyPlaces))
	}
	s := doc.Summary
	fmt.Printf("subtotal=%s tax=%s total=%s\n", util.FormatMoney(s.SubtotalBeforeTax, doc.MoneyPlaces), util.FormatMoney(s.TaxAmount, doc.MoneyPlaces), util.FormatMoney(s.Total, doc.MoneyPlaces))
}

func usage() {
	fmt.Println("usage: megatex <command>")
	fmt.Println("commands:")
	fmt.Println("  data:check")
	fmt.Println("  data:template [--dir=./data] [--force]")
	fmt.Println("  designs:list [--category=...]")
	fmt.Println("  quote:compute --design=... --width=1.5 --height=2.4 [--qty=1] [--fabric='TELA 1=Type/Ref/Color'] [--material='NAME=Ref/Color'] [--json]")
	fmt.Println("  quote:new --client=... [--id] [--phone] [--address] [--email] [--seller] [--seller-phone]")
	fmt.Println("  quote:add --quote=... <selection flags as in quote:compute>")
	fmt.Println("  quote:summary --quote=...")
	fmt.Println("  quote:export --quote=... --out=./out/quote.xlsx|.pdf|.html")
	fmt.Println("  quote:send --quote=... --provider=gmail|imap|outbox [--to=...]")
	fmt.Println("  quotes:list [--limit=50]")
	fmt.Println("  outbox:verify --quote=...")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
