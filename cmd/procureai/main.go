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

	"github.com/phuslu/log"

	"procureai/internal"
	"procureai/internal/ai"
	"procureai/internal/config"
	"procureai/internal/listener"
	"procureai/internal/mailer"
	"procureai/internal/pipeline"
	"procureai/internal/rfp"
	"procureai/internal/storage"
	"procureai/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	logger := &log.DefaultLogger
	extractor, err := buildExtractor(cfg, logger)
	must(err)
	svc := rfp.NewService(db, extractor, mailer.New(cfg, logger), cfg, logger)

	cmd := os.Args[1]
	switch cmd {
	case "rfp:create":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		title := fs.String("title", "", "rfp title")
		request := fs.String("request", "", "free-text purchase request")
		parse := fs.Bool("parse", true, "run request extraction")
		_ = fs.Parse(os.Args[2:])
		created, err := svc.Create(context.Background(), *title, *request, *parse)
		must(err)
		fmt.Printf("rfp created id=%s status=%s\n", created.ID, created.Status)
		printJSON(created.Structured)
	case "rfp:parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "rfp id (re-parse and persist)")
		request := fs.String("request", "", "free-text request (preview only, nothing stored)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*request) != "" {
			structured, err := extractor.ParseRequest(context.Background(), *request)
			must(err)
			printJSON(structured)
			return
		}
		requireFlag(*id, "--id")
		parsed, err := svc.Parse(context.Background(), *id)
		must(err)
		printJSON(parsed.Structured)
	case "rfp:list":
		rfps, err := svc.List()
		must(err)
		for _, r := range rfps {
			fmt.Printf("%s  %-8s  %-30s  sentTo=%d  %s\n", r.ID, r.Status, r.Title, len(r.SentTo), r.CreatedAt)
		}
		fmt.Printf("total=%d\n", len(rfps))
	case "rfp:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "rfp id")
		_ = fs.Parse(os.Args[2:])
		requireFlag(*id, "--id")
		r, err := svc.Get(*id)
		must(err)
		printJSON(r)
	case "rfp:send":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "rfp id")
		vendors := fs.String("vendors", "", "comma-separated vendor ids")
		_ = fs.Parse(os.Args[2:])
		requireFlag(*id, "--id")
		requireFlag(*vendors, "--vendors")
		report, err := svc.Send(context.Background(), *id, splitList(*vendors))
		must(err)
		fmt.Printf("rfp sent id=%s delivered=%d failed=%d\n", *id, len(report.SentTo), len(report.Failed))
		for _, v := range report.Failed {
			fmt.Printf("failed vendor=%s\n", v)
		}
	case "rfp:compare":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "rfp id")
		_ = fs.Parse(os.Args[2:])
		requireFlag(*id, "--id")
		comparison, err := svc.Compare(context.Background(), *id)
		must(err)
		printJSON(comparison)
	case "vendor:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "vendor name")
		email := fs.String("email", "", "vendor email")
		contact := fs.String("contact", "", "contact person")
		tags := fs.String("tags", "", "comma-separated tags")
		_ = fs.Parse(os.Args[2:])
		requireFlag(*name, "--name")
		requireFlag(*email, "--email")
		vendor := internal.Vendor{
			ID:        util.NewID(),
			Name:      strings.TrimSpace(*name),
			Email:     strings.ToLower(strings.TrimSpace(*email)),
			Tags:      splitList(*tags),
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if strings.TrimSpace(*contact) != "" {
			vendor.ContactPerson = util.StringPtr(strings.TrimSpace(*contact))
		}
		must(db.CreateVendor(vendor))
		fmt.Printf("vendor created id=%s email=%s\n", vendor.ID, vendor.Email)
	case "vendor:list":
		vendors, err := db.ListVendors()
		must(err)
		for _, v := range vendors {
			fmt.Printf("%s  %-20s  %-35s  tags=%s\n", v.ID, v.Name, v.Email, strings.Join(v.Tags, ","))
		}
		fmt.Printf("total=%d\n", len(vendors))
	case "proposal:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		rfpID := fs.String("rfp", "", "rfp id")
		_ = fs.Parse(os.Args[2:])
		requireFlag(*rfpID, "--rfp")
		proposals, err := svc.Proposals(*rfpID)
		must(err)
		for _, p := range proposals {
			fmt.Printf("%s  vendor=%s  price=%.2f  timeline=%s  score=%d  %s\n",
				p.ID, p.VendorID, p.Data.TotalPrice, p.Data.DeliveryTimeline, p.Data.Score, p.ReceivedAt)
		}
		fmt.Printf("total=%d\n", len(proposals))
	case "inbox:refresh":
		lst := listener.NewService(db, extractor, cfg, logger)
		res, err := lst.RunOnce(context.Background())
		must(err)
		fmt.Printf("inbox refresh done found=%d processed=%d\n", res.TotalFound, res.Processed)
		for _, report := range res.Reports {
			fmt.Printf("  %-16s  %s  %s\n", report.Outcome, report.MessageID, report.Subject)
		}
	case "inbox:listen":
		lst := listener.NewService(db, extractor, cfg, logger)
		must(lst.Run(context.Background()))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		rfpID := fs.String("rfp", "", "rfp id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		requireFlag(*rfpID, "--rfp")
		proposals, err := svc.Proposals(*rfpID)
		must(err)
		if len(proposals) == 0 {
			must(fmt.Errorf("no proposals for rfp=%s", *rfpID))
		}
		outputPath := *out
		if strings.TrimSpace(outputPath) == "" {
			outputPath = filepath.Join(cfg.OutputDir, fmt.Sprintf("proposals_%s.xlsx", *rfpID))
		}
		vendorNames := map[string]string{}
		vendors, err := db.ListVendors()
		must(err)
		for _, v := range vendors {
			vendorNames[v.ID] = v.Name
		}
		must(pipeline.ExportProposalsToXLSX(proposals, vendorNames, outputPath))
		fmt.Printf("exported %d proposals to %s\n", len(proposals), outputPath)
	case "debug:health":
		status := "ok"
		if err := db.Ping(); err != nil {
			status = fmt.Sprintf("db error: %v", err)
		}
		keyPresent := strings.TrimSpace(cfg.GeminiAPIKey) != ""
		fmt.Printf("db=%s provider=%s geminiKey=%v mockAI=%v mockEmail=%v time=%s\n",
			status, cfg.InboxProvider, keyPresent, cfg.AIMock, cfg.MockEmail, time.Now().UTC().Format(time.RFC3339))
	case "debug:simulate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		rfpID := fs.String("rfp", "", "rfp id")
		vendorID := fs.String("vendor", "", "vendor id")
		bodyFile := fs.String("body", "", "reply body file (omit for sample data)")
		_ = fs.Parse(os.Args[2:])
		requireFlag(*rfpID, "--rfp")
		requireFlag(*vendorID, "--vendor")
		body := ""
		if strings.TrimSpace(*bodyFile) != "" {
			blob, err := os.ReadFile(*bodyFile)
			must(err)
			body = string(blob)
		}
		proposal, err := svc.Simulate(context.Background(), *rfpID, *vendorID, body)
		must(err)
		fmt.Printf("simulated proposal id=%s rfp=%s vendor=%s\n", proposal.ID, proposal.RFPID, proposal.VendorID)
	default:
		usage()
		os.Exit(1)
	}
}

func buildExtractor(cfg config.Config, logger *log.Logger) (ai.Extractor, error) {
	if cfg.AIMock {
		return ai.Mock{}, nil
	}
	completer, err := ai.NewGeminiCompleter(cfg, logger)
	if err != nil {
		return nil, err
	}
	var extractor ai.Extractor = ai.NewService(completer, logger)
	if cfg.AIFallbackSample {
		extractor = ai.NewSampleFallback(extractor, logger)
	}
	return extractor, nil
}

func splitList(input string) []string {
	out := []string{}
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(v any) {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(blob))
}

func requireFlag(value, name string) {
	if strings.TrimSpace(value) == "" {
		must(fmt.Errorf("%s is required", name))
	}
}

func usage() {
	fmt.Println("usage: procureai <command>")
	fmt.Println("commands:")
	fmt.Println("  rfp:create --title=... --request=... [--parse=true]")
	fmt.Println("  rfp:parse --id=... | --request=...")
	fmt.Println("  rfp:list")
	fmt.Println("  rfp:show --id=...")
	fmt.Println("  rfp:send --id=... --vendors=v1,v2")
	fmt.Println("  rfp:compare --id=...")
	fmt.Println("  vendor:add --name=... --email=... [--contact=...] [--tags=a,b]")
	fmt.Println("  vendor:list")
	fmt.Println("  proposal:list --rfp=...")
	fmt.Println("  inbox:refresh")
	fmt.Println("  inbox:listen")
	fmt.Println("  export:xlsx --rfp=... [--out=...xlsx]")
	fmt.Println("  debug:health")
	fmt.Println("  debug:simulate --rfp=... --vendor=... [--body=reply.txt]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
