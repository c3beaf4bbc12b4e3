package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mongodriver "go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"goa.design/clue/log"

	credsmongo "github.com/autoflow/autoflow/features/creds/mongo"
	"github.com/autoflow/autoflow/features/discord"
	drivegoogle "github.com/autoflow/autoflow/features/drive/google"
	historymongo "github.com/autoflow/autoflow/features/history/mongo"
	"github.com/autoflow/autoflow/features/image"
	"github.com/autoflow/autoflow/features/llm/openrouter"
	mailsmtp "github.com/autoflow/autoflow/features/mail/smtp"
	messagingtwilio "github.com/autoflow/autoflow/features/messaging/twilio"
	"github.com/autoflow/autoflow/features/report"
	sheetsgoogle "github.com/autoflow/autoflow/features/sheets/google"
	"github.com/autoflow/autoflow/features/social"
	"github.com/autoflow/autoflow/features/docparse"
	"github.com/autoflow/autoflow/runtime/workflow/creds"
	"github.com/autoflow/autoflow/runtime/workflow/engine"
	"github.com/autoflow/autoflow/runtime/workflow/history"
	historyinmem "github.com/autoflow/autoflow/runtime/workflow/history/inmem"
	"github.com/autoflow/autoflow/runtime/workflow/nodes"
	"github.com/autoflow/autoflow/runtime/workflow/router"
	"github.com/autoflow/autoflow/runtime/workflow/sched"
	"github.com/autoflow/autoflow/runtime/workflow/store"
	"github.com/autoflow/autoflow/runtime/workflow/telemetry"
	"github.com/autoflow/autoflow/server"
)

func main() {
	var (
		addrF = flag.String("addr", ":8000", "HTTP listen address")
		dbgF  = flag.Bool("debug", false, "Enable debug logs")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *dbgF {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}

	logger := telemetry.NewClueLogger()
	metrics := telemetry.NewClueMetrics()

	hist, source := storage(ctx)
	var cipher creds.Cipher
	if secret := os.Getenv("API_KEY_ENCRYPTION_KEY"); secret != "" {
		c, err := creds.NewFernetCipher(secret)
		if err != nil {
			log.Fatalf(ctx, err, "credential cipher setup failed")
		}
		cipher = c
	}

	deps := adapters(ctx, logger)
	registry := nodes.NewRegistry(deps)
	workflows := store.New()

	// The scheduler and the engine reference each other: fires look up
	// the stored workflow and run it, the engine's pre-pass registers
	// cron jobs. Break the cycle with a late-bound engine pointer.
	var eng *engine.Engine
	scheduler := sched.New(func(ctx context.Context, workflowID string) {
		w, userID, err := workflows.Get(workflowID)
		if err != nil {
			logger.Warn(ctx, "scheduled workflow disappeared", "workflow_id", workflowID)
			return
		}
		if _, err := eng.Run(ctx, w, userID); err != nil {
			logger.Error(ctx, "scheduled run failed", "workflow_id", workflowID, "err", err.Error())
		}
	}, logger)

	var err error
	eng, err = engine.New(engine.Options{
		Registry: registry,
		Store:    workflows,
		Cron:     scheduler,
		Source:   source,
		Cipher:   cipher,
		History:  hist,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		log.Fatalf(ctx, err, "engine setup failed")
	}

	srv, err := server.New(server.Options{
		Runner:    eng,
		Router:    router.New(workflows, eng, logger),
		Scheduler: scheduler,
		Store:     workflows,
		Parser:    deps.Parser,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf(ctx, err, "server setup failed")
	}

	scheduler.Start()
	defer scheduler.Stop()

	handler := log.HTTP(ctx)(srv.Handler())
	httpServer := &http.Server{Addr: *addrF, Handler: handler}

	errc := make(chan error, 1)
	go func() {
		log.Print(ctx, log.KV{K: "msg", V: "HTTP server listening"}, log.KV{K: "addr", V: *addrF})
		errc <- httpServer.ListenAndServe()
	}()

	stop, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	select {
	case err := <-errc:
		log.Errorf(ctx, err, "server error")
	case <-stop.Done():
		log.Print(ctx, log.KV{K: "msg", V: "shutting down"})
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf(ctx, err, "graceful shutdown failed")
	}
}

// storage selects Mongo persistence unless FORCE_IN_MEMORY_DB is set
// or the connection fails, in which case history lives in memory and
// per-user credentials resolve from the environment only.
func storage(ctx context.Context) (history.Store, creds.Source) {
	if force, _ := strconv.ParseBool(os.Getenv("FORCE_IN_MEMORY_DB")); force {
		log.Print(ctx, log.KV{K: "msg", V: "using in-memory storage"})
		return historyinmem.New(), nil
	}
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	database := os.Getenv("MONGODB_DATABASE")
	if database == "" {
		database = "autoflow"
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongodriver.Connect(connectCtx, mongooptions.Client().ApplyURI(uri))
	if err == nil {
		err = client.Ping(connectCtx, nil)
	}
	if err != nil {
		log.Errorf(ctx, err, "mongo unavailable, falling back to in-memory storage")
		return historyinmem.New(), nil
	}
	hist, err := historymongo.New(historymongo.Options{Client: client, Database: database})
	if err != nil {
		log.Fatalf(ctx, err, "history store setup failed")
	}
	source, err := credsmongo.New(credsmongo.Options{Client: client, Database: database})
	if err != nil {
		log.Fatalf(ctx, err, "credential source setup failed")
	}
	return hist, source
}

// adapters wires the executor dependencies from the environment.
// Unconfigured adapters stay nil; the matching executors then report
// configuration errors per node instead of failing startup.
func adapters(ctx context.Context, logger telemetry.Logger) nodes.Deps {
	deps := nodes.Deps{
		LLM:     openrouter.New(openrouter.Options{}),
		Courier: messagingtwilio.New(messagingtwilio.Options{}),
		Discord: discord.New(nil),
		Social:  social.New(social.Options{}),
		Log:     logger,
	}

	if host := os.Getenv("SMTP_SERVER"); host != "" {
		port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
		sender, err := mailsmtp.New(mailsmtp.Options{
			Host:     host,
			Port:     port,
			Username: os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASSWORD"),
		})
		if err != nil {
			log.Errorf(ctx, err, "smtp disabled")
		} else {
			deps.Mail = sender
		}
	}

	generator, err := image.New(image.Options{})
	if err != nil {
		log.Fatalf(ctx, err, "image generator setup failed")
	}
	deps.Images = generator

	parser, err := docparse.New(docparse.Options{})
	if err != nil {
		log.Fatalf(ctx, err, "document parser setup failed")
	}
	deps.Parser = parser

	reports, err := report.New(report.Options{})
	if err != nil {
		log.Fatalf(ctx, err, "report writer setup failed")
	}
	deps.Reports = reports

	if credsFile := os.Getenv("GOOGLE_CREDENTIALS_FILE"); credsFile != "" {
		drive, err := drivegoogle.New(ctx, drivegoogle.Options{CredentialsFile: credsFile})
		if err != nil {
			log.Errorf(ctx, err, "drive disabled")
		} else {
			deps.Drive = drive
		}
		writer, err := sheetsgoogle.New(ctx, sheetsgoogle.Options{CredentialsFile: credsFile})
		if err != nil {
			log.Errorf(ctx, err, "sheets disabled")
		} else {
			deps.Sheets = writer
		}
	}
	return deps
}
