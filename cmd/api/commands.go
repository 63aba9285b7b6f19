package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/akolanti/SecoursTech/internal/config"
	"github.com/akolanti/SecoursTech/internal/domain/jobModel"
	"github.com/akolanti/SecoursTech/internal/handlers"
	"github.com/akolanti/SecoursTech/internal/job"
	"github.com/akolanti/SecoursTech/internal/mcpserver"
	"github.com/akolanti/SecoursTech/internal/middleware"
	"github.com/akolanti/SecoursTech/internal/rag/document"
	"github.com/akolanti/SecoursTech/internal/server"
	"github.com/akolanti/SecoursTech/internal/worker"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	configPath string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:          "secourstech",
	Short:        "Firefighting procedure assistant",
	Version:      version,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the worker pool",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ask and reset tools over MCP stdio",
	RunE:  runMCP,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Inspect the procedure catalogue",
}

var catalogueCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch every catalogued document and report the unreadable ones",
	RunE:  runCatalogueCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	serveCmd.Flags().StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides server.addr)")

	catalogueCmd.AddCommand(catalogueCheckCmd)
	rootCmd.AddCommand(serveCmd, mcpCmd, askCmd, catalogueCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(logger_i.Options{})
	if err != nil {
		return err
	}
	logger := logger_i.NewLogger("main")

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	a, err := buildApp(serviceContext, settings)
	if err != nil {
		logger.Error("Could not start", "error", err)
		return err
	}

	//init buffered job channel
	jobChannel := make(chan jobModel.Job, settings.Worker.Buffer)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel := make(chan bool, 1)
	var workerWaitGroup sync.WaitGroup

	logger.Info("Starting job service")
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		DispatcherChannel: dispatcherChannel,
		JobStore:          a.jobs,
		Sessions:          a.sessions,
	})

	middleware.Configure(middleware.AuthOptions{Token: settings.Auth.Token, Bypass: settings.Auth.Bypass})
	handlers.InitJobHandler(service)
	handlers.InitDocumentHandler(a.catalogue, a.documents)

	//init worker pool
	worker.InitServices(service)
	worker.SetMaxWorkers(settings.Worker.Max)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	go server.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	})

	addr := settings.Server.Addr
	if listenAddr != "" {
		addr = listenAddr
	}
	go server.CreateServer(addr)

	<-stopExecution
	logger.Info("Server stopped")
	return nil
}

func runMCP(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(logger_i.Options{Stderr: true})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, settings)
	if err != nil {
		return err
	}
	return mcpserver.NewTools(a.sessions).Run(ctx, version)
}

func runAsk(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(logger_i.Options{Stderr: true})
	if err != nil {
		return err
	}
	// one-shot: nothing to share with other processes
	settings.Redis.Enabled = false

	ctx, cancel := context.WithTimeout(cmd.Context(), config.SubmissionTimeout)
	defer cancel()

	a, err := buildApp(ctx, settings)
	if err != nil {
		return err
	}
	out, err := a.sessions.Create().Submit(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if out.Reply == nil {
		return errors.New("no answer produced")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, out.Reply.Content)
	if len(out.Reply.Sources) > 0 {
		fmt.Fprintf(w, "\nSources : %s\n", strings.Join(out.Reply.Sources, ", "))
	}
	return nil
}

func runCatalogueCheck(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(logger_i.Options{Stderr: true})
	if err != nil {
		return err
	}
	cat, docs, err := buildDocuments(settings)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	failed := 0
	for _, r := range document.Check(cmd.Context(), docs, cat.All()) {
		switch {
		case errors.Is(r.Err, document.ErrNotFound):
			failed++
			fmt.Fprintf(w, "MISSING  %-10s %s\n", r.Document.Id, r.Document.Path)
		case r.Err != nil:
			failed++
			fmt.Fprintf(w, "BROKEN   %-10s %s: %v\n", r.Document.Id, r.Document.Path, r.Err)
		default:
			fmt.Fprintf(w, "OK       %-10s %d pages, %d bytes  %q\n", r.Document.Id, r.Pages, r.Size, r.Preview)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents unusable", failed, cat.Len())
	}
	return nil
}
