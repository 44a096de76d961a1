package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/mvipergts/value/internal/appraisal"
	"github.com/mvipergts/value/internal/httpapi"
	"github.com/mvipergts/value/internal/maintenance"
	"github.com/mvipergts/value/internal/nhtsa"
	"github.com/mvipergts/value/internal/render"
	"github.com/mvipergts/value/internal/store"
)

func main() {
	_ = godotenv.Load()

	dbFlag := flag.String("db", "", "path to SQLite database file (overrides DB_PATH env var)")
	flag.Parse()

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	if dbPath == "" {
		dbPath = "./data/appraisals.db"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing := setupTracing(ctx)
	defer shutdownTracing()

	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open store (%s): %v", dbPath, err)
	}
	defer st.Close()
	log.Printf("using sqlite store at %s", dbPath)

	client, err := nhtsa.NewClient(nhtsa.Config{})
	if err != nil {
		log.Fatalf("nhtsa client: %v", err)
	}
	p := &appraisal.Pipeline{
		Resolver:   client,
		Recalls:    client,
		Complaints: client,
		Bulletins:  client,
		Settings:   st,
	}
	if est, err := maintenance.NewAnthropicEstimatorFromEnv(); err == nil {
		p.Estimator = est
	} else {
		log.Printf("cost estimator disabled: %v", err)
	}

	h := httpapi.NewServer(p, st, render.NewPDFRenderer())
	srv := &http.Server{Addr: addr, Handler: h}

	go func() {
		log.Printf("appraisal-server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// setupTracing wires the OTLP trace exporter when an endpoint is configured;
// otherwise tracing stays on the default no-op provider.
func setupTracing(ctx context.Context) func() {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func() {}
	}
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		log.Printf("otlp exporter disabled: %v", err)
		return func() {}
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("appraisal-server"),
	))
	if err != nil {
		res = resource.Default()
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}
}
