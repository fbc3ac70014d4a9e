package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"matchbook/api"
	"matchbook/domain/book"
	"matchbook/infra/config"
	"matchbook/infra/kafka"
	"matchbook/infra/logging"
	"matchbook/infra/outbox"
	"matchbook/infra/sequence"
	"matchbook/infra/wal"
	"matchbook/jobs/broadcaster"
	"matchbook/service"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when empty)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---------------- Durability ----------------

	journal, err := wal.Open(wal.Config{
		Dir:             cfg.WAL.Dir,
		SegmentSize:     cfg.WAL.SegmentSize,
		SegmentDuration: cfg.WAL.SegmentDuration,
		FlushInterval:   cfg.WAL.FlushInterval,
	})
	if err != nil {
		logger.Fatal("open wal", zap.Error(err))
	}
	defer journal.Close()

	box, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		logger.Fatal("open outbox", zap.Error(err))
	}
	defer box.Close()

	// ---------------- Domain + recovery ----------------

	bk := book.New()
	seqGen := sequence.New(0)
	idGen := sequence.New(0)
	tradeSeq := sequence.New(0)

	replayed, err := service.ReplayFromWAL(cfg.WAL.Dir, bk, seqGen, idGen, tradeSeq)
	if err != nil {
		logger.Fatal("wal replay", zap.Error(err))
	}
	logger.Info("state recovered",
		zap.Uint64("commands", replayed),
		zap.Int("resting_orders", bk.RestingCount()),
		zap.Uint64("next_seq", seqGen.Current()+1))

	// ---------------- Market data ----------------

	conv, err := api.NewPriceConverter(cfg.Instrument.TickSize)
	if err != nil {
		logger.Fatal("price converter", zap.Error(err))
	}

	hub := api.NewHub(logger, conv)
	go hub.Run()

	sinks := []service.EventSink{hub}

	if len(cfg.Kafka.Brokers) > 0 {
		depthProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DepthTopic)
		defer depthProducer.Close()

		depthPub := service.NewDepthPublisher(logger, depthProducer)
		go depthPub.Run(ctx)
		sinks = append(sinks, depthPub)

		bc, err := broadcaster.New(logger, box, cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, cfg.Kafka.Interval)
		if err != nil {
			logger.Fatal("init broadcaster", zap.Error(err))
		}
		defer bc.Close()
		go bc.Run(ctx)
	} else {
		logger.Warn("no kafka brokers configured, trade and depth feeds are websocket-only")
	}

	// ---------------- Gateway ----------------

	svc := service.NewOrderService(logger, bk, seqGen, idGen, tradeSeq, service.Options{
		Symbol:     cfg.Instrument.Symbol,
		DepthLimit: cfg.Server.DepthLimit,
		WAL:        journal,
		Outbox:     box,
		Sinks:      sinks,
	})
	go svc.Run(ctx)

	// ---------------- HTTP ----------------

	srv := api.NewServer(logger, svc, conv, hub, cfg.Instrument.Symbol, cfg.Server.DepthLimit)
	httpSrv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	if err := journal.Sync(); err != nil {
		logger.Warn("final wal sync", zap.Error(err))
	}
	logger.Info("bye")
}
