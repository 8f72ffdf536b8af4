package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/nemsim/nemsim/internal/api"
	"github.com/nemsim/nemsim/internal/archive"
	"github.com/nemsim/nemsim/internal/config"
	"github.com/nemsim/nemsim/internal/feed"
	"github.com/nemsim/nemsim/internal/monitor"
	"github.com/nemsim/nemsim/internal/persist"
	"github.com/nemsim/nemsim/internal/rng"
	"github.com/nemsim/nemsim/internal/simulation"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Printf("configuration error: %v", err)
		os.Exit(1)
	}

	log.Println("nemsim starting")

	if cfg.Profile {
		f, err := os.Create("nemsim.prof")
		if err != nil {
			log.Fatalf("create profile file: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
		log.Println("CPU profiling enabled: nemsim.prof")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	simCfg, err := cfg.BuildSimulationConfig()
	if err != nil {
		log.Printf("scenario error: %v", err)
		os.Exit(1)
	}

	prng := rng.New(cfg.Seed)
	log.Printf("PRNG seed: %d", cfg.Seed)

	store, err := persist.NewStore(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer store.Close(context.Background())

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	sim, err := simulation.New(simCfg)
	if err != nil {
		log.Fatalf("simulation setup failed: %v", err)
	}
	log.Printf("pre-roll complete, clock at %s", sim.Time())

	mgr := feed.NewManager(cfg.Regions, cfg.SendBufferSize)

	snapshotter := persist.NewSnapshotter(store, sim.Operators(), prng, sim.Time)

	if cfg.Optimise {
		log.Println("optimise mode: persisting only at trading-interval boundaries, not every dispatch interval")
	}

	sim.OnIntervalCleared = func(regionID string, t time.Time) {
		op, ok := sim.Operator(regionID)
		if !ok {
			return
		}
		if info, ok := op.DispatchIntervalInfoAt(t); ok {
			mgr.Broadcast(feed.Event{
				Type:                feed.EventDispatchInterval,
				RegionID:            regionID,
				IntervalEnd:         t,
				Price:               info.Price,
				PriceBandNo:         info.PriceBandNo,
				TotalDemand:         info.TotalDemand,
				TotalDemandSupplied: info.TotalDemandSupplied,
				DemandSuppliedByGen: info.DemandSuppliedByGenID,
			})
			if !cfg.Optimise {
				if err := snapshotter.Save(context.Background()); err != nil {
					log.Printf("snapshot save error: %v", err)
				}
			}
		}
		if trading, ok := op.TradingIntervalInfoAt(t); ok {
			genIDs := make([]string, 0, len(trading.GeneratorIDsDispatched))
			for id := range trading.GeneratorIDsDispatched {
				genIDs = append(genIDs, id)
			}
			mgr.Broadcast(feed.Event{
				Type:                   feed.EventTradingInterval,
				RegionID:               regionID,
				IntervalEnd:            t,
				SpotPrice:              trading.SpotPrice,
				TotalDemand:            trading.TotalDemand,
				TotalDemandSupplied:    trading.TotalDemandSupplied,
				GeneratorIDsDispatched: genIDs,
			})
			if cfg.Optimise {
				if err := snapshotter.Save(context.Background()); err != nil {
					log.Printf("snapshot save error: %v", err)
				}
			}
		}
	}

	go persist.RunRetention(ctx, store, cfg.IntervalRetentionDays)

	if cfg.ArchiveDir != "" {
		archiver := archive.New(store.DB(), cfg.ArchiveDir, cfg.ArchiveMaxGB, cfg.ArchiveIntervalHours, cfg.ArchiveAfterHours)
		go archiver.Run(ctx)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", feed.Handler(mgr))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","clients":%d,"regions":%d}`, mgr.ClientCount(), len(cfg.Regions))
	})

	apiServer := api.NewServer(persist.NewMongoIntervalReader(store.DB()), sim.Operators(), mgr)
	apiServer.Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.WSPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Printf("feed server listening on ws://%s/feed", addr)
		log.Printf("health check: http://%s/health", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("feed server error: %v", err)
		}
	}()

	log.Printf("running simulation from %s to %s", sim.StartDate(), sim.EndDate())
	sim.Run()
	log.Println("simulation run complete")

	if err := snapshotter.Save(context.Background()); err != nil {
		log.Printf("final snapshot error: %v", err)
	}

	if cfg.MonitorCSVPath != "" {
		if err := monitor.WriteCSV(cfg.MonitorCSVPath, sim.StartDate(), sim.EndDate(), monitor.Operators(sim.Operators())); err != nil {
			log.Printf("monitor CSV write error: %v", err)
		} else {
			log.Printf("wrote data monitor CSV to %s", cfg.MonitorCSVPath)
		}
	}

	cancel()
	log.Println("nemsim stopped")
}
