package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/carlosrm22/lazaro/internal/config"
	"github.com/carlosrm22/lazaro/internal/engine"
	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/ipc"
	"github.com/carlosrm22/lazaro/internal/loginctl"
	"github.com/carlosrm22/lazaro/internal/platform"
	"github.com/carlosrm22/lazaro/internal/profile"
	"github.com/carlosrm22/lazaro/internal/service"
	"github.com/carlosrm22/lazaro/internal/settings"
	"github.com/carlosrm22/lazaro/internal/stats"
	"github.com/godbus/dbus/v5"
)

func main() {
	// check for argument to determine config location
	argPath := ""
	if len(os.Args) > 1 {
		argPath = os.Args[1]
	} else {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			log.Fatal("Failed to resolve config path:", err)
		}
		argPath = defaultPath
	}
	log.Println("Using config file at:", argPath)
	cfg, err := config.LoadConfigFromFile(argPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	profiles, err := profile.Open(filepath.Join(cfg.StateDir, profile.FileName))
	if err != nil {
		log.Fatal("Failed to open profile store:", err)
	}
	active := profiles.Get()

	store, err := stats.New(stats.DefaultDBPath(cfg.StateDir))
	if err != nil {
		log.Fatal("Failed to open stats database:", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agg, err := stats.NewAggregator(ctx, store, time.Now(), active.DailyResetTime.Offset())
	if err != nil {
		log.Fatal("Failed to load stats:", err)
	}

	autostart, err := platform.NewAutostart(cfg.AppName, cfg.ExecPath)
	if err != nil {
		log.Fatal("Failed to set up autostart:", err)
	}

	pub := events.NewPublisher(cfg.EventHistory)
	defer pub.Close()

	eng := engine.New(active, agg, pub, engine.Options{
		TickInterval:          cfg.TickInterval.Std(),
		MediumGrace:           cfg.MediumGrace.Std(),
		StrictSnoozeAllowance: *cfg.StrictSnoozeAllowance,
		Autostarter:           autostart,
	})
	svc := service.New(profiles, eng, agg, pub)

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if err := profiles.Watch(ctx); err != nil {
		log.Println("Profile file watcher disabled:", err)
	}

	conn, err := ipc.Connect(cfg.Bus)
	if err != nil {
		log.Fatal("Failed to connect to D-Bus:", err)
	}
	defer conn.Close()

	var wg sync.WaitGroup

	// Start the logind listener (system D-Bus)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("Monitoring logind for sleep and wake...")
		if err := loginctl.Watch(ctx, eng); err != nil {
			log.Println("logind watcher error:", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("Opening D-Bus service on the", cfg.Bus, "bus...")
		if err := ipc.Serve(ctx, conn, svc, cfg.EventBuffer); err != nil {
			log.Println("lazaro service error:", err)
			cancel()
		}
	}()

	if *cfg.Notify {
		startNotifier(ctx, &wg, cfg, svc)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := eng.Run(ctx); err != nil {
			log.Println("break engine error:", err)
		}
	}()

	if err := svc.StartRuntime(); err != nil {
		log.Println("Failed to start runtime:", err)
	}

	wg.Wait()
	fmt.Println("Shutdown complete")
}

// startNotifier relays break events to the desktop notification daemon,
// which always lives on the session bus.
func startNotifier(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, svc *service.Service) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		log.Println("Desktop notifications disabled:", err)
		return
	}

	notifier := platform.NewNotifier(platform.NewDBusSender(conn), cfg.AppName, func() settings.Notifications {
		return svc.GetSettings().Notifications
	})
	ch, unsubscribe := svc.Subscribe(cfg.EventBuffer)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer unsubscribe()
		notifier.Run(ctx, ch)
	}()
}
