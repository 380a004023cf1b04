package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron"

	"superstore-dashboard/src/config"
	"superstore-dashboard/src/datapush"
	"superstore-dashboard/src/dataset"
	"superstore-dashboard/src/datasource/email"
	"superstore-dashboard/src/datasource/file"
	"superstore-dashboard/src/processor"
	"superstore-dashboard/src/server"
	"superstore-dashboard/src/session"
	"superstore-dashboard/src/storage"
)

func main() {
	jsonFolder := "./config"
	jsonFile := "config.json"
	viewJsonFile := "viewconfig.json"
	cfg, vcfg, err := config.LoadConfig(jsonFolder, jsonFile, viewJsonFile)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Initial load; a service without base tables has nothing to serve.
	bundle, warnings, err := file.LoadBundle(cfg)
	if err != nil {
		logger.Fatal("initial load failed: " + err.Error())
		log.Fatal("Failed to load base tables:", err)
	}
	for _, w := range warnings {
		logger.Warning(w)
	}
	logger.Info(fmt.Sprintf("base tables loaded (%d orders, %d customers, %d stock, %d products)",
		bundle.Orders.Nrow(), bundle.Customers.Nrow(), bundle.Stock.Nrow(), bundle.Products.Nrow()))

	store := session.NewStore(bundle)
	pipe := processor.NewPipeline(vcfg)

	reload := func() (*dataset.Bundle, []string, error) {
		return file.LoadBundle(cfg)
	}

	refresh := func(reason string) {
		fresh, warns, err := reload()
		if err != nil {
			logger.Error("reload failed (" + reason + "): " + err.Error())
			return
		}
		for _, w := range warns {
			logger.Warning(w)
		}
		store.SwapBundle(fresh)
		logger.Info("base tables reloaded (" + reason + ")")
	}

	// Rewritten source files in the data dir trigger a reload.
	if cfg.DataDir != "" {
		monitor, err := file.NewDataDirMonitor(cfg.DataDir)
		if err != nil {
			logger.Warning("data dir watch disabled: " + err.Error())
		} else {
			go func() {
				if err := monitor.Watch(func(path string) {
					logger.Info("source file updated: " + path)
					refresh("file update")
				}); err != nil {
					logger.Error("data dir watch stopped: " + err.Error())
				}
			}()
		}
	}

	c := cron.New()

	if interval := time.Duration(cfg.RefreshInterval); interval > 0 {
		spec := fmt.Sprintf("@every %s", interval)
		if err := c.AddFunc(spec, func() { refresh("schedule") }); err != nil {
			logger.Error("failed to schedule refresh: " + err.Error())
		}
	}

	if cfg.Email.Server != "" {
		mailbox := email.NewClient(cfg.Email.Server, cfg.Email.Username, cfg.Email.Password)
		handler := email.NewWorkbookHandler(cfg.DataDir)
		interval := time.Duration(cfg.Email.CheckInterval)
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		spec := fmt.Sprintf("@every %s", interval)
		err := c.AddFunc(spec, func() {
			msg, err := email.FetchLatestWorkbookMail(mailbox, cfg.Email.TargetSubject, logger)
			if err != nil {
				logger.Error("mailbox check failed: " + err.Error())
				return
			}
			saved, err := handler.Handle(msg)
			if err != nil {
				logger.Error("attachment handling failed: " + err.Error())
				return
			}
			for _, p := range saved {
				logger.Info("stock workbook saved: " + p)
			}
		})
		if err != nil {
			logger.Error("failed to schedule mailbox polling: " + err.Error())
		}
	}

	if cfg.Push.WebhookURL != "" || len(cfg.SendEmail.To) > 0 {
		schedule := cfg.Push.Schedule
		if schedule == "" {
			schedule = "@daily"
		}
		pusher := datapush.NewWebhookPusher(cfg.Push.WebhookURL)
		err := c.AddFunc(schedule, func() {
			d := pipe.Run(store.Bundle(), processor.Selection{})

			if cfg.Push.WebhookURL != "" {
				if err := pusher.PushSummary(d); err != nil {
					logger.Error("summary push failed: " + err.Error())
				}
			}

			if len(cfg.SendEmail.To) > 0 {
				workbook := filepath.Join(os.TempDir(), "superstore-report.xlsx")
				if err := datapush.BuildWorkbook(d, workbook); err != nil {
					logger.Error("report workbook failed: " + err.Error())
					workbook = ""
				}
				if err := email.SendReport(cfg, datapush.FormatSummary(d), workbook); err != nil {
					logger.Error("report mail failed: " + err.Error())
				}
			}
		})
		if err != nil {
			logger.Error("failed to schedule report push: " + err.Error())
		}
	}

	if cfg.LogMaxSize != "" {
		if err := c.AddFunc("@hourly", func() {
			if err := logger.CheckRotate(cfg.LogMaxSize); err != nil {
				logger.Error("log rotation failed: " + err.Error())
			}
		}); err != nil {
			logger.Error("failed to schedule log rotation: " + err.Error())
		}
	}

	c.Start()
	defer c.Stop()

	srv := server.New(store, pipe, logger, reload)
	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	go func() {
		logger.Info("dashboard API listening on " + addr)
		if err := http.ListenAndServe(addr, srv.Router()); err != nil {
			logger.Fatal("server stopped: " + err.Error())
			log.Fatal("Server stopped:", err)
		}
	}()

	waitForShutdown(logger)
}

func waitForShutdown(logger *storage.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal: " + sig.String() + ", shutting down...")
	logger.Close()
	os.Exit(0)
}
