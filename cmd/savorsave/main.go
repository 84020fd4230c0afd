package main

import (
	"context"
	"fmt"

	"github.com/savorsave/savorsave/internal/adapter/auth"
	"github.com/savorsave/savorsave/internal/adapter/client/payment"
	"github.com/savorsave/savorsave/internal/adapter/config"
	"github.com/savorsave/savorsave/internal/adapter/events"
	"github.com/savorsave/savorsave/internal/adapter/handler/http"
	"github.com/savorsave/savorsave/internal/adapter/logger"
	"github.com/savorsave/savorsave/internal/adapter/notify"
	"github.com/savorsave/savorsave/internal/adapter/storage"
	"github.com/savorsave/savorsave/internal/adapter/storage/repository"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/ledger"
	"github.com/savorsave/savorsave/internal/core/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	db, err := storage.NewDBStorage(ctx, conf.Database)
	if err != nil {
		log.Error("database error", zap.Error(err))
		return
	}
	err = db.RunMigrations()
	if err != nil {
		log.Error("database migration error", zap.Error(err))
		return
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		log.Error("repository creating error", zap.Error(err))
		return
	}
	tokenService, err := auth.New()
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	bus, err := events.New(conf.Events, log.Named("Events"))
	if err != nil {
		log.Error("event bus creating error", zap.Error(err))
		return
	}
	defer bus.Close()

	ledgerManager := ledger.NewManager(repo, bus, log.Named("Ledger"))
	toasts := notify.New(log.Named("Toast"))

	gateway, err := payment.NewClient(conf.Payment, log.Named("Payment"))
	if err != nil {
		log.Error("payment client creating error", zap.Error(err))
		return
	}

	transitionMode, err := domain.ParseTransitionMode(conf.App.TransitionMode)
	if err != nil {
		log.Error("transition mode parse error", zap.Error(err))
		return
	}

	svc, err := service.NewService(repo, tokenService, gateway, toasts,
		ledgerManager, transitionMode, conf.App.AllowGuest, log.Named("Service"))
	if err != nil {
		log.Error("service creating error", zap.Error(err))
		return
	}

	gateway.StartWorkers(ctx, svc, 3)

	userHandler, err := http.NewUserHandler(svc, log.Named("User handler"))
	if err != nil {
		log.Error("user handler creating error", zap.Error(err))
		return
	}
	orderHandler, err := http.NewOrderHandler(svc, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	expenseHandler, err := http.NewExpenseHandler(svc, log.Named("Expense handler"))
	if err != nil {
		log.Error("expense handler creating error", zap.Error(err))
		return
	}
	budgetHandler, err := http.NewBudgetHandler(svc, log.Named("Budget handler"))
	if err != nil {
		log.Error("budget handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, tokenService,
		userHandler, orderHandler, expenseHandler, budgetHandler)
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		incoming, err := bus.Subscribe(gctx)
		if err != nil {
			return err
		}
		for ev := range incoming {
			ledgerManager.ApplyRemoteEvent(ev)
		}
		return nil
	})

	g.Go(func() error {
		return r.Serve(conf.HTTP.HostString)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", zap.Error(err))
	}
}
