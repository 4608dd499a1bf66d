package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"

	"github.com/freshbowl/cart/internal/cart"
	"github.com/freshbowl/cart/internal/catalog"
	"github.com/freshbowl/cart/internal/event"
	"github.com/freshbowl/cart/internal/events"
	"github.com/freshbowl/cart/internal/mongo"
)

const (
	appNamespace = "CART"
	appName      = "cart"
	appVersion   = "0.1.0"
)

const (
	defaultServiceRate = "0.01"
	defaultTaxRate     = "0.07"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	cartRepo := mongo.NewCartStateRepo(db)

	cartTTL, err := time.ParseDuration(config.GetStringOrDef("cart.ttl", "720h"))
	if err != nil {
		log.Fatalf("%s(%s) invalid cart.ttl: %v", appName, appVersion, err)
	}
	if err := cartRepo.EnsureIndexes(ctx, cartTTL); err != nil {
		log.Fatalf("%s(%s) cannot ensure cart indexes: %v", appName, appVersion, err)
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	// Checkout events go through JetStream when a stream name is configured,
	// so consumers can replay events missed during downtime. Without one,
	// plain NATS publishing applies.
	var pub aptevents.Publisher
	var closePub func() error

	streamName := config.GetStringOrDef("nats.stream.name", "")
	if streamName != "" {
		stream, serr := events.NewCheckoutStream(events.CheckoutStreamConfig{
			URL:        natsURL,
			StreamName: streamName,
			Topic:      event.CartTopic,
			MaxAge:     24 * time.Hour,
		})
		if serr != nil {
			log.Fatalf("%s(%s) cannot create checkout stream: %v", appName, appVersion, serr)
		}
		pub = stream
		closePub = stream.Close
	} else {
		natsPub, perr := events.NewNATSPublisher(natsURL)
		if perr != nil {
			log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, perr)
		}
		pub = natsPub
		closePub = natsPub.Close
	}

	sub, err := events.NewNATSSubscriber(natsURL, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	menuURL, _ := config.GetString("services.menu.url")
	menuClient := catalog.NewHTTPClient(menuURL)

	backofficeURL, _ := config.GetString("services.backoffice.url")
	backofficeClient := apt.NewServiceClient(backofficeURL)
	promoCache := cart.NewPromoCache(backofficeClient, logger)
	promoSub := cart.NewPromoSubscriber(sub, promoCache, logger)

	orderURL, _ := config.GetString("services.order.url")
	orderClient := apt.NewServiceClient(orderURL)
	orderSubmitter := cart.NewServiceOrderSubmitter(orderClient)

	serviceRate, err := strconv.ParseFloat(config.GetStringOrDef("pricing.service_rate", defaultServiceRate), 64)
	if err != nil {
		log.Fatalf("%s(%s) invalid pricing.service_rate: %v", appName, appVersion, err)
	}
	taxRate, err := strconv.ParseFloat(config.GetStringOrDef("pricing.tax_rate", defaultTaxRate), 64)
	if err != nil {
		log.Fatalf("%s(%s) invalid pricing.tax_rate: %v", appName, appVersion, err)
	}

	checkout := cart.NewCheckoutService(orderSubmitter, promoCache, pub, serviceRate, taxRate, logger)

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return closePub()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	hd := cart.HandlerDeps{
		CartRepo: cartRepo,
		Catalog:  menuClient,
		Promos:   promoCache,
		Checkout: checkout,
	}

	handler := cart.NewHandler(hd, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})

	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		promoSub,
		publisherLifecycle,
		subLifecycle,
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
