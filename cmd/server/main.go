package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-payment-broker/assertion"
	"github.com/jrsteele09/go-payment-broker/internal/config"
	"github.com/jrsteele09/go-payment-broker/payments"
	"github.com/jrsteele09/go-payment-broker/server"
	"github.com/jrsteele09/go-payment-broker/upstream"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	// Key material is a startup precondition: a missing or malformed signing
	// key must never surface later inside a request handler.
	keys, err := assertion.LoadKeys(c.GetApplicationID(), c.GetPrivateKeyBase64())
	if err != nil {
		return fmt.Errorf("signing key configuration: %w", err)
	}

	minter := assertion.NewJWTMinter(keys)
	upstreamClient := upstream.New(c.GetBankingAPIURL(), c.GetUpstreamTimeout(), minter)
	sessionRepo := payments.NewInMemorySessionRepo()
	paymentService := payments.NewService(upstreamClient, sessionRepo, c.GetRedirectURL())

	httpServer := &http.Server{Addr: c.GetPort(), Handler: server.New(c, paymentService)}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
