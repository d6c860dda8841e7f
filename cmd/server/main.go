// @title BitHub API
// @version 0.1.0
// @description Pays bitcoin to the authors of commits pushed to participating GitHub repositories and serves cached payout status.
// @BasePath /
// @securityDefinitions.basic WebhookBasicAuth

// @Tag.name Meta
// @Tag.description Operational probes and build metadata.

// @Tag.name Webhooks
// @Tag.description GitHub push deliveries that trigger commit payouts.

// @Tag.name Status
// @Tag.description Cached payout value, recent payouts and repositories.

// @Tag.name Config
// @Tag.description Static values consumed by the donation page.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bithub/internal"
	"bithub/internal/env"
	"bithub/internal/swagger"

	"github.com/gofiber/fiber/v3"
)

func main() {
	deployment := flag.String("deployment", "", "deployment profile (dev|test|prod)")
	portFlag := flag.String("port", "", "port to listen on")
	envRoot := flag.String("env-root", "", "directory containing environment files")
	appVersion := flag.String("app-version", "", "application version override")

	flag.Parse()

	deploy := strings.TrimSpace(*deployment)
	if deploy == "" {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Println("Usage: server --deployment <type> --port <port> [--env-root <dir>] [--app-version <version>]")
			os.Exit(1)
		}
		deploy = strings.TrimSpace(args[0])
	}

	if deploy == "" {
		log.Fatal("deployment is required")
	}

	port := strings.TrimSpace(*portFlag)
	if port == "" {
		log.Fatal("port is required")
	}

	if err := run(deploy, port, *envRoot, *appVersion); err != nil {
		log.Fatal(err)
	}
}

// run serves until the listener fails or a signal arrives.
func run(deploy, port, envRoot, appVersion string) error {
	app, shutdown := internal.SetupApp(deploy, envRoot, appVersion)
	swagger.Register(app)

	fmt.Println("APP VERSION:", env.VERSION)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	return serve(app, fmt.Sprintf(":%s", port), env.PREFORK, shutdown, sig)
}

// serve always runs shutdown before returning so the cache refresher
// stops and queued audit events are flushed, even when Listen fails.
func serve(app *fiber.App, addr string, prefork bool, shutdown func(), sig <-chan os.Signal) error {
	defer shutdown()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-sig:
			if err := app.Shutdown(); err != nil {
				log.Printf("shutdown: %v", err)
			}
		case <-done:
		}
	}()

	if err := app.Listen(addr, fiber.ListenConfig{
		EnablePrefork: prefork,
	}); err != nil {
		return fmt.Errorf("error listening on %s: %w", addr, err)
	}

	return nil
}
