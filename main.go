package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"i4.energy/across/headsetctl/headset"
	"i4.energy/across/headsetctl/logger"
	"i4.energy/across/headsetctl/trace"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "trace" {
		if err := runTrace(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	configPath := flag.String("config", os.Getenv(envPrefix+"CONFIG"), "Configuration file (.toml, .yaml)")
	flag.String("address", headset.DefaultAddress, "Bluetooth address of the headset")
	flag.Int("channel", int(headset.DefaultChannel), "RFCOMM channel of the AT interface")
	flag.String("transport", TransportRFCOMM, "Channel transport (rfcomm, serial)")
	flag.String("serial-port", "/dev/rfcomm0", "rfcomm tty for the serial transport")
	flag.Int("baud-rate", 115200, "Baud rate for the serial transport")
	flag.String("adapter", "hci0", "BlueZ adapter, or \"none\" to skip BlueZ")
	flag.String("bind-address", "127.0.0.1:8080", "Bind address for the HTTP server (empty disables it)")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("log-format", "", "Log format (json, console)")
	flag.String("trace", "", "Write a CBOR protocol trace to this file")
	flag.Duration("exchange-timeout", headset.DefaultExchangeTimeout, "Time to wait for a command's response")
	flag.Duration("status-query-delay", headset.DefaultStatusQueryDelay, "Pause between the two status queries")
	flag.Duration("mode-switch-delay", headset.DefaultModeSwitchDelay, "Pause between turning one mode off and the other on")
	flag.Bool("interactive", false, "Start the interactive shell")
	flag.Bool("reconnect", false, "Reconnect with backoff whenever the channel drops")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configPath), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(config.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid log level:", err)
		os.Exit(1)
	}

	// The shell owns the terminal; logs go through it so they do not
	// overwrite the prompt.
	var sh *Shell
	var logOut io.Writer = os.Stderr
	if config.Interactive {
		sh, err = NewShell(nil, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		logOut = sh.Stdout()
	}

	log := logger.New(logger.Options{Level: level, Format: config.LogFormat, Output: logOut})
	logger.SetDefault(log)

	tracers := []trace.Tracer{trace.NewLogTracer(log.With("component", "trace"))}
	if config.TracePath != "" {
		ft, err := trace.NewFileTracer(config.TracePath)
		if err != nil {
			log.Fatal("Failed to open trace file", "path", config.TracePath, "error", err)
		}
		defer ft.Close()
		tracers = append(tracers, ft)
	}

	builder := headset.NewConfigBuilder().
		WithAddress(config.Address).
		WithChannel(uint8(config.Channel)).
		WithDialer(newDialer(config)).
		WithLogger(log).
		WithTracer(trace.NewMultiTracer(tracers...)).
		WithExchangeTimeout(config.ExchangeTimeout).
		WithStatusQueryDelay(config.StatusQueryDelay).
		WithModeSwitchDelay(config.ModeSwitchDelay)

	if config.Adapter != "none" {
		bluez, err := headset.NewBluezLocator(config.Adapter)
		if err != nil {
			log.Warn("BlueZ unavailable, skipping device lookup", "error", err)
			builder.WithLocator(headset.StaticLocator{})
		} else {
			defer bluez.Close()
			builder.WithLocator(bluez).WithLinkWatcher(bluez)
		}
	} else {
		builder.WithLocator(headset.StaticLocator{})
	}

	sessionConfig, err := builder.Build()
	if err != nil {
		log.Fatal("Failed to create session config", "error", err)
	}
	session, err := headset.New(sessionConfig)
	if err != nil {
		log.Fatal("Failed to create session", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := session.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Session loop stopped", "error", err)
		}
	}()

	log.Info("Starting headsetctl", "address", config.Address, "channel", config.Channel, "transport", config.Transport)

	if config.Reconnect {
		go keepConnected(ctx, session, defaultBackoff, log.With("component", "reconnect"))
	} else {
		go func() {
			if err := session.Connect(ctx); err != nil {
				log.Error("Failed to connect", "error", err)
			}
		}()
	}

	var httpServer *http.Server
	if config.BindAddress != "" {
		httpServer = &http.Server{
			Addr: config.BindAddress,
			Handler: &Server{
				Logger:  log.With("component", "server"),
				Headset: session,
			},
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("Starting HTTP server", "address", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server failed", "error", err)
				cancel()
			}
		}()
	}

	if sh != nil {
		sh.ctl = session
		sh.log = log
		session.Subscribe(sh.Observer())
		go sh.Run(ctx, cancel)
	}

	<-ctx.Done()
	log.Info("Shutting down")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to gracefully shutdown server", "error", err)
		}
	}

	// Loop closes the channel on its way out.
	<-loopDone
}

func newDialer(config *Config) headset.Dialer {
	if config.Transport == TransportSerial {
		return headset.SerialDialer{
			Port:     config.SerialPort,
			BaudRate: config.BaudRate,
			Channel:  uint8(config.Channel),
		}
	}
	return headset.RFCOMMDialer{
		Address: config.Address,
		Channel: uint8(config.Channel),
	}
}
