// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// gateway-probe connects to the gateway, identifies and streams decoded
// events to the log until interrupted. It drives the connection the way
// a session driver would: polling for events and heartbeating in between
// polls.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/panekj/serenity/gateway"
	"github.com/panekj/serenity/gateway/compressor"
	"github.com/panekj/serenity/gateway/wiremessage"
	"github.com/panekj/serenity/model"
	"github.com/panekj/serenity/secrets"
)

const (
	defaultGatewayURL = "wss://gateway.discord.gg"
	tokenEnvVar       = "DISCORD_TOKEN"
	helloTimeout      = 10 * time.Second
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

type probeOptions struct {
	token       string
	gatewayURL  string
	compression string
	intents     uint64
	verbose     bool
}

func rootCmd() *cobra.Command {
	var opts probeOptions

	cmd := &cobra.Command{
		Use:   "gateway-probe",
		Short: "Connect to the gateway and stream decoded events",
		Long: `gateway-probe opens a single gateway connection, identifies and logs
every decoded event until interrupted. It never reconnects, making it
useful for inspecting handshakes, close codes and transport compression
behavior.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.token, "token", "t", "",
		"Bot token (defaults to the "+tokenEnvVar+" environment variable)")
	cmd.Flags().StringVarP(&opts.gatewayURL, "url", "u", defaultGatewayURL,
		"Gateway base URL")
	cmd.Flags().StringVarP(&opts.compression, "compression", "c", compressor.ModeZlib.String(),
		"Transport compression: none, zlib-stream or zstd-stream")
	cmd.Flags().Uint64Var(&opts.intents, "intents", uint64(model.IntentsNonPrivileged()),
		"Gateway intent bitset")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable debug logging")

	return cmd
}

func runProbe(opts probeOptions) error {
	log := logrus.New()
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	token, err := resolveToken(opts.token)
	if err != nil {
		return err
	}

	mode, err := compressor.ParseMode(opts.compression)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	urlStr, err := gateway.BuildGatewayURL(opts.gatewayURL, mode)
	if err != nil {
		return err
	}

	conn, err := gateway.Connect(ctx, urlStr, mode,
		gateway.WithLogger(func(logrus.Ext1FieldLogger) logrus.Ext1FieldLogger { return log }))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(websocket.CloseNormalClosure, "") }()

	hello, err := waitForHello(ctx, conn)
	if err != nil {
		return err
	}
	log.WithField("heartbeat_interval", hello.HeartbeatInterval).Info("gateway said hello")

	identify := wiremessage.Identify{
		Token:    token.ExposeSecret(),
		Intents:  model.GatewayIntents(opts.intents),
		Presence: model.PresenceData{Status: model.StatusOnline},
	}
	if err := conn.SendIdentify(ctx, identify); err != nil {
		return err
	}

	return streamEvents(ctx, log, conn, hello.HeartbeatInterval)
}

func resolveToken(flagValue string) (secrets.Token, error) {
	if flagValue != "" {
		return secrets.ParseToken(flagValue)
	}
	return secrets.TokenFromEnv(tokenEnvVar)
}

// waitForHello polls until the server's opening Hello arrives. Anything
// else first means the handshake is broken.
func waitForHello(ctx context.Context, conn *gateway.Conn) (*wiremessage.HelloEvent, error) {
	deadline := time.Now().Add(helloTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		event, err := conn.ReadEvent(ctx)
		if err != nil {
			return nil, err
		}
		if event == nil {
			if time.Now().After(deadline) {
				return nil, gateway.ErrExpectedHello
			}
			continue
		}
		hello, ok := event.(*wiremessage.HelloEvent)
		if !ok {
			return nil, gateway.ErrExpectedHello
		}
		return hello, nil
	}
}

// streamEvents is the probe's session loop: heartbeat on the advertised
// interval and log every event in between. The bounded event poll is
// what keeps the heartbeat cadence honest while no events arrive.
func streamEvents(ctx context.Context, log *logrus.Logger, conn *gateway.Conn, heartbeatInterval time.Duration) error {
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	var lastSeq *int64
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case <-heartbeat.C:
			if err := conn.SendHeartbeat(ctx, lastSeq); err != nil {
				return fmt.Errorf("%w: %v", gateway.ErrHeartbeatFailed, err)
			}
		default:
		}

		event, err := conn.ReadEvent(ctx)
		if err != nil {
			var closed gateway.ClosedError
			if errors.As(err, &closed) {
				if cause := gateway.CloseCodeError(closed.Code); cause != nil {
					return cause
				}
				log.WithFields(logrus.Fields{"code": closed.Code, "text": closed.Text}).
					Info("gateway closed the connection")
				return nil
			}
			var connErr gateway.ConnectionError
			if errors.As(err, &connErr) {
				return err
			}
			log.WithError(err).Warn("discarding undecodable event")
			continue
		}
		if event == nil {
			continue
		}

		switch ev := event.(type) {
		case *wiremessage.DispatchEvent:
			seq := ev.Seq
			lastSeq = &seq
			log.WithFields(logrus.Fields{
				"seq":   ev.Seq,
				"type":  ev.Type,
				"bytes": len(ev.Raw),
			}).Info("dispatch")
			if log.IsLevelEnabled(logrus.DebugLevel) {
				log.Debugf("payload:\n%s", pretty.Pretty(ev.Data))
			}
		case *wiremessage.HeartbeatEvent:
			if err := conn.SendHeartbeat(ctx, lastSeq); err != nil {
				return fmt.Errorf("%w: %v", gateway.ErrHeartbeatFailed, err)
			}
		case *wiremessage.HeartbeatAckEvent:
			log.Debug("heartbeat acknowledged")
		case *wiremessage.ReconnectEvent:
			log.Info("gateway requested a reconnect")
			return nil
		case *wiremessage.InvalidSessionEvent:
			log.WithField("resumable", ev.Resumable).Info("session invalidated")
			return nil
		case *wiremessage.HelloEvent:
			log.Warn("unexpected hello after handshake")
		}
	}
}
