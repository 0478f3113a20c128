package main

import (
	"errors"

	"github.com/danmuck/xhrcomm/internal/protocol"
	"github.com/danmuck/xhrcomm/internal/server"
	"github.com/rs/zerolog/log"
)

func registerHandlers(srv *server.Server) {
	srv.OnConnect(func(sess *server.Session) {
		log.Info().Str("id", sess.ID).Str("ns", sess.Namespace).Msg("client connected")
	})

	srv.Handle("echo", func(sess *server.Session, args protocol.Args) error {
		sess.Emit("echo", args...)
		return nil
	})

	srv.Handle("ping", func(sess *server.Session, args protocol.Args) error {
		sess.Emit("pong", args...)
		return nil
	})

	srv.Handle("broadcast", func(_ *server.Session, args protocol.Args) error {
		name, ok := args.String(0)
		if !ok || name == "" || protocol.IsReserved(name) {
			return errBadBroadcast
		}
		n := srv.Broadcast(name, args[1:]...)
		log.Debug().Str("event", name).Int("sessions", n).Msg("broadcast")
		return nil
	})

	srv.Handle("quit", func(sess *server.Session, _ protocol.Args) error {
		sess.Disconnect()
		return nil
	})
}

var errBadBroadcast = errors.New("commd: broadcast needs a non-reserved event name")
