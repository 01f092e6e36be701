package main

import (
	"poseparty/internal/logging"
	"poseparty/internal/server"
)

func main() {
	if err := server.Run(); err != nil {
		l := logging.For("main")
		l.Fatal().Err(err).Msg("server stopped")
	}
}
