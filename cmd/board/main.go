// Command board runs the in-memory message board and announcement relay
// used for development. State is not persisted across restarts.
package main

import (
	"flag"
	"net/http"

	"github.com/sirupsen/logrus"

	"parley/internal/board"
)

func main() {
	listen := flag.String("listen", ":8080", "listen address")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	srv := board.NewServer(log)
	log.WithField("addr", *listen).Info("board listening")
	if err := http.ListenAndServe(*listen, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
