package app

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// Store backend names accepted in Config.Store.
const (
	StoreFile   = "file"
	StoreBadger = "badger"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home     string         // state directory, e.g. $HOME/.parley
	BoardURL string         // board base URL, empty for offline use
	Store    string         // blob store backend: "file" or "badger"
	HTTP     *http.Client   // optional; defaults to http.DefaultClient
	Log      *logrus.Logger // optional; defaults to a quiet logger
}
