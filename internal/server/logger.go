package server

import (
	"os"

	"github.com/sadlil/gologger"
)

var Logger gologger.GoLogger

func SetLogger() {
	fileLog := os.Getenv("LOG_FILE")
	if fileLog == "" {
		Logger = gologger.GetLogger(gologger.CONSOLE, gologger.SimpleLog)
	} else {
		Logger = gologger.GetLogger(gologger.FILE, fileLog)
	}
	Logger.Info("Start program")
}
