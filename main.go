package main

import (
	"Cmprssr/app"
	"log"
	"os"
	"time"
)

func main() {
	mainStartTime := time.Now()
	logger := log.New(os.Stderr, "[Cmprssr] ", log.LstdFlags|log.Lshortfile)
	logger.Printf("[MAIN] Program start")

	if err := app.Run(); err != nil {
		logger.Printf("[MAIN] App.Run() returned error after %v: %v", time.Since(mainStartTime), err)
		os.Exit(1)
	}

	logger.Printf("[MAIN] Program exit after %v", time.Since(mainStartTime))
}
