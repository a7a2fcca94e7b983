package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ecs-service-connect/internal/logging"
)

const defaultPort = "3001"

func getRoot(w http.ResponseWriter, r *http.Request) {
	slog.Debug("health check")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK!"))
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", getRoot)
	return mux
}

// healthcheck probes the local server; the container health check runs it
// because the image ships no shell or curl.
func healthcheck(url string) error {
	client := &http.Client{Timeout: 4 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func main() {
	logging.Init(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := healthcheck("http://localhost:" + port + "/"); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	slog.Info("Running on port :" + port + "...")
	err := http.ListenAndServe(":"+port, newMux())
	if errors.Is(err, http.ErrServerClosed) {
		slog.Info("server closed")
	} else if err != nil {
		slog.Error("error starting server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
