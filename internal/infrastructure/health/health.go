package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

const readyTimeout = 2 * time.Second

func Livez(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type ReadyzChecker func(ctx context.Context) error

func Readyz(check ReadyzChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := check(ctx); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// Register mounts /livez and /readyz on mux.
func Register(mux *http.ServeMux, check ReadyzChecker) {
	mux.HandleFunc("/livez", Livez)
	mux.HandleFunc("/readyz", Readyz(check))
}

// All reports the first failing checker.
func All(checks ...ReadyzChecker) ReadyzChecker {
	return func(ctx context.Context) error {
		for _, c := range checks {
			if c == nil {
				continue
			}
			if err := c(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// ConfiguredChecker fails while a required upstream credential is missing.
// The gateway still serves requests in that state; calls fail on first use.
func ConfiguredChecker(name string, configured func() bool) ReadyzChecker {
	return func(context.Context) error {
		if configured == nil || !configured() {
			return fmt.Errorf("%s is not configured", name)
		}
		return nil
	}
}

// ServingChecker fails until a local listener reports it is accepting connections.
func ServingChecker(name string, serving func() bool) ReadyzChecker {
	return func(context.Context) error {
		if serving == nil || !serving() {
			return fmt.Errorf("%s is not serving", name)
		}
		return nil
	}
}

func GRPCReadyChecker(target string) ReadyzChecker {
	return func(ctx context.Context) error {
		conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return err
		}
		defer conn.Close()

		conn.Connect()
		for {
			state := conn.GetState()
			switch state {
			case connectivity.Ready:
				return nil
			case connectivity.Shutdown:
				return errors.New("grpc connection shut down")
			}
			if !conn.WaitForStateChange(ctx, state) {
				return fmt.Errorf("grpc target %s not ready: %s", target, state)
			}
		}
	}
}
