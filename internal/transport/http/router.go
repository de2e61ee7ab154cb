package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/httpx"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/jwtsigner"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/middleware"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/service"
)

type Deps struct {
	Registry  service.VoterRegistry
	Broker    service.AuthBroker
	Catalog   service.BallotCatalog
	Committer service.BallotCommitter
	Signer    *jwtsigner.Signer
	// Ready reports whether the backing store is reachable.
	Ready func(ctx context.Context) error
}

type Options struct {
	CORSOrigins    []string
	IPRateLimit    int // requests per minute; 0 disables
	HandlerTimeout time.Duration
}

func NewRouter(d Deps, o Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.WithRequestAndTrace)
	r.Use(chimw.Recoverer)
	if o.HandlerTimeout > 0 {
		r.Use(chimw.Timeout(o.HandlerTimeout))
	}
	if o.IPRateLimit > 0 {
		r.Use(httprate.LimitByIP(o.IPRateLimit, time.Minute))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsOrAny(o.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id", "X-Trace-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.WithMetrics)
	r.Use(httpx.LogRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if d.Signer != nil {
		r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"keys": []any{d.Signer.PublicJWK()}})
		})
	}

	h := &handlers{d: d}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/voters/lookup", h.lookupVoter)
		r.Post("/voters/register", h.registerVoter)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/identify", h.identify)
			r.Post("/biometric/register", h.enrollBiometric)
			r.Post("/biometric/challenge", h.beginBiometric)
			r.Post("/biometric/verify", h.finishBiometric)
			r.Post("/otp/send", h.sendOTP)
			r.Post("/otp/verify", h.verifyOTP)
		})

		r.Get("/catalog", h.catalog)
		r.Post("/ballots", h.submitBallot)
	})

	return r
}

// originsOrAny treats an empty allow-list as "*".
func originsOrAny(in []string) []string {
	if len(in) == 0 {
		return []string{"*"}
	}
	return in
}
