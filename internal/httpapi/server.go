package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"klipperwatch/internal/monitor"
	"klipperwatch/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	RequestMonitoring(conversationID string) (monitor.StartResult, error)
	CancelMonitoring(conversationID string) bool
	StatusReport(ctx context.Context) (string, error)
	Watches() []monitor.WatchInfo
	Watch(conversationID string) (monitor.WatchInfo, bool)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, access log, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	if corsEnabled {
		r.Use(corsMiddleware())
	}
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/monitors", func(w http.ResponseWriter, r *http.Request) {
		watches := svc.Watches()
		out := types.MonitorsResponse{Monitors: make([]types.Monitor, 0, len(watches))}
		for _, wi := range watches {
			out.Monitors = append(out.Monitors, toMonitor(wi))
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Route("/monitors/{conversationID}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			wi, ok := svc.Watch(chi.URLParam(r, "conversationID"))
			if !ok {
				writeJSONError(w, http.StatusNotFound, "no active monitor")
				return
			}
			writeJSON(w, http.StatusOK, toMonitor(wi))
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "conversationID")
			res, err := svc.RequestMonitoring(id)
			if err != nil {
				writeJSONError(w, statusForError(err), err.Error())
				return
			}
			resp := types.MonitorResponse{Result: types.ResultAlreadyActive}
			status := http.StatusOK
			if res == monitor.Started {
				resp.Result = types.ResultStarted
				status = http.StatusCreated
			}
			if wi, ok := svc.Watch(id); ok {
				resp.WatchID = wi.ID
			}
			monitorRequestsTotal.WithLabelValues(resp.Result).Inc()
			writeJSON(w, status, resp)
		})

		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			resp := types.MonitorResponse{Result: types.ResultNotActive}
			if svc.CancelMonitoring(chi.URLParam(r, "conversationID")) {
				resp.Result = types.ResultStopped
			}
			monitorRequestsTotal.WithLabelValues(resp.Result).Inc()
			writeJSON(w, http.StatusOK, resp)
		})
	})

	r.Get("/printer/status", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext(r)
		defer cancel()
		report, err := svc.StatusReport(ctx)
		if err != nil {
			// Client went away; nobody to answer.
			if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
				return
			}
			logger().Warn().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("status report failed")
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, types.StatusReportResponse{Report: report})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("shutting down"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

func toMonitor(wi monitor.WatchInfo) types.Monitor {
	return types.Monitor{
		ID:             wi.ID,
		ConversationID: wi.ConversationID,
		CreatedAt:      wi.CreatedAt,
		Ticks:          wi.Ticks,
	}
}
