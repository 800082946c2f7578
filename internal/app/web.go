package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/motion_analyzer/internal/config"
	"github.com/relabs-tech/motion_analyzer/internal/recording"
	"github.com/relabs-tech/motion_analyzer/internal/store"
)

const maxRecordingBytes = 64 << 20

// API serves analyses over HTTP and pushes new ones to websocket clients.
type API struct {
	svc   *Service
	store store.Store
	hub   *Hub
}

func NewAPI(svc *Service, st store.Store, hub *Hub) *API {
	return &API{svc: svc, store: st, hub: hub}
}

// Router registers every route.
func (a *API) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyses", a.CreateAnalysis).Methods("POST")
	api.HandleFunc("/analyses/{id}", a.GetAnalysis).Methods("GET")
	api.HandleFunc("/analyses/{id}/card.png", a.GetCard).Methods("GET")
	api.HandleFunc("/patients/{code}/analyses", a.ListPatientAnalyses).Methods("GET")

	router.HandleFunc("/ws", a.hub.ServeWS)
	router.PathPrefix("/").Handler(http.FileServer(http.Dir("web")))
	return router
}

// CreateAnalysis analyses the recording in the request body.
// POST /api/analyses?patient=P01&exercise=stomp
func (a *API) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRecordingBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	q := r.URL.Query()
	rec, err := a.svc.Analyze(r.Context(), body, q.Get("patient"), q.Get("exercise"), "http")
	if err != nil {
		var syntaxErr *json.SyntaxError
		switch {
		case errors.Is(err, recording.ErrUnrecognizedSchema),
			errors.Is(err, recording.ErrAmbiguousSchema),
			errors.Is(err, recording.ErrMissingField),
			errors.As(err, &syntaxErr):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("web: analysis failed: %v", err)
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		}
		return
	}

	a.publish(rec)
	respondJSON(w, http.StatusCreated, rec)
}

// GetAnalysis returns a stored analysis.
// GET /api/analyses/{id}
func (a *API) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// GetCard renders the analysis summary card.
// GET /api/analyses/{id}/card.png
func (a *API) GetCard(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := WriteCard(w, rec); err != nil {
		log.Printf("web: card encode error: %v", err)
	}
}

// ListPatientAnalyses returns a patient's analyses, newest first.
// GET /api/patients/{code}/analyses
func (a *API) ListPatientAnalyses(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	recs, err := a.store.ListByPatient(r.Context(), code)
	if err != nil {
		log.Printf("web: list analyses for %s: %v", code, err)
		respondError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"patient":  code,
		"count":    len(recs),
		"analyses": recs,
	})
}

func (a *API) lookup(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id := mux.Vars(r)["id"]
	rec, err := a.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "analysis not found")
		return nil, false
	}
	if err != nil {
		log.Printf("web: get analysis %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load analysis")
		return nil, false
	}
	return rec, true
}

func (a *API) publish(rec *store.Record) {
	msg, err := json.Marshal(rec)
	if err != nil {
		log.Printf("web: json marshal error: %v", err)
		return
	}
	a.hub.Broadcast(msg)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"error":  message,
		"status": status,
	})
}

// RunWeb serves the HTTP API. Analyses published by the MQTT analyzer are
// relayed to websocket clients when the broker is reachable.
func RunWeb() error {
	cfg := config.Get()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := NewHub()
	go hub.Run(ctx)

	api := NewAPI(NewService(cfg.PipelineOptions(), st), st, hub)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDAnalyzer + "-web")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("web: MQTT unavailable, analyzer results will not be relayed: %v", token.Error())
	} else {
		defer client.Disconnect(250)
		token := client.Subscribe(cfg.TopicAnalysis, 0, func(_ mqtt.Client, msg mqtt.Message) {
			hub.Broadcast(msg.Payload())
		})
		if token.Wait() && token.Error() != nil {
			return token.Error()
		}
		log.Printf("web: relaying %s to websocket clients", cfg.TopicAnalysis)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("web: server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	log.Println("web: shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
