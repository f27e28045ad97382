// Package httpapi exposes the storefront REST API.
package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/dongnae-labs/storefront/internal/app"
	domainchat "github.com/dongnae-labs/storefront/internal/app/domain/chat"
	"github.com/dongnae-labs/storefront/internal/app/services/admin"
	"github.com/dongnae-labs/storefront/internal/app/services/auth"
	"github.com/dongnae-labs/storefront/internal/app/services/notify"
	"github.com/dongnae-labs/storefront/internal/app/services/relay"
	"github.com/dongnae-labs/storefront/internal/app/services/transcribe"
	"github.com/dongnae-labs/storefront/internal/errors"
	"github.com/dongnae-labs/storefront/internal/httputil"
	"github.com/dongnae-labs/storefront/internal/middleware"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

// Upload caps for voice audio and photo uploads.
const (
	maxAudioBytes       = 10 << 20
	maxImageUploadBytes = 10 << 20
)

// handler bundles the HTTP endpoints over the application services.
type handler struct {
	app *app.Application
	log *logger.Logger
}

// Config configures router construction.
type Config struct {
	AdminToken        string
	CORSOrigins       []string
	RateLimitPerSec   int
	RateLimitBurst    int
	DisableRateLimits bool
}

// NewRouter builds the full REST router with its middleware chain.
func NewRouter(application *app.Application, cfg Config, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := mux.NewRouter()
	r.Use(middleware.Logging(log))
	r.Use(middleware.Metrics(application.Metrics))
	r.Use(middleware.NewCORSMiddleware(cfg.CORSOrigins).Handler)
	if !cfg.DisableRateLimits {
		r.Use(middleware.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst, log).Handler)
	}

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", application.Metrics.Handler()).Methods(http.MethodGet)

	// Public surface.
	r.HandleFunc("/stores", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/stores/{id}", h.storefront).Methods(http.MethodGet)
	r.HandleFunc("/stores/{id}/images/{filename}", h.image).Methods(http.MethodGet)

	// Store session surface.
	storeAuth := middleware.NewStoreAuth(application.Auth, log)
	session := r.NewRoute().Subrouter()
	session.Use(storeAuth.Handler)
	session.HandleFunc("/stores/{id}/images", h.uploadImage).Methods(http.MethodPost)
	session.HandleFunc("/sessions", h.openSession).Methods(http.MethodPost)
	session.HandleFunc("/sessions/{sid}", h.getSession).Methods(http.MethodGet)
	session.HandleFunc("/sessions/{sid}", h.closeSession).Methods(http.MethodDelete)
	session.HandleFunc("/sessions/{sid}/messages", h.postMessage).Methods(http.MethodPost)
	session.HandleFunc("/sessions/{sid}/voice", h.postVoice).Methods(http.MethodPost)

	// Admin surface.
	adminAuth := middleware.NewAdminAuth(cfg.AdminToken, log)
	adm := r.PathPrefix("/admin").Subrouter()
	adm.Use(adminAuth.Handler)
	adm.HandleFunc("/stores", h.adminListStores).Methods(http.MethodGet)
	adm.HandleFunc("/stores/delete", h.adminRequestDelete).Methods(http.MethodPost)
	adm.HandleFunc("/stores/delete/confirm", h.adminConfirmDelete).Methods(http.MethodPost)
	adm.HandleFunc("/stores/delete/cancel", h.adminCancelDelete).Methods(http.MethodPost)
	adm.HandleFunc("/stores/{id}/password", h.adminSetPassword).Methods(http.MethodPut)
	adm.HandleFunc("/invitations", h.adminInvite).Methods(http.MethodPost)

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- registration and login --------------------------------------------------

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID              string `json:"id"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
		Name            string `json:"name"`
		Phone           string `json:"phone"`
		Info            string `json:"info"`
		MenuText        string `json:"menu_text"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	err := h.app.Auth.Register(r.Context(), auth.Registration{
		ID:            payload.ID,
		Secret:        payload.Password,
		SecretConfirm: payload.PasswordConfirm,
		Name:          payload.Name,
		Phone:         payload.Phone,
		Info:          payload.Info,
		MenuText:      payload.MenuText,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": payload.ID})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if payload.ID == "" || payload.Password == "" {
		httputil.WriteError(w, errors.Validation("id and password are required"))
		return
	}

	token, rec, err := h.app.Auth.Login(r.Context(), payload.ID, payload.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"store": rec.PublicView(),
	})
}

// --- storefront --------------------------------------------------------------

func (h *handler) storefront(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := h.app.Directory.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec.PublicView())
}

func (h *handler) image(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	data, err := h.app.Images.Open(filename)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	storeID := mux.Vars(r)["id"]
	if middleware.StoreID(r.Context()) != storeID {
		httputil.WriteError(w, errors.Unauthorized("token is not bound to this store"))
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		httputil.WriteError(w, errors.Validation("invalid multipart upload: "+err.Error()))
		return
	}
	formFile, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, errors.Validation("image file field is required"))
		return
	}
	defer formFile.Close()

	data, err := io.ReadAll(formFile)
	if err != nil {
		httputil.WriteError(w, errors.Internal("read upload", err))
		return
	}
	name, err := h.app.Images.Save(header.Filename, data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.app.Directory.AppendImages(r.Context(), storeID, []string{name}); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"filename": name})
}

// --- chat sessions -----------------------------------------------------------

func (h *handler) openSession(w http.ResponseWriter, r *http.Request) {
	storeID := middleware.StoreID(r.Context())
	if _, err := h.app.Directory.Get(r.Context(), storeID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	session := h.app.Sessions.Open(storeID)
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionForRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (h *handler) closeSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionForRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.app.Sessions.Close(session.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if payload.Text == "" {
		httputil.WriteError(w, errors.Validation("message text is required"))
		return
	}

	session, err := h.sessionForRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respondToUtterance(w, r, session.ID, session.StoreID, payload.Text, "")
}

func (h *handler) postVoice(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionForRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if h.app.Transcriber == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"recognized": false,
			"message":    "voice orders are not configured",
		})
		return
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		httputil.WriteError(w, errors.Internal("read audio", err))
		return
	}
	if len(audio) == 0 {
		httputil.WriteError(w, errors.Validation("audio body is required"))
		return
	}

	text, err := h.app.Transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		// Recognition failure is recovered, not fatal: the customer is
		// asked to retry.
		if err != transcribe.ErrNoResult {
			h.log.WithError(err).Warn("transcription failed")
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"recognized": false,
			"message":    "음성을 인식하지 못했습니다. 다시 시도해주세요.",
		})
		return
	}

	h.respondToUtterance(w, r, session.ID, session.StoreID, text, text)
}

// respondToUtterance runs one relay turn: append the utterance, generate the
// reply, and fire the order SMS when intent is detected.
func (h *handler) respondToUtterance(w http.ResponseWriter, r *http.Request, sessionID, storeID, utterance, recognized string) {
	rec, err := h.app.Directory.Get(r.Context(), storeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.app.Sessions.Append(sessionID, domainchat.Message{
		Role: domainchat.RoleCustomer, Content: utterance,
	}); err != nil {
		httputil.WriteError(w, err)
		return
	}

	reply := h.app.Relay.Respond(r.Context(), relay.StoreContext{
		Name:     rec.Name,
		MenuText: rec.MenuText,
	}, utterance)

	if err := h.app.Sessions.Append(sessionID, domainchat.Message{
		Role: domainchat.RoleAssistant, Content: reply.Text,
	}); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var sms *notify.Result
	if reply.IntentDetected {
		result := h.dispatchOrder(r, rec.Phone, utterance)
		sms = &result
	}

	response := map[string]interface{}{
		"reply":           reply.Text,
		"intent_detected": reply.IntentDetected,
	}
	if recognized != "" {
		response["recognized"] = true
		response["text"] = recognized
	}
	if sms != nil {
		response["sms"] = sms
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *handler) dispatchOrder(r *http.Request, phone, utterance string) notify.Result {
	if h.app.Dispatcher == nil {
		return notify.Result{Success: false, Reason: "sms provider not configured"}
	}
	return h.app.Dispatcher.Send(r.Context(), phone, fmt.Sprintf("[주문] %s", utterance))
}

// sessionForRequest loads the session and checks it belongs to the
// authenticated store.
func (h *handler) sessionForRequest(r *http.Request) (domainchat.Session, error) {
	sessionID := mux.Vars(r)["sid"]
	session, err := h.app.Sessions.Get(sessionID)
	if err != nil {
		return domainchat.Session{}, err
	}
	if session.StoreID != middleware.StoreID(r.Context()) {
		return domainchat.Session{}, errors.Unauthorized("session is not bound to this store")
	}
	return session, nil
}

// --- admin surface -----------------------------------------------------------

func (h *handler) adminListStores(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.app.Admin.ListStores(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stores": summaries,
		"count":  len(summaries),
	})
}

func (h *handler) adminRequestDelete(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	token, err := h.app.Admin.RequestDelete(payload.IDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"confirm_token": token,
		"ids":           payload.IDs,
	})
}

func (h *handler) adminConfirmDelete(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	ids, err := h.app.Admin.ConfirmDelete(r.Context(), payload.Token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	for _, id := range ids {
		h.app.Sessions.CloseStore(id)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"deleted": ids})
}

func (h *handler) adminCancelDelete(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.app.Admin.CancelDelete(payload.Token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) adminSetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
		Confirm  string `json:"password_confirm"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.app.Admin.SetPassword(r.Context(), id, payload.Password, payload.Confirm); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *handler) adminInvite(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Phone string `json:"phone"`
		Link  string `json:"link"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := admin.ValidatePhone(payload.Phone); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result := h.app.Admin.Invite(r.Context(), payload.Phone, payload.Link)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	httputil.WriteJSON(w, status, result)
}
