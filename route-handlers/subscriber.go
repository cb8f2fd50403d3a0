package routehandlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mindfuel/dispatch/datastore"
	"github.com/mindfuel/dispatch/models"
	"github.com/mindfuel/dispatch/webutil"
)

type SubscriberHandler struct {
	Repo *datastore.SubscriberRepository
}

func NewSubscriberHandler(repo *datastore.SubscriberRepository) *SubscriberHandler {
	return &SubscriberHandler{Repo: repo}
}

func (h *SubscriberHandler) HandleGetSubscribers(w http.ResponseWriter, r *http.Request) error {
	subs, err := h.Repo.All(r.Context())
	if err != nil {
		return fmt.Errorf("failed to retrieve subscribers: %w", err)
	}
	if subs == nil {
		subs = []models.Subscriber{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, subs)
	return nil
}

// HandleUpsertSubscriber is the explicit provisioning operation: an
// idempotent upsert keyed on email address. Re-provisioning an existing
// subscriber is success, not a conflict.
func (h *SubscriberHandler) HandleUpsertSubscriber(w http.ResponseWriter, r *http.Request) error {
	var requestData struct {
		Email     string `json:"email"`
		Name      string `json:"name"`
		Status    string `json:"status"`
		Frequency string `json:"frequency"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	if requestData.Status == "" {
		requestData.Status = string(models.SubscriptionActive)
	}
	if requestData.Frequency == "" {
		requestData.Frequency = string(models.FrequencyDaily)
	}

	sub := models.Subscriber{
		Email:     requestData.Email,
		Name:      requestData.Name,
		Status:    models.SubscriptionStatus(requestData.Status),
		Frequency: models.Frequency(requestData.Frequency),
		CreatedAt: time.Now().UTC(),
	}
	if err := sub.Validate(); err != nil {
		return webutil.ErrBadRequestWrap("Invalid subscriber record: "+err.Error(), err)
	}

	if err := h.Repo.Upsert(r.Context(), &sub); err != nil {
		return fmt.Errorf("failed to upsert subscriber %s: %w", sub.Email, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, sub)
	return nil
}
