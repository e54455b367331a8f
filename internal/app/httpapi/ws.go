package httpapi

import (
	"net/http"
)

// collabSocket upgrades the connection and hands it to the editing hub.
func (h *handler) collabSocket(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	h.hub.ServeWS(w, r, doc.ID, userID(r))
}

func (h *handler) collabParticipants(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.getScopedDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"participants": h.app.Collab.Participants(doc.ID),
	})
}
