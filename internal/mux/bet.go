package mux

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func (m *Mux) getBetID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bet, err := m.floor.Bet(r.Context(), strings.ToLower(mux.Vars(r)["id"]))
		if err != nil {
			writeFloorError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bet)
	}
}

type postBetIDResolvePayload struct {
	Prize *int `json:"prize"`
}

func (m *Mux) postBetIDResolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pp postBetIDResolvePayload
		if !decodeRequest(w, r, &pp) {
			return
		}

		if pp.Prize == nil {
			writeJSONError(w, http.StatusBadRequest, errors.New("prize is required"))
			return
		}

		bet, err := m.floor.ResolveBet(r.Context(), strings.ToLower(mux.Vars(r)["id"]), *pp.Prize)
		if err != nil {
			writeFloorError(w, err)
			return
		}

		logrus.WithFields(logrus.Fields{
			"operator": operatorFromContext(r.Context()),
			"bet":      bet.ID,
			"prize":    bet.Prize,
		}).Info("bet resolved by operator")

		writeJSON(w, http.StatusOK, bet)
	}
}
